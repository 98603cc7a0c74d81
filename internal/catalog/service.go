package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Skotchmaster/localshop/internal/domain"
	"github.com/Skotchmaster/localshop/internal/models"
	"github.com/Skotchmaster/localshop/internal/state"
	"github.com/Skotchmaster/localshop/internal/util"
)

var ErrNotFound = domain.ErrNotFound

const DefaultRelatedLimit = 4

type Page struct {
	Items    []models.Product `json:"data"`
	Meta     util.Meta        `json:"meta"`
	Criteria Criteria         `json:"criteria"`
}

// Service is the storefront's browsing session: the active criteria, the
// visible set they produce and the page cursor over it.
type Service struct {
	State *state.State

	mu       sync.Mutex
	criteria Criteria
}

func NewService(st *state.State) *Service {
	s := &Service{State: st}
	s.Refresh()
	return s
}

func (s *Service) Criteria() Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

// Apply stores the criteria, recomputes the visible set and goes back to the
// first page.
func (s *Service) Apply(c Criteria) Page {
	s.mu.Lock()
	s.criteria = c.Normalized()
	crit := s.criteria
	s.mu.Unlock()

	s.State.UpdateSession(func(sess *state.Session, d *state.Data) {
		sess.Visible = visibleIDs(d.Products, crit)
		sess.Page = 1
	})
	return s.CurrentPage()
}

// Refresh re-runs the stored criteria against the current catalog and keeps
// the cursor inside the new page range.
func (s *Service) Refresh() Page {
	crit := s.Criteria()
	s.State.UpdateSession(func(sess *state.Session, d *state.Data) {
		sess.Visible = visibleIDs(d.Products, crit)
		last := util.TotalPages(len(sess.Visible), sess.PageSize)
		if sess.Page > last {
			sess.Page = last
		}
		if sess.Page < 1 {
			sess.Page = 1
		}
	})
	return s.CurrentPage()
}

// ChangePage moves the cursor by delta; targets outside 1..last are ignored.
func (s *Service) ChangePage(delta int) Page {
	s.State.UpdateSession(func(sess *state.Session, _ *state.Data) {
		target := sess.Page + delta
		last := util.TotalPages(len(sess.Visible), sess.PageSize)
		if target >= 1 && target <= last {
			sess.Page = target
		}
	})
	return s.CurrentPage()
}

func (s *Service) CurrentPage() Page {
	crit := s.Criteria()
	sess := s.State.Session()

	var visible []models.Product
	s.State.View(func(d *state.Data) {
		visible = make([]models.Product, 0, len(sess.Visible))
		for _, id := range sess.Visible {
			p := d.FindProduct(id)
			if p == nil || (!crit.IncludeInactive && !p.IsActive()) {
				continue
			}
			visible = append(visible, p.Clone())
		}
	})

	items, meta := util.Window(visible, sess.Page, sess.PageSize)
	return Page{Items: items, Meta: meta, Criteria: crit}
}

// Query runs criteria without touching the session cursor.
func (s *Service) Query(c Criteria, page, size int) Page {
	var matched []models.Product
	s.State.View(func(d *state.Data) {
		matched = cloneAll(Filter(d.Products, c))
	})
	items, meta := util.Window(matched, page, size)
	return Page{Items: items, Meta: meta, Criteria: c.Normalized()}
}

// Product is the customer view: inactive products are not found.
func (s *Service) Product(id int) (models.Product, error) {
	var (
		out   models.Product
		found bool
	)
	s.State.View(func(d *state.Data) {
		if p := d.FindProduct(id); p != nil && p.IsActive() {
			out, found = p.Clone(), true
		}
	})
	if !found {
		return models.Product{}, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return out, nil
}

// SelectProduct opens the detail view for id.
func (s *Service) SelectProduct(id int) (models.Product, error) {
	p, err := s.Product(id)
	if err != nil {
		return models.Product{}, err
	}
	s.State.UpdateSession(func(sess *state.Session, _ *state.Data) {
		sess.ProductID = id
	})
	return p, nil
}

// SelectedProduct reports the product of the open detail view, if any.
func (s *Service) SelectedProduct() (models.Product, bool) {
	id := s.State.Session().ProductID
	if id == 0 {
		return models.Product{}, false
	}
	p, err := s.Product(id)
	return p, err == nil
}

// Related lists active products sharing the category or a tag with id.
func (s *Service) Related(id, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	base, err := s.Product(id)
	if err != nil {
		return nil, err
	}

	out := []models.Product{}
	s.State.View(func(d *state.Data) {
		for i := range d.Products {
			p := &d.Products[i]
			if p.ID == base.ID || !p.IsActive() {
				continue
			}
			if p.Category == base.Category || sharesTag(p, &base) {
				out = append(out, p.Clone())
				if len(out) == limit {
					return
				}
			}
		}
	})
	return out, nil
}

// Categories lists the distinct categories of active products in catalog
// order.
func (s *Service) Categories() []string {
	out := []string{}
	seen := map[string]struct{}{}
	s.State.View(func(d *state.Data) {
		for i := range d.Products {
			p := &d.Products[i]
			if !p.IsActive() {
				continue
			}
			if _, ok := seen[p.Category]; ok {
				continue
			}
			seen[p.Category] = struct{}{}
			out = append(out, p.Category)
		}
	})
	return out
}

// Tags lists the distinct lowercase tags of active products, sorted.
func (s *Service) Tags() []string {
	seen := map[string]struct{}{}
	s.State.View(func(d *state.Data) {
		for i := range d.Products {
			if !d.Products[i].IsActive() {
				continue
			}
			for _, t := range d.Products[i].Tags {
				seen[strings.ToLower(t)] = struct{}{}
			}
		}
	})
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func visibleIDs(products []models.Product, c Criteria) []int {
	matched := Filter(products, c)
	ids := make([]int, len(matched))
	for i := range matched {
		ids[i] = matched[i].ID
	}
	return ids
}

func sharesTag(a, b *models.Product) bool {
	for _, t := range a.Tags {
		if b.HasTag(t) {
			return true
		}
	}
	return false
}

func cloneAll(in []models.Product) []models.Product {
	out := make([]models.Product, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
