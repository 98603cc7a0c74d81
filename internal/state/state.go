// Package state owns the in-memory copy of every collection and keeps it in
// step with the store. All writes go through Mutate.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Skotchmaster/localshop/internal/models"
	"github.com/Skotchmaster/localshop/internal/storage"
	"github.com/Skotchmaster/localshop/internal/util"
)

const DefaultPageSize = util.DefaultPageSize

type Data struct {
	Products    []models.Product
	Orders      []models.Order
	Users       []models.User
	Cart        []models.CartItem
	CurrentUser *models.User
}

func (d *Data) Clone() Data {
	out := Data{
		Products:    make([]models.Product, len(d.Products)),
		Orders:      make([]models.Order, len(d.Orders)),
		Users:       make([]models.User, len(d.Users)),
		Cart:        make([]models.CartItem, len(d.Cart)),
		CurrentUser: d.CurrentUser.Clone(),
	}
	for i := range d.Products {
		out.Products[i] = d.Products[i].Clone()
	}
	for i := range d.Orders {
		out.Orders[i] = d.Orders[i].Clone()
	}
	copy(out.Users, d.Users)
	copy(out.Cart, d.Cart)
	return out
}

func (d *Data) ProductIndex(id int) int {
	for i := range d.Products {
		if d.Products[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *Data) FindProduct(id int) *models.Product {
	if i := d.ProductIndex(id); i >= 0 {
		return &d.Products[i]
	}
	return nil
}

func (d *Data) OrderIndex(id string) int {
	for i := range d.Orders {
		if d.Orders[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *Data) FindUser(id int64) *models.User {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i]
		}
	}
	return nil
}

// Session is the per-process browsing cursor. It is not persisted.
type Session struct {
	Page      int
	PageSize  int
	ProductID int
	Visible   []int
}

type State struct {
	mu      sync.RWMutex
	data    Data
	session Session

	cols *storage.Collections
	now  func() time.Time
	log  *slog.Logger
}

type Option func(*State)

func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

// WithPageSize sets the browsing page size, capped at util.MaxPageSize.
func WithPageSize(n int) Option {
	return func(s *State) {
		switch {
		case n > util.MaxPageSize:
			s.session.PageSize = util.MaxPageSize
		case n > 0:
			s.session.PageSize = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *State) { s.log = l }
}

func New(cols *storage.Collections, opts ...Option) *State {
	s := &State{
		cols:    cols,
		now:     time.Now,
		log:     slog.Default(),
		session: Session{Page: 1, PageSize: DefaultPageSize},
		data: Data{
			Products: []models.Product{},
			Orders:   []models.Order{},
			Users:    []models.User{},
			Cart:     []models.CartItem{},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "state")
	return s
}

func (s *State) Now() time.Time { return s.now() }

func (s *State) Collections() *storage.Collections { return s.cols }

// Hydrate reads every collection. An empty catalog is seeded and written back
// straight away. A backend read failure aborts before anything is written.
func (s *State) Hydrate(ctx context.Context) error {
	var (
		d   Data
		err error
	)
	if d.Products, err = s.cols.LoadProducts(ctx); err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}
	if d.Orders, err = s.cols.LoadOrders(ctx); err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}
	if d.Users, err = s.cols.LoadUsers(ctx); err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}
	if d.Cart, err = s.cols.LoadCart(ctx); err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}
	if d.CurrentUser, err = s.cols.LoadCurrentUser(ctx); err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}

	if len(d.Products) == 0 {
		d.Products = models.SeedCatalog()
		for i := range d.Products {
			models.NormalizeProduct(&d.Products[i])
		}
		if err := s.cols.SaveProducts(ctx, d.Products); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		s.log.Info("catalog_seeded", "products", len(d.Products))
	}

	s.mu.Lock()
	s.data = d
	s.mu.Unlock()

	s.log.Info("state_hydrated",
		"products", len(d.Products),
		"orders", len(d.Orders),
		"users", len(d.Users),
		"cart_lines", len(d.Cart),
		"logged_in", d.CurrentUser != nil,
	)
	return nil
}

// View runs fn against the live data under a read lock. fn must not keep
// references past its return.
func (s *State) View(fn func(d *Data)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.data)
}

func (s *State) Snapshot() Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// Mutate applies fn to a copy of the data and persists the touched
// collections. The copy replaces the live data only when fn succeeds and
// every write goes through; on a failed write the collections already
// written are put back.
func (s *State) Mutate(ctx context.Context, fn func(d *Data) error, touched ...storage.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.data.Clone()
	if err := fn(&next); err != nil {
		return err
	}

	written := make([]storage.Collection, 0, len(touched))
	for _, name := range touched {
		if err := s.persist(ctx, &next, name); err != nil {
			s.rollback(ctx, written)
			return fmt.Errorf("persist: %w", err)
		}
		written = append(written, name)
	}

	s.data = next
	return nil
}

func (s *State) rollback(ctx context.Context, written []storage.Collection) {
	for _, name := range written {
		if err := s.persist(ctx, &s.data, name); err != nil {
			s.log.Error("rollback_failed", "collection", name, "error", err)
		}
	}
}

func (s *State) persist(ctx context.Context, d *Data, name storage.Collection) error {
	switch name {
	case storage.Products:
		return s.cols.SaveProducts(ctx, d.Products)
	case storage.Orders:
		return s.cols.SaveOrders(ctx, d.Orders)
	case storage.Users:
		return s.cols.SaveUsers(ctx, d.Users)
	case storage.Cart:
		return s.cols.SaveCart(ctx, d.Cart)
	case storage.CurrentUser:
		return s.cols.SaveCurrentUser(ctx, d.CurrentUser)
	}
	return errors.New("unknown collection " + string(name))
}

func (s *State) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.CurrentUser.Clone()
}

// Session returns a copy of the browsing cursor.
func (s *State) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.session
	out.Visible = append([]int(nil), s.session.Visible...)
	return out
}

// UpdateSession edits the cursor under the lock together with a read-only
// view of the data.
func (s *State) UpdateSession(fn func(sess *Session, d *Data)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.session, &s.data)
}
