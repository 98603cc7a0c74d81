package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Skotchmaster/localshop/internal/catalog"
	"github.com/Skotchmaster/localshop/internal/domain"
	"github.com/Skotchmaster/localshop/internal/events"
	"github.com/Skotchmaster/localshop/internal/models"
	"github.com/Skotchmaster/localshop/internal/state"
	"github.com/Skotchmaster/localshop/internal/storage"
	"github.com/Skotchmaster/localshop/pkg/logging"
)

var (
	ErrValidation = domain.ErrValidation
	ErrNotFound   = domain.ErrNotFound
)

// ProductInput is the add-product form. Tags are comma separated and images
// one URL per line, as typed by the operator.
type ProductInput struct {
	SKU                 string  `json:"sku" validate:"required"`
	Name                string  `json:"name"`
	Description         string  `json:"description"`
	DetailedDescription string  `json:"detailedDescription"`
	Price               float64 `json:"price" validate:"gte=0"`
	Discount            float64 `json:"discount" validate:"gte=0,lte=100"`
	Stock               int     `json:"stock" validate:"gte=0"`
	Status              string  `json:"status" validate:"omitempty,oneof=active inactive"`
	Category            string  `json:"category"`
	Subcategory         string  `json:"subcategory"`
	Brand               string  `json:"brand"`
	Tags                string  `json:"tags"`
	Images              string  `json:"images"`
	Thumbnail           string  `json:"thumbnail"`
	Rating              float64 `json:"rating" validate:"gte=0,lte=5"`
	Reviews             int     `json:"reviews" validate:"gte=0"`
}

// ProductPatch is the edit-product form. A nil field is left alone; an empty
// string clears an optional text field.
type ProductPatch struct {
	SKU                 *string  `json:"sku" validate:"omitempty,min=1"`
	Name                *string  `json:"name"`
	Description         *string  `json:"description"`
	DetailedDescription *string  `json:"detailedDescription"`
	Price               *float64 `json:"price" validate:"omitempty,gte=0"`
	Discount            *float64 `json:"discount" validate:"omitempty,gte=0,lte=100"`
	Stock               *int     `json:"stock" validate:"omitempty,gte=0"`
	Status              *string  `json:"status" validate:"omitempty,oneof=active inactive"`
	Category            *string  `json:"category"`
	Subcategory         *string  `json:"subcategory"`
	Brand               *string  `json:"brand"`
	Tags                *string  `json:"tags"`
	Specifications      *string  `json:"specifications"`
	Images              *string  `json:"images"`
	Thumbnail           *string  `json:"thumbnail"`
	VideoURL            *string  `json:"videoUrl"`
	VideoThumbnail      *string  `json:"videoThumbnail"`
	Rating              *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Reviews             *int     `json:"reviews" validate:"omitempty,gte=0"`
	IsFeatured          *bool    `json:"isFeatured"`
	Weight              *string  `json:"weight"`
	Dimensions          *string  `json:"dimensions"`
	Warranty            *string  `json:"warranty"`
}

type Service struct {
	State   *state.State
	Events  events.Publisher
	Catalog *catalog.Service

	validate *validator.Validate
}

func NewService(st *state.State, pub events.Publisher, cat *catalog.Service) *Service {
	return &Service{State: st, Events: pub, Catalog: cat, validate: validator.New()}
}

func (s *Service) check(v any) error {
	if s.validate == nil {
		s.validate = validator.New()
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	return nil
}

// refresh re-runs the storefront criteria after a catalog change.
func (s *Service) refresh() {
	if s.Catalog != nil {
		s.Catalog.Refresh()
	}
}

func (s *Service) emitProduct(ctx context.Context, typ string, p models.Product) {
	ev := events.Event{Type: typ, ProductID: p.ID, Status: string(p.Status), At: s.State.Now()}
	if typ != events.ProductDeleted {
		ev.Product = &p
	}
	events.Emit(ctx, s.Events, ev)
}

func (s *Service) AddProduct(ctx context.Context, in ProductInput) (models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "admin")

	if err := s.check(in); err != nil {
		l.Warn("add_product_failed", "reason", "validation", "error", err)
		return models.Product{}, err
	}

	var created models.Product
	err := s.State.Mutate(ctx, func(d *state.Data) error {
		images := models.ParseImages(in.Images)
		p := models.Product{
			ID:                  nextProductID(d),
			SKU:                 strings.TrimSpace(in.SKU),
			Name:                in.Name,
			Description:         in.Description,
			DetailedDescription: in.DetailedDescription,
			Price:               in.Price,
			Discount:            in.Discount,
			Stock:               in.Stock,
			Status:              models.ProductStatus(in.Status),
			Category:            strings.TrimSpace(in.Category),
			Subcategory:         in.Subcategory,
			Brand:               in.Brand,
			Tags:                models.ParseTags(in.Tags),
			Images:              images,
			Thumbnail:           in.Thumbnail,
			Image:               models.DeriveImage(images, in.Thumbnail, in.Name),
			Rating:              in.Rating,
			Reviews:             in.Reviews,
			CreatedAt:           models.FormatDate(s.State.Now()),
		}
		if p.Status == "" {
			p.Status = models.ProductActive
		}
		if p.Category == "" {
			p.Category = models.DefaultCategory
		}
		d.Products = append(d.Products, p)
		created = p.Clone()
		return nil
	}, storage.Products)
	if err != nil {
		l.Error("add_product_failed", "error", err)
		return models.Product{}, err
	}

	l.Info("product_added", "product_id", created.ID, "sku", created.SKU)
	s.refresh()
	s.emitProduct(ctx, events.ProductCreated, created)
	return created, nil
}

func nextProductID(d *state.Data) int {
	max := 0
	for i := range d.Products {
		if d.Products[i].ID > max {
			max = d.Products[i].ID
		}
	}
	return max + 1
}

func (s *Service) EditProduct(ctx context.Context, id int, patch ProductPatch) (models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "admin")

	if err := s.check(patch); err != nil {
		l.Warn("edit_product_failed", "product_id", id, "reason", "validation", "error", err)
		return models.Product{}, err
	}

	var updated models.Product
	err := s.State.Mutate(ctx, func(d *state.Data) error {
		p := d.FindProduct(id)
		if p == nil {
			return fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		applyPatch(p, patch, l)
		updated = p.Clone()
		return nil
	}, storage.Products)
	if err != nil {
		l.Warn("edit_product_failed", "product_id", id, "error", err)
		return models.Product{}, err
	}

	l.Info("product_updated", "product_id", id)
	s.refresh()
	s.emitProduct(ctx, events.ProductUpdated, updated)
	return updated, nil
}

func applyPatch(p *models.Product, in ProductPatch, l *slog.Logger) {
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setString(&p.SKU, in.SKU)
	setString(&p.Name, in.Name)
	setString(&p.Description, in.Description)
	setString(&p.DetailedDescription, in.DetailedDescription)
	setString(&p.Subcategory, in.Subcategory)
	setString(&p.Brand, in.Brand)
	setString(&p.Weight, in.Weight)
	setString(&p.Dimensions, in.Dimensions)
	setString(&p.Warranty, in.Warranty)

	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
		if p.Category == "" {
			p.Category = models.DefaultCategory
		}
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Discount != nil {
		p.Discount = *in.Discount
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Status != nil {
		p.Status = models.ProductStatus(*in.Status)
	}
	if in.Rating != nil {
		p.Rating = *in.Rating
	}
	if in.Reviews != nil {
		p.Reviews = *in.Reviews
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if in.Tags != nil {
		p.Tags = models.ParseTags(*in.Tags)
	}
	if in.Specifications != nil {
		p.Specifications = parseSpecs(*in.Specifications, l)
	}

	media := false
	if in.Images != nil {
		p.Images = models.ParseImages(*in.Images)
		media = true
	}
	if in.Thumbnail != nil {
		p.Thumbnail = strings.TrimSpace(*in.Thumbnail)
		media = true
	}
	if media {
		switch {
		case len(p.Images) > 0:
			p.Image = p.Images[0]
		case p.Thumbnail != "":
			p.Image = p.Thumbnail
		}
	}

	if in.VideoURL != nil {
		url := strings.TrimSpace(*in.VideoURL)
		if url == "" {
			p.Video = nil
		} else {
			v := &models.Video{URL: url}
			if in.VideoThumbnail != nil {
				v.Thumbnail = strings.TrimSpace(*in.VideoThumbnail)
			} else if p.Video != nil {
				v.Thumbnail = p.Video.Thumbnail
			}
			p.Video = v
		}
	} else if in.VideoThumbnail != nil && p.Video != nil {
		p.Video.Thumbnail = strings.TrimSpace(*in.VideoThumbnail)
	}
}

// parseSpecs reads the specifications JSON typed by the operator. Anything
// unparsable yields empty specifications.
func parseSpecs(text string, l *slog.Logger) map[string]models.SpecValue {
	text = strings.TrimSpace(text)
	if text == "" {
		return map[string]models.SpecValue{}
	}
	var specs map[string]models.SpecValue
	if err := json.Unmarshal([]byte(text), &specs); err != nil {
		l.Warn("specifications_invalid", "error", err)
		return map[string]models.SpecValue{}
	}
	if specs == nil {
		specs = map[string]models.SpecValue{}
	}
	return specs
}

func (s *Service) ToggleStatus(ctx context.Context, id int) (models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "admin")

	var updated models.Product
	err := s.State.Mutate(ctx, func(d *state.Data) error {
		p := d.FindProduct(id)
		if p == nil {
			return fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		if p.IsActive() {
			p.Status = models.ProductInactive
		} else {
			p.Status = models.ProductActive
		}
		updated = p.Clone()
		return nil
	}, storage.Products)
	if err != nil {
		l.Warn("toggle_product_failed", "product_id", id, "error", err)
		return models.Product{}, err
	}

	l.Info("product_status_toggled", "product_id", id, "status", updated.Status)
	s.refresh()
	s.emitProduct(ctx, events.ProductStatusToggled, updated)
	return updated, nil
}

// DeleteProduct removes the product from the catalog. Orders keep their
// snapshots and cart lines are not touched.
func (s *Service) DeleteProduct(ctx context.Context, id int) error {
	l := logging.FromContext(ctx).With("svc", "admin")

	var removed models.Product
	err := s.State.Mutate(ctx, func(d *state.Data) error {
		i := d.ProductIndex(id)
		if i < 0 {
			return fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		removed = d.Products[i]
		d.Products = append(d.Products[:i], d.Products[i+1:]...)
		return nil
	}, storage.Products)
	if err != nil {
		l.Warn("delete_product_failed", "product_id", id, "error", err)
		return err
	}

	l.Info("product_deleted", "product_id", id)
	s.refresh()
	s.emitProduct(ctx, events.ProductDeleted, removed)
	return nil
}

// Product returns any product, active or not.
func (s *Service) Product(id int) (models.Product, error) {
	var (
		out   models.Product
		found bool
	)
	s.State.View(func(d *state.Data) {
		if p := d.FindProduct(id); p != nil {
			out, found = p.Clone(), true
		}
	})
	if !found {
		return models.Product{}, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return out, nil
}
