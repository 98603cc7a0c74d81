// Package cart manages the current user's cart and turns it into an order.
package cart

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/localshop/internal/domain"
	"github.com/Skotchmaster/localshop/internal/events"
	"github.com/Skotchmaster/localshop/internal/models"
	"github.com/Skotchmaster/localshop/internal/order"
	"github.com/Skotchmaster/localshop/internal/state"
	"github.com/Skotchmaster/localshop/internal/storage"
	"github.com/Skotchmaster/localshop/pkg/logging"
)

var (
	ErrUnauthorized      = domain.ErrUnauthorized
	ErrNotFound          = domain.ErrNotFound
	ErrUnavailable       = domain.ErrUnavailable
	ErrOutOfStock        = domain.ErrOutOfStock
	ErrInsufficientStock = domain.ErrInsufficientStock
	ErrEmptyCart         = domain.ErrEmptyCart
)

type Service struct {
	State  *state.State
	Events events.Publisher
}

func NewService(st *state.State, pub events.Publisher) *Service {
	return &Service{State: st, Events: pub}
}

func lineIndex(d *state.Data, userID int64, productID int) int {
	for i := range d.Cart {
		if d.Cart[i].UserID == userID && d.Cart[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func currentUserID(d *state.Data) (int64, error) {
	if d.CurrentUser == nil {
		return 0, ErrUnauthorized
	}
	return d.CurrentUser.ID, nil
}

// AddItem puts qty units of a product in the cart, merging with an existing
// line. The merged quantity must fit the current stock.
func (s *Service) AddItem(ctx context.Context, productID, qty int) (models.CartItem, error) {
	l := logging.FromContext(ctx).With("svc", "cart")
	if qty < 1 {
		qty = 1
	}

	var (
		line   models.CartItem
		userID int64
	)
	err := s.State.Mutate(ctx, func(d *state.Data) error {
		uid, err := currentUserID(d)
		if err != nil {
			return err
		}
		userID = uid

		p := d.FindProduct(productID)
		switch {
		case p == nil:
			return fmt.Errorf("product %d: %w", productID, ErrNotFound)
		case !p.IsActive():
			return fmt.Errorf("product %d: %w", productID, ErrUnavailable)
		case !p.InStock():
			return fmt.Errorf("product %d: %w", productID, ErrOutOfStock)
		}

		i := lineIndex(d, uid, productID)
		existing := 0
		if i >= 0 {
			existing = d.Cart[i].Quantity
		}
		if existing+qty > p.Stock {
			return fmt.Errorf("product %d: only %d available, %d in cart: %w", productID, p.Stock, existing, ErrInsufficientStock)
		}

		if i >= 0 {
			d.Cart[i].Quantity += qty
			line = d.Cart[i]
			return nil
		}
		line = models.CartItem{
			UserID:    uid,
			ProductID: p.ID,
			Quantity:  qty,
			Price:     p.EffectivePrice(),
			Name:      p.Name,
			Image:     p.DisplayImage(),
			SKU:       p.SKU,
		}
		d.Cart = append(d.Cart, line)
		return nil
	}, storage.Cart)
	if err != nil {
		l.Warn("add_to_cart_failed", "product_id", productID, "quantity", qty, "error", err)
		return models.CartItem{}, err
	}

	l.Info("item_added_to_cart", "product_id", productID, "quantity", line.Quantity)
	events.Emit(ctx, s.Events, events.Event{
		Type:      events.CartItemAdded,
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
		At:        s.State.Now(),
	})
	return line, nil
}

// UpdateQuantity changes a line by delta. Dropping below one removes the
// line; going over stock, or growing a line whose product is gone, is
// rejected and leaves the line alone. The returned
// bool reports whether the line was removed.
func (s *Service) UpdateQuantity(ctx context.Context, productID, delta int) (models.CartItem, bool, error) {
	l := logging.FromContext(ctx).With("svc", "cart")

	var (
		line    models.CartItem
		removed bool
		userID  int64
	)
	err := s.State.Mutate(ctx, func(d *state.Data) error {
		uid, err := currentUserID(d)
		if err != nil {
			return err
		}
		userID = uid

		i := lineIndex(d, uid, productID)
		if i < 0 {
			return fmt.Errorf("cart line for product %d: %w", productID, ErrNotFound)
		}
		next := d.Cart[i].Quantity + delta
		if next < 1 {
			line = d.Cart[i]
			d.Cart = append(d.Cart[:i], d.Cart[i+1:]...)
			removed = true
			return nil
		}
		p := d.FindProduct(productID)
		switch {
		case p == nil && delta > 0:
			return fmt.Errorf("product %d: %w", productID, ErrNotFound)
		case p != nil && next > p.Stock:
			return fmt.Errorf("product %d: only %d available: %w", productID, p.Stock, ErrInsufficientStock)
		}
		d.Cart[i].Quantity = next
		line = d.Cart[i]
		return nil
	}, storage.Cart)
	if err != nil {
		l.Warn("update_cart_failed", "product_id", productID, "delta", delta, "error", err)
		return models.CartItem{}, false, err
	}

	typ := events.CartItemUpdated
	if removed {
		typ = events.CartItemRemoved
	}
	events.Emit(ctx, s.Events, events.Event{
		Type:      typ,
		UserID:    userID,
		ProductID: productID,
		Quantity:  line.Quantity,
		At:        s.State.Now(),
	})
	return line, removed, nil
}

// RemoveItem drops the line for productID; a missing line is not an error.
func (s *Service) RemoveItem(ctx context.Context, productID int) error {
	var (
		userID  int64
		removed bool
	)
	err := s.State.Mutate(ctx, func(d *state.Data) error {
		uid, err := currentUserID(d)
		if err != nil {
			return err
		}
		userID = uid
		if i := lineIndex(d, uid, productID); i >= 0 {
			d.Cart = append(d.Cart[:i], d.Cart[i+1:]...)
			removed = true
		}
		return nil
	}, storage.Cart)
	if err != nil {
		return err
	}

	if removed {
		events.Emit(ctx, s.Events, events.Event{
			Type:      events.CartItemRemoved,
			UserID:    userID,
			ProductID: productID,
			At:        s.State.Now(),
		})
	}
	return nil
}

// Items returns the current user's lines; nobody logged in means no lines.
func (s *Service) Items() []models.CartItem {
	out := []models.CartItem{}
	s.State.View(func(d *state.Data) {
		if d.CurrentUser == nil {
			return
		}
		for _, it := range d.Cart {
			if it.UserID == d.CurrentUser.ID {
				out = append(out, it)
			}
		}
	})
	return out
}

func (s *Service) Summary() models.CartSummary {
	return models.Summarize(s.Items())
}

// Checkout turns the current user's cart into a pending order. Either every
// line is ordered and its stock taken, or nothing changes.
func (s *Service) Checkout(ctx context.Context) (models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "cart")

	var (
		placed  models.Order
		touched []models.Product
	)
	err := s.State.Mutate(ctx, func(d *state.Data) error {
		if d.CurrentUser == nil {
			return fmt.Errorf("checkout: %w", ErrUnauthorized)
		}
		user := d.CurrentUser

		var lines []models.CartItem
		rest := make([]models.CartItem, 0, len(d.Cart))
		for _, it := range d.Cart {
			if it.UserID == user.ID {
				lines = append(lines, it)
			} else {
				rest = append(rest, it)
			}
		}
		if len(lines) == 0 {
			return fmt.Errorf("checkout: %w", ErrEmptyCart)
		}

		need := map[int]int{}
		for _, it := range lines {
			need[it.ProductID] += it.Quantity
		}
		for _, it := range lines {
			p := d.FindProduct(it.ProductID)
			if p == nil {
				return fmt.Errorf("checkout: product %d: %w", it.ProductID, ErrNotFound)
			}
			if need[p.ID] > p.Stock {
				return fmt.Errorf("checkout: %s has %d left, %d requested: %w", p.Name, p.Stock, need[p.ID], ErrInsufficientStock)
			}
		}

		now := s.State.Now()
		o := models.Order{
			ID:              order.NextID(d, now),
			Date:            models.FormatDate(now),
			CreatedAt:       models.FormatTimestamp(now),
			CustomerID:      user.ID,
			CustomerName:    user.Name,
			CustomerEmail:   user.Email,
			ShippingAddress: user.Address,
			Items:           make([]models.OrderItem, 0, len(lines)),
			Status:          models.OrderPending,
			StatusHistory: []models.StatusEvent{{
				Status: models.OrderPending,
				Date:   models.FormatTimestamp(now),
				Note:   models.NoteOrderPlaced,
			}},
		}
		for _, it := range lines {
			sub := it.Subtotal()
			o.Items = append(o.Items, models.OrderItem{
				ProductID: it.ProductID,
				Name:      it.Name,
				SKU:       it.SKU,
				Quantity:  it.Quantity,
				Price:     it.Price,
				Subtotal:  sub,
				Image:     it.Image,
			})
			o.Total += sub
			d.FindProduct(it.ProductID).Stock -= it.Quantity
		}

		d.Orders = append(d.Orders, o)
		d.Cart = rest
		placed = o.Clone()
		for _, it := range lines {
			if _, ok := need[it.ProductID]; ok {
				touched = append(touched, d.FindProduct(it.ProductID).Clone())
				delete(need, it.ProductID)
			}
		}
		return nil
	}, storage.Products, storage.Orders, storage.Cart)
	if err != nil {
		l.Warn("checkout_failed", "error", err)
		return models.Order{}, err
	}

	l.Info("order_placed", "order_id", placed.ID, "total", placed.Total, "items", placed.ItemCount())
	events.Emit(ctx, s.Events, events.Event{
		Type:     events.OrderPlaced,
		UserID:   placed.CustomerID,
		OrderID:  placed.ID,
		Status:   string(placed.Status),
		Quantity: placed.ItemCount(),
		Total:    placed.Total,
		At:       s.State.Now(),
	})
	events.EmitStockChanged(ctx, s.Events, touched, s.State.Now())
	return placed, nil
}
