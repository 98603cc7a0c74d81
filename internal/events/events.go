// Package events carries domain events out of the process. Publishing never
// decides the outcome of an operation: it happens after the state change is
// persisted and failures are only logged.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/localshop/internal/models"
	"github.com/Skotchmaster/localshop/pkg/logging"
)

const (
	TopicProducts = "product_events"
	TopicCart     = "cart_events"
	TopicOrders   = "order_events"
	TopicUsers    = "user_events"
)

var Topics = []string{TopicProducts, TopicCart, TopicOrders, TopicUsers}

const (
	ProductCreated       = "product.created"
	ProductUpdated       = "product.updated"
	ProductStatusToggled = "product.status_toggled"
	ProductDeleted       = "product.deleted"
	ProductStockChanged  = "product.stock_changed"

	CartItemAdded   = "cart.item_added"
	CartItemUpdated = "cart.item_updated"
	CartItemRemoved = "cart.item_removed"

	OrderPlaced        = "order.placed"
	OrderCancelled     = "order.cancelled"
	OrderStatusChanged = "order.status_changed"

	UserRegistered = "user.registered"
	UserLoggedIn   = "user.logged_in"
	UserLoggedOut  = "user.logged_out"
)

type Event struct {
	Type      string          `json:"type"`
	UserID    int64           `json:"userID,omitempty"`
	ProductID int             `json:"productID,omitempty"`
	OrderID   string          `json:"orderID,omitempty"`
	Status    string          `json:"status,omitempty"`
	Quantity  int             `json:"quantity,omitempty"`
	Total     float64         `json:"total,omitempty"`
	Product   *models.Product `json:"product,omitempty"`
	At        time.Time       `json:"at"`
}

// Topic is derived from the event type prefix.
func (e Event) Topic() string {
	prefix, _, _ := strings.Cut(e.Type, ".")
	switch prefix {
	case "product":
		return TopicProducts
	case "cart":
		return TopicCart
	case "order":
		return TopicOrders
	case "user":
		return TopicUsers
	}
	return ""
}

// Key groups events of one entity on one partition.
func (e Event) Key() string {
	switch {
	case e.OrderID != "":
		return e.OrderID
	case e.ProductID != 0 && e.Topic() == TopicProducts:
		return fmt.Sprint(e.ProductID)
	case e.UserID != 0:
		return fmt.Sprint(e.UserID)
	}
	return e.Type
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

const publishTimeout = 5 * time.Second

// Emit publishes e and logs instead of returning a failure.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.Publish(pctx, e); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "type", e.Type, "topic", e.Topic(), "error", err)
	}
}

// EmitStockChanged publishes one product.stock_changed event per product.
func EmitStockChanged(ctx context.Context, p Publisher, products []models.Product, at time.Time) {
	for i := range products {
		prod := products[i]
		Emit(ctx, p, Event{
			Type:      ProductStockChanged,
			ProductID: prod.ID,
			Quantity:  prod.Stock,
			Product:   &prod,
			At:        at,
		})
	}
}

type LogPublisher struct {
	Log *slog.Logger
}

func (p LogPublisher) Publish(_ context.Context, e Event) error {
	l := p.Log
	if l == nil {
		l = slog.Default()
	}
	l.Info("event", "type", e.Type, "topic", e.Topic(), "key", e.Key())
	return nil
}

func (LogPublisher) Close() error { return nil }

// Multi fans an event out to every sink and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
	return r.Err
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Type)
	}
	return out
}
