// Package order answers order queries and moves orders between statuses,
// keeping catalog stock in line with cancellations.
package order

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/localshop/internal/domain"
	"github.com/Skotchmaster/localshop/internal/events"
	"github.com/Skotchmaster/localshop/internal/models"
	"github.com/Skotchmaster/localshop/internal/state"
	"github.com/Skotchmaster/localshop/internal/storage"
	"github.com/Skotchmaster/localshop/pkg/logging"
)

var (
	ErrValidation        = domain.ErrValidation
	ErrUnauthorized      = domain.ErrUnauthorized
	ErrNotFound          = domain.ErrNotFound
	ErrInvalidTransition = domain.ErrInvalidTransition
	ErrInsufficientStock = domain.ErrInsufficientStock
)

// StatusAll disables the status filter.
const StatusAll = "all"

type Service struct {
	State  *state.State
	Events events.Publisher
}

func NewService(st *state.State, pub events.Publisher) *Service {
	return &Service{State: st, Events: pub}
}

// ListForCustomer returns the customer's orders, newest first.
func (s *Service) ListForCustomer(customerID int64) []models.Order {
	out := []models.Order{}
	s.State.View(func(d *state.Data) {
		for i := range d.Orders {
			if d.Orders[i].CustomerID == customerID {
				out = append(out, d.Orders[i].Clone())
			}
		}
	})
	SortNewestFirst(out)
	return out
}

// All returns every order, newest first.
func (s *Service) All() []models.Order {
	var out []models.Order
	s.State.View(func(d *state.Data) {
		out = make([]models.Order, len(d.Orders))
		for i := range d.Orders {
			out[i] = d.Orders[i].Clone()
		}
	})
	SortNewestFirst(out)
	return out
}

func SortNewestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		ti, tj := orders[i].PlacedAt(), orders[j].PlacedAt()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return orders[i].ID > orders[j].ID
	})
}

// FilterByStatus keeps orders in the given status; "" and "all" keep all.
func FilterByStatus(orders []models.Order, status string) []models.Order {
	if status == "" || status == StatusAll {
		return orders
	}
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if string(o.Status) == status {
			out = append(out, o)
		}
	}
	return out
}

func (s *Service) Get(id string) (models.Order, error) {
	var (
		out   models.Order
		found bool
	)
	s.State.View(func(d *state.Data) {
		if i := d.OrderIndex(id); i >= 0 {
			out, found = d.Orders[i].Clone(), true
		}
	})
	if !found {
		return models.Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return out, nil
}

// GetForCustomer hides orders of other customers behind ErrNotFound.
func (s *Service) GetForCustomer(id string, customerID int64) (models.Order, error) {
	o, err := s.Get(id)
	if err != nil {
		return models.Order{}, err
	}
	if o.CustomerID != customerID {
		return models.Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return o, nil
}

// Cancel is the customer path: only the current user's pending or held
// orders can be cancelled.
func (s *Service) Cancel(ctx context.Context, id string) (models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order")

	var (
		out     models.Order
		touched []models.Product
	)
	err := s.State.Mutate(ctx, func(d *state.Data) error {
		if d.CurrentUser == nil {
			return fmt.Errorf("cancel order: %w", ErrUnauthorized)
		}
		i := d.OrderIndex(id)
		if i < 0 || d.Orders[i].CustomerID != d.CurrentUser.ID {
			return fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		o := &d.Orders[i]
		if !CanCustomerCancel(o.Status) {
			return fmt.Errorf("order %s is %s: %w", id, o.Status, ErrInvalidTransition)
		}
		before := stockOf(d, o)
		if err := ApplyStatus(d, o, models.OrderCancelled, models.NoteCancelledCustomer, s.State.Now()); err != nil {
			return err
		}
		out = o.Clone()
		touched = changedProducts(d, before)
		return nil
	}, storage.Orders, storage.Products)
	if err != nil {
		l.Warn("cancel_order_failed", "order_id", id, "error", err)
		return models.Order{}, err
	}

	l.Info("order_cancelled", "order_id", id)
	events.Emit(ctx, s.Events, events.Event{
		Type:    events.OrderCancelled,
		UserID:  out.CustomerID,
		OrderID: out.ID,
		Status:  string(out.Status),
		Total:   out.Total,
		At:      s.State.Now(),
	})
	events.EmitStockChanged(ctx, s.Events, touched, s.State.Now())
	return out, nil
}

// UpdateStatus is the admin path: any known status may be set from any
// status. A zero when means now; an empty note gets a generated one.
func (s *Service) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, note string, when time.Time) (models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order")

	if !status.Valid() {
		return models.Order{}, fmt.Errorf("status %q: %w", status, ErrValidation)
	}
	if when.IsZero() {
		when = s.State.Now()
	}
	if strings.TrimSpace(note) == "" {
		note = "Status changed to " + string(status)
	}

	var (
		out     models.Order
		prev    models.OrderStatus
		touched []models.Product
	)
	err := s.State.Mutate(ctx, func(d *state.Data) error {
		i := d.OrderIndex(id)
		if i < 0 {
			return fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		o := &d.Orders[i]
		prev = o.Status
		before := stockOf(d, o)
		if err := ApplyStatus(d, o, status, note, when); err != nil {
			return err
		}
		o.UpdatedAt = models.FormatTimestamp(s.State.Now())
		out = o.Clone()
		touched = changedProducts(d, before)
		return nil
	}, storage.Orders, storage.Products)
	if err != nil {
		l.Warn("update_order_status_failed", "order_id", id, "status", status, "error", err)
		return models.Order{}, err
	}

	l.Info("order_status_updated", "order_id", id, "from", prev, "to", status)
	events.Emit(ctx, s.Events, events.Event{
		Type:    events.OrderStatusChanged,
		UserID:  out.CustomerID,
		OrderID: out.ID,
		Status:  string(out.Status),
		At:      s.State.Now(),
	})
	events.EmitStockChanged(ctx, s.Events, touched, s.State.Now())
	return out, nil
}

// ApplyStatus moves o to status and keeps stock consistent: entering
// cancelled gives every line back, leaving cancelled takes it again.
func ApplyStatus(d *state.Data, o *models.Order, status models.OrderStatus, note string, when time.Time) error {
	o.EnsureHistory()

	switch {
	case status == models.OrderCancelled && o.Status != models.OrderCancelled:
		Restock(d, o)
	case status != models.OrderCancelled && o.Status == models.OrderCancelled:
		if err := Reserve(d, o); err != nil {
			return err
		}
	}

	stamp := models.FormatTimestamp(when)
	switch status {
	case models.OrderShipped:
		o.ShippedDate = stamp
	case models.OrderDelivered:
		o.DeliveredDate = stamp
	case models.OrderCancelled:
		o.CancelledDate = stamp
	}
	o.Status = status
	o.StatusHistory = append(o.StatusHistory, models.StatusEvent{Status: status, Date: stamp, Note: note})
	return nil
}

// Restock returns the order's quantities to the catalog. Lines whose product
// no longer exists are skipped.
func Restock(d *state.Data, o *models.Order) {
	for _, it := range o.Items {
		if p := d.FindProduct(it.ProductID); p != nil {
			p.Stock += it.Quantity
		}
	}
}

// Reserve takes the order's quantities out of the catalog, all or nothing.
func Reserve(d *state.Data, o *models.Order) error {
	need := map[int]int{}
	for _, it := range o.Items {
		need[it.ProductID] += it.Quantity
	}
	for pid, qty := range need {
		p := d.FindProduct(pid)
		if p == nil {
			continue
		}
		if p.Stock < qty {
			return fmt.Errorf("product %d has %d, order %s needs %d: %w", pid, p.Stock, o.ID, qty, ErrInsufficientStock)
		}
	}
	for pid, qty := range need {
		if p := d.FindProduct(pid); p != nil {
			p.Stock -= qty
		}
	}
	return nil
}

// stockOf records the current stock of every product the order references.
func stockOf(d *state.Data, o *models.Order) map[int]int {
	out := make(map[int]int, len(o.Items))
	for _, it := range o.Items {
		if p := d.FindProduct(it.ProductID); p != nil {
			out[p.ID] = p.Stock
		}
	}
	return out
}

// changedProducts returns copies of the products whose stock moved since
// before, ordered by id.
func changedProducts(d *state.Data, before map[int]int) []models.Product {
	var out []models.Product
	for id, stock := range before {
		if p := d.FindProduct(id); p != nil && p.Stock != stock {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NextID derives an id from the clock in milliseconds, moving forward one
// millisecond at a time while the id is taken.
func NextID(d *state.Data, now time.Time) string {
	ms := now.UnixMilli()
	for {
		id := "ORD" + strconv.FormatInt(ms, 10)
		if d.OrderIndex(id) < 0 {
			return id
		}
		ms++
	}
}

var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:    {models.OrderProcessing, models.OrderHold, models.OrderCancelled},
	models.OrderHold:       {models.OrderPending, models.OrderProcessing, models.OrderCancelled},
	models.OrderProcessing: {models.OrderShipped, models.OrderHold, models.OrderCancelled},
	models.OrderShipped:    {models.OrderDelivered},
	models.OrderDelivered:  {},
	models.OrderCancelled:  {},
}

// AllowedTransitions is the forward workflow offered to UIs. UpdateStatus
// does not enforce it.
func AllowedTransitions(status models.OrderStatus) []models.OrderStatus {
	next, ok := transitions[status]
	if !ok {
		return nil
	}
	out := make([]models.OrderStatus, len(next))
	copy(out, next)
	return out
}

// CanCustomerCancel mirrors the rule enforced by Cancel.
func CanCustomerCancel(status models.OrderStatus) bool {
	return status == models.OrderPending || status == models.OrderHold
}
