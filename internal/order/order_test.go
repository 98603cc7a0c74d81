package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/localshop/internal/events"
	"github.com/Skotchmaster/localshop/internal/models"
	"github.com/Skotchmaster/localshop/internal/state"
	"github.com/Skotchmaster/localshop/internal/state/statetest"
	"github.com/Skotchmaster/localshop/internal/storage"
)

var alice = models.User{ID: 1001, Name: "Alice", Email: "alice@example.com", Address: "1 Main St"}

// seedOrder stores an order for alice reserving qty units of product 1.
func seedOrder(t *testing.T, st *state.State, id string, status models.OrderStatus, createdAt string, qty int) {
	t.Helper()

	err := st.Mutate(context.Background(), func(d *state.Data) error {
		d.Orders = append(d.Orders, models.Order{
			ID:           id,
			CreatedAt:    createdAt,
			Date:         createdAt[:10],
			CustomerID:   alice.ID,
			CustomerName: alice.Name,
			Items:        []models.OrderItem{{ProductID: 1, Name: "Pen", Quantity: qty, Price: 2, Subtotal: float64(2 * qty)}},
			Total:        float64(2 * qty),
			Status:       status,
		})
		return nil
	}, storage.Orders)
	require.NoError(t, err)
}

func newOrders(t *testing.T) (*Service, *state.State, *events.Recorder) {
	t.Helper()

	st, _ := statetest.New(t,
		statetest.Product(1, "Pen", 2, 10, "Office"),
		statetest.Product(2, "Pad", 3, 10, "Office"),
	)
	statetest.Login(t, st, alice)
	rec := &events.Recorder{}
	return NewService(st, rec), st, rec
}

func penStock(st *state.State) int {
	n := -1
	st.View(func(d *state.Data) { n = d.FindProduct(1).Stock })
	return n
}

func TestListForCustomer_NewestFirst(t *testing.T) {
	t.Parallel()

	svc, st, _ := newOrders(t)
	seedOrder(t, st, "ORD1", models.OrderPending, "2025-01-01T10:00:00.000Z", 1)
	seedOrder(t, st, "ORD3", models.OrderShipped, "2025-02-01T10:00:00.000Z", 1)
	seedOrder(t, st, "ORD2", models.OrderDelivered, "2025-01-15T10:00:00.000Z", 1)
	require.NoError(t, st.Mutate(context.Background(), func(d *state.Data) error {
		d.Orders = append(d.Orders, models.Order{ID: "ORD9", CustomerID: 7, CreatedAt: "2025-03-01T00:00:00.000Z"})
		return nil
	}, storage.Orders))

	got := svc.ListForCustomer(alice.ID)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"ORD3", "ORD2", "ORD1"}, []string{got[0].ID, got[1].ID, got[2].ID})

	shipped := FilterByStatus(got, "shipped")
	require.Len(t, shipped, 1)
	assert.Equal(t, "ORD3", shipped[0].ID)
	assert.Len(t, FilterByStatus(got, StatusAll), 3)
}

func TestCancel_PendingRestoresStock(t *testing.T) {
	t.Parallel()

	svc, st, rec := newOrders(t)
	seedOrder(t, st, "ORD1", models.OrderPending, "2025-01-01T10:00:00.000Z", 3)

	o, err := svc.Cancel(context.Background(), "ORD1")
	require.NoError(t, err)

	assert.Equal(t, models.OrderCancelled, o.Status)
	assert.NotEmpty(t, o.CancelledDate)
	require.Len(t, o.StatusHistory, 2)
	assert.Equal(t, models.NoteOrderPlaced, o.StatusHistory[0].Note)
	assert.Equal(t, models.NoteCancelledCustomer, o.StatusHistory[1].Note)
	assert.Equal(t, 13, penStock(st))
	assert.Equal(t, []string{events.OrderCancelled, events.ProductStockChanged}, rec.Types())
	require.NotNil(t, rec.Events[1].Product)
	assert.Equal(t, 1, rec.Events[1].ProductID)
	assert.Equal(t, 13, rec.Events[1].Product.Stock)

	persisted := statetest.Persisted(t, st).Orders
	assert.Equal(t, models.OrderCancelled, persisted[0].Status)
	assert.Equal(t, 13, statetest.Persisted(t, st).Products[0].Stock)
}

func TestCancel_Rejections(t *testing.T) {
	t.Parallel()

	svc, st, _ := newOrders(t)
	seedOrder(t, st, "ORD1", models.OrderDelivered, "2025-01-01T10:00:00.000Z", 3)
	seedOrder(t, st, "ORD2", models.OrderHold, "2025-01-01T10:00:00.000Z", 1)
	ctx := context.Background()

	_, err := svc.Cancel(ctx, "ORD1")
	require.ErrorIs(t, err, ErrInvalidTransition)
	o, err := svc.Get("ORD1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, o.Status)
	assert.Equal(t, 10, penStock(st))

	_, err = svc.Cancel(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Cancel(ctx, "ORD2")
	require.NoError(t, err, "held orders can be cancelled")

	_, err = svc.Cancel(ctx, "ORD2")
	assert.ErrorIs(t, err, ErrInvalidTransition, "cancelling twice is rejected")
	assert.Equal(t, 11, penStock(st), "stock is restored only once")
}

func TestCancel_OtherCustomersOrderIsHidden(t *testing.T) {
	t.Parallel()

	svc, st, _ := newOrders(t)
	seedOrder(t, st, "ORD1", models.OrderPending, "2025-01-01T10:00:00.000Z", 1)
	statetest.Login(t, st, models.User{ID: 2002, Name: "Bob", Email: "bob@example.com"})

	_, err := svc.Cancel(context.Background(), "ORD1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetForCustomer("ORD1", 2002)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus_StampsAndHistory(t *testing.T) {
	t.Parallel()

	svc, st, rec := newOrders(t)
	seedOrder(t, st, "ORD1", models.OrderPending, "2025-01-01T10:00:00.000Z", 2)
	ctx := context.Background()
	when := time.Date(2025, 2, 2, 9, 30, 0, 0, time.UTC)

	o, err := svc.UpdateStatus(ctx, "ORD1", models.OrderShipped, "", when)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, o.Status)
	assert.Equal(t, "2025-02-02T09:30:00.000Z", o.ShippedDate)
	assert.NotEmpty(t, o.UpdatedAt)
	last := o.StatusHistory[len(o.StatusHistory)-1]
	assert.Equal(t, "Status changed to shipped", last.Note)
	assert.Equal(t, "2025-02-02T09:30:00.000Z", last.Date)

	o, err = svc.UpdateStatus(ctx, "ORD1", models.OrderDelivered, "left at door", time.Time{})
	require.NoError(t, err)
	assert.NotEmpty(t, o.DeliveredDate)
	assert.Equal(t, "left at door", o.StatusHistory[len(o.StatusHistory)-1].Note)
	assert.Len(t, o.StatusHistory, 3)

	assert.Equal(t, []string{events.OrderStatusChanged, events.OrderStatusChanged}, rec.Types())
}

func TestUpdateStatus_FullOverrideAndStockRule(t *testing.T) {
	t.Parallel()

	svc, st, rec := newOrders(t)
	seedOrder(t, st, "ORD1", models.OrderDelivered, "2025-01-01T10:00:00.000Z", 4)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, "ORD1", models.OrderCancelled, "", time.Time{})
	require.NoError(t, err, "admin may cancel a delivered order")
	assert.Equal(t, 14, penStock(st))

	_, err = svc.UpdateStatus(ctx, "ORD1", models.OrderCancelled, "again", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 14, penStock(st), "same status again moves no stock")

	_, err = svc.UpdateStatus(ctx, "ORD1", models.OrderPending, "", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 10, penStock(st), "leaving cancelled reserves again")

	assert.Equal(t, []string{
		events.OrderStatusChanged, events.ProductStockChanged,
		events.OrderStatusChanged,
		events.OrderStatusChanged, events.ProductStockChanged,
	}, rec.Types())
	assert.Equal(t, 14, rec.Events[1].Product.Stock)
	assert.Equal(t, 10, rec.Events[4].Product.Stock)
}

func TestUpdateStatus_ReviveFailsWithoutStock(t *testing.T) {
	t.Parallel()

	svc, st, _ := newOrders(t)
	seedOrder(t, st, "ORD1", models.OrderCancelled, "2025-01-01T10:00:00.000Z", 4)
	ctx := context.Background()

	require.NoError(t, st.Mutate(ctx, func(d *state.Data) error {
		d.FindProduct(1).Stock = 3
		return nil
	}, storage.Products))

	_, err := svc.UpdateStatus(ctx, "ORD1", models.OrderProcessing, "", time.Time{})
	require.ErrorIs(t, err, ErrInsufficientStock)

	o, err := svc.Get("ORD1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, o.Status)
	assert.Equal(t, 3, penStock(st))
}

func TestUpdateStatus_Validation(t *testing.T) {
	t.Parallel()

	svc, st, _ := newOrders(t)
	seedOrder(t, st, "ORD1", models.OrderPending, "2025-01-01T10:00:00.000Z", 1)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, "ORD1", models.OrderStatus("lost"), "", time.Time{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateStatus(ctx, "NOPE", models.OrderShipped, "", time.Time{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus_SkipsDeletedProducts(t *testing.T) {
	t.Parallel()

	svc, st, _ := newOrders(t)
	seedOrder(t, st, "ORD1", models.OrderPending, "2025-01-01T10:00:00.000Z", 1)
	ctx := context.Background()

	require.NoError(t, st.Mutate(ctx, func(d *state.Data) error {
		d.Products = d.Products[1:]
		return nil
	}, storage.Products))

	_, err := svc.UpdateStatus(ctx, "ORD1", models.OrderCancelled, "", time.Time{})
	require.NoError(t, err)
}

func TestNextID_BumpsOnCollision(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1700000000000)
	d := &state.Data{Orders: []models.Order{{ID: "ORD1700000000000"}, {ID: "ORD1700000000001"}}}
	assert.Equal(t, "ORD1700000000002", NextID(d, now))
}

func TestAllowedTransitions(t *testing.T) {
	t.Parallel()

	assert.Contains(t, AllowedTransitions(models.OrderPending), models.OrderCancelled)
	assert.Empty(t, AllowedTransitions(models.OrderDelivered))
	assert.Nil(t, AllowedTransitions(models.OrderStatus("nope")))
	assert.True(t, CanCustomerCancel(models.OrderHold))
	assert.False(t, CanCustomerCancel(models.OrderShipped))
}
