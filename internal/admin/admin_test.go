package admin

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/localshop/internal/catalog"
	"github.com/Skotchmaster/localshop/internal/events"
	"github.com/Skotchmaster/localshop/internal/models"
	"github.com/Skotchmaster/localshop/internal/state"
	"github.com/Skotchmaster/localshop/internal/state/statetest"
	"github.com/Skotchmaster/localshop/internal/storage"
)

func strp(s string) *string   { return &s }
func f64p(v float64) *float64 { return &v }
func intp(v int) *int         { return &v }

func newAdmin(t *testing.T, products ...models.Product) (*Service, *state.State, *events.Recorder) {
	t.Helper()

	st, _ := statetest.New(t, products...)
	rec := &events.Recorder{}
	return NewService(st, rec, catalog.NewService(st)), st, rec
}

func emptyCatalog(t *testing.T) (*Service, *state.State) {
	t.Helper()

	svc, st, _ := newAdmin(t)
	require.NoError(t, st.Mutate(context.Background(), func(d *state.Data) error {
		d.Products = []models.Product{}
		return nil
	}, storage.Products))
	return svc, st
}

func TestAddProduct_IDsAndDefaults(t *testing.T) {
	t.Parallel()

	svc, st := emptyCatalog(t)
	ctx := context.Background()

	p1, err := svc.AddProduct(ctx, ProductInput{SKU: "A-1", Name: "Desk Lamp", Price: 20, Stock: 3})
	require.NoError(t, err)
	p2, err := svc.AddProduct(ctx, ProductInput{SKU: "A-2", Name: "Chair", Images: "https://img/1.png\n\n https://img/2.png "})
	require.NoError(t, err)

	assert.Equal(t, 1, p1.ID)
	assert.Equal(t, 2, p2.ID)

	assert.Equal(t, models.ProductActive, p1.Status)
	assert.Equal(t, models.DefaultCategory, p1.Category)
	assert.Equal(t, "https://via.placeholder.com/300x200/4a6cf7/ffffff?text=Desk+Lamp", p1.Image)
	assert.Equal(t, "2025-03-01", p1.CreatedAt)

	assert.Equal(t, []string{"https://img/1.png", "https://img/2.png"}, p2.Images)
	assert.Equal(t, "https://img/1.png", p2.Image)

	assert.Len(t, statetest.Persisted(t, st).Products, 2)
}

func TestAddProduct_ThumbnailBeatsPlaceholder(t *testing.T) {
	t.Parallel()

	svc, _ := emptyCatalog(t)
	p, err := svc.AddProduct(context.Background(), ProductInput{SKU: "T", Name: "T", Thumbnail: "https://img/t.png", Tags: "Red, red ,blue,,"})
	require.NoError(t, err)
	assert.Equal(t, "https://img/t.png", p.Image)
	assert.Equal(t, []string{"Red", "blue"}, p.Tags)
}

func TestAddProduct_IDFollowsMaxNotCount(t *testing.T) {
	t.Parallel()

	svc, _, _ := newAdmin(t,
		statetest.Product(3, "Three", 1, 1, "X"),
		statetest.Product(10, "Ten", 1, 1, "X"),
	)
	p, err := svc.AddProduct(context.Background(), ProductInput{SKU: "N", Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, 11, p.ID)
}

func TestAddProduct_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   ProductInput
	}{
		{name: "missing sku", in: ProductInput{Name: "x"}},
		{name: "negative price", in: ProductInput{SKU: "x", Price: -1}},
		{name: "negative stock", in: ProductInput{SKU: "x", Stock: -2}},
		{name: "discount over 100", in: ProductInput{SKU: "x", Discount: 120}},
		{name: "rating over 5", in: ProductInput{SKU: "x", Rating: 6}},
		{name: "unknown status", in: ProductInput{SKU: "x", Status: "archived"}},
	}

	svc, st, _ := newAdmin(t)
	before := len(st.Snapshot().Products)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddProduct(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Len(t, st.Snapshot().Products, before, "nothing was added")
}

func TestEditProduct(t *testing.T) {
	t.Parallel()

	base := statetest.Product(1, "Lamp", 20, 3, "Home", "light")
	base.Brand = "Lumo"
	base.Images = []string{"https://img/old.png"}
	base.Video = &models.Video{URL: "https://video/1", Thumbnail: "https://video/1.jpg"}

	svc, st, rec := newAdmin(t, base)
	ctx := context.Background()

	p, err := svc.EditProduct(ctx, 1, ProductPatch{
		Price:          f64p(25),
		Brand:          strp(""),
		Tags:           strp("Light, desk, LIGHT"),
		Specifications: strp(`{"color":["red","blue"],"watts":"40"}`),
		Images:         strp(""),
		Thumbnail:      strp("https://img/thumb.png"),
		VideoURL:       strp(""),
	})
	require.NoError(t, err)

	assert.InDelta(t, 25.0, p.Price, 1e-9)
	assert.Equal(t, "Lamp", p.Name, "untouched fields survive")
	assert.Equal(t, 3, p.Stock)
	assert.Empty(t, p.Brand)
	assert.Equal(t, []string{"Light", "desk"}, p.Tags)
	assert.Equal(t, models.SpecList("red", "blue"), p.Specifications["color"])
	assert.Equal(t, models.SpecString("40"), p.Specifications["watts"])
	assert.Empty(t, p.Images)
	assert.Equal(t, "https://img/thumb.png", p.Image)
	assert.Nil(t, p.Video)

	stored := statetest.Persisted(t, st).Products[0]
	assert.InDelta(t, 25.0, stored.Price, 1e-9)
	assert.Equal(t, []string{events.ProductUpdated}, rec.Types())
}

func TestEditProduct_MalformedSpecsStillSucceeds(t *testing.T) {
	t.Parallel()

	p0 := statetest.Product(1, "Lamp", 20, 3, "Home")
	p0.Specifications = map[string]models.SpecValue{"watts": models.SpecString("40")}
	svc, _, _ := newAdmin(t, p0)

	p, err := svc.EditProduct(context.Background(), 1, ProductPatch{
		Specifications: strp("{not json"),
		Stock:          intp(9),
	})
	require.NoError(t, err)
	assert.Empty(t, p.Specifications)
	assert.Equal(t, 9, p.Stock)
}

func TestEditProduct_Errors(t *testing.T) {
	t.Parallel()

	svc, _, _ := newAdmin(t, statetest.Product(1, "Lamp", 20, 3, "Home"))
	ctx := context.Background()

	_, err := svc.EditProduct(ctx, 42, ProductPatch{Name: strp("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.EditProduct(ctx, 1, ProductPatch{Price: f64p(-5)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.EditProduct(ctx, 1, ProductPatch{SKU: strp("")})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestToggleAndDelete(t *testing.T) {
	t.Parallel()

	svc, st, rec := newAdmin(t,
		statetest.Product(1, "Lamp", 20, 3, "Home"),
		statetest.Product(2, "Rug", 50, 1, "Home"),
	)
	ctx := context.Background()

	p, err := svc.ToggleStatus(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.ProductInactive, p.Status)
	assert.Equal(t, []int{2}, pageIDs(svc.Catalog.CurrentPage()), "storefront is refreshed")

	p, err = svc.ToggleStatus(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.ProductActive, p.Status)

	require.NoError(t, svc.DeleteProduct(ctx, 2))
	assert.ErrorIs(t, svc.DeleteProduct(ctx, 2), ErrNotFound)
	_, err = svc.ToggleStatus(ctx, 2)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Len(t, statetest.Persisted(t, st).Products, 1)
	assert.Equal(t, []string{events.ProductStatusToggled, events.ProductStatusToggled, events.ProductDeleted}, rec.Types())
	assert.Nil(t, rec.Events[2].Product)
}

func TestDeleteProduct_KeepsOrderSnapshots(t *testing.T) {
	t.Parallel()

	svc, st, _ := newAdmin(t, statetest.Product(1, "Lamp", 20, 3, "Home"))
	ctx := context.Background()
	require.NoError(t, st.Mutate(ctx, func(d *state.Data) error {
		d.Orders = append(d.Orders, models.Order{ID: "ORD1", Items: []models.OrderItem{{ProductID: 1, Name: "Lamp", Quantity: 1}}})
		d.Cart = append(d.Cart, models.CartItem{UserID: 1, ProductID: 1, Quantity: 1})
		return nil
	}, storage.Orders, storage.Cart))

	require.NoError(t, svc.DeleteProduct(ctx, 1))
	snap := st.Snapshot()
	assert.Equal(t, "Lamp", snap.Orders[0].Items[0].Name)
	assert.Len(t, snap.Cart, 1)
}

func TestToggleTwice_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	svc, _, _ := newAdmin(t,
		statetest.Product(1, "Lamp", 20, 3, "Home"),
		statetest.Product(2, "Rug", 50, 1, "Home"),
	)
	ctx := context.Background()

	properties.Property("toggling twice restores the status", prop.ForAll(
		func(id int) bool {
			before, err := svc.Product(id)
			if err != nil {
				return false
			}
			if _, err := svc.ToggleStatus(ctx, id); err != nil {
				return false
			}
			if _, err := svc.ToggleStatus(ctx, id); err != nil {
				return false
			}
			after, err := svc.Product(id)
			return err == nil && after.Status == before.Status
		},
		gen.IntRange(1, 2),
	))

	properties.TestingRun(t)
}

func TestSearches(t *testing.T) {
	t.Parallel()

	inactive := statetest.Product(12, "Rug", 50, 1, "Home")
	inactive.Status = models.ProductInactive
	inactive.Description = "woven wool"
	svc, st, _ := newAdmin(t, statetest.Product(1, "Lamp", 20, 3, "Home"), inactive)
	ctx := context.Background()

	assert.Len(t, svc.SearchProducts("", FilterAll), 2)
	assert.Len(t, svc.SearchProducts("", FilterActive), 1)
	assert.Equal(t, 12, svc.SearchProducts("", FilterInactive)[0].ID)
	assert.Equal(t, 12, svc.SearchProducts("WOOL", FilterAll)[0].ID)
	assert.Equal(t, 12, svc.SearchProducts("12", FilterAll)[0].ID)
	assert.Equal(t, 1, svc.SearchProducts("sku-lamp", FilterAll)[0].ID)
	assert.Empty(t, svc.SearchProducts("lamp", FilterInactive))

	require.NoError(t, st.Mutate(ctx, func(d *state.Data) error {
		d.Users = append(d.Users,
			models.User{ID: 1, Name: "Alice", Email: "alice@example.com", Password: "hash"},
			models.User{ID: 2, Name: "Bob", Email: "bob@shop.test", Password: "hash"},
		)
		d.Orders = append(d.Orders,
			models.Order{ID: "ORD100", CustomerID: 1, CustomerName: "Alice", Total: 10, Status: models.OrderPending, CreatedAt: "2025-01-01T00:00:00.000Z"},
			models.Order{ID: "ORD200", CustomerID: 1, CustomerName: "Alice", Total: 30, Status: models.OrderCancelled, CreatedAt: "2025-01-02T00:00:00.000Z"},
			models.Order{ID: "ORD300", CustomerID: 2, CustomerName: "Bob", Total: 5, Status: models.OrderShipped, CreatedAt: "2025-01-03T00:00:00.000Z"},
		)
		return nil
	}, storage.Users, storage.Orders))

	got := svc.SearchOrders("alice", "all")
	require.Len(t, got, 2)
	assert.Equal(t, "ORD200", got[0].ID, "newest first")
	assert.Len(t, svc.SearchOrders("ord3", ""), 1)
	assert.Len(t, svc.SearchOrders("", "cancelled"), 1)

	users := svc.SearchCustomers("SHOP.TEST")
	require.Len(t, users, 1)
	assert.Equal(t, "Bob", users[0].Name)
	assert.Empty(t, users[0].Password)

	detail, err := svc.Customer(1)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.OrderCount)
	assert.InDelta(t, 10.0, detail.TotalSpent, 1e-9)
	assert.Empty(t, detail.Customer.Password)

	_, err = svc.Customer(99)
	assert.ErrorIs(t, err, ErrNotFound)

	stats := svc.Statistics()
	assert.Equal(t, Statistics{TotalProducts: 2, ActiveProducts: 1, TotalOrders: 3, Revenue: 15}, stats)
}

func TestExport(t *testing.T) {
	t.Parallel()

	svc, st, _ := newAdmin(t,
		statetest.Product(1, "Lamp", 20, 3, "Home"),
		statetest.Product(2, "Rug", 50, 1, "Home"),
	)
	require.NoError(t, st.Mutate(context.Background(), func(d *state.Data) error {
		d.Users = append(d.Users, models.User{ID: 1, Name: "Alice", Email: "a@example.com", Password: "secret"})
		return nil
	}, storage.Users))

	snap := svc.ExportSnapshot()
	assert.Equal(t, "2025-03-01T10:00:00.000Z", snap.ExportedAt)
	assert.Len(t, snap.Products, 2)
	assert.Empty(t, snap.Orders)
	require.Len(t, snap.Users, 1)
	assert.Empty(t, snap.Users[0].Password)

	assert.Equal(t, "online-shopping-data-2025-03-01.json", ExportFileName(time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC)))
}

func pageIDs(p catalog.Page) []int {
	out := make([]int, len(p.Items))
	for i := range p.Items {
		out[i] = p.Items[i].ID
	}
	return out
}
