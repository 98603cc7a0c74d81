// Package statetest builds hydrated states on a throwaway SQLite file.
package statetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/localshop/internal/kvstore"
	"github.com/Skotchmaster/localshop/internal/models"
	"github.com/Skotchmaster/localshop/internal/state"
	"github.com/Skotchmaster/localshop/internal/storage"
	"github.com/Skotchmaster/localshop/pkg/logging"
)

// Epoch is the fixed time reported by Clock until advanced.
var Epoch = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

// Clock is a manually advanced clock.
type Clock struct {
	T time.Time
}

func (c *Clock) Now() time.Time { return c.T }

func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }

// New returns a hydrated state. With no products the seed catalog is used.
func New(t *testing.T, products ...models.Product) (*state.State, *Clock) {
	t.Helper()

	st, err := kvstore.Open(context.Background(), kvstore.DriverSQLite, filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cols := storage.New(st, "", logging.Discard())
	if len(products) > 0 {
		require.NoError(t, cols.SaveProducts(context.Background(), products))
	}

	clock := &Clock{T: Epoch}
	s := state.New(cols, state.WithClock(clock.Now), state.WithLogger(logging.Discard()))
	require.NoError(t, s.Hydrate(context.Background()))
	return s, clock
}

// Login puts u into users and makes it the current user.
func Login(t *testing.T, s *state.State, u models.User) {
	t.Helper()

	err := s.Mutate(context.Background(), func(d *state.Data) error {
		if d.FindUser(u.ID) == nil {
			d.Users = append(d.Users, u)
		}
		cur := u.Public()
		d.CurrentUser = &cur
		return nil
	}, storage.Users, storage.CurrentUser)
	require.NoError(t, err)
}

// Product builds an active in-stock product.
func Product(id int, name string, price float64, stock int, category string, tags ...string) models.Product {
	return models.Product{
		ID:       id,
		SKU:      "SKU-" + name,
		Name:     name,
		Price:    price,
		Stock:    stock,
		Status:   models.ProductActive,
		Category: category,
		Tags:     tags,
		Images:   []string{},
	}
}

// Persisted reads every collection back from the store.
func Persisted(t *testing.T, s *state.State) state.Data {
	t.Helper()

	ctx := context.Background()
	cols := s.Collections()
	var (
		d   state.Data
		err error
	)
	d.Products, err = cols.LoadProducts(ctx)
	require.NoError(t, err)
	d.Orders, err = cols.LoadOrders(ctx)
	require.NoError(t, err)
	d.Users, err = cols.LoadUsers(ctx)
	require.NoError(t, err)
	d.Cart, err = cols.LoadCart(ctx)
	require.NoError(t, err)
	d.CurrentUser, err = cols.LoadCurrentUser(ctx)
	require.NoError(t, err)
	return d
}
