// Package storage maps the persisted collections onto a key-value store.
// Reads are fail-soft on content: a missing or corrupt value yields the
// collection's empty default and a warning. A failing backend is reported
// as an error so callers never mistake it for an empty collection.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Skotchmaster/localshop/internal/kvstore"
	"github.com/Skotchmaster/localshop/internal/models"
)

type Collection string

const (
	Products    Collection = "products"
	Orders      Collection = "orders"
	Users       Collection = "users"
	Cart        Collection = "cart"
	CurrentUser Collection = "currentUser"
)

var AllCollections = []Collection{Products, Orders, Users, Cart, CurrentUser}

type Collections struct {
	Store     kvstore.Store
	Namespace string
	Log       *slog.Logger
}

func New(store kvstore.Store, namespace string, log *slog.Logger) *Collections {
	if log == nil {
		log = slog.Default()
	}
	return &Collections{Store: store, Namespace: namespace, Log: log.With("component", "storage")}
}

func (c *Collections) Key(name Collection) string {
	if c.Namespace == "" {
		return string(name)
	}
	return c.Namespace + ":" + string(name)
}

// Load returns the raw JSON of a collection, or nil when it is absent.
func (c *Collections) Load(ctx context.Context, name Collection) ([]byte, error) {
	data, err := c.Store.Get(ctx, c.Key(name))
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return data, nil
}

func (c *Collections) Save(ctx context.Context, name Collection, data []byte) error {
	if err := c.Store.Set(ctx, c.Key(name), data); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

func (c *Collections) Remove(ctx context.Context, name Collection) error {
	if err := c.Store.Delete(ctx, c.Key(name)); err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// decode fills dst from the collection and reports whether it did. The
// error is non-nil only when the backend could not be read.
func (c *Collections) decode(ctx context.Context, name Collection, dst any) (bool, error) {
	data, err := c.Load(ctx, name)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.Log.Warn("collection_corrupt", "collection", name, "error", err)
		return false, nil
	}
	return true, nil
}

func (c *Collections) encode(ctx context.Context, name Collection, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return c.Save(ctx, name, data)
}

func (c *Collections) LoadProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	ok, err := c.decode(ctx, Products, &out)
	if err != nil {
		return nil, err
	}
	if !ok || out == nil {
		return []models.Product{}, nil
	}
	for i := range out {
		models.NormalizeProduct(&out[i])
	}
	return out, nil
}

func (c *Collections) LoadOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	ok, err := c.decode(ctx, Orders, &out)
	if err != nil {
		return nil, err
	}
	if !ok || out == nil {
		return []models.Order{}, nil
	}
	for i := range out {
		models.NormalizeOrder(&out[i])
	}
	return out, nil
}

func (c *Collections) LoadUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	ok, err := c.decode(ctx, Users, &out)
	if err != nil {
		return nil, err
	}
	if !ok || out == nil {
		return []models.User{}, nil
	}
	return out, nil
}

// LoadCart drops lines that fail normalization and merges lines repeated for
// the same user and product.
func (c *Collections) LoadCart(ctx context.Context) ([]models.CartItem, error) {
	var raw []models.CartItem
	ok, err := c.decode(ctx, Cart, &raw)
	if err != nil {
		return nil, err
	}
	out := make([]models.CartItem, 0, len(raw))
	if !ok {
		return out, nil
	}
	type lineKey struct {
		user    int64
		product int
	}
	seen := make(map[lineKey]int, len(raw))
	for _, it := range raw {
		if !models.NormalizeCartItem(&it) {
			continue
		}
		k := lineKey{it.UserID, it.ProductID}
		if i, dup := seen[k]; dup {
			out[i].Quantity += it.Quantity
			continue
		}
		seen[k] = len(out)
		out = append(out, it)
	}
	if len(out) < len(raw) {
		c.Log.Warn("cart_lines_normalized", "stored", len(raw), "kept", len(out))
	}
	return out, nil
}

// LoadCurrentUser returns nil when nobody is logged in.
func (c *Collections) LoadCurrentUser(ctx context.Context) (*models.User, error) {
	var u *models.User
	ok, err := c.decode(ctx, CurrentUser, &u)
	if err != nil {
		return nil, err
	}
	if !ok || u == nil || u.ID == 0 {
		return nil, nil
	}
	return u, nil
}

func (c *Collections) SaveProducts(ctx context.Context, v []models.Product) error {
	if v == nil {
		v = []models.Product{}
	}
	return c.encode(ctx, Products, v)
}

func (c *Collections) SaveOrders(ctx context.Context, v []models.Order) error {
	if v == nil {
		v = []models.Order{}
	}
	return c.encode(ctx, Orders, v)
}

func (c *Collections) SaveUsers(ctx context.Context, v []models.User) error {
	if v == nil {
		v = []models.User{}
	}
	return c.encode(ctx, Users, v)
}

func (c *Collections) SaveCart(ctx context.Context, v []models.CartItem) error {
	if v == nil {
		v = []models.CartItem{}
	}
	return c.encode(ctx, Cart, v)
}

// SaveCurrentUser(nil) removes the key.
func (c *Collections) SaveCurrentUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return c.Remove(ctx, CurrentUser)
	}
	return c.encode(ctx, CurrentUser, u)
}
