package transport

import (
	"time"

	"github.com/Skotchmaster/localshop/internal/models"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// FilterRequest sets the storefront criteria. Price uses the "min-max" form.
type FilterRequest struct {
	Query    string   `json:"q"`
	Category string   `json:"category"`
	Price    string   `json:"price"`
	Tags     []string `json:"tags"`
}

type PageRequest struct {
	Delta int `json:"delta" validate:"required"`
}

type AddToCartRequest struct {
	ProductID int `json:"product_id" validate:"required,gt=0"`
	Quantity  int `json:"quantity"`
}

type QuantityRequest struct {
	Delta int `json:"delta" validate:"required"`
}

type UpdateCartItemResponse struct {
	Item    *models.CartItem `json:"item,omitempty"`
	Removed bool             `json:"removed"`
}

type StatusUpdateRequest struct {
	Status string     `json:"status" validate:"required"`
	Note   string     `json:"note"`
	At     *time.Time `json:"at"`
}
