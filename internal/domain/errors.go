// Package domain holds the error values shared by the shop engines. Engines
// wrap them with context; the HTTP layer maps them to status codes.
package domain

import "errors"

var (
	ErrValidation         = errors.New("validation")          // 400
	ErrUnauthorized       = errors.New("login required")      // 401
	ErrInvalidCredentials = errors.New("invalid credentials") // 401
	ErrNotFound           = errors.New("not found")           // 404
	ErrConflict           = errors.New("conflict")            // 409
	ErrUnavailable        = errors.New("product unavailable") // 409
	ErrOutOfStock         = errors.New("out of stock")        // 409
	ErrInsufficientStock  = errors.New("insufficient stock")  // 409
	ErrEmptyCart          = errors.New("cart is empty")       // 409
	ErrInvalidTransition  = errors.New("invalid transition")  // 409
)
