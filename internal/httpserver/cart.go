package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/localshop/internal/cart"
	"github.com/Skotchmaster/localshop/internal/transport"
	"github.com/Skotchmaster/localshop/pkg/logging"
)

type CartHTTP struct {
	Svc *cart.Service
}

func (h *CartHTTP) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Svc.Summary())
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req transport.AddToCartRequest
	if err := bindValid(c, &req); err != nil {
		return badRequest(l, "add_to_cart_error", "product_id is required", err)
	}

	item, err := h.Svc.AddItem(ctx, req.ProductID, req.Quantity)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	id, err := intParam(c, "id")
	if err != nil {
		return badRequest(l, "update_cart_error", "id is not an integer", err)
	}
	var req transport.QuantityRequest
	if err := bindValid(c, &req); err != nil {
		return badRequest(l, "update_cart_error", "delta is required", err)
	}

	item, removed, err := h.Svc.UpdateQuantity(ctx, id, req.Delta)
	if err != nil {
		return fail(l, "update_cart_error", err)
	}
	resp := transport.UpdateCartItemResponse{Removed: removed}
	if !removed {
		resp.Item = &item
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CartHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	id, err := intParam(c, "id")
	if err != nil {
		return badRequest(l, "remove_from_cart_error", "id is not an integer", err)
	}
	if err := h.Svc.RemoveItem(ctx, id); err != nil {
		return fail(l, "remove_from_cart_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	o, err := h.Svc.Checkout(ctx)
	if err != nil {
		return fail(l, "checkout_failed", err)
	}
	l.Info("checkout_success", "order_id", o.ID)
	return c.JSON(http.StatusCreated, o)
}
