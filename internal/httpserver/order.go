package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/localshop/internal/order"
	"github.com/Skotchmaster/localshop/pkg/logging"
)

type OrderHTTP struct {
	Svc *order.Service
}

func (h *OrderHTTP) List(c echo.Context) error {
	u := currentUser(c)
	orders := order.FilterByStatus(h.Svc.ListForCustomer(u.ID), c.QueryParam("status"))
	return c.JSON(http.StatusOK, echo.Map{"data": orders})
}

func (h *OrderHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.get")

	o, err := h.Svc.GetForCustomer(c.Param("id"), currentUser(c).ID)
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.cancel")

	o, err := h.Svc.Cancel(ctx, c.Param("id"))
	if err != nil {
		return fail(l, "cancel_order_failed", err)
	}
	return c.JSON(http.StatusOK, o)
}
