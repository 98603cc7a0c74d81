package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/localshop/internal/admin"
	"github.com/Skotchmaster/localshop/internal/models"
	"github.com/Skotchmaster/localshop/internal/order"
	"github.com/Skotchmaster/localshop/internal/searchindex"
	"github.com/Skotchmaster/localshop/internal/transport"
	"github.com/Skotchmaster/localshop/pkg/logging"
)

type AdminHTTP struct {
	Svc    *admin.Service
	Orders *order.Service
	Search *searchindex.Mirror
}

func (h *AdminHTTP) ListProducts(c echo.Context) error {
	items := h.Svc.SearchProducts(c.QueryParam("q"), c.QueryParam("status"))
	return c.JSON(http.StatusOK, echo.Map{"data": items})
}

func (h *AdminHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_product")

	var req admin.ProductInput
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_create_error", "invalid body", err)
	}

	p, err := h.Svc.AddProduct(ctx, req)
	if err != nil {
		return fail(l, "product_create_error", err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *AdminHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_product")

	id, err := intParam(c, "id")
	if err != nil {
		return badRequest(l, "get_product_failed", "id is not an integer", err)
	}
	p, err := h.Svc.Product(id)
	if err != nil {
		return fail(l, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.patch_product")

	id, err := intParam(c, "id")
	if err != nil {
		return badRequest(l, "product_patch_error", "id is not an integer", err)
	}
	var req admin.ProductPatch
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_patch_error", "invalid body", err)
	}

	p, err := h.Svc.EditProduct(ctx, id, req)
	if err != nil {
		return fail(l, "product_patch_error", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_product")

	id, err := intParam(c, "id")
	if err != nil {
		return badRequest(l, "product_delete_error", "id is not an integer", err)
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(l, "product_delete_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHTTP) ToggleProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.toggle_product")

	id, err := intParam(c, "id")
	if err != nil {
		return badRequest(l, "product_toggle_error", "id is not an integer", err)
	}
	p, err := h.Svc.ToggleStatus(ctx, id)
	if err != nil {
		return fail(l, "product_toggle_error", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminHTTP) ListOrders(c echo.Context) error {
	items := h.Svc.SearchOrders(c.QueryParam("q"), c.QueryParam("status"))
	return c.JSON(http.StatusOK, echo.Map{"data": items})
}

func (h *AdminHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_order")

	o, err := h.Orders.Get(c.Param("id"))
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"order":               o,
		"allowed_transitions": order.AllowedTransitions(o.Status),
	})
}

func (h *AdminHTTP) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_order_status")

	var req transport.StatusUpdateRequest
	if err := bindValid(c, &req); err != nil {
		return badRequest(l, "order_status_error", "status is required", err)
	}
	var when time.Time
	if req.At != nil {
		when = *req.At
	}

	o, err := h.Orders.UpdateStatus(ctx, c.Param("id"), models.OrderStatus(req.Status), req.Note, when)
	if err != nil {
		return fail(l, "order_status_error", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *AdminHTTP) ListCustomers(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"data": h.Svc.SearchCustomers(c.QueryParam("q"))})
}

func (h *AdminHTTP) GetCustomer(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_customer")

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(l, "get_customer_failed", "id is not an integer", err)
	}
	detail, err := h.Svc.Customer(id)
	if err != nil {
		return fail(l, "get_customer_failed", err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *AdminHTTP) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Svc.Statistics())
}

func (h *AdminHTTP) Export(c echo.Context) error {
	snap := h.Svc.ExportSnapshot()
	name := admin.ExportFileName(h.Svc.State.Now())
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.JSONPretty(http.StatusOK, snap, "  ")
}

func (h *AdminHTTP) Reindex(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.reindex")

	if h.Search == nil {
		l.Warn("reindex_failed", "status", http.StatusServiceUnavailable, "reason", "search mirror not configured")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search mirror not configured")
	}
	products := h.Svc.State.Snapshot().Products
	if err := h.Search.Reindex(ctx, products); err != nil {
		l.Error("reindex_failed", "status", http.StatusBadGateway, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "reindex failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"indexed": len(products)})
}
