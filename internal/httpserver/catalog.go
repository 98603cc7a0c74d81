package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/localshop/internal/catalog"
	"github.com/Skotchmaster/localshop/internal/searchindex"
	"github.com/Skotchmaster/localshop/internal/transport"
	"github.com/Skotchmaster/localshop/internal/util"
	"github.com/Skotchmaster/localshop/pkg/logging"
)

type CatalogHTTP struct {
	Svc    *catalog.Service
	Mirror *searchindex.Mirror
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func criteria(q, category, price string, tags []string) (catalog.Criteria, error) {
	pr, err := catalog.ParsePriceRange(price)
	if err != nil {
		return catalog.Criteria{}, err
	}
	return catalog.Criteria{Query: q, Category: category, Price: pr, Tags: tags}, nil
}

// List answers a one-off query and leaves the browsing cursor alone.
func (h *CatalogHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.list")

	crit, err := criteria(c.QueryParam("q"), c.QueryParam("category"), c.QueryParam("price"), splitTags(c.QueryParam("tags")))
	if err != nil {
		return badRequest(l, "get_products_error", "invalid price range", err)
	}
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	return c.JSON(http.StatusOK, h.Svc.Query(crit, page, size))
}

// Filter stores new criteria on the browsing session and returns page one.
func (h *CatalogHTTP) Filter(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.filter")

	var req transport.FilterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "filter_products_error", "invalid body", err)
	}
	crit, err := criteria(req.Query, req.Category, req.Price, req.Tags)
	if err != nil {
		return badRequest(l, "filter_products_error", "invalid price range", err)
	}
	return c.JSON(http.StatusOK, h.Svc.Apply(crit))
}

func (h *CatalogHTTP) CurrentPage(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Svc.CurrentPage())
}

func (h *CatalogHTTP) ChangePage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.change_page")

	var req transport.PageRequest
	if err := bindValid(c, &req); err != nil {
		return badRequest(l, "change_page_error", "delta is required", err)
	}
	return c.JSON(http.StatusOK, h.Svc.ChangePage(req.Delta))
}

func (h *CatalogHTTP) Product(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.get")

	id, err := intParam(c, "id")
	if err != nil {
		return badRequest(l, "get_product_failed", "id is not an integer", err)
	}
	p, err := h.Svc.SelectProduct(id)
	if err != nil {
		return fail(l, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) Related(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.related")

	id, err := intParam(c, "id")
	if err != nil {
		return badRequest(l, "get_related_failed", "id is not an integer", err)
	}
	items, err := h.Svc.Related(id, catalog.DefaultRelatedLimit)
	if err != nil {
		return fail(l, "get_related_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items})
}

func (h *CatalogHTTP) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"data": h.Svc.Categories()})
}

func (h *CatalogHTTP) Tags(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"data": h.Svc.Tags()})
}

// Search goes to the Elasticsearch mirror when there is one and to the
// in-memory catalog otherwise.
func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.search")

	q := strings.TrimSpace(c.QueryParam("q"))
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	if h.Mirror == nil {
		return c.JSON(http.StatusOK, h.Svc.Query(catalog.Criteria{Query: q}, page, size))
	}

	from, limit := util.Calculate(page, size)
	res, err := h.Mirror.Search(ctx, q, from, limit)
	if err != nil {
		l.Error("search_failed", "status", http.StatusBadGateway, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "search unavailable")
	}
	return c.JSON(http.StatusOK, res)
}
