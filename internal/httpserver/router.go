package httpserver

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/localshop/internal/admin"
	"github.com/Skotchmaster/localshop/internal/auth"
	"github.com/Skotchmaster/localshop/internal/cart"
	"github.com/Skotchmaster/localshop/internal/catalog"
	"github.com/Skotchmaster/localshop/internal/order"
	"github.com/Skotchmaster/localshop/internal/searchindex"
)

type Deps struct {
	Auth    *auth.Service
	Catalog *catalog.Service
	Cart    *cart.Service
	Orders  *order.Service
	Admin   *admin.Service
	Search  *searchindex.Mirror // optional
}

func Register(e *echo.Echo, d *Deps) {
	if e.Validator == nil {
		e.Validator = &structValidator{v: validator.New()}
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authH := &AuthHTTP{Svc: d.Auth}
	catalogH := &CatalogHTTP{Svc: d.Catalog, Mirror: d.Search}
	cartH := &CartHTTP{Svc: d.Cart}
	orderH := &OrderHTTP{Svc: d.Orders}
	adminH := &AdminHTTP{Svc: d.Admin, Orders: d.Orders, Search: d.Search}
	requireLogin := RequireLogin(d.Auth)

	v1 := e.Group("/api/v1")

	v1.POST("/auth/register", authH.Register)
	v1.POST("/auth/login", authH.Login)
	v1.POST("/auth/logout", authH.Logout)
	v1.GET("/auth/me", authH.Me, requireLogin)

	v1.GET("/products", catalogH.List)
	v1.POST("/products/filter", catalogH.Filter)
	v1.GET("/products/page", catalogH.CurrentPage)
	v1.POST("/products/page", catalogH.ChangePage)
	v1.GET("/products/:id", catalogH.Product)
	v1.GET("/products/:id/related", catalogH.Related)
	v1.GET("/categories", catalogH.Categories)
	v1.GET("/tags", catalogH.Tags)
	v1.GET("/search", catalogH.Search)

	cartG := v1.Group("/cart", requireLogin)
	cartG.GET("", cartH.Get)
	cartG.POST("/items", cartH.Add)
	cartG.PATCH("/items/:id", cartH.Update)
	cartG.DELETE("/items/:id", cartH.Remove)
	cartG.POST("/checkout", cartH.Checkout)

	orders := v1.Group("/orders", requireLogin)
	orders.GET("", orderH.List)
	orders.GET("/:id", orderH.Get)
	orders.POST("/:id/cancel", orderH.Cancel)

	// The admin console has no login of its own.
	adm := v1.Group("/admin")
	adm.GET("/products", adminH.ListProducts)
	adm.POST("/products", adminH.CreateProduct)
	adm.GET("/products/:id", adminH.GetProduct)
	adm.PATCH("/products/:id", adminH.PatchProduct)
	adm.DELETE("/products/:id", adminH.DeleteProduct)
	adm.POST("/products/:id/toggle", adminH.ToggleProduct)
	adm.GET("/orders", adminH.ListOrders)
	adm.GET("/orders/:id", adminH.GetOrder)
	adm.PATCH("/orders/:id/status", adminH.UpdateOrderStatus)
	adm.GET("/customers", adminH.ListCustomers)
	adm.GET("/customers/:id", adminH.GetCustomer)
	adm.GET("/stats", adminH.Stats)
	adm.GET("/export", adminH.Export)
	adm.POST("/reindex", adminH.Reindex)
}
