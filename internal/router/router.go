package router

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/fx"

	"carfix/internal/auth"
	"carfix/internal/config"
	"carfix/internal/handler"
	"carfix/internal/model"
)

// Params holds the dependencies of the HTTP surface, injected by fx.
type Params struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
	Gate   *auth.Gate

	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Catalog   *handler.CatalogHandler
	Cart      *handler.CartHandler
	Inventory *handler.InventoryHandler
	Category  *handler.CategoryHandler
	Activity  *handler.ActivityHandler
	Uploads   *handler.UploadHandler
}

// New builds the echo instance with middleware and every route registered.
func New(p Params) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(p.Logger)
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(p.Logger))
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(bodyLimit(p.Config)))

	Register(e, p)
	return e
}

// Register wires routes.
func Register(e *echo.Echo, p Params) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/uploads/*", p.Uploads.Serve)

	authed := p.Gate.Authenticate()
	customer := p.Gate.RequireRole(model.RoleCustomer)
	seller := p.Gate.RequireRole(model.RoleSeller)
	admin := p.Gate.RequireRole(model.RoleAdmin)

	api := e.Group("/api")

	// Auth
	api.POST("/auth/register", p.Auth.Register)
	api.POST("/auth/login", p.Auth.Login)
	api.POST("/auth/refresh", p.Auth.Refresh)
	api.POST("/auth/logout", p.Auth.Logout, authed)
	api.GET("/auth/me", p.Auth.Me, authed)
	api.GET("/auth/validate", p.Auth.Validate, authed)

	// Public catalog
	api.GET("/products", p.Catalog.ListProducts)
	api.GET("/products/:id", p.Catalog.GetProduct)
	api.GET("/brands", p.Catalog.ListBrands)
	api.GET("/categories", p.Category.List)

	// Cart
	cart := api.Group("/cart", authed, customer)
	cart.GET("", p.Cart.List)
	cart.POST("", p.Cart.Add)
	cart.GET("/count", p.Cart.Count)
	cart.PUT("/:id", p.Cart.Update)
	cart.DELETE("/:id", p.Cart.Remove)

	// Seller inventory
	api.POST("/products", p.Inventory.Create, authed, seller)
	sellerProducts := api.Group("/seller/products", authed, seller)
	sellerProducts.GET("", p.Catalog.ListSellerProducts)
	sellerProducts.GET("/:id", p.Catalog.GetSellerProduct)
	sellerProducts.PUT("/:id", p.Inventory.Update)
	sellerProducts.DELETE("/:id", p.Inventory.Delete)

	// Category writes
	api.POST("/categories", p.Category.Create, authed, seller)
	api.PUT("/categories/:id", p.Category.Update, authed, seller)
	api.DELETE("/categories/:id", p.Category.Delete, authed, seller)

	// Account activity
	api.GET("/orders", p.Activity.ListOrders, authed)
	api.GET("/wishlist", p.Activity.ListWishlist, authed)
	api.GET("/notifications", p.Activity.ListNotifications, authed)
	api.GET("/reviews", p.Activity.ListReviews, authed)

	// Administration
	users := api.Group("/users", authed, admin)
	users.GET("", p.Users.ListUsers)
	users.GET("/:id", p.Users.GetUser)
}

// bodyLimit leaves room for a full set of images plus the form fields.
func bodyLimit(cfg *config.Config) string {
	limit := int64(cfg.MaxUploadFiles)*cfg.MaxUploadBytes + 1<<20
	return fmt.Sprintf("%dK", limit>>10)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
