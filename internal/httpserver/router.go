package httpserver

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/metrics"
	"jewelry-storefront/internal/notice"
	"jewelry-storefront/internal/pricing"
	"jewelry-storefront/internal/service/cart"
	"jewelry-storefront/internal/service/catalog"
	"jewelry-storefront/internal/service/checkout"
	"jewelry-storefront/internal/service/session"
	"jewelry-storefront/internal/storage"
)

type catalogService interface {
	List(ctx context.Context, f catalog.Filters, cursor string) (catalog.Page, error)
	Featured(ctx context.Context, limit int) ([]domain.Product, error)
	BySlug(ctx context.Context, slug string) (*domain.Product, error)
	ByID(ctx context.Context, id string) (*domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
}

type cartService interface {
	Open(ctx context.Context, sessionID string) *cart.Store
}

type checkoutService interface {
	SubmitOrder(ctx context.Context, sessionID string, form checkout.Form) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	OrderHistory(ctx context.Context, sessionID string) ([]domain.Order, error)
}

type identityService interface {
	SignIn(ctx context.Context, sessionID, email, password string) error
	SignUp(ctx context.Context, sessionID, email, password, name string) error
	SignInWithGoogle(ctx context.Context, sessionID, idToken string) error
	Logout(ctx context.Context, sessionID string) error
	Current(ctx context.Context, sessionID string) (*domain.Identity, bool)
}

type sessionService interface {
	Issue(ctx context.Context) (session.Session, error)
	Lookup(ctx context.Context, token string) (session.Session, error)
	TTL() time.Duration
}

type noticeSource interface {
	Drain(sessionID string) []notice.Notice
}

// Deps holds the services the routes delegate to.
type Deps struct {
	Catalog  catalogService
	Carts    cartService
	Checkout checkoutService
	Identity identityService
	Sessions sessionService
	Notices  noticeSource
	Metrics  *metrics.Storefront
	Pricing  pricing.Calculator
	// Snapshots is checked by /readyz when the snapshot store is networked.
	Snapshots storage.Pinger

	CORSOrigins   []string
	SessionCookie string
	SecureCookie  bool
}

func (d Deps) validate() error {
	switch {
	case d.Catalog == nil:
		return errors.New("httpserver: catalog service is required")
	case d.Carts == nil:
		return errors.New("httpserver: cart service is required")
	case d.Checkout == nil:
		return errors.New("httpserver: checkout service is required")
	case d.Identity == nil:
		return errors.New("httpserver: identity service is required")
	case d.Sessions == nil:
		return errors.New("httpserver: session service is required")
	case d.Notices == nil:
		return errors.New("httpserver: notice source is required")
	}
	return nil
}

type handlers struct {
	deps   Deps
	logger zerolog.Logger
}

// buildRouter wires routes for the API.
func buildRouter(logger zerolog.Logger, db pinger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.SessionCookie == "" {
		deps.SessionCookie = defaultSessionCookie
	}
	if deps.Pricing.FreeShippingThreshold.IsZero() && deps.Pricing.FlatShippingFee.IsZero() {
		deps.Pricing = pricing.Default()
	}

	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery(), observeRequests(deps.Metrics))
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db, deps.Snapshots))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	h := &handlers{deps: deps, logger: logger}

	api := router.Group("/api")
	api.GET("/categories", h.listCategories)
	api.GET("/products", h.listProducts)
	api.GET("/products/featured", h.featuredProducts)
	api.GET("/products/:slug", h.productBySlug)

	sess := api.Group("")
	sess.Use(sessionMiddleware(deps.Sessions, deps.SessionCookie, deps.SecureCookie, logger))
	sess.GET("/cart", h.getCart)
	sess.POST("/cart/items", h.addCartItem)
	sess.PATCH("/cart/items", h.updateCartItem)
	sess.DELETE("/cart/items", h.removeCartItem)
	sess.DELETE("/cart", h.clearCart)
	sess.POST("/checkout", h.submitOrder)
	sess.GET("/orders/:id", h.getOrder)
	sess.POST("/auth/signin", h.signIn)
	sess.POST("/auth/signup", h.signUp)
	sess.POST("/auth/google", h.signInWithGoogle)
	sess.POST("/auth/signout", h.signOut)
	sess.GET("/me", h.me)
	sess.GET("/me/orders", h.orderHistory)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "route not found"}})
	})

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", sessionHeader}
	cfg.ExposeHeaders = []string{sessionHeader}
	cfg.AllowCredentials = true
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}
