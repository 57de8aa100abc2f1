package server

import (
	"fmt"
	"net/http"

	"github.com/example/storefront/pkg/apperrors"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/service"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type Server struct {
	config    *config.Config
	logger    *zap.Logger
	router    *gin.Engine
	carts     *service.CartService
	orders    *service.OrderService
	catalog   *service.CatalogService
	auth      *service.AuthService
	customers service.CustomerStore
	events    service.EventRecorder
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	carts *service.CartService,
	orders *service.OrderService,
	catalog *service.CatalogService,
	auth *service.AuthService,
	customers service.CustomerStore,
	events service.EventRecorder,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Server{
		config:    cfg,
		logger:    logger,
		router:    router,
		carts:     carts,
		orders:    orders,
		catalog:   catalog,
		auth:      auth,
		customers: customers,
		events:    events,
	}
}

func (s *Server) SetupRoutes() {
	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Payment provider callback, raw-body signature verification
	s.router.POST("/webhook/stripe", s.handleStripeWebhook)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	v1.Use(s.cartSession())
	{
		products := v1.Group("/products")
		{
			products.GET("", s.listProducts)
			products.GET("/:id", s.getProduct)
			products.GET("/:id/ratings", s.listRatings)
			products.POST("/rate", s.authRequired(), s.rateProduct)
			products.POST("", s.authRequired(), s.adminRequired(), s.createProduct)
			products.PUT("/:id", s.authRequired(), s.adminRequired(), s.updateProduct)
			products.DELETE("/:id", s.authRequired(), s.adminRequired(), s.deleteProduct)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", s.listCategories)
			categories.GET("/:id/products", s.productsByCategory)
		}

		cart := v1.Group("/cart")
		{
			cart.GET("", s.getCart)
			cart.POST("", s.addToCart)
			cart.PUT("/items/:productId", s.updateCartItem)
			cart.DELETE("/items/:productId", s.removeCartItem)
			cart.DELETE("", s.clearCart)
		}

		v1.POST("/checkout", s.authOptional(), s.checkout)

		orders := v1.Group("/orders", s.authRequired())
		{
			orders.GET("", s.listOrders)
			orders.GET("/:id", s.getOrder)
		}

		auth := v1.Group("/auth")
		{
			auth.POST("/register", s.register)
			auth.POST("/login", s.login)
			auth.POST("/refresh", s.refresh)
			auth.GET("/me", s.authRequired(), s.me)
		}
	}

	// Swagger
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("Server starting", zap.String("address", addr))
	return s.router.Run(addr)
}

// Router is exposed for handler tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperrors.KindBadRequest:
		status = http.StatusBadRequest
	case apperrors.KindConflict:
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
