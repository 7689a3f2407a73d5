package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/example/eshop/pkg/auth"
	"github.com/example/eshop/pkg/config"
	"github.com/example/eshop/pkg/metrics"
	"github.com/example/eshop/pkg/upload"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Services bundles the dependencies handlers call into. Cache, Peers and
// Health are optional.
type Services struct {
	Categories CategoryStore
	Products   ProductStore
	Cache      ProductCache
	Orders     OrderStore
	Workflow   OrderWorkflow
	Audit      AuditReader
	Users      UserStore
	Feedbacks  FeedbackStore
	Auth       *auth.Authenticator
	Uploads    *upload.Storage
	Metrics    *metrics.ServerMetrics
	Peers      PeerDirectory
	Health     func(ctx context.Context) error
}

type Gateway struct {
	config *config.Config
	logger *zap.Logger
	router *gin.Engine
	server *http.Server
	svc    Services
}

func NewGateway(cfg *config.Config, logger *zap.Logger, svc Services) *Gateway {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware(logger))
	if svc.Metrics != nil {
		router.Use(metricsMiddleware(svc.Metrics))
	}

	g := &Gateway{
		config: cfg,
		logger: logger,
		router: router,
		svc:    svc,
		server: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	g.setupRoutes()
	return g
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) setupRoutes() {
	g.router.GET("/health", g.health)
	if g.svc.Metrics != nil {
		g.router.GET("/metrics", gin.WrapH(g.svc.Metrics.Handler()))
	}
	if g.svc.Uploads != nil {
		g.router.Static(upload.PublicPath, g.svc.Uploads.Dir())
	}
	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := g.router.Group(g.config.Server.APIPrefix)
	authn := authMiddleware(g.svc.Auth)
	admin := []gin.HandlerFunc{authn, requireAdmin()}

	categories := api.Group("/categories")
	{
		categories.GET("", g.listCategories)
		categories.GET("/:id", g.getCategory)
		categories.GET("/get/count", g.countCategories)
		categories.POST("", append(admin, g.createCategory)...)
		categories.PUT("/:id", append(admin, g.updateCategory)...)
		categories.DELETE("/:id", append(admin, g.deleteCategory)...)
	}

	products := api.Group("/products")
	{
		products.GET("", g.listProducts)
		products.GET("/:id", g.getProduct)
		products.GET("/get/count", g.countProducts)
		products.GET("/get/featured/:count", g.featuredProducts)
		products.POST("", append(admin, g.createProduct)...)
		products.PUT("/:id", append(admin, g.updateProduct)...)
		products.PUT("/gallery-images/:id", append(admin, g.updateGallery)...)
		products.DELETE("/:id", append(admin, g.deleteProduct)...)
	}

	orders := api.Group("/orders", authn)
	{
		orders.POST("", g.createOrder)
		orders.GET("/get/userorders/:userid", selfOrAdmin("userid"), g.userOrders)
		orders.GET("", requireAdmin(), g.listOrders)
		orders.GET("/:id", requireAdmin(), g.getOrder)
		orders.GET("/:id/history", requireAdmin(), g.orderHistory)
		orders.GET("/get/count", requireAdmin(), g.countOrders)
		orders.GET("/get/totalsales", requireAdmin(), g.totalSales)
		orders.PUT("/:id", requireAdmin(), g.updateOrderStatus)
		orders.DELETE("/:id", requireAdmin(), g.deleteOrder)
	}

	users := api.Group("/users")
	{
		users.POST("/login", g.login)
		users.POST("/register", g.register)
		users.GET("", append(admin, g.listUsers)...)
		users.GET("/:id", append(admin, g.getUser)...)
		users.GET("/get/count", append(admin, g.countUsers)...)
		users.POST("", append(admin, g.createUser)...)
		users.PUT("/:id", append(admin, g.updateUser)...)
		users.DELETE("/:id", append(admin, g.deleteUser)...)
	}

	feedbacks := api.Group("/feedbacks", authn)
	{
		feedbacks.POST("", g.createFeedback)
		feedbacks.GET("", requireAdmin(), g.listFeedbacks)
		feedbacks.GET("/:id", requireAdmin(), g.getFeedback)
		feedbacks.GET("/get/count", requireAdmin(), g.countFeedbacks)
		feedbacks.DELETE("/:id", requireAdmin(), g.deleteFeedback)
	}
}

func (g *Gateway) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if g.svc.Health != nil {
		if err := g.svc.Health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}

	body := gin.H{"status": "ok"}
	if g.svc.Peers != nil {
		instances, err := g.svc.Peers.Discover(ctx, g.config.Server.Name)
		if err != nil {
			g.logger.Warn("Failed to list service instances", zap.Error(err))
		} else {
			addrs := make([]string, len(instances))
			for i, inst := range instances {
				addrs[i] = inst.Addr()
			}
			body["instances"] = addrs
		}
	}
	c.JSON(http.StatusOK, body)
}

// Start serves until Shutdown is called.
func (g *Gateway) Start() error {
	g.logger.Info("Gateway starting", zap.String("address", g.server.Addr))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.server.Shutdown(ctx)
}
