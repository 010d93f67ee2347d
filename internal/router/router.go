package router

import (
	"time"

	"tiendapos/internal/config"
	"tiendapos/internal/handler"
	"tiendapos/internal/infra"
	"tiendapos/internal/middleware"
	"tiendapos/internal/model"
	"tiendapos/internal/repository"
	"tiendapos/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(
	cfg *config.Config,
	db *gorm.DB,
	rdb *redis.Client,
	jobs service.JobQueue,
	gateway service.PaymentGateway,
	gatewayCB *infra.CircuitBreaker,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoMethod(handler.MethodNotAllowed)

	counter := middleware.NewRedisWindowCounter(rdb)

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(counter, "global", 1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	cache := infra.NewRedisCache(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	registerRepo := repository.NewCashRegisterRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	deliveryRepo := repository.NewDeliveryAddressRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	recoRepo := repository.NewRecommendationRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	ledger := service.NewInventoryLedger(productRepo, movementRepo)

	authSvc := service.NewAuthService(userRepo, cfg, jobs)
	categorySvc := service.NewCategoryService(categoryRepo)
	discountSvc := service.NewDiscountService(discountRepo, cache)
	productSvc := service.NewProductService(productRepo, categoryRepo, discountRepo, movementRepo, ledger, cache, cfg.RecommendationCacheTTL())
	purchaseSvc := service.NewPurchaseService(purchaseRepo, registerRepo, ledger, cache)
	saleSvc := service.NewSaleService(saleRepo, registerRepo, userRepo, ledger, cache, jobs, cfg.StoreName)
	registerSvc := service.NewCashRegisterService(registerRepo)
	orderSvc := service.NewOrderService(orderRepo, saleRepo, userRepo, deliveryRepo, ledger, cache, jobs)
	deliverySvc := service.NewDeliveryService(deliveryRepo)
	paymentSvc := service.NewPaymentService(paymentRepo, orderRepo, gateway)
	recoSvc := service.NewRecommendationService(recoRepo, saleRepo, productRepo, cache, cfg.RecommendationCacheTTL())

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	categoriesH := handler.NewCategoryHandler(categorySvc)
	discountsH := handler.NewDiscountHandler(discountSvc)
	productsH := handler.NewProductHandler(productSvc, recoSvc)
	purchasesH := handler.NewPurchaseHandler(purchaseSvc)
	salesH := handler.NewSaleHandler(saleSvc)
	registersH := handler.NewCashRegisterHandler(registerSvc)
	ordersH := handler.NewOrderHandler(orderSvc)
	deliveryH := handler.NewDeliveryHandler(deliverySvc)
	paymentsH := handler.NewPaymentHandler(paymentSvc)
	adminH := handler.NewAdminHandler(recoSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, gatewayCB))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(counter), authH.Login)
		auth.POST("/refresh", authH.Refresh)
		auth.POST("/register", authH.Register)
		auth.GET("/verify-email", authH.VerifyEmail)
	}

	catalog := r.Group("/v1/catalog")
	{
		catalog.GET("/products/:id", productsH.CatalogCard)
		catalog.GET("/products/:id/recommendations", productsH.Recommendations)
	}

	// Gateway callback, authenticated with Basic credentials instead of a JWT.
	r.POST("/v1/payments/webhook", middleware.WebhookBasicAuth(cfg.WebhookUsername, cfg.WebhookPassword), paymentsH.Webhook)

	admin := middleware.RequireRole(model.RoleAdministrator)
	staff := middleware.RequireRole(model.RoleAdministrator, model.RoleCashier)

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		v1.GET("/auth/me", authH.Me)

		users := v1.Group("/users", admin)
		{
			users.GET("", authH.ListUsers)
			users.POST("", authH.CreateUser)
		}

		// Catalog: any authenticated user reads, administrators write.
		v1.GET("/categories", categoriesH.List)
		v1.GET("/categories/:id", categoriesH.Get)
		v1.POST("/categories", admin, categoriesH.Create)
		v1.PUT("/categories/:id", admin, categoriesH.Update)
		v1.DELETE("/categories/:id", admin, categoriesH.Delete)

		v1.GET("/discounts", discountsH.List)
		v1.GET("/discounts/:id", discountsH.Get)
		v1.POST("/discounts", admin, discountsH.Create)
		v1.PUT("/discounts/:id", admin, discountsH.Update)
		v1.DELETE("/discounts/:id", admin, discountsH.Delete)

		v1.GET("/products", productsH.List)
		v1.GET("/products/:id", productsH.Get)
		v1.GET("/products/:id/movements", productsH.Movements)
		v1.POST("/products", admin, productsH.Create)
		v1.PUT("/products/:id", admin, productsH.Update)
		v1.DELETE("/products/:id", admin, productsH.Delete)

		// Purchases and sales are immutable once recorded.
		purchases := v1.Group("/purchases", staff)
		{
			purchases.GET("", purchasesH.List)
			purchases.POST("", purchasesH.Create)
			purchases.GET("/:id", purchasesH.Get)
			purchases.PUT("/:id", handler.MethodNotAllowed)
			purchases.PATCH("/:id", handler.MethodNotAllowed)
			purchases.DELETE("/:id", handler.MethodNotAllowed)
		}

		sales := v1.Group("/sales", staff)
		{
			sales.GET("", salesH.List)
			sales.POST("", salesH.Create)
			sales.GET("/:id", salesH.Get)
			sales.GET("/:id/receipt", salesH.Receipt)
			sales.PUT("/:id", handler.MethodNotAllowed)
			sales.PATCH("/:id", handler.MethodNotAllowed)
			sales.DELETE("/:id", handler.MethodNotAllowed)
		}

		registers := v1.Group("/cash-registers", staff)
		{
			registers.GET("", registersH.List)
			registers.POST("", registersH.Open)
			registers.GET("/validate", registersH.Validate)
			registers.POST("/close", registersH.CloseCurrent)
			registers.GET("/:id", registersH.Get)
			registers.PATCH("/:id", registersH.UpdateInitialBalance)
			registers.POST("/:id/close", registersH.Close)
			registers.DELETE("/:id", handler.MethodNotAllowed)
		}

		orders := v1.Group("/orders")
		{
			orders.GET("", ordersH.List)
			orders.POST("", ordersH.Create)
			orders.GET("/:id", ordersH.Get)
			orders.PATCH("/:id", staff, ordersH.UpdateStatus)
			orders.GET("/:id/status-history", ordersH.History)
		}

		v1.GET("/delivery-address", deliveryH.Get)
		v1.PUT("/delivery-address", deliveryH.Upsert)
		v1.DELETE("/delivery-address", deliveryH.Delete)

		payments := v1.Group("/payments")
		{
			payments.GET("", paymentsH.List)
			payments.POST("/qr", paymentsH.GenerateQR)
			payments.POST("/verify", paymentsH.Verify)
		}

		v1.POST("/admin/recommendations/rebuild", admin, adminH.RebuildRecommendations)
	}

	// Swagger UI, only outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
