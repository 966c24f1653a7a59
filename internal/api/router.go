package api

import (
	"time"

	"novamall/config"
	"novamall/internal/api/admin"
	"novamall/internal/api/apis"
	"novamall/internal/api/handler"
	"novamall/internal/gateway"
	"novamall/internal/middleware"
	"novamall/internal/repository"
	"novamall/internal/service"
	"novamall/pkg/async"
	"novamall/pkg/email"
	"novamall/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// SetupRouter 设置API路由
func SetupRouter(cfg *config.Config, logger *logger.Logger, db *sqlx.DB, redisClient *redis.Client) *gin.Engine {
	// 创建Gin引擎
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// 使用中间件
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())

	// 创建异步工作器
	worker := async.NewWorker(100, logger)
	worker.Start(5) // 启动5个工作协程

	// 初始化存储库
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// 初始化邮件服务
	emailService := email.NewService(email.Config{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		FromName: cfg.Email.FromName,
	}, logger)

	// 初始化支付网关工厂
	gatewayFactory := gateway.NewFactory(cfg.Gateways, logger)

	// 初始化服务
	userService := service.NewUserService(userRepo, logger)
	productService := service.NewProductService(productRepo, logger)
	addressService := service.NewAddressService(addressRepo, logger)
	pricingService := service.NewPricingService(service.PricingConfig{
		TaxRate:       decimal.NewFromFloat(cfg.Checkout.TaxRate),
		ShippingFlat:  decimal.NewFromFloat(cfg.Checkout.ShippingFlat),
		ShippingPerKg: decimal.NewFromFloat(cfg.Checkout.ShippingPerKg),
	})
	guestCartTTL := time.Duration(cfg.Checkout.GuestCartTTLHrs) * time.Hour
	cartService := service.NewCartService(productRepo, redisClient, guestCartTTL, logger)
	couponService := service.NewCouponService(couponRepo, pricingService, logger)
	orderService := service.NewOrderService(
		orderRepo, productRepo, addressRepo, couponRepo, userRepo,
		cartService, couponService, pricingService,
		emailService, worker, logger, cfg.Checkout.Currency,
	)
	paymentService := service.NewPaymentService(
		paymentRepo, orderRepo, userRepo, gatewayFactory,
		redisClient, emailService, worker, logger,
	)

	// 初始化处理器
	userHandler := handler.NewUserHandler(userService, logger)
	productHandler := handler.NewProductHandler(productService, logger)
	cartHandler := handler.NewCartHandler(cartService, logger)
	addressHandler := handler.NewAddressHandler(addressService, logger)
	couponHandler := handler.NewCouponHandler(couponService, cartService, pricingService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	paymentHandler := handler.NewPaymentHandler(paymentService, logger)

	// 初始化管理员处理器
	orderAdminHandler := admin.NewOrderAdminHandler(orderService, logger)
	productAdminHandler := admin.NewProductAdminHandler(productService, logger)
	couponAdminHandler := admin.NewCouponAdminHandler(couponService, logger)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API版本v1
	v1 := router.Group("/api/v1")

	// 注册不需要认证的路由（注册、登录、商品浏览、Webhook回调）
	apis.RegisterPublicRoutes(v1, userHandler, productHandler, paymentHandler)

	// 购物车路由允许游客访问，携带Token时归属登录用户
	cartRouter := v1.Group("")
	cartRouter.Use(middleware.OptionalUserAuth(userService))
	apis.RegisterCartRoutes(cartRouter, cartHandler, couponHandler, orderHandler, paymentHandler)

	// 创建需要认证的API路由组
	authRouter := v1.Group("")
	authRouter.Use(middleware.UserAuth(userService))
	apis.RegisterAuthRoutes(authRouter, userHandler, addressHandler, orderHandler, paymentHandler)

	// 注册管理员API路由
	adminRouter := v1.Group("/admin")
	adminRouter.Use(middleware.AdminAuth(userService))
	admin.RegisterAdminRoutes(adminRouter, orderAdminHandler, productAdminHandler, couponAdminHandler)

	return router
}
