// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"amora-go/internal/config"
	"amora-go/internal/handler"
	"amora-go/internal/middleware"
	"amora-go/internal/realtime"
	"amora-go/internal/repository"
	"amora-go/internal/service"
	"amora-go/pkg/database"
	"amora-go/pkg/es"
	"amora-go/pkg/kafka"
	"amora-go/pkg/log"
	"amora-go/pkg/storage"
	"amora-go/pkg/token"
	"amora-go/pkg/vapi"
	"amora-go/pkg/webhook"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis 与外部依赖
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	database.Migrate()
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	profileRepo := repository.NewProfileRepository(database.DB)
	usageRepo := repository.NewUsageRepository(database.DB)
	chatRepo := repository.NewChatRepository(database.DB)
	advisorRepo := repository.NewAdvisorRepository(database.DB)
	settingRepo := repository.NewSettingRepository(database.DB)
	contentRepo := repository.NewContentRepository(database.DB)
	callRepo := repository.NewCallRepository(database.DB)
	discoveryRepo := repository.NewDiscoveryRepository(database.RDB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	webhookClient := webhook.NewClient(cfg.Webhook.TimeoutSeconds)
	vapiClient := vapi.NewClient(cfg.Vapi)
	hub := realtime.NewHub()

	usageService := service.NewUsageService(usageRepo, cfg.Usage)
	userService := service.NewUserService(userRepo, profileRepo, usageService, jwtManager, cfg.MinIO.BucketName)
	advisorService := service.NewAdvisorService(advisorRepo)
	chatService := service.NewChatService(chatRepo, settingRepo, usageService, advisorRepo, webhookClient, hub, kafka.ProduceSpendEvent, cfg.Webhook)
	discoveryService := service.NewDiscoveryService(discoveryRepo, profileRepo, settingRepo, advisorService, webhookClient, hub, cfg.Discovery, cfg.Webhook)
	paymentService := service.NewPaymentService(contentRepo, usageService, cfg.Stripe)
	voiceService := service.NewVoiceService(callRepo, advisorRepo, usageService, vapiClient)
	searchService := service.NewSearchService(contentRepo, advisorRepo, cfg.Elasticsearch.IndexName)
	contentService := service.NewContentService(contentRepo, searchService)

	// 6. 播种默认顾问并重建搜索索引
	if err := advisorService.SeedDefaults(); err != nil {
		log.Errorf("播种默认顾问失败: %v", err)
	}
	go func() {
		if err := searchService.ReindexAll(context.Background()); err != nil {
			log.Warnf("重建搜索索引失败: %v", err)
		}
	}()

	// 7. 启动后台 Kafka 消费者：接收工作流引擎回写的人格分析结果
	go kafka.StartAnalysisConsumer(cfg.Kafka, discoveryService)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	authed := middleware.AuthMiddleware(jwtManager)
	apiV1 := r.Group("/api/v1")
	{
		// Auth 路由组
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", handler.NewUserHandler(userService).RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			// 无需认证的路由 (公开访问)
			users.POST("/register", handler.NewUserHandler(userService).Register)
			users.POST("/login", handler.NewUserHandler(userService).Login)

			// 需要认证的路由 (仅限登录用户访问)
			me := users.Group("/")
			me.Use(authed)
			{
				me.GET("/me", handler.NewUserHandler(userService).GetProfile)
				me.POST("/logout", handler.NewUserHandler(userService).Logout)
				me.POST("/onboarding", handler.NewUserHandler(userService).CompleteOnboarding)
				me.POST("/photo", handler.NewUserHandler(userService).UploadPhoto)
				me.GET("/photo", handler.NewUserHandler(userService).GetPhotoURL)
				me.GET("/usage", handler.NewChatHandler(chatService, usageService).GetUsage)
			}
		}

		// Advisor 路由组
		advisors := apiV1.Group("/advisors")
		advisors.Use(authed)
		{
			advisors.GET("", handler.NewAdvisorHandler(advisorService, searchService).List)
			advisors.GET("/:id", handler.NewAdvisorHandler(advisorService, searchService).Get)
		}

		// Chat 路由组
		chat := apiV1.Group("/chat")
		chat.Use(authed)
		{
			chat.POST("/send", handler.NewChatHandler(chatService, usageService).SendMessage)
			chat.GET("/history/:advisorId", handler.NewChatHandler(chatService, usageService).History)
		}

		// Discovery 路由组：问卷提交与分析轮询
		discovery := apiV1.Group("/discovery")
		discovery.Use(authed)
		{
			discovery.GET("/questions", handler.NewDiscoveryHandler(discoveryService, contentService).Questions)
			discovery.POST("/submit", handler.NewDiscoveryHandler(discoveryService, contentService).Submit)
			discovery.GET("/await", handler.NewDiscoveryHandler(discoveryService, contentService).Await)
			discovery.GET("/status", handler.NewDiscoveryHandler(discoveryService, contentService).Status)
			discovery.POST("/auto-chat/consume", handler.NewDiscoveryHandler(discoveryService, contentService).ConsumeAutoChat)
		}

		// Payment 路由组；Stripe 回调不经过认证，靠签名校验
		payments := apiV1.Group("/payments")
		{
			payments.POST("/stripe/webhook", handler.NewPaymentHandler(paymentService).Webhook)

			paid := payments.Group("/")
			paid.Use(authed)
			{
				paid.POST("/stripe/create-session", handler.NewPaymentHandler(paymentService).CreateSession)
				paid.GET("/credit-rates", handler.NewPaymentHandler(paymentService).CreditRates)
				paid.GET("/coupons/validate", handler.NewPaymentHandler(paymentService).ValidateCoupon)
			}
		}

		// Voice 路由组
		voice := apiV1.Group("/voice")
		voice.Use(authed)
		{
			voice.POST("/start", handler.NewVoiceHandler(voiceService).StartCall)
			voice.POST("/end", handler.NewVoiceHandler(voiceService).EndCall)
		}

		// Content 路由组
		blogs := apiV1.Group("/blogs")
		{
			blogs.GET("", handler.NewContentHandler(contentService).Blogs)
			blogs.GET("/:id", handler.NewContentHandler(contentService).GetBlog)
		}
		apiV1.GET("/contacts", handler.NewContentHandler(contentService).Contacts)

		// Search 路由组
		search := apiV1.Group("/search")
		search.Use(authed)
		{
			search.GET("", handler.NewSearchHandler(searchService).Search)
		}

		// 管理员路由组，需要同时通过认证和管理员授权两个中间件
		admin := apiV1.Group("/admin")
		admin.Use(authed, middleware.AdminOnly())
		{
			admin.POST("/advisors", handler.NewAdvisorHandler(advisorService, searchService).Create)
			admin.PUT("/advisors/:id", handler.NewAdvisorHandler(advisorService, searchService).Update)
			admin.POST("/blogs", handler.NewContentHandler(contentService).PublishBlog)
		}
	}

	// 实时推送 (WebSocket)，token 由查询参数携带
	r.GET("/ws", handler.NewRealtimeHandler(hub, jwtManager).Connect)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
