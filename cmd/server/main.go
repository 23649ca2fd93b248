// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"rag-chat-go/internal/config"
	"rag-chat-go/internal/handler"
	"rag-chat-go/internal/middleware"
	"rag-chat-go/internal/pipeline"
	"rag-chat-go/internal/repository"
	"rag-chat-go/internal/service"
	"rag-chat-go/pkg/database"
	"rag-chat-go/pkg/embedding"
	"rag-chat-go/pkg/kafka"
	"rag-chat-go/pkg/llm"
	"rag-chat-go/pkg/log"
	"rag-chat-go/pkg/storage"
	"rag-chat-go/pkg/tika"
	"rag-chat-go/pkg/token"
	"rag-chat-go/pkg/vectorindex"
	"syscall"
	"time"

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

	// 3. 初始化基础设施客户端
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	index, err := vectorindex.NewClient(cfg.Elasticsearch)
	if err != nil {
		log.Errorf("向量索引初始化失败: %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化 Repository。
	// 会话存储是显式构造、依赖注入的组件，生命周期与进程一致。
	conversationRepo := repository.NewConversationRepository(cfg.Conversation)
	docRepo := repository.NewDocumentRepository(database.DB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours)
	tikaClient := tika.NewClient(cfg.Tika)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)
	searchService := service.NewSearchService(embeddingClient, index)
	chatService := service.NewChatService(searchService, llmClient, cfg.RAG)
	conversationService := service.NewConversationService(conversationRepo)
	knowledgeService := service.NewKnowledgeService(docRepo, index, cfg.MinIO)
	authService := service.NewAuthService(cfg.Admin, jwtManager)

	// 6. 初始化文档处理管道 (Processor)
	processor := pipeline.NewProcessor(tikaClient, embeddingClient, index, cfg.MinIO, docRepo)

	// 7. 启动后台任务：Kafka 消费者与会话过期清理，随进程退出取消
	bgCtx, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()
	go kafka.StartConsumer(bgCtx, cfg.Kafka, processor)
	conversationRepo.StartSweeper(bgCtx)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	chatHandler := handler.NewChatHandler(chatService, conversationService)
	conversationHandler := handler.NewConversationHandler(conversationService)
	knowledgeHandler := handler.NewKnowledgeHandler(knowledgeService)
	authHandler := handler.NewAuthHandler(authService)
	healthHandler := handler.NewHealthHandler()

	r.GET("/healthz", healthHandler.Check)
	r.GET("/chat/ws", chatHandler.HandleWebSocket)

	apiV1 := r.Group("/api/v1")
	{
		// Chat 路由，带限流
		chat := apiV1.Group("/chat")
		chat.Use(middleware.RateLimitMiddleware(database.RDB, cfg.RateLimit))
		{
			chat.POST("", chatHandler.Chat)
		}

		// Conversation 路由组
		conversations := apiV1.Group("/conversations")
		{
			conversations.POST("", conversationHandler.Create)
			conversations.GET("/:id", conversationHandler.Get)
			conversations.DELETE("/:id", conversationHandler.Delete)
		}

		// 管理端路由组
		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", authHandler.Login)

			authed := admin.Group("/")
			authed.Use(middleware.AdminAuthMiddleware(jwtManager))
			{
				authed.DELETE("conversations", conversationHandler.ClearAll)

				knowledge := authed.Group("knowledge")
				{
					knowledge.POST("/upload", knowledgeHandler.Upload)
					knowledge.GET("", knowledgeHandler.List)
					knowledge.GET("/index", knowledgeHandler.ListIndex)
					knowledge.DELETE("/:docId", knowledgeHandler.Delete)
				}
			}
		}
	}

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

	// 先取消后台任务（Kafka 消费者、会话清理）
	cancelBg()

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
