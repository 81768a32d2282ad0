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

	"github.com/gin-gonic/gin"
	"github.com/nggaadaotak/kintari-be/internal/config"
	"github.com/nggaadaotak/kintari-be/internal/handler"
	"github.com/nggaadaotak/kintari-be/internal/intent"
	"github.com/nggaadaotak/kintari-be/internal/middleware"
	"github.com/nggaadaotak/kintari-be/internal/model"
	"github.com/nggaadaotak/kintari-be/internal/pipeline"
	"github.com/nggaadaotak/kintari-be/internal/repository"
	"github.com/nggaadaotak/kintari-be/internal/service"
	"github.com/nggaadaotak/kintari-be/pkg/database"
	"github.com/nggaadaotak/kintari-be/pkg/es"
	"github.com/nggaadaotak/kintari-be/pkg/kafka"
	"github.com/nggaadaotak/kintari-be/pkg/llm"
	"github.com/nggaadaotak/kintari-be/pkg/log"
	"github.com/nggaadaotak/kintari-be/pkg/storage"
	"github.com/nggaadaotak/kintari-be/pkg/token"
	"github.com/nggaadaotak/kintari-be/pkg/watcher"
)

func main() {
	// 1. 初始化配置
	cfg, err := config.Load("./configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志记录器
	if err := log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 后台任务（Kafka 消费者、种子目录监听）共用的生命周期
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// 3. 初始化数据库、Redis 和对象存储
	db, err := database.NewMySQL(cfg.Database.MySQL)
	if err != nil {
		log.Fatal("MySQL 初始化失败", err)
	}
	if err := database.AutoMigrate(db, &model.Document{}, &model.DocumentCollection{}, &model.Member{}); err != nil {
		log.Fatal("数据库迁移失败", err)
	}
	rdb, err := database.NewRedis(bgCtx, cfg.Database.Redis)
	if err != nil {
		log.Fatal("Redis 初始化失败", err)
	}
	blobs, err := storage.NewMinioStore(cfg.MinIO)
	if err != nil {
		log.Fatal("MinIO 初始化失败", err)
	}
	if err := blobs.EnsureBucket(bgCtx); err != nil {
		log.Fatal("MinIO 存储桶初始化失败", err)
	}

	// 4. 初始化 Repository
	docRepo := repository.NewDocumentRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	collectionRepo := repository.NewCollectionRepository(db)
	conversationRepo := repository.NewConversationRepository(rdb)

	// 5. 可选的 Elasticsearch 检索索引
	var (
		indexer     pipeline.Indexer
		searchIndex service.SearchIndex
	)
	if cfg.Elasticsearch.Enabled() {
		esClient, err := es.NewClient(cfg.Elasticsearch)
		if err != nil {
			log.Fatal("Elasticsearch 初始化失败", err)
		}
		if err := esClient.EnsureIndex(bgCtx); err != nil {
			log.Fatal("Elasticsearch 索引初始化失败", err)
		}
		indexer, searchIndex = esClient, esClient
	} else {
		log.Info("未配置 Elasticsearch，跳过检索索引")
	}

	// 6. 初始化文档处理管道：配置了 Kafka 时 AI 增强异步执行，否则在请求内同步执行
	llmClient := llm.NewClient(cfg.LLM)
	enricher := pipeline.NewEnricher(docRepo, llmClient)
	var (
		dispatcher pipeline.EnrichmentDispatcher
		producer   *kafka.Producer
	)
	if cfg.Kafka.Enabled() {
		producer = kafka.NewProducer(cfg.Kafka)
		dispatcher = producer
		consumer := kafka.NewConsumer(cfg.Kafka, enricher, kafka.NewRedisAttemptTracker(rdb))
		go consumer.Run(bgCtx)
	} else {
		dispatcher = pipeline.NewInlineDispatcher(enricher)
	}
	processor := pipeline.NewProcessor(blobs, docRepo, indexer, dispatcher)

	// 7. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours)
	documentService := service.NewDocumentService(docRepo, processor, blobs, searchIndex)
	chatService := service.NewChatService(intent.NewRouter(memberRepo), memberRepo, docRepo, llmClient, conversationRepo)
	handlers := &handler.Handlers{
		Auth:       handler.NewAuthHandler(service.NewAuthService(cfg.Auth, jwtManager)),
		Document:   handler.NewDocumentHandler(documentService, cfg.Server.MaxUploadMB),
		Collection: handler.NewCollectionHandler(service.NewCollectionService(collectionRepo, docRepo)),
		Member:     handler.NewMemberHandler(service.NewMemberService(memberRepo)),
		Chat:       handler.NewChatHandler(chatService),
		Analytics: handler.NewAnalyticsHandler(
			service.NewAnalyticsService(memberRepo, docRepo, llmClient),
			service.NewStatsService(docRepo, memberRepo),
		),
	}

	// 7.1 导入种子目录，并监听之后放入的新文件（已导入的文件名会跳过）
	if cfg.Watch.Enabled {
		go startSeedImport(bgCtx, cfg.Watch.Dir, service.NewSeedService(processor, docRepo))
	}

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery(), middleware.CORS(cfg.Server.AllowedOrigins))

	// 9. 注册路由，关闭鉴权时管理接口对所有人开放
	var admin gin.HandlerFunc
	if cfg.Auth.Enabled {
		admin = middleware.AdminAuth(jwtManager)
	} else {
		log.Warnf("管理接口鉴权已关闭 (auth.enabled=false)")
	}
	handlers.Register(r, admin)

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
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}
	stopBackground()
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Errorf("关闭 Kafka 生产者失败: %v", err)
		}
	}
	if err := rdb.Close(); err != nil {
		log.Errorf("关闭 Redis 连接失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}

// startSeedImport 导入 dir 下已有的 PDF，然后持续导入新出现的文件，直到 ctx 取消。
func startSeedImport(ctx context.Context, dir string, seeds service.SeedService) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		log.Infof("种子目录 '%s' 不存在或不可用，跳过初始化导入", dir)
		return
	}

	n, err := seeds.ImportDir(ctx, dir)
	if err != nil {
		log.Warnf("种子目录导入失败: %v", err)
	} else {
		log.Infof("种子目录导入完成，新增 %d 个文档", n)
	}

	w, err := watcher.New()
	if err != nil {
		log.Error("创建目录监听器失败", err)
		return
	}
	defer w.Close()

	paths, err := w.Watch(ctx, dir)
	if err != nil {
		log.Error("监听种子目录失败", err)
		return
	}
	seeds.Follow(ctx, paths)
}
