package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	redisDriver "github.com/redis/go-redis/v9"

	"capsule-im/internal/config"
	"capsule-im/internal/handlers/apiserver"
	"capsule-im/internal/handlers/chatserver"
	"capsule-im/internal/imtypes"
	appKafka "capsule-im/internal/kafka"
	"capsule-im/internal/middleware"
	appRedis "capsule-im/internal/redis"
	"capsule-im/internal/services"
	"capsule-im/internal/storage"
	ws "capsule-im/internal/websocket"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	log.Printf("%s v%s 配置加载成功。", cfg.AppName, cfg.AppVersion)

	// 2. 初始化数据库连接
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("无法初始化数据库: %v", err)
	}
	log.Println("数据库连接成功。")

	if err := storage.AutoMigrateTables(db); err != nil {
		log.Fatalf("数据库表迁移失败: %v", err)
	}

	// 3. 初始化 Redis Client 与 TokenBlacklist
	redisClient := redisDriver.NewClient(&redisDriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("无法连接到 Redis: %v", err)
	}
	log.Println("成功连接到 Redis")
	tokenBlacklist := appRedis.NewRedisTokenBlacklist(redisClient)

	// 4. 初始化 Repositories
	userRepo := storage.NewGormUserRepository(db)
	msgRepo := storage.NewGormMessageRepository(db)
	memoryRepo := storage.NewGormMemoryRepository(db)

	// 5. 初始化 Kafka Producer (可选)
	var kfkProducer appKafka.MessageProducer
	if cfg.Kafka.Enabled {
		kfkProducer, err = appKafka.NewConfluentKafkaProducer(cfg.Kafka)
		if err != nil {
			log.Fatalf("无法创建 Kafka 生产者: %v", err)
		}
		defer kfkProducer.Close()
		log.Println("Kafka 生产者初始化成功。")
	} else {
		log.Println("Kafka 未启用，跳过生产者初始化。")
	}

	// 6. 初始化在线表 (Hub)
	hub := ws.NewHub()

	// 7. 初始化 Services
	authService := services.NewAuthService(userRepo, tokenBlacklist, cfg)
	userService := services.NewUserService(userRepo)
	messageService := services.NewMessageService(msgRepo, kfkProducer, hub, cfg)
	memoryService := services.NewMemoryService(memoryRepo)

	// 7.1 初始化媒体存储服务
	var mediaStorage imtypes.MediaStorage
	storageBaseURL := "/uploads"
	switch cfg.Storage.Type {
	case "local":
		mediaStorage, err = storage.NewLocalMediaStorage(cfg.Storage, storageBaseURL)
		if err != nil {
			log.Fatalf("无法初始化本地存储服务: %v", err)
		}
		log.Println("本地存储服务初始化成功。")
	default:
		log.Fatalf("不支持的存储类型: %s", cfg.Storage.Type)
	}

	// 8. 初始化 Handlers
	authHandler := apiserver.NewAuthHandler(authService)
	userHandler := apiserver.NewUserHandler(userService)
	messageHandler := apiserver.NewMessageHandler(messageService)
	memoryHandler := apiserver.NewMemoryHandler(memoryService)
	uploadHandler := apiserver.NewUploadHandler(mediaStorage, cfg.Storage)
	wsHandler := chatserver.NewWebSocketHandler(hub, tokenBlacklist, cfg)

	// 9. 设置 HTTP 路由
	r := mux.NewRouter()

	// 9.1 认证路由 (不需要认证)
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)

	// 9.2 API 子路由 (需要认证)
	authMW := func(next http.Handler) http.Handler {
		return middleware.AuthMiddleware(next, cfg.Auth, tokenBlacklist)
	}
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(authMW)

	apiRouter.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)

	// 用户路由
	apiRouter.HandleFunc("/users/me", userHandler.GetMe).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/me", userHandler.UpdateMe).Methods(http.MethodPut)
	apiRouter.HandleFunc("/users", userHandler.ListUsers).Methods(http.MethodGet)

	// 消息路由
	apiRouter.HandleFunc("/messages/send/{userID:[0-9]+}", messageHandler.SendMessage).Methods(http.MethodPost)
	apiRouter.HandleFunc("/messages/{userID:[0-9]+}", messageHandler.GetConversation).Methods(http.MethodGet)

	// 回忆路由
	apiRouter.HandleFunc("/memories", memoryHandler.CreateMemory).Methods(http.MethodPost)
	apiRouter.HandleFunc("/memories", memoryHandler.ListMemories).Methods(http.MethodGet)

	// 文件上传路由
	apiRouter.HandleFunc("/upload", uploadHandler.UploadFile).Methods(http.MethodPost)

	// 9.3 WebSocket 实时通道 (令牌通过查询参数传递)
	r.HandleFunc(cfg.Server.WebSocketPath, wsHandler.ServeWS)

	// 9.4 静态文件服务路由，用于访问上传的文件
	if cfg.Storage.Type == "local" {
		staticPath := strings.TrimSuffix(storageBaseURL, "/") + "/"
		localDir := http.Dir(cfg.Storage.LocalPath)
		r.PathPrefix(staticPath).Handler(http.StripPrefix(staticPath, http.FileServer(localDir)))
		log.Printf("提供静态文件服务于 %s -> %s", staticPath, cfg.Storage.LocalPath)
	}

	// 10. CORS
	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.Server.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.Server.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.Server.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.Server.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.Server.CORS.MaxAge),
	}
	if cfg.Server.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	corsHandler := handlers.CORS(corsOptions...)(r)

	// 11. 启动 HTTP 服务器并实现优雅关闭
	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:           serverAddr,
		Handler:        corsHandler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		IdleTimeout:    time.Second * 60,
	}

	go func() {
		log.Printf("服务器启动于 %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("收到关闭信号，正在关闭服务器...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("服务器强制关闭: %v", err)
	}

	log.Println("服务器已成功关闭")
}
