// Package main is the application entry point.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"lexia-go/internal/config"
	"lexia-go/internal/handler"
	"lexia-go/internal/middleware"
	"lexia-go/internal/repository"
	"lexia-go/internal/service"
	"lexia-go/pkg/database"
	"lexia-go/pkg/llm"
	"lexia-go/pkg/log"
	"lexia-go/pkg/token"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("logger initialized")

	// Datastore clients are constructed once here and injected; there are no
	// package-level handles.
	db, err := database.NewMySQL(cfg.Database.MySQL.DSN)
	if err != nil {
		log.Fatal("mysql init failed", err)
	}
	rdb, err := database.NewRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if err != nil {
		log.Fatal("redis init failed", err)
	}

	conversationRepo := repository.NewConversationRepository(db, rdb)

	jwtManager := token.NewJWTManager(cfg.JWT.Secret)
	gateway := llm.NewClient()
	chatService := service.NewChatService(conversationRepo, gateway, cfg.LLM.SystemPrompt)
	conversationService := service.NewConversationService(conversationRepo)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	apiV1 := r.Group("/api/v1")
	apiV1.Use(middleware.AuthMiddleware(jwtManager))
	{
		apiV1.POST("/chat", handler.NewChatHandler(chatService).SubmitTurn)

		conversations := apiV1.Group("/conversations")
		{
			conversations.GET("", handler.NewConversationHandler(conversationService).ListConversations)
			conversations.GET("/:id/messages", handler.NewConversationHandler(conversationService).ListMessages)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Infof("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", err)
	}
	log.Info("server exited")
}
