package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"chat-coordinator/config"
	"chat-coordinator/handlers"
	"chat-coordinator/repository"
	"chat-coordinator/services"
	"chat-coordinator/utils"
	"chat-coordinator/ws"

	gfshutdown "github.com/gelmium/graceful-shutdown"
)

func main() {
	// --- config/env ---
	cfg := config.Load()
	logger := utils.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	// --- repos (in-memory) ---
	userRepo := repository.NewInMemoryUserRepo()
	chatRepo := repository.NewInMemoryChatRepo()
	membershipRepo := repository.NewInMemoryMembershipRepo()
	messageRepo := repository.NewInMemoryMessageRepo()
	conversationRepo := repository.NewInMemoryConversationRepo()
	// private history never shares a store with rooms
	privateMessageRepo := repository.NewInMemoryMessageRepo()
	typingRepo := repository.NewInMemoryTypingRepo()

	fileStore, err := repository.NewLocalFileStore(cfg.UploadDir)
	if err != nil {
		logger.Error("could not prepare upload directory", "dir", cfg.UploadDir, "error", err)
		os.Exit(1)
	}

	// --- services ---
	tokenSvc := services.NewTokenService(&cfg)
	sessionSvc := services.NewSessionService(userRepo, tokenSvc, &cfg, logger)
	roomSvc := services.NewRoomService(chatRepo, membershipRepo, messageRepo, userRepo, &cfg, logger)
	msgSvc := services.NewMessageService(messageRepo, chatRepo, membershipRepo, userRepo, &cfg, logger)
	convoSvc := services.NewConversationService(conversationRepo, privateMessageRepo, userRepo, &cfg, logger)
	typingSvc := services.NewTypingService(typingRepo, &cfg, logger)
	reactionSvc := services.NewReactionService(messageRepo, chatRepo)
	fileSvc := services.NewFileService(fileStore, "/uploads", logger)

	// --- websocket hub + dispatcher + typing sweep ---
	hub := ws.NewHub(&cfg, logger)
	dispatcher := ws.NewDispatcher(hub, sessionSvc, roomSvc, msgSvc, convoSvc, typingSvc, reactionSvc, logger)

	runCtx, stopRun := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		hub.Run(runCtx, dispatcher)
	}()
	go func() {
		defer workers.Done()
		typingSvc.Run(runCtx, func() { hub.Schedule(dispatcher.SweepTyping) })
	}()

	// --- routes ---
	router := handlers.NewRouter(handlers.Routes{
		Auth:     handlers.NewAuthHandler(tokenSvc),
		Chat:     handlers.NewChatHandler(hub, roomSvc, sessionSvc),
		Messages: handlers.NewMessageHandler(msgSvc),
		Files:    handlers.NewFileHandler(fileSvc, fileStore, cfg.MaxUploadSize, logger),
	}, cfg.AllowedOrigins, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("chat server listening", "addr", server.Addr, "ws", "ws://localhost:"+cfg.Port+"/ws")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// --- graceful shutdown ---
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				logger.Info("shutting down http server")
				return server.Shutdown(ctx)
			},
			"hub": func(ctx context.Context) error {
				stopRun()
				stopped := make(chan struct{})
				go func() {
					workers.Wait()
					close(stopped)
				}()
				select {
				case <-stopped:
					logger.Info("hub and typing sweep stopped")
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			},
		},
	)

	exitCode := <-wait
	logger.Info("server exited", "code", exitCode)
	os.Exit(exitCode)
}
