package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messenger-service/internal/config"
	"messenger-service/internal/db"
	"messenger-service/internal/handlers"
	"messenger-service/internal/identity"
	"messenger-service/internal/middleware"
	"messenger-service/internal/observability"
	"messenger-service/internal/rabbitmq"
	"messenger-service/internal/repositories"
	"messenger-service/internal/telemetry"
	"messenger-service/internal/ws"
)

const serviceName = "messenger-service"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to db")
	}

	shutdownTracing, err := observability.InitTracing(context.Background(), cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init tracing")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	log.Info().Str("mode", rabbitmq.PublisherMode(publisher)).Msg("event publisher ready")

	audit := telemetry.NewAuditEmitter(publisher, "audit.messenger", serviceName, cfg.Environment)

	verifier := identity.NewVerifier(cfg.JWTSecret)

	userRepo := repositories.NewUserRepo(database)
	convRepo := repositories.NewConversationRepo(database)
	msgRepo := repositories.NewMessageRepo(database)
	reactionRepo := repositories.NewReactionRepo(database)
	typingRepo := repositories.NewTypingRepo(database)

	hub := ws.NewHub()

	convHandler := handlers.NewConversationHandler(convRepo, msgRepo, userRepo, audit)
	msgHandler := handlers.NewMessageHandler(convRepo, msgRepo, hub, audit)
	reactionHandler := handlers.NewReactionHandler(msgRepo, reactionRepo, hub)
	presenceHandler := handlers.NewPresenceHandler(userRepo, typingRepo, hub)
	convWS := ws.NewConversationWebSocketHandler(hub, convRepo, userRepo, verifier)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(otelgin.Middleware(serviceName))

	requireAuth := middleware.RequireAuth(verifier, userRepo)
	optionalAuth := middleware.OptionalAuth(verifier, userRepo)

	router.GET("/conversations", optionalAuth, convHandler.ListConversations)
	router.POST("/conversations/direct", requireAuth, convHandler.StartDirect)
	router.POST("/conversations/groups", requireAuth, convHandler.CreateGroup)

	router.GET("/conversations/:conversation_id/messages", optionalAuth, msgHandler.ListMessages)
	router.POST("/conversations/:conversation_id/messages", requireAuth, msgHandler.SendMessage)
	router.DELETE("/conversations/:conversation_id/messages/:message_id", requireAuth, msgHandler.DeleteMessage)
	router.POST("/conversations/:conversation_id/read", optionalAuth, msgHandler.MarkRead)

	router.POST("/conversations/:conversation_id/typing", optionalAuth, presenceHandler.SetTyping)
	router.GET("/conversations/:conversation_id/typing", optionalAuth, presenceHandler.ListTypingUsers)

	router.POST("/messages/:message_id/reactions", requireAuth, reactionHandler.ToggleReaction)
	router.GET("/messages/:message_id/reactions", optionalAuth, reactionHandler.ListReactions)

	router.POST("/presence/heartbeat", optionalAuth, presenceHandler.Heartbeat)
	router.GET("/presence/online", optionalAuth, presenceHandler.ListOnlineUsers)

	router.GET("/ws/conversations/:conversation_id", convWS.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, audit, cfg.Debug)

	log.Info().Str("port", cfg.Port).Str("environment", cfg.Environment).Msg("starting messenger service")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
