package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Wiltron289/Next-Best-ActionV2/internal/alerts"
	"github.com/Wiltron289/Next-Best-ActionV2/internal/api"
	"github.com/Wiltron289/Next-Best-ActionV2/internal/auth"
	"github.com/Wiltron289/Next-Best-ActionV2/internal/config"
	"github.com/Wiltron289/Next-Best-ActionV2/internal/gateway"
	"github.com/Wiltron289/Next-Best-ActionV2/internal/platform"
	"github.com/Wiltron289/Next-Best-ActionV2/internal/pubsub"
	"github.com/Wiltron289/Next-Best-ActionV2/internal/resolver"
	"github.com/Wiltron289/Next-Best-ActionV2/internal/scheduler"
	"github.com/Wiltron289/Next-Best-ActionV2/internal/session"
	"github.com/Wiltron289/Next-Best-ActionV2/internal/storage"
	"github.com/Wiltron289/Next-Best-ActionV2/internal/types"
	"github.com/Wiltron289/Next-Best-ActionV2/internal/websocket"
	"github.com/Wiltron289/Next-Best-ActionV2/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// sessionSet adapts the session manager to the scheduler's view
type sessionSet struct {
	manager *session.Manager
}

func (s sessionSet) All() []scheduler.Refreshable {
	active := s.manager.All()
	out := make([]scheduler.Refreshable, 0, len(active))
	for _, sess := range active {
		out = append(out, sess)
	}
	return out
}

// sessionControl lets connected tabs report visibility
type sessionControl struct {
	manager *session.Manager
}

func (s sessionControl) SetVisible(userID string, visible bool) {
	s.manager.Get(userID).SetVisible(visible)
}

// sessionSnapshots supplies catch-up state for tabs connecting mid-session
type sessionSnapshots struct {
	manager *session.Manager
}

func (s sessionSnapshots) CurrentSnapshot(userID string) any {
	sess, ok := s.manager.Lookup(userID)
	if !ok {
		return nil
	}
	return sess.Snapshot()
}

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Str("gateway_url", cfg.GatewayURL).
		Dur("refresh_interval", cfg.RefreshInterval).
		Bool("two_stage_confirm", cfg.TwoStageConfirm).
		Msg("starting next best action console")

	// Verify tokens against the OIDC provider unless auth is bypassed
	if issuer := os.Getenv("OIDC_ISSUER"); issuer != "" && os.Getenv("SKIP_AUTH") != "true" {
		if err := auth.InitJWKS(issuer); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize JWKS")
		}
	}

	// Create context for services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create WebSocket hub
	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	// Optional action history store
	store, err := storage.NewStore(ctx, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// Remote gateway client
	gw := gateway.NewClient(cfg.GatewayURL, cfg.GatewayTimeout, log.Logger)

	// Contact resolution
	contactResolver := resolver.New(gw, log.Logger)

	// UI command adapters and alerting
	frontend := platform.NewFrontend(hub, log.Logger)
	notifier := alerts.New(hub, log.Logger)

	// Context-change fan-out: in-process bus plus optional AMQP mirror
	bus := pubsub.NewBus(64)
	bus.Subscribe(func(change types.ContextChange) {
		if change.UserID != "" {
			hub.SendToUser(change.UserID, change)
		}
	})

	var remote pubsub.RemotePublisher
	if cfg.AMQPURL != "" {
		amqpPub, err := pubsub.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange, log.Logger)
		if err != nil {
			log.Warn().Err(err).Msg("amqp unavailable, context changes stay in-process")
		} else {
			remote = amqpPub
			defer amqpPub.Close()
		}
	}
	fanout := pubsub.NewContextFanout(bus, remote, log.Logger)

	// Per-rep sessions
	sessions := session.NewManager(gw, contactResolver, frontend, notifier, fanout, session.Options{
		DialDelay:       cfg.DialDelay,
		TwoStageConfirm: cfg.TwoStageConfirm,
	}, log.Logger)

	// Auto refresh
	sched := scheduler.New(sessionSet{sessions}, cfg.RefreshInterval, log.Logger)
	go sched.Start(ctx)

	// Handlers
	wsHandler := websocket.NewHandler(hub, cfg, sessionControl{sessions}, sessionSnapshots{sessions}, log.Logger)
	queueHandler := api.NewQueueHandler(sessions, sched, gw, store, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes (no auth required)
	r.Get("/health", healthHandler)

	// Add auth middleware for protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Get("/ws", wsHandler.ServeHTTP)

		r.Route("/api", func(r chi.Router) {
			r.Post("/queue/refresh", queueHandler.Refresh)
			r.Get("/queue/snapshot", queueHandler.Snapshot)
			r.Post("/queue/accept", queueHandler.Accept)
			r.Post("/queue/contact/confirm", queueHandler.ConfirmContact)
			r.Post("/queue/contact/cancel", queueHandler.CancelContactConfirm)
			r.Post("/queue/disposition", queueHandler.SaveDisposition)
			r.Post("/queue/disposition/cancel", queueHandler.CancelDisposition)
			r.Post("/queue/dismiss", queueHandler.Dismiss)
			r.Post("/queue/email/send", queueHandler.SendEmail)
			r.Post("/queue/email/complete", queueHandler.CompleteEmail)
			r.Post("/queue/meeting-disposition", queueHandler.SaveMeetingDisposition)
			r.Get("/email/templates", queueHandler.EmailTemplates)
			r.Post("/visibility", queueHandler.Visibility)
			r.Get("/history", queueHandler.History)
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Stop the scheduler
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"nba-console"}`)
}
