// Package server поднимает HTTP API мини-приложения на chi.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/gift-roulette/internal/config"
	"serotonyl.ru/gift-roulette/internal/features/roulette"
)

// Pinger — всё, что нужно /health от пула БД.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server — HTTP-сервер с маршрутами рулетки.
type Server struct {
	cfg     *config.Config
	router  *chi.Mux
	limiter *RateLimiter
}

// New собирает маршруты.
func New(cfg *config.Config, rouletteHandler *roulette.Handler, db Pinger) *Server {
	limiter := NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LogRequests)
	r.Use(RecoverFromPanic)

	r.Get("/health", handleHealth(db))

	r.Route("/roulette", func(r chi.Router) {
		r.Use(RateLimit(limiter))
		r.Post("/get-token", rouletteHandler.HandleGetToken)
		r.Post("/start", rouletteHandler.HandleStart)
	})

	return &Server{cfg: cfg, router: r, limiter: limiter}
}

// Handler возвращает корневой http.Handler (нужен тестам).
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run слушает адрес до отмены ctx, затем мягко останавливается.
func (s *Server) Run(ctx context.Context) error {
	defer s.limiter.Close()

	srv := &http.Server{
		Addr:         s.cfg.HTTPAddr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.HTTPReadTimeout,
		WriteTimeout: s.cfg.HTTPWriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTPShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Ошибка остановки HTTP-сервера")
		}
	}()

	log.Infof("HTTP API слушает %s", s.cfg.HTTPAddr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

func handleHealth(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(ctx); err != nil {
			log.WithError(err).Warn("Health: БД недоступна")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
