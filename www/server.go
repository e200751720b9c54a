package www

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mkadlec/homewatt-go/config"
	"github.com/mkadlec/homewatt-go/database"
)

type Server struct {
	logger  *slog.Logger
	cnfg    *config.AppConfig
	db      *database.Database
	hub     *Hub
	auth    *auth
	mux     *http.ServeMux
	watcher *fsnotify.Watcher
}

func StartServer(db *database.Database, reloader SettingsReloader, cnfg *config.AppConfig) *Server {
	logger := slog.Default().With("module", "www")

	s := &Server{
		logger: logger,
		cnfg:   cnfg,
		db:     db,
		hub:    NewHub(logger),
		auth:   newAuth(logger, cnfg.Api),
		mux:    http.NewServeMux(),
	}

	go s.hub.Run()

	watcher, err := watchSnapshot(logger, s.hub, cnfg.Optimizer.GetSnapshotPath())
	if err != nil {
		logger.Error("snapshot watcher setup failed", slog.Any("error", err))
	} else {
		s.watcher = watcher
	}

	logReqMW := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
				slog.String("remoteAddr", r.RemoteAddr))
			next.ServeHTTP(w, r)
		})
	}

	s.mux.Handle("/optimized_schedule", logReqMW(NewScheduleHandler(
		logger.With(slog.String("handler", "optimized_schedule")),
		cnfg.Optimizer.GetSnapshotPath())))

	s.mux.Handle("/energy_data", logReqMW(NewEnergyDataHandler(
		logger.With(slog.String("handler", "energy_data")),
		s.db)))

	s.mux.Handle("/summary", logReqMW(NewSummaryHandler(
		logger.With(slog.String("handler", "summary")),
		s.db)))

	s.mux.Handle("/panels", logReqMW(s.withAuthForWrites(NewPanelsHandler(
		logger.With(slog.String("handler", "panels")),
		s.db))))

	s.mux.Handle("/settings", logReqMW(s.withAuthForWrites(NewSettingsHandler(
		logger.With(slog.String("handler", "settings")),
		s.db,
		reloader))))

	s.mux.Handle("/upload", logReqMW(s.auth.requireAuth(NewUploadHandler(
		logger.With(slog.String("handler", "upload")),
		s.db))))

	s.mux.Handle("/log", logReqMW(NewLogHandler(
		logger.With(slog.String("handler", "log")),
		s.db)))

	s.mux.Handle("/login", logReqMW(s.auth.loginHandler()))
	s.mux.Handle("/logout", logReqMW(s.auth.logoutHandler()))

	s.mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		name := r.Header.Get("User-Agent")
		client, err := NewClient(s.hub, w, r, name)
		if err != nil {
			s.logger.Error("new websocket client failed", slog.Any("error", err))
			return
		}
		s.hub.Register <- client
		go client.WritePump()
	})

	return s
}

// withAuthForWrites leaves GET open and demands a session for anything
// that mutates.
func (s *Server) withAuthForWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		s.auth.requireAuth(next).ServeHTTP(w, r)
	})
}

func (s *Server) Run(ctx context.Context) {
	addr := fmt.Sprintf("%s:%d", s.cnfg.Api.Address, s.cnfg.Api.Port)
	s.logger.Info("starting server...", "addr", addr)
	srv := &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	srvErrors := make(chan error, 1)
	go func() {
		srvErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-srvErrors:
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", slog.Any("error", err))
		}

	case <-ctx.Done():
		if s.watcher != nil {
			s.watcher.Close()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown failed", slog.Any("error", err))
		}
	}
}
