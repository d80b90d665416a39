package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enquiry-cli/internal/assistant"
	"github.com/sells-group/enquiry-cli/internal/metrics"
	"github.com/sells-group/enquiry-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve enquiry metrics over HTTP",
	Long: "Starts a JSON API. Every request reloads the source and recomputes, so responses always " +
		"reflect the current records. Pass ?now=YYYY-MM-DD to evaluate as of another date.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		if cfg.Monitoring.Enabled {
			go a.checker(cfg.Monitoring, nil).Run(ctx)
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildMux(a, cfg.Server.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port), zap.String("source", a.source.Name()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildMux routes the metrics API.
func buildMux(a *app, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/metrics", a.handleMetrics)
		r.Get("/insights", a.handleInsights)
		r.Get("/trend", a.handleTrend)
		r.Get("/fields", a.handleFields)
		r.Post("/ask", a.handleAsk)
		r.Get("/history", a.handleHistory)
	})
	return r
}

func (a *app) handleMetrics(w http.ResponseWriter, r *http.Request) {
	l, now, ok := a.loadForRequest(w, r, true)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.metricsReport(l, now))
}

func (a *app) handleInsights(w http.ResponseWriter, r *http.Request) {
	l, now, ok := a.loadForRequest(w, r, true)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.metricsReport(l, now).Insights)
}

func (a *app) handleTrend(w http.ResponseWriter, r *http.Request) {
	months := metrics.DefaultTrendMonths
	if raw := r.URL.Query().Get("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 120 {
			writeError(w, http.StatusBadRequest, "months must be between 1 and 120")
			return
		}
		months = n
	}
	l, now, ok := a.loadForRequest(w, r, true)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.trendReport(l.Table, now, months))
}

func (a *app) handleFields(w http.ResponseWriter, r *http.Request) {
	l, _, ok := a.loadForRequest(w, r, false)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.fieldsReport(l.Table))
}

func (a *app) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	l, now, ok := a.loadForRequest(w, r, false)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, assistant.New(a.engine).Ask(l.Table, now, req.Question))
}

func (a *app) handleHistory(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		writeError(w, http.StatusServiceUnavailable, "history store not configured")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recs, err := a.store.ListSnapshots(r.Context(), store.SnapshotFilter{
		Source: a.source.Name(),
		Limit:  limit,
	})
	if err != nil {
		zap.L().Error("list snapshots failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}
	if recs == nil {
		recs = []store.SnapshotRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// loadForRequest resolves ?now= and loads the source. With needDates it
// rejects tables that have no usable date field. It writes the error
// response itself and reports ok=false on failure.
func (a *app) loadForRequest(w http.ResponseWriter, r *http.Request, needDates bool) (*loaded, time.Time, bool) {
	now, err := referenceTime(r.URL.Query().Get("now"), a.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, time.Time{}, false
	}
	l, err := a.load(r.Context())
	if err != nil {
		zap.L().Error("load records failed", zap.String("source", a.source.Name()), zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to load records")
		return nil, time.Time{}, false
	}
	if needDates {
		if dc, err := a.checkDates(l.Table); errors.Is(err, metrics.ErrDateFieldRequired) {
			writeError(w, http.StatusUnprocessableEntity, dc.Hint())
			return nil, time.Time{}, false
		}
	}
	return l, now, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
