package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/radar-coach/internal/coach"
	"github.com/sells-group/radar-coach/internal/quality"
	"github.com/sells-group/radar-coach/internal/session"
	"github.com/sells-group/radar-coach/internal/store"
)

var servePort int

// server bundles the handler dependencies for the coaching endpoints.
type server struct {
	orch      *coach.Orchestrator
	engine    *quality.Engine
	sessions  *session.Manager
	store     store.Store
	staticDir string
	devMode   bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the blip submission coaching server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		engine, err := initEngine()
		if err != nil {
			return err
		}

		corpus := initCorpus()
		// Warm the history cache so the first duplicate check is fast.
		// Failure degrades duplicate detection, it does not block startup.
		if entries, err := corpus.Entries(ctx); err != nil {
			zap.L().Warn("radar history unavailable, duplicate detection degraded", zap.Error(err))
		} else {
			zap.L().Info("loaded radar history", zap.Int("blips", len(entries)))
		}

		sessions := session.NewManager(time.Duration(cfg.Session.TTLMinutes) * time.Minute)
		defer sessions.Close()

		srv := &server{
			orch: coach.New(initClient(), corpus, engine, coach.Options{
				Model:     cfg.Anthropic.Model,
				MaxTokens: int64(cfg.Anthropic.MaxTokens),
			}),
			engine:    engine,
			sessions:  sessions,
			store:     st,
			staticDir: cfg.Server.StaticDir,
			devMode:   cfg.Anthropic.DevMode || cfg.Anthropic.Key == "",
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: srv.routes(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			httpSrv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/submissions", s.handleListSubmissions)
	r.Get("/api/submissions/{id}", s.handleGetSubmission)
	r.Get("/ws/{sessionID}", s.handleWebSocket)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, filepath.Join(s.staticDir, "index.html"))
	})
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir))))

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.SubmissionFilter{
		Ring:     q.Get("ring"),
		Quadrant: q.Get("quadrant"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, `{"error":"limit must be a non-negative integer"}`, http.StatusBadRequest)
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, `{"error":"offset must be a non-negative integer"}`, http.StatusBadRequest)
			return
		}
		filter.Offset = n
	}

	records, err := s.store.ListSubmissions(r.Context(), filter)
	if err != nil {
		zap.L().Error("list submissions failed", zap.Error(err))
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []store.SubmissionRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": records})
}

func (s *server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.store.GetSubmission(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"submission not found"}`, http.StatusNotFound)
			return
		}
		zap.L().Error("get submission failed", zap.String("id", id), zap.Error(err))
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
