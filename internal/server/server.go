package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/pipeline"
	"clipforge/internal/preflight"
	"clipforge/internal/services"
	"clipforge/internal/services/whisper"
	"clipforge/internal/stageexec"
	"clipforge/internal/workspace"
)

const maxBodyBytes = 1 << 20

// Options configures a Server. Executor and Transcriber default to the
// subprocess executor and the whisper CLI.
type Options struct {
	Config      *config.Config
	Logger      *slog.Logger
	Executor    pipeline.Executor
	Transcriber pipeline.Transcriber
}

// Server is the clipforge HTTP service.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	workspace  *workspace.Manager
	controller *pipeline.Controller
	recipes    []pipeline.Recipe
	slots      *semaphore.Weighted
	handler    http.Handler
	checkDeps  func(context.Context) []preflight.Status
}

// New wires the workspace, executor, and recipes described by opts.Config.
func New(opts Options) (*Server, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "server", "init", "config is required", nil)
	}
	base := opts.Logger
	if base == nil {
		base = logging.NewNop()
	}
	logger := logging.NewComponentLogger(base, "server")

	executor := opts.Executor
	if executor == nil {
		executor = stageexec.New(stageexec.Options{
			DefaultTimeout: cfg.DefaultStageTimeout(),
			OutputLimit:    cfg.OutputLimitBytes(),
			Logger:         base,
		})
	}
	transcriber := opts.Transcriber
	if transcriber == nil {
		transcriber = whisper.NewService(whisper.Config{
			Binary:   cfg.Tools.WhisperBinary,
			Model:    cfg.Whisper.Model,
			Language: cfg.Whisper.Language,
			Device:   cfg.Whisper.Device,
			Timeout:  cfg.TranscribeTimeout(),
		}, executor)
	}

	ws := workspace.New(cfg.Paths.InboundDir, cfg.Paths.OutboundDir)
	if err := ws.EnsureDirectories(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:        cfg,
		logger:     logger,
		workspace:  ws,
		controller: pipeline.NewController(ws, executor, base),
		recipes: pipeline.Recipes(pipeline.Tools{
			FetchBinary:      cfg.Tools.YTDLPBinary,
			FFmpegBinary:     cfg.Tools.FFmpegBinary,
			FetchFormat:      cfg.Tools.FetchFormat,
			PortraitFormat:   cfg.Tools.PortraitFetchFormat,
			SecondaryAsset:   cfg.Tools.SecondaryAsset,
			Transcriber:      transcriber,
			FetchTimeout:     cfg.FetchTimeout(),
			TranscodeTimeout: cfg.TranscodeTimeout(),
		}),
		checkDeps: func(ctx context.Context) []preflight.Status {
			return preflight.CheckSystemDeps(ctx, cfg)
		},
	}
	if limit := cfg.Server.MaxConcurrentJobs; limit > 0 {
		s.slots = semaphore.NewWeighted(int64(limit))
	}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	for _, recipe := range s.recipes {
		mux.Handle("POST "+recipe.Route, authMiddleware(s.cfg.Server.APIToken, s.handleRecipe(recipe)))
	}
	mux.HandleFunc("GET /api/health", s.handleHealth)

	var handler http.Handler = mux
	handler = withAccessLog(s.logger, handler)
	handler = withRequestID(handler)
	if s.cfg.Server.CORS {
		handler = withCORS(handler)
	}
	return handler
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on the configured bind address until ctx is done,
// then shuts down gracefully. In-flight jobs see their contexts canceled only
// after the shutdown timeout elapses.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Server.Bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is done.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout(),
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.String(logging.FieldEventType, "server_start"),
		logging.Int("max_concurrent_jobs", s.cfg.Server.MaxConcurrentJobs),
		logging.Bool("auth", s.cfg.Server.APIToken != ""),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout())
	defer cancel()
	s.logger.Info("api server shutting down", logging.String(logging.FieldEventType, "server_stop"))
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("api shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// admit waits for a job slot. The returned func releases it.
func (s *Server) admit(ctx context.Context) (func(), error) {
	if s.slots == nil {
		return func() {}, nil
	}
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return nil, services.Wrap(services.ErrCanceled, "server", "admit job", "gave up waiting for a job slot", err)
	}
	return func() { s.slots.Release(1) }, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
