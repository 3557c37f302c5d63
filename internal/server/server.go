// Package server 提供文档服务的 HTTP JSON 接口
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/doc-forge/internal/documents"
)

// UserHeader 上游认证层设置的用户标识头
const UserHeader = "X-User-ID"

// Options 服务选项
type Options struct {
	Addr          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxUploadSize int64
}

// Server HTTP 服务
type Server struct {
	docs   *documents.Service
	opts   Options
	router *chi.Mux
	http   *http.Server
	logger *zap.Logger
}

// New 创建 HTTP 服务并注册路由
func New(docs *documents.Service, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = 10 << 20
	}

	s := &Server{
		docs:   docs,
		opts:   opts,
		logger: logger,
	}
	s.router = s.routes()
	s.http = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

// Handler 返回路由，便于测试
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Post("/api/segment", s.handleSegment)

		r.Route("/api/documents", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Post("/generate", s.handleGenerate)
			r.Post("/rewrite", s.handleRewrite)
			r.Post("/translate", s.handleTranslate)
			r.Post("/summarize", s.handleSummarize)
			r.Post("/grammar", s.handleGrammar)
			r.Post("/upload", s.handleUpload)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGet)
				r.Patch("/", s.handleEdit)
				r.Delete("/", s.handleDelete)
				r.Get("/download", s.handleDownload)
				r.Post("/render", s.handleRender)
				r.Get("/preview", s.handlePreview)
			})
		})

		r.Get("/api/collaboration/{id}", s.handleSession)
		r.Get("/api/collaboration/{id}/events", s.handleEvents)
	})

	return r
}

// Start 开始监听，直到 ctx 结束后优雅关闭
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.opts.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	return s.http.Shutdown(shutdownCtx)
}
