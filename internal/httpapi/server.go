// Package httpapi exposes the compression pipelines over HTTP: compress
// and expand endpoints for ops tooling, a health probe, and Prometheus
// metrics.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/spr/internal/compress"
	"github.com/fyrsmithlabs/spr/internal/config"
	"github.com/fyrsmithlabs/spr/internal/decompress"
	"github.com/fyrsmithlabs/spr/internal/generative"
	"github.com/fyrsmithlabs/spr/internal/logging"
	"github.com/fyrsmithlabs/spr/internal/spr"
)

// Server wires both pipelines behind an echo instance.
type Server struct {
	echo       *echo.Echo
	compress   *compress.Pipeline
	decompress *decompress.Pipeline
	log        *logging.Logger
	cfg        config.ServerConfig
}

// Deps are the collaborators behind the HTTP surface.
type Deps struct {
	Compress   *compress.Pipeline
	Decompress *decompress.Pipeline
	Logger     *logging.Logger
}

// New builds the server and registers its routes. A nil logger degrades
// to a no-op.
func New(cfg config.ServerConfig, deps Deps) (*Server, error) {
	if deps.Compress == nil || deps.Decompress == nil {
		return nil, fmt.Errorf("both pipelines are required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if cfg.MaxBodyBytes > 0 {
		e.Use(middleware.BodyLimit(fmt.Sprintf("%d", cfg.MaxBodyBytes)))
	}
	e.Use(observe(deps.Logger))

	s := &Server{
		echo:       e,
		compress:   deps.Compress,
		decompress: deps.Decompress,
		log:        deps.Logger,
		cfg:        cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/compress", s.handleCompress)
	v1.POST("/expand", s.handleExpand)
}

// observe logs and instruments each request. Status is resolved from the
// handler error when one is returned, since the error handler has not run
// yet at this point in the chain.
func observe(log *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			observeRequest(c.Request().Method, routePath(c), status, duration)

			log.Info(c.Request().Context(), "http request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	}
}

// routePath prefers the route template over the raw URI so metric label
// cardinality stays bounded.
func routePath(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return c.Request().URL.Path
}

// CompressRequest is the body for POST /api/v1/compress. Text and Path
// are alternatives; Text wins when both are set.
type CompressRequest struct {
	Text   string  `json:"text,omitempty"`
	Path   string  `json:"path,omitempty"`
	Format string  `json:"format,omitempty"`
	Ratio  float64 `json:"ratio,omitempty"`
}

// CompressResponse is the body for POST /api/v1/compress.
type CompressResponse struct {
	SPR             string  `json:"spr"`
	Statements      int     `json:"statements"`
	OriginalWords   int     `json:"original_words"`
	CompressedWords int     `json:"compressed_words"`
	Ratio           float64 `json:"ratio"`
	TraceID         string  `json:"trace_id,omitempty"`
}

// ExpandRequest is the body for POST /api/v1/expand.
type ExpandRequest struct {
	SPR       string `json:"spr"`
	Expansion string `json:"expansion,omitempty"`
	Length    string `json:"length,omitempty"`
}

// ExpandResponse is the body for POST /api/v1/expand.
type ExpandResponse struct {
	Text           string  `json:"text"`
	Words          int     `json:"words"`
	ExpansionRatio float64 `json:"expansion_ratio"`
	TraceID        string  `json:"trace_id,omitempty"`
}

// HealthResponse is the body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleCompress(c echo.Context) error {
	var req CompressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	content := req.Text
	path := "request"
	if content == "" && req.Path != "" {
		data, err := os.ReadFile(req.Path)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("read %s: %v", req.Path, err))
		}
		content = string(data)
		path = req.Path
	}
	if strings.TrimSpace(content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text or path is required")
	}

	var format spr.Format
	if req.Format != "" {
		f, err := spr.ParseFormat(req.Format)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		format = f
	}

	doc, err := s.compress.Compress(c.Request().Context(), compress.Request{
		Source: spr.SourceDocument{Path: path, Content: content},
		Format: format,
		Ratio:  req.Ratio,
	})
	if err != nil {
		return httpError(err)
	}

	documentWords.WithLabelValues("compress", "in").Observe(float64(doc.Meta.OriginalWords))
	documentWords.WithLabelValues("compress", "out").Observe(float64(doc.Meta.CompressedWords))

	return c.JSON(http.StatusOK, CompressResponse{
		SPR:             string(spr.Encode(doc)),
		Statements:      len(doc.Statements),
		OriginalWords:   doc.Meta.OriginalWords,
		CompressedWords: doc.Meta.CompressedWords,
		Ratio:           doc.Meta.Ratio,
		TraceID:         doc.Meta.TraceID,
	})
}

func (s *Server) handleExpand(c echo.Context) error {
	var req ExpandRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.SPR) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "spr field is required")
	}

	var expansion spr.ExpansionType
	if req.Expansion != "" {
		e, err := spr.ParseExpansion(req.Expansion)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		expansion = e
	}
	var length spr.TargetLength
	if req.Length != "" {
		l, err := spr.ParseLength(req.Length)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		length = l
	}

	expanded, err := s.decompress.Decompress(c.Request().Context(), decompress.Request{
		Path:      "request",
		Data:      []byte(req.SPR),
		Expansion: expansion,
		Length:    length,
	})
	if err != nil {
		return httpError(err)
	}

	documentWords.WithLabelValues("expand", "out").Observe(float64(expanded.WordCount()))

	return c.JSON(http.StatusOK, ExpandResponse{
		Text:           expanded.Content,
		Words:          expanded.WordCount(),
		ExpansionRatio: expanded.ExpansionRatio,
		TraceID:        expanded.TraceID,
	})
}

// httpError maps pipeline failures onto status codes: bad input is the
// client's problem, a document that cannot meet its format bounds is
// unprocessable, and a failing generative backend is a bad gateway.
func httpError(err error) error {
	switch {
	case errors.Is(err, spr.ErrEmptyInput),
		errors.Is(err, spr.ErrInputTooShort),
		errors.Is(err, spr.ErrInvalidRatio),
		errors.Is(err, spr.ErrUnknownFormat),
		errors.Is(err, spr.ErrUnknownExpansion),
		errors.Is(err, spr.ErrUnknownLength),
		errors.Is(err, spr.ErrNoStatements),
		errors.Is(err, spr.ErrEmptyStatement):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, compress.ErrFormatViolation):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, generative.ErrServiceUnavailable),
		errors.Is(err, generative.ErrEmptyResponse):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return err
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.log.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
