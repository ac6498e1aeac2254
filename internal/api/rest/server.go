// Package rest HTTP API классификатора.
package rest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	app "cropscan/internal/application"
	"cropscan/internal/container"
	"cropscan/internal/domain/entity"
	"cropscan/internal/domain/port"
)

const shutdownTimeout = 10 * time.Second

// Options настройки HTTP сервера.
type Options struct {
	AllowedOrigins []string
	MaxImageBytes  int64
}

type Server struct {
	diagnosis *app.DiagnosisService
	labels    port.LabelResolver
	opts      Options
}

func NewServer(c *container.Container, opts Options) *Server {
	return &Server{diagnosis: c.DiagnosisService, labels: c.Labels, opts: opts}
}

// Routes собирает gin роутер.
func (s *Server) Routes() http.Handler {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowHeaders = []string{"Content-Type", "Accept", "X-Requested-With"}
	if len(s.opts.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = s.opts.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), requestLogger(), cors.New(corsConfig))

	r.GET("/health", s.HealthHandler)
	r.HEAD("/health", s.HealthHandler)

	v1 := r.Group("/v1")
	v1.GET("/languages", s.LanguagesHandler)
	v1.GET("/classes", s.ClassesHandler)
	v1.POST("/diagnose", s.DiagnoseHandler)

	return r
}

// Serve слушает addr до отмены ctx, затем дожидается активных запросов.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srvr := &http.Server{Handler: s.Routes(), ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http api listening", "addr", ln.Addr().String())
		errCh <- srvr.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srvr.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "classes_version": s.labels.Version()})
}

func (s *Server) LanguagesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, LanguagesResponse{Default: entity.DefaultLanguage, Languages: entity.Languages()})
}

func (s *Server) ClassesHandler(c *gin.Context) {
	resp := ClassesResponse{Version: s.labels.Version()}
	for i, label := range s.labels.Labels() {
		resp.Classes = append(resp.Classes, ClassInfo{Index: i, Class: label.String(), Crop: label.Crop, Disease: label.Disease})
	}
	c.JSON(http.StatusOK, resp)
}

// DiagnoseHandler принимает multipart поле image и необязательное поле language.
func (s *Server) DiagnoseHandler(c *gin.Context) {
	if s.opts.MaxImageBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxImageBytes+1<<20)
	}

	fh, err := c.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image is too large"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "multipart field \"image\" is required"})
		return
	}
	if s.opts.MaxImageBytes > 0 && fh.Size > s.opts.MaxImageBytes {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image is too large"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lang := entity.ParseLanguage(c.PostForm("language"))
	raw := entity.RawImage{Data: data, Encoding: fh.Header.Get("Content-Type")}

	d, err := s.diagnosis.Diagnose(c.Request.Context(), raw, lang)
	if err != nil {
		c.AbortWithStatusJSON(statusFor(err), gin.H{"error": newErrorBody(err)})
		return
	}

	c.JSON(http.StatusOK, newDiagnoseResponse(d, s.classNames()))
}

func (s *Server) classNames() []string {
	labels := s.labels.Labels()
	names := make([]string, len(labels))
	for i, label := range labels {
		names[i] = label.String()
	}
	return names
}

// statusFor HTTP статус для ошибки классификации.
func statusFor(err error) int {
	switch entity.KindOf(err) {
	case entity.KindDecode, entity.KindShape:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
