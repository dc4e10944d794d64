package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mikey/spam-evidence-engine/internal/core"
	"github.com/mikey/spam-evidence-engine/internal/evidence"
	"go.uber.org/zap"
)

// Publisher queues an encoded record for the consumer loop
type Publisher interface {
	Publish(ctx context.Context, messageID string, body []byte) error
}

// AnalyzeResponse is returned once a record is queued
type AnalyzeResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id"`
}

type recordValidator struct {
	decoder *evidence.Decoder
}

func (v recordValidator) Validate(i interface{}) error {
	record, ok := i.(*core.EmailRecord)
	if !ok {
		return errors.New("unsupported payload type")
	}
	return v.decoder.Validate(record)
}

// Server is the ingestion HTTP API
type Server struct {
	echo      *echo.Echo
	publisher Publisher
	logger    *zap.Logger
}

// NewServer creates the ingestion API and registers its routes
func NewServer(publisher Publisher, decoder *evidence.Decoder, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = recordValidator{decoder: decoder}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("Request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID))
			return nil
		},
	}))

	s := &Server{
		echo:      e,
		publisher: publisher,
		logger:    logger,
	}

	e.GET("/", s.root)
	e.GET("/healthz", s.health)
	e.POST("/v1/analyze", s.analyze)

	return s
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on address until Shutdown
func (s *Server) Start(address string) error {
	s.logger.Info("Starting ingestion API", zap.String("address", address))
	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and drains in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down ingestion API")
	return s.echo.Shutdown(ctx)
}

func (s *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Anti-Spam Ingestion API is running!",
	})
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) analyze(c echo.Context) error {
	var record core.EmailRecord
	if err := c.Bind(&record); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}
	if err := c.Validate(&record); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if record.MessageID == "" {
		record.MessageID = uuid.NewString()
	}

	body, err := json.Marshal(&record)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to encode record"})
	}

	if err := s.publisher.Publish(c.Request().Context(), record.MessageID, body); err != nil {
		s.logger.Error("Failed to queue record",
			zap.String("message_id", record.MessageID),
			zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Message queue unavailable"})
	}

	s.logger.Info("Record queued", zap.String("message_id", record.MessageID))
	return c.JSON(http.StatusAccepted, AnalyzeResponse{
		Status:    "received_and_queued",
		MessageID: record.MessageID,
	})
}
