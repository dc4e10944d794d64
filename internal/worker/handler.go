// Package worker settles queue deliveries by scoring each record and logging
// its evidence report.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/spam-evidence-engine/internal/core"
	"github.com/mikey/spam-evidence-engine/internal/evidence"
	"github.com/mikey/spam-evidence-engine/internal/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Evaluator scores a single record
type Evaluator interface {
	Evaluate(ctx context.Context, record *core.EmailRecord) (*core.Report, error)
}

// Handler implements the AMQP message handler for the consumer loop
type Handler struct {
	evaluator Evaluator
	decoder   *evidence.Decoder
	timeout   time.Duration
	metrics   *metrics.Registry
	logger    *zap.Logger
}

// NewHandler creates a new delivery handler
func NewHandler(
	evaluator Evaluator,
	decoder *evidence.Decoder,
	timeout time.Duration,
	m *metrics.Registry,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		evaluator: evaluator,
		decoder:   decoder,
		timeout:   timeout,
		metrics:   m,
		logger:    logger,
	}
}

// Handle scores one delivery. The delivery always completes even when ctx is
// cancelled mid-flight; only the per-message timeout bounds it.
func (h *Handler) Handle(ctx context.Context, delivery *amqp.Delivery) {
	msgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()

	record, err := h.decoder.Decode(delivery.Body)
	if err != nil {
		h.logger.Error("Dropping malformed message",
			zap.String("message_id", delivery.MessageId),
			zap.Int("size", len(delivery.Body)),
			zap.Error(err))
		h.metrics.MessageOutcome(metrics.OutcomeMalformed)
		h.settle(delivery.Ack(false), delivery)
		return
	}

	if record.MessageID == "" {
		record.MessageID = delivery.MessageId
	}
	if record.MessageID == "" {
		record.MessageID = uuid.NewString()
	}

	report, err := h.evaluator.Evaluate(msgCtx, record)
	if err != nil {
		h.logger.Error("Failed to evaluate message, requeueing",
			zap.String("message_id", record.MessageID),
			zap.Error(err))
		h.metrics.MessageOutcome(metrics.OutcomeRequeued)
		h.settle(delivery.Nack(false, true), delivery)
		return
	}

	LogReport(h.logger, report)
	h.metrics.ObserveReport(report)
	h.settle(delivery.Ack(false), delivery)
}

func (h *Handler) settle(err error, delivery *amqp.Delivery) {
	if err == nil {
		return
	}
	level := zap.ErrorLevel
	if errors.Is(err, amqp.ErrClosed) {
		level = zap.WarnLevel
	}
	h.logger.Log(level, "Failed to settle delivery",
		zap.Uint64("delivery_tag", delivery.DeliveryTag),
		zap.Error(err))
}

// LogReport writes the structured evidence report for one message
func LogReport(logger *zap.Logger, report *core.Report) {
	v := report.Verdict
	logger.Info("Evidence report",
		zap.String("message_id", report.MessageID),
		zap.String("sender_domain", report.Evidence.SenderDomain),
		zap.Strings("link_domains", report.Evidence.LinkDomains),
		zap.String("subject", report.Evidence.Subject),
		zap.String("profile", v.Profile),
		zap.Float64("final_score", v.FinalScore),
		zap.Float64("threshold", v.Threshold),
		zap.String("verdict", v.Label()),
		zap.Array("signals", v.Contributions))
}
