package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"SetupScanner/internal/domain/models"
	domrepo "SetupScanner/internal/domain/repository"
	pkghttp "SetupScanner/pkg/http"
	pkgkafka "SetupScanner/pkg/kafka"
	"SetupScanner/pkg/logger"
)

// ScanRequestsHandler consumes ScanRequest JSON from Kafka and runs the scanner. Results leave
// through the scanner's publisher.
type ScanRequestsHandler struct {
	topic   string
	scanner *Scanner
	metrics domrepo.Metrics
	log     *logger.Logger
}

func NewScanRequestsHandler(topic string, scanner *Scanner, metrics domrepo.Metrics, log *logger.Logger) *ScanRequestsHandler {
	return &ScanRequestsHandler{topic: topic, scanner: scanner, metrics: metrics, log: log}
}

func (h *ScanRequestsHandler) Topic() string { return h.topic }

// Handle returns an error only for failures worth retrying. Malformed or invalid requests are
// logged and skipped so they never reach the dead-letter topic.
func (h *ScanRequestsHandler) Handle(ctx context.Context, b []byte) error {
	trace := logger.String("trace_id", pkgkafka.TraceID(ctx))

	var req models.ScanRequest
	if err := json.Unmarshal(b, &req); err != nil {
		h.metrics.RecordError("scan_request_unmarshal")
		h.log.Warn("Skipping malformed scan request", trace, logger.Error(err))
		return nil
	}
	if errs := pkghttp.ValidateStruct(ctx, &req); errs != nil {
		h.metrics.RecordError("scan_request_invalid")
		h.log.Warn("Skipping invalid scan request", trace, logger.String("symbol", req.Symbol), logger.Any("errors", errs))
		return nil
	}

	start := time.Now()
	res, err := h.scanner.Scan(ctx, req)
	h.metrics.RecordLatency("scan_request_seconds", time.Since(start).Seconds())
	if errors.Is(err, ErrInvalidRequest) {
		h.metrics.RecordError("scan_request_invalid")
		h.log.Warn("Skipping unscannable request", trace, logger.String("symbol", req.Symbol), logger.Error(err))
		return nil
	}
	if err != nil {
		return err
	}
	h.log.Debug("Scan request handled",
		trace,
		logger.String("id", res.ID),
		logger.String("symbol", res.Symbol),
		logger.Bool("matched", res.Matched),
	)
	return nil
}
