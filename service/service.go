package service

import (
	"fmt"
	"time"

	"eco-report-service/classifier"
	"eco-report-service/config"
	"eco-report-service/imageproc"
	"eco-report-service/llm"
	"eco-report-service/metrics"
	"eco-report-service/models"
	"eco-report-service/nvidia"
	"eco-report-service/report"
	"eco-report-service/severity"
	"eco-report-service/stubllm"

	"github.com/apex/log"
)

// Service orchestrates the analysis pipeline: normalize image, classify,
// estimate severity, generate report. Steps run strictly in sequence; each
// step's output feeds the next.
type Service struct {
	config    *config.Config
	llmClient llm.Client
}

// NewService creates the service with the provider selected by config.
func NewService(cfg *config.Config) *Service {
	var client llm.Client
	if cfg.LLMProvider == "stub" {
		client = stubllm.NewClient()
	} else {
		client = nvidia.NewClient(cfg.NvidiaAPIKey, cfg.VisionModel, cfg.ReasoningModel, cfg.ReportModel, cfg.RequestTimeout)
	}
	log.Infof("Analyzer LLM provider=%s vision=%s reasoning=%s report=%s",
		client.SourceName(), cfg.VisionModel, cfg.ReasoningModel, cfg.ReportModel)

	return &Service{config: cfg, llmClient: client}
}

// NewServiceWithClient creates the service around an explicit provider.
func NewServiceWithClient(cfg *config.Config, client llm.Client) *Service {
	return &Service{config: cfg, llmClient: client}
}

// Analyze runs the full pipeline for one image. Only an undecodable image
// returns an error; every downstream failure degrades to the relevant
// step's fallback so a ReportRecord is always produced for valid input.
func (s *Service) Analyze(imageData []byte, location, notes string, useModelSeverity bool) (*models.ReportRecord, error) {
	start := time.Now()

	normalized, err := imageproc.Normalize(imageData, s.config.MaxImageDimension)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("invalid_image").Inc()
		return nil, fmt.Errorf("image validation failed: %w", err)
	}

	log.Infof("Analyzing image (%d bytes) at %q", len(normalized), location)

	classification := classifier.Classify(s.llmClient, normalized, notes)
	log.Infof("Classified as %q (confidence %.2f, fallback=%t)",
		classification.Category, classification.Confidence, classification.Fallback)

	sev := severity.Estimate(s.llmClient, classification, location, useModelSeverity)
	log.Infof("Severity %s (%d/5, %s)", sev.Level, sev.Score, sev.Method)

	record := report.Generate(s.llmClient, classification, sev, location, notes)
	log.Infof("Report %s generated (fallback=%t)", record.ReportID, record.Fallback)

	result := "ok"
	if classification.Fallback || record.Fallback ||
		(useModelSeverity && sev.Method != severity.MethodModelBased) {
		result = "degraded"
	}
	metrics.AnalysesTotal.WithLabelValues(result).Inc()
	metrics.AnalysisDurationSeconds.WithLabelValues(result).Observe(time.Since(start).Seconds())

	return &record, nil
}

// SourceName exposes the active provider label for status endpoints.
func (s *Service) SourceName() string {
	return s.llmClient.SourceName()
}
