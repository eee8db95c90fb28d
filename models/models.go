package models

import (
	"time"
)

// SeverityLevel is the named urgency tier attached to a severity score.
type SeverityLevel string

const (
	SeverityCritical SeverityLevel = "critical"
	SeverityHigh     SeverityLevel = "high"
	SeverityMedium   SeverityLevel = "medium"
	SeverityLow      SeverityLevel = "low"
	SeverityMinimal  SeverityLevel = "minimal"
)

// CategoryUnknown is used when classification failed outright and
// CategoryGeneralLitter when the model replied but the reply could not be
// parsed into the schema.
const (
	CategoryUnknown       = "Unknown"
	CategoryGeneralLitter = "General litter/mixed waste"
)

// WasteCategories lists the categories the classifier prompt offers the
// vision model. The rule-based severity table keys off the same names.
var WasteCategories = []string{
	"Plastic waste",
	"Organic waste",
	"Electronic waste (e-waste)",
	"Metal waste",
	"Glass waste",
	"Paper/Cardboard waste",
	"Textile waste",
	"Hazardous waste (chemicals, batteries, etc.)",
	"Construction debris",
	CategoryGeneralLitter,
	"Water pollution (oil, sewage, etc.)",
	"Air pollution (smoke, emissions)",
	"Other",
}

// ClassificationResult is the parsed output of the waste classifier.
// Immutable after creation; owned by the orchestrator run that produced it.
type ClassificationResult struct {
	Category     string   `json:"category"`
	Confidence   float64  `json:"confidence"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags,omitempty"`
	VisibleItems []string `json:"visible_items,omitempty"`
	RawModelText string   `json:"raw_model_text,omitempty"`
	Fallback     bool     `json:"fallback,omitempty"`
}

// SeverityResult is the urgency assessment derived from a classification.
// Both estimation strategies return this same shape.
type SeverityResult struct {
	Score               int           `json:"score"`
	Level               SeverityLevel `json:"level"`
	HealthRisk          string        `json:"health_risk"`
	EnvironmentalImpact string        `json:"environmental_impact"`
	ResponseTime        string        `json:"response_time"`
	RecommendedActions  []string      `json:"recommended_actions"`
	Reasoning           string        `json:"reasoning,omitempty"`
	UrgencyFactors      []string      `json:"urgency_factors,omitempty"`
	Method              string        `json:"method"`
}

// ReportSections are the five fixed sections of a civic report.
type ReportSections struct {
	ExecutiveSummary   string `json:"executive_summary"`
	DetailedFindings   string `json:"detailed_findings"`
	RiskAssessment     string `json:"risk_assessment"`
	RecommendedActions string `json:"recommended_actions"`
	PriorityLevel      string `json:"priority_level"`
}

// ReportRecord aggregates one full analysis run. It is the sole externally
// visible artifact; nothing is persisted across requests.
type ReportRecord struct {
	ReportID       string               `json:"report_id"`
	Timestamp      time.Time            `json:"timestamp"`
	Location       string               `json:"location"`
	Notes          string               `json:"notes,omitempty"`
	Classification ClassificationResult `json:"classification"`
	Severity       SeverityResult       `json:"severity"`
	ReportText     string               `json:"report_text"`
	Sections       ReportSections       `json:"sections"`
	Fallback       bool                 `json:"fallback,omitempty"`
}
