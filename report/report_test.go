package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"eco-report-service/llm"
	"eco-report-service/models"
	"eco-report-service/stubllm"
)

type failingClient struct{}

func (failingClient) AnalyzeImage(imageData []byte, prompt string) (string, error) {
	return "", errors.New("unused")
}
func (failingClient) Reason(prompt string) (string, error) { return "", errors.New("unused") }
func (failingClient) Generate(systemPrompt, userPrompt string) (string, error) {
	return "", &llm.RemoteCallError{Endpoint: "generate", StatusCode: 500, Err: errors.New("server error")}
}
func (failingClient) SourceName() string { return "Failing" }

func testClassification() models.ClassificationResult {
	return models.ClassificationResult{
		Category:    "Plastic waste",
		Confidence:  0.9,
		Description: "Plastic bottles along the fence line.",
	}
}

func testSeverity() models.SeverityResult {
	return models.SeverityResult{
		Score:               3,
		Level:               models.SeverityMedium,
		HealthRisk:          "Low direct health risk.",
		EnvironmentalImpact: "Persistent plastic accumulation.",
		ResponseTime:        "Standard (within 1 week)",
		RecommendedActions:  []string{"Dispatch standard cleanup crew"},
		Method:              "rule-based",
	}
}

func TestNewReportID(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC)
	if got := NewReportID(ts); got != "ECO-20250601123045" {
		t.Errorf("NewReportID() = %q, want %q", got, "ECO-20250601123045")
	}
}

func TestParseSections(t *testing.T) {
	text := `**Executive Summary**
Plastic waste detected at the park entrance, medium severity.

**Detailed Findings**
- Several bottles
- Food wrappers

**Risk Assessment**
Low health risk, persistent environmental presence.

**Recommended Actions**
- Schedule cleanup
- Add a bin

**Priority Level**
MEDIUM`

	sections := ParseSections(text)

	if !strings.Contains(sections.ExecutiveSummary, "Plastic waste detected") {
		t.Errorf("executive summary not extracted: %q", sections.ExecutiveSummary)
	}
	if !strings.Contains(sections.DetailedFindings, "Several bottles") {
		t.Errorf("detailed findings not extracted: %q", sections.DetailedFindings)
	}
	if !strings.Contains(sections.RiskAssessment, "Low health risk") {
		t.Errorf("risk assessment not extracted: %q", sections.RiskAssessment)
	}
	if !strings.Contains(sections.RecommendedActions, "Schedule cleanup") {
		t.Errorf("recommended actions not extracted: %q", sections.RecommendedActions)
	}
	if !strings.Contains(sections.PriorityLevel, "MEDIUM") {
		t.Errorf("priority level not extracted: %q", sections.PriorityLevel)
	}
}

func TestParseSectionsPlainHeaders(t *testing.T) {
	text := `ENVIRONMENTAL INCIDENT REPORT

Executive Summary:
Plastic waste detected at the park entrance with medium severity.

Detailed Findings:
- Waste Type: Plastic waste
- Description: bottles and film

Risk Assessment:
- Health Risk: low
- Environmental Impact: persistent material

Recommended Actions:
- Dispatch standard cleanup crew

Priority Level: MEDIUM

Note: manual review recommended.`

	sections := ParseSections(text)

	if !strings.Contains(sections.ExecutiveSummary, "Plastic waste detected") {
		t.Errorf("executive summary not extracted: %q", sections.ExecutiveSummary)
	}
	// Each section stops at the blank line before the next plain header.
	if strings.Contains(sections.ExecutiveSummary, "Detailed Findings") {
		t.Errorf("executive summary swallowed the following section: %q", sections.ExecutiveSummary)
	}
	if !strings.Contains(sections.DetailedFindings, "bottles and film") {
		t.Errorf("detailed findings not extracted: %q", sections.DetailedFindings)
	}
	if strings.Contains(sections.DetailedFindings, "Risk Assessment") {
		t.Errorf("detailed findings swallowed the risk assessment: %q", sections.DetailedFindings)
	}
	if !strings.Contains(sections.RecommendedActions, "cleanup crew") {
		t.Errorf("recommended actions not extracted: %q", sections.RecommendedActions)
	}
	if sections.PriorityLevel != "MEDIUM" {
		t.Errorf("priority level = %q, want %q", sections.PriorityLevel, "MEDIUM")
	}
}

func TestParseSectionsWithoutHeaders(t *testing.T) {
	text := "The model ignored the requested structure and wrote one paragraph."

	sections := ParseSections(text)

	if sections.ExecutiveSummary != text {
		t.Errorf("headerless reply should land in the executive summary, got %q", sections.ExecutiveSummary)
	}
}

func TestGenerateWithStub(t *testing.T) {
	record := Generate(stubllm.NewClient(), testClassification(), testSeverity(), "Main St park", "reported twice")

	if record.Fallback {
		t.Fatalf("stub generation should not use the fallback template")
	}
	if !strings.HasPrefix(record.ReportID, "ECO-") {
		t.Errorf("report id = %q, want ECO- prefix", record.ReportID)
	}
	if record.ReportText == "" {
		t.Errorf("report text must not be empty")
	}
	if record.Sections.ExecutiveSummary == "" {
		t.Errorf("sections should be parsed from the stub reply")
	}
	if record.Location != "Main St park" || record.Notes != "reported twice" {
		t.Errorf("location/notes not carried into the record: %+v", record)
	}
}

func TestGenerateFallbackOnRemoteError(t *testing.T) {
	record := Generate(failingClient{}, testClassification(), testSeverity(), "", "")

	if !record.Fallback {
		t.Fatalf("remote failure must produce the template fallback")
	}
	if !strings.Contains(record.ReportText, "Plastic waste") {
		t.Errorf("fallback report must substitute the classification: %q", record.ReportText)
	}
	if !strings.Contains(record.ReportText, "Priority Level: MEDIUM") {
		t.Errorf("fallback report must carry the priority level: %q", record.ReportText)
	}
	if record.Sections.ExecutiveSummary == "" {
		t.Errorf("fallback template sections should parse: %+v", record.Sections)
	}
	// The template's plain headers must split cleanly; no section may run
	// into the next one.
	if strings.Contains(record.Sections.ExecutiveSummary, "Detailed Findings") ||
		strings.Contains(record.Sections.ExecutiveSummary, "Recommended Actions") {
		t.Errorf("executive summary swallowed later sections: %q", record.Sections.ExecutiveSummary)
	}
	if strings.Contains(record.Sections.DetailedFindings, "Risk Assessment") {
		t.Errorf("detailed findings swallowed the risk assessment: %q", record.Sections.DetailedFindings)
	}
	if strings.Contains(record.Sections.RecommendedActions, "Priority Level") {
		t.Errorf("recommended actions swallowed the priority level: %q", record.Sections.RecommendedActions)
	}
	if record.Sections.PriorityLevel != "MEDIUM" {
		t.Errorf("priority level = %q, want %q", record.Sections.PriorityLevel, "MEDIUM")
	}
	if record.ReportID == "" || record.Timestamp.IsZero() {
		t.Errorf("fallback record must still carry id and timestamp")
	}
}

func TestFormatForDisplay(t *testing.T) {
	record := Generate(stubllm.NewClient(), testClassification(), testSeverity(), "Main St park", "")

	out := FormatForDisplay(&record)

	for _, want := range []string{
		"ENVIRONMENTAL INCIDENT REPORT",
		record.ReportID,
		"Main St park",
		"EXECUTIVE SUMMARY",
		"RECOMMENDED ACTIONS",
		"PRIORITY LEVEL",
		"Plastic waste",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("formatted report missing %q", want)
		}
	}
}
