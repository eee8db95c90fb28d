package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"eco-report-service/llm"
	"eco-report-service/metrics"
	"eco-report-service/models"

	"github.com/apex/log"
)

const systemPrompt = `You are an environmental report specialist. Your job is to create clear, professional,
actionable reports for civic authorities. Be concise, factual, and focus on what actions need to be taken.`

const writingInstructions = `Generate a professional environmental incident report with the following sections:

1. **Executive Summary** (2-3 sentences summarizing the key issue)
2. **Detailed Findings** (bullet points of what was observed)
3. **Risk Assessment** (health and environmental risks)
4. **Recommended Actions** (specific steps to address the issue)
5. **Priority Level** (based on severity)

Make the report clear, actionable, and appropriate for submission to environmental authorities.
Format the output in a structured way that can be easily parsed.`

// NewReportID generates a report identifier from the given time.
func NewReportID(t time.Time) string {
	return "ECO-" + t.UTC().Format("20060102150405")
}

// buildContext assembles the analysis facts the writing prompt is grounded on.
func buildContext(c models.ClassificationResult, s models.SeverityResult, location, notes string) string {
	if location == "" {
		location = "Not specified"
	}
	if notes == "" {
		notes = "None"
	}

	return fmt.Sprintf(`Environmental Issue Report Details:

CLASSIFICATION:
- Waste Type: %s
- Confidence: %.2f
- Description: %s
- Visible Items: %s

SEVERITY ASSESSMENT:
- Severity Level: %s
- Severity Score: %d/5
- Response Time: %s
- Health Risk: %s
- Environmental Impact: %s

LOCATION:
%s

ADDITIONAL NOTES:
%s`,
		c.Category, c.Confidence, c.Description, strings.Join(c.VisibleItems, ", "),
		s.Level, s.Score, s.ResponseTime, s.HealthRisk, s.EnvironmentalImpact,
		location, notes)
}

// Section header patterns tolerate markdown bold, numbering, and plain
// "Header:" styles in the model reply. A section ends at the next markdown
// header, a blank line, or end of text, so plain-header replies (including
// the fallback template) do not bleed into each other.
var sectionPatterns = map[string]*regexp.Regexp{
	"executive_summary":   regexp.MustCompile(`(?is)(?:Executive Summary|Summary)[:\s*]+(.*?)(?:\n\s*(?:\d\.\s*)?\*\*|\n#{1,3}\s|\n\n|\z)`),
	"detailed_findings":   regexp.MustCompile(`(?is)(?:Detailed Findings|Findings|Observations)[:\s*]+(.*?)(?:\n\s*(?:\d\.\s*)?\*\*|\n#{1,3}\s|\n\n|\z)`),
	"risk_assessment":     regexp.MustCompile(`(?is)(?:Risk Assessment|Risks?)[:\s*]+(.*?)(?:\n\s*(?:\d\.\s*)?\*\*|\n#{1,3}\s|\n\n|\z)`),
	"recommended_actions": regexp.MustCompile(`(?is)(?:Recommended Actions?|Recommendations?)[:\s*]+(.*?)(?:\n\s*(?:\d\.\s*)?\*\*|\n#{1,3}\s|\n\n|\z)`),
	"priority_level":      regexp.MustCompile(`(?is)(?:Priority Level|Priority)[:\s*]+(.*?)(?:\n\s*(?:\d\.\s*)?\*\*|\n#{1,3}\s|\n\n|\z)`),
}

// ParseSections splits a generated report into its five fixed sections. If
// no section header is recognized, the whole text lands in the executive
// summary so nothing is lost.
func ParseSections(reportText string) models.ReportSections {
	extract := func(key string) string {
		m := sectionPatterns[key].FindStringSubmatch(reportText)
		if len(m) < 2 {
			return ""
		}
		return strings.Trim(strings.TrimSpace(m[1]), "*")
	}

	sections := models.ReportSections{
		ExecutiveSummary:   extract("executive_summary"),
		DetailedFindings:   extract("detailed_findings"),
		RiskAssessment:     extract("risk_assessment"),
		RecommendedActions: extract("recommended_actions"),
		PriorityLevel:      extract("priority_level"),
	}

	if sections.ExecutiveSummary == "" && sections.DetailedFindings == "" &&
		sections.RiskAssessment == "" && sections.RecommendedActions == "" &&
		sections.PriorityLevel == "" {
		sections.ExecutiveSummary = strings.TrimSpace(reportText)
	}

	return sections
}

// fallbackText substitutes the analysis fields into the fixed report
// template used when the generation endpoint is unavailable.
func fallbackText(c models.ClassificationResult, s models.SeverityResult, location string) string {
	loc := location
	if loc == "" {
		loc = "unspecified location"
	}

	actions := "- Dispatch appropriate cleanup crew"
	if len(s.RecommendedActions) > 0 {
		var b strings.Builder
		for i, a := range s.RecommendedActions {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("- ")
			b.WriteString(a)
		}
		actions = b.String()
	}

	return fmt.Sprintf(`ENVIRONMENTAL INCIDENT REPORT (Auto-Generated)

Executive Summary:
%s detected at %s with %s severity level.

Detailed Findings:
- Waste Type: %s
- Description: %s
- Confidence: %.2f

Risk Assessment:
- Health Risk: %s
- Environmental Impact: %s
- Severity Score: %d/5
- Response Time Required: %s

Recommended Actions:
%s

Priority Level: %s

Note: This is an auto-generated report. Manual review recommended.`,
		c.Category, loc, s.Level,
		c.Category, c.Description, c.Confidence,
		s.HealthRisk, s.EnvironmentalImpact, s.Score, s.ResponseTime,
		actions,
		strings.ToUpper(string(s.Level)))
}

// Generate produces the final ReportRecord. On remote failure the fixed
// template takes over, so a report is always produced.
func Generate(client llm.Client, c models.ClassificationResult, s models.SeverityResult, location, notes string) models.ReportRecord {
	now := time.Now()
	record := models.ReportRecord{
		ReportID:       NewReportID(now),
		Timestamp:      now,
		Location:       location,
		Notes:          notes,
		Classification: c,
		Severity:       s,
	}

	userPrompt := buildContext(c, s, location, notes) + "\n\n" + writingInstructions

	reportText, err := client.Generate(systemPrompt, userPrompt)
	if err != nil {
		log.Warnf("Report generation call failed, using template fallback: %v", err)
		metrics.StepFallbacksTotal.WithLabelValues("report").Inc()
		record.ReportText = fallbackText(c, s, location)
		record.Fallback = true
	} else {
		record.ReportText = strings.TrimSpace(reportText)
	}

	record.Sections = ParseSections(record.ReportText)
	return record
}

const displayHeader = `╔══════════════════════════════════════════════════════════════╗
║           ENVIRONMENTAL INCIDENT REPORT                       ║
╚══════════════════════════════════════════════════════════════╝`

const displayRule = "─────────────────────────────────────────────────────────────"

// FormatForDisplay renders a record as the human-readable report text used
// by the CLI, the download endpoint, and email submission.
func FormatForDisplay(record *models.ReportRecord) string {
	location := record.Location
	if location == "" {
		location = "Not specified"
	}

	section := func(value string) string {
		if value == "" {
			return "Not available"
		}
		return value
	}

	priority := record.Sections.PriorityLevel
	if priority == "" {
		priority = strings.ToUpper(string(record.Severity.Level))
	}

	return fmt.Sprintf(`%s

Report ID: %s
Timestamp: %s
Location: %s

%s
EXECUTIVE SUMMARY
%s
%s

%s
DETAILED FINDINGS
%s
%s

%s
RISK ASSESSMENT
%s
%s

%s
RECOMMENDED ACTIONS
%s
%s

%s
PRIORITY LEVEL: %s
%s

Metadata:
- Waste Category: %s
- Classification Confidence: %.2f
- Severity: %s (%d/5, %s)
- Expected Response Time: %s
`,
		displayHeader,
		record.ReportID,
		record.Timestamp.Format("2006-01-02 15:04:05"),
		location,
		displayRule, displayRule, section(record.Sections.ExecutiveSummary),
		displayRule, displayRule, section(record.Sections.DetailedFindings),
		displayRule, displayRule, section(record.Sections.RiskAssessment),
		displayRule, displayRule, section(record.Sections.RecommendedActions),
		displayRule, priority, displayRule,
		record.Classification.Category,
		record.Classification.Confidence,
		record.Severity.Level, record.Severity.Score, record.Severity.Method,
		record.Severity.ResponseTime)
}
