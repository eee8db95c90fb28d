package parser

import (
	"encoding/json"
	"errors"
	"strings"
)

// ClassificationReply is the JSON shape the classifier prompt asks the
// vision model to return.
type ClassificationReply struct {
	Category     string   `json:"category"`
	Confidence   float64  `json:"confidence"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	VisibleItems []string `json:"visible_items"`
}

// SeverityReply is the JSON shape the severity rubric prompt asks the
// reasoning model to return.
type SeverityReply struct {
	Severity            string   `json:"severity"`
	SeverityScore       int      `json:"severity_score"`
	Reasoning           string   `json:"reasoning"`
	HealthRisk          string   `json:"health_risk"`
	EnvironmentalImpact string   `json:"environmental_impact"`
	UrgencyFactors      []string `json:"urgency_factors"`
}

// ExtractJSONFromText extracts a JSON object from a model reply that may
// wrap it in prose or markdown code fences. Any finer heuristics are
// deliberately avoided; a reply this function cannot reduce to valid JSON
// triggers the caller's fallback.
func ExtractJSONFromText(response string) string {
	startMarker := "```"
	endMarker := "```"

	startIdx := strings.Index(response, startMarker)
	if startIdx == -1 {
		// No code block found, try to find a JSON object directly
		startIdx = strings.Index(response, "{")
		if startIdx == -1 {
			return response
		}
		endIdx := strings.LastIndex(response, "}")
		if endIdx == -1 {
			return response
		}
		return strings.TrimSpace(response[startIdx : endIdx+1])
	}

	// Find the end of the first code block
	endIdx := strings.Index(response[startIdx+len(startMarker):], endMarker)
	if endIdx == -1 {
		return response
	}
	endIdx += startIdx + len(startMarker)

	content := response[startIdx+len(startMarker) : endIdx]

	// Remove the language identifier if present (e.g., "json")
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 0 && (strings.TrimSpace(lines[0]) == "json" || strings.TrimSpace(lines[0]) == "") {
		content = strings.Join(lines[1:], "\n")
	}

	return strings.TrimSpace(content)
}

// ParseClassification parses the vision model reply and validates the
// required fields and ranges.
func ParseClassification(response string) (*ClassificationReply, error) {
	jsonContent := ExtractJSONFromText(strings.TrimSpace(response))

	var result ClassificationReply
	if err := json.Unmarshal([]byte(jsonContent), &result); err != nil {
		return nil, errors.New("failed to parse JSON response: " + err.Error())
	}

	if result.Category == "" {
		return nil, errors.New("category is required")
	}
	if result.Description == "" {
		return nil, errors.New("description is required")
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return nil, errors.New("confidence must be between 0 and 1")
	}
	return &result, nil
}

var severityNames = map[string]bool{
	"critical": true,
	"high":     true,
	"medium":   true,
	"low":      true,
	"minimal":  true,
}

// ParseSeverity parses the reasoning model reply and validates it against
// the severity rubric.
func ParseSeverity(response string) (*SeverityReply, error) {
	jsonContent := ExtractJSONFromText(strings.TrimSpace(response))

	var result SeverityReply
	if err := json.Unmarshal([]byte(jsonContent), &result); err != nil {
		return nil, errors.New("failed to parse JSON response: " + err.Error())
	}

	result.Severity = strings.ToLower(strings.TrimSpace(result.Severity))
	if !severityNames[result.Severity] {
		return nil, errors.New("severity must be one of critical/high/medium/low/minimal")
	}
	if result.SeverityScore < 1 || result.SeverityScore > 5 {
		return nil, errors.New("severity_score must be between 1 and 5")
	}
	return &result, nil
}
