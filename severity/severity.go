package severity

import (
	"fmt"
	"strings"

	"eco-report-service/llm"
	"eco-report-service/metrics"
	"eco-report-service/models"
	"eco-report-service/parser"

	"github.com/apex/log"
)

// MethodRuleBased and MethodModelBased record which strategy produced a
// SeverityResult.
const (
	MethodRuleBased  = "rule-based"
	MethodModelBased = "model-based"
)

// levelInfo is the fixed profile of one severity tier.
type levelInfo struct {
	Score               int
	ResponseTime        string
	HealthRisk          string
	EnvironmentalImpact string
	Actions             []string
}

var levels = map[models.SeverityLevel]levelInfo{
	models.SeverityCritical: {
		Score:               5,
		ResponseTime:        "Immediate (within 24 hours)",
		HealthRisk:          "Immediate threat to public health",
		EnvironmentalImpact: "Immediate threat to the environment; contamination may spread",
		Actions: []string{
			"Dispatch hazardous materials response team",
			"Cordon off the affected area",
			"Implement containment measures",
			"Notify public health authorities",
		},
	},
	models.SeverityHigh: {
		Score:               4,
		ResponseTime:        "Urgent (within 3 days)",
		HealthRisk:          "Significant health concern if left unaddressed",
		EnvironmentalImpact: "Significant environmental concern; degradation likely without intervention",
		Actions: []string{
			"Schedule urgent specialized cleanup",
			"Assess the extent of contamination",
			"Arrange appropriate disposal or recycling",
		},
	},
	models.SeverityMedium: {
		Score:               3,
		ResponseTime:        "Standard (within 1 week)",
		HealthRisk:          "Moderate health concern requiring attention",
		EnvironmentalImpact: "Moderate environmental impact; persistent material accumulating",
		Actions: []string{
			"Dispatch standard cleanup crew",
			"Sort recoverable materials for recycling",
			"Monitor the site for recurrence",
		},
	},
	models.SeverityLow: {
		Score:               2,
		ResponseTime:        "Regular schedule (within 2 weeks)",
		HealthRisk:          "Minor health concern",
		EnvironmentalImpact: "Minor environmental impact; routine cleanup sufficient",
		Actions: []string{
			"Add to routine cleanup schedule",
			"Check nearby bins and collection points",
		},
	},
	models.SeverityMinimal: {
		Score:               1,
		ResponseTime:        "As resources permit",
		HealthRisk:          "Minimal health concern",
		EnvironmentalImpact: "Minimal environmental impact; preventive action suggested",
		Actions: []string{
			"Note for preventive attention",
		},
	},
}

// categoryRules maps waste categories to severity levels. Matching is by
// keyword against the lowercased category so both the canonical names
// ("Plastic waste") and bare forms ("plastic") resolve. Order matters:
// first match wins, so the table stays deterministic.
var categoryRules = []struct {
	keyword string
	level   models.SeverityLevel
}{
	{"hazardous", models.SeverityCritical},
	{"water pollution", models.SeverityCritical},
	{"chemical", models.SeverityCritical},
	{"e-waste", models.SeverityHigh},
	{"electronic", models.SeverityHigh},
	{"construction", models.SeverityHigh},
	{"air pollution", models.SeverityHigh},
	{"plastic", models.SeverityMedium},
	{"metal", models.SeverityMedium},
	{"glass", models.SeverityMedium},
	{"textile", models.SeverityMedium},
	{"organic", models.SeverityLow},
	{"paper", models.SeverityLow},
	{"cardboard", models.SeverityLow},
	{"litter", models.SeverityLow},
}

// levelForCategory resolves a waste category to its default severity level.
// Unrecognized categories default to medium.
func levelForCategory(category string) models.SeverityLevel {
	c := strings.ToLower(strings.TrimSpace(category))
	for _, rule := range categoryRules {
		if strings.Contains(c, rule.keyword) {
			return rule.level
		}
	}
	return models.SeverityMedium
}

// EstimateRuleBased assigns severity from the static category table. It is a
// pure function of the classification's category: the same category always
// yields the same result, regardless of confidence, description, or any
// other field.
func EstimateRuleBased(classification models.ClassificationResult) models.SeverityResult {
	level := levelForCategory(classification.Category)
	info := levels[level]

	return models.SeverityResult{
		Score:               info.Score,
		Level:               level,
		HealthRisk:          info.HealthRisk,
		EnvironmentalImpact: info.EnvironmentalImpact,
		ResponseTime:        info.ResponseTime,
		RecommendedActions:  info.Actions,
		Method:              MethodRuleBased,
	}
}

const rubricTemplate = `Assess the severity of this environmental issue:

Waste Type: %s
Description: %s
Location: %s
Confidence: %.2f

Severity Levels:
- critical: Immediate threat to public health or environment
- high: Significant environmental or health concern
- medium: Moderate concern requiring attention
- low: Minor issue, routine cleanup needed
- minimal: Minimal impact, preventive action suggested

Provide your assessment in JSON format:
{
    "severity": "critical/high/medium/low/minimal",
    "severity_score": 1-5,
    "reasoning": "explain your assessment in 2-3 sentences",
    "health_risk": "description of potential health risks",
    "environmental_impact": "description of environmental impact",
    "urgency_factors": ["list", "of", "factors"]
}

Be objective and consider public health, environmental impact, and urgency.`

// BuildRubricPrompt formats the severity scoring prompt for the reasoning
// endpoint.
func BuildRubricPrompt(classification models.ClassificationResult, location string) string {
	loc := location
	if loc == "" {
		loc = "Not specified"
	}
	return fmt.Sprintf(rubricTemplate,
		classification.Category, classification.Description, loc, classification.Confidence)
}

// EstimateWithModel asks the reasoning endpoint to score the issue, falling
// back to the rule-based estimate on any remote or parse failure.
func EstimateWithModel(client llm.Client, classification models.ClassificationResult, location string) models.SeverityResult {
	response, err := client.Reason(BuildRubricPrompt(classification, location))
	if err != nil {
		log.Warnf("Severity call failed, using rule-based fallback: %v", err)
		metrics.StepFallbacksTotal.WithLabelValues("severity").Inc()
		return EstimateRuleBased(classification)
	}

	reply, err := parser.ParseSeverity(response)
	if err != nil {
		log.Warnf("Severity reply unparseable, using rule-based fallback: %v", err)
		metrics.StepFallbacksTotal.WithLabelValues("severity").Inc()
		return EstimateRuleBased(classification)
	}

	level := models.SeverityLevel(reply.Severity)
	info := levels[level]

	healthRisk := reply.HealthRisk
	if healthRisk == "" {
		healthRisk = info.HealthRisk
	}
	environmentalImpact := reply.EnvironmentalImpact
	if environmentalImpact == "" {
		environmentalImpact = info.EnvironmentalImpact
	}

	return models.SeverityResult{
		Score:               reply.SeverityScore,
		Level:               level,
		HealthRisk:          healthRisk,
		EnvironmentalImpact: environmentalImpact,
		ResponseTime:        info.ResponseTime,
		RecommendedActions:  info.Actions,
		Reasoning:           reply.Reasoning,
		UrgencyFactors:      reply.UrgencyFactors,
		Method:              MethodModelBased,
	}
}

// Estimate selects the estimation strategy. Callers receive the same result
// shape from either path.
func Estimate(client llm.Client, classification models.ClassificationResult, location string, useModel bool) models.SeverityResult {
	if useModel {
		return EstimateWithModel(client, classification, location)
	}
	return EstimateRuleBased(classification)
}
