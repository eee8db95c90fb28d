package classifier

import (
	"fmt"
	"strings"

	"eco-report-service/llm"
	"eco-report-service/metrics"
	"eco-report-service/models"
	"eco-report-service/parser"

	"github.com/apex/log"
)

const promptTemplate = `Analyze this image and identify the type of waste or pollution visible.

Possible categories:
%s

Provide your analysis in the following JSON format:
{
    "category": "primary category from the list above",
    "confidence": 0.0-1.0,
    "description": "detailed description of what you see (50-100 words)",
    "tags": ["relevant", "tags", "here"],
    "visible_items": ["specific items you can identify"]
}

Be specific and objective. Focus on observable facts.`

// BuildPrompt formats the fixed classification instruction, appending the
// caller's free-text hint when present.
func BuildPrompt(hint string) string {
	var categories strings.Builder
	for _, cat := range models.WasteCategories {
		categories.WriteString("- ")
		categories.WriteString(cat)
		categories.WriteString("\n")
	}

	prompt := fmt.Sprintf(promptTemplate, strings.TrimRight(categories.String(), "\n"))
	if hint != "" {
		prompt += fmt.Sprintf("\n\nReporter context: %s", hint)
	}
	return prompt
}

// Classify sends the image to the vision endpoint and parses the reply.
// It never returns an error: remote or parse failures degrade to the
// documented fallback classifications so the pipeline can continue.
func Classify(client llm.Client, imageData []byte, hint string) models.ClassificationResult {
	response, err := client.AnalyzeImage(imageData, BuildPrompt(hint))
	if err != nil {
		log.Warnf("Classification call failed, using fallback: %v", err)
		metrics.StepFallbacksTotal.WithLabelValues("classify").Inc()
		return models.ClassificationResult{
			Category:     models.CategoryUnknown,
			Confidence:   0,
			Description:  "Unable to classify waste due to a model endpoint error. Please try again or provide a clearer image.",
			Tags:         []string{"error", "unclassified"},
			RawModelText: err.Error(),
			Fallback:     true,
		}
	}

	reply, err := parser.ParseClassification(response)
	if err != nil {
		log.Warnf("Classification reply unparseable, using general-litter fallback: %v", err)
		metrics.StepFallbacksTotal.WithLabelValues("classify").Inc()
		// The model replied but not in schema; keep its prose as the
		// description so the report still reflects what it saw.
		return models.ClassificationResult{
			Category:     models.CategoryGeneralLitter,
			Confidence:   0,
			Description:  strings.TrimSpace(response),
			RawModelText: response,
			Fallback:     true,
		}
	}

	return models.ClassificationResult{
		Category:     reply.Category,
		Confidence:   reply.Confidence,
		Description:  reply.Description,
		Tags:         reply.Tags,
		VisibleItems: reply.VisibleItems,
		RawModelText: response,
	}
}
