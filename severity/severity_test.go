package severity

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"eco-report-service/llm"
	"eco-report-service/models"
)

// failingClient fails every endpoint, exercising fallback paths.
type failingClient struct{}

func (failingClient) AnalyzeImage(imageData []byte, prompt string) (string, error) {
	return "", &llm.RemoteCallError{Endpoint: "classify", StatusCode: 503, Err: errors.New("unavailable")}
}
func (failingClient) Reason(prompt string) (string, error) {
	return "", &llm.RemoteCallError{Endpoint: "reason", StatusCode: 503, Err: errors.New("unavailable")}
}
func (failingClient) Generate(systemPrompt, userPrompt string) (string, error) {
	return "", &llm.RemoteCallError{Endpoint: "generate", StatusCode: 503, Err: errors.New("unavailable")}
}
func (failingClient) SourceName() string { return "Failing" }

// cannedClient returns a fixed reply from every endpoint.
type cannedClient struct{ reply string }

func (c cannedClient) AnalyzeImage(imageData []byte, prompt string) (string, error) {
	return c.reply, nil
}
func (c cannedClient) Reason(prompt string) (string, error)                { return c.reply, nil }
func (c cannedClient) Generate(systemPrompt, userPrompt string) (string, error) { return c.reply, nil }
func (c cannedClient) SourceName() string                                  { return "Canned" }

func TestEstimateRuleBasedDefaults(t *testing.T) {
	tests := []struct {
		category  string
		wantScore int
		wantLevel models.SeverityLevel
	}{
		{"Hazardous waste (chemicals, batteries, etc.)", 5, models.SeverityCritical},
		{"Water pollution (oil, sewage, etc.)", 5, models.SeverityCritical},
		{"Electronic waste (e-waste)", 4, models.SeverityHigh},
		{"Construction debris", 4, models.SeverityHigh},
		{"Air pollution (smoke, emissions)", 4, models.SeverityHigh},
		{"Plastic waste", 3, models.SeverityMedium},
		{"plastic", 3, models.SeverityMedium},
		{"Metal waste", 3, models.SeverityMedium},
		{"Glass waste", 3, models.SeverityMedium},
		{"Textile waste", 3, models.SeverityMedium},
		{"Organic waste", 2, models.SeverityLow},
		{"Paper/Cardboard waste", 2, models.SeverityLow},
		{"General litter/mixed waste", 2, models.SeverityLow},
		{"Other", 3, models.SeverityMedium},
		{"Unknown", 3, models.SeverityMedium},
		{"", 3, models.SeverityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			result := EstimateRuleBased(models.ClassificationResult{Category: tt.category})

			if result.Score != tt.wantScore {
				t.Errorf("EstimateRuleBased(%q) score = %d, want %d", tt.category, result.Score, tt.wantScore)
			}
			if result.Level != tt.wantLevel {
				t.Errorf("EstimateRuleBased(%q) level = %s, want %s", tt.category, result.Level, tt.wantLevel)
			}
			if result.Method != MethodRuleBased {
				t.Errorf("EstimateRuleBased(%q) method = %s, want %s", tt.category, result.Method, MethodRuleBased)
			}
			if result.ResponseTime == "" || result.HealthRisk == "" || result.EnvironmentalImpact == "" {
				t.Errorf("EstimateRuleBased(%q) left descriptive fields empty: %+v", tt.category, result)
			}
			if len(result.RecommendedActions) == 0 {
				t.Errorf("EstimateRuleBased(%q) returned no recommended actions", tt.category)
			}
		})
	}
}

// The rule-based path must be a pure function of the category: confidence,
// description, and every other field are ignored.
func TestEstimateRuleBasedPurity(t *testing.T) {
	a := EstimateRuleBased(models.ClassificationResult{
		Category:    "Plastic waste",
		Confidence:  0.1,
		Description: "a single bottle cap",
	})
	b := EstimateRuleBased(models.ClassificationResult{
		Category:     "Plastic waste",
		Confidence:   0.99,
		Description:  "a hazardous chemical river of toxic sewage", // must not affect the score
		Tags:         []string{"hazardous", "toxic"},
		VisibleItems: []string{"drums"},
	})

	if !reflect.DeepEqual(a, b) {
		t.Errorf("rule-based estimate is not pure per category: %+v vs %+v", a, b)
	}
}

func TestEstimateRuleBasedIdempotent(t *testing.T) {
	c := models.ClassificationResult{Category: "Glass waste", Confidence: 0.7, Description: "broken bottles"}

	first, err := json.Marshal(EstimateRuleBased(c))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	second, err := json.Marshal(EstimateRuleBased(c))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("rule-based estimate not byte-identical across runs:\n%s\n%s", first, second)
	}
}

func TestEstimateWithModelFallsBackOnRemoteError(t *testing.T) {
	c := models.ClassificationResult{Category: "Plastic waste", Confidence: 0.9, Description: "bottles"}

	got := EstimateWithModel(failingClient{}, c, "riverbank")
	want := EstimateRuleBased(c)

	if !reflect.DeepEqual(got, want) {
		t.Errorf("remote failure should fall back to the rule-based estimate: got %+v, want %+v", got, want)
	}
}

func TestEstimateWithModelFallsBackOnUnparseableReply(t *testing.T) {
	c := models.ClassificationResult{Category: "Organic waste", Confidence: 0.6, Description: "food waste"}

	got := EstimateWithModel(cannedClient{reply: "I think it is pretty bad, maybe a 4?"}, c, "")

	if got.Method != MethodRuleBased {
		t.Errorf("unparseable reply should fall back to rule-based, got method %s", got.Method)
	}
	if got.Score != 2 || got.Level != models.SeverityLow {
		t.Errorf("fallback should use the organic default 2/low, got %d/%s", got.Score, got.Level)
	}
}

func TestEstimateWithModelRejectsMissingScore(t *testing.T) {
	c := models.ClassificationResult{Category: "Plastic waste", Confidence: 0.9, Description: "bottles"}

	got := EstimateWithModel(cannedClient{reply: `{"severity": "high"}`}, c, "")

	if got.Method != MethodRuleBased {
		t.Errorf("reply without a 1-5 score should fall back to rule-based, got method %s", got.Method)
	}
	if got.Score != 3 || got.Level != models.SeverityMedium {
		t.Errorf("fallback should use the plastic default 3/medium, got %d/%s", got.Score, got.Level)
	}
}

func TestEstimateWithModelParsesReply(t *testing.T) {
	reply := `{
		"severity": "critical",
		"severity_score": 5,
		"reasoning": "Oil sheen spreading toward a water intake.",
		"health_risk": "Drinking water contamination.",
		"environmental_impact": "Aquatic habitat damage.",
		"urgency_factors": ["water intake", "spreading"]
	}`
	c := models.ClassificationResult{Category: "Water pollution (oil, sewage, etc.)", Confidence: 0.95, Description: "oil sheen"}

	got := EstimateWithModel(cannedClient{reply: reply}, c, "reservoir")

	if got.Method != MethodModelBased {
		t.Fatalf("method = %s, want %s", got.Method, MethodModelBased)
	}
	if got.Score != 5 || got.Level != models.SeverityCritical {
		t.Errorf("got %d/%s, want 5/critical", got.Score, got.Level)
	}
	if got.HealthRisk != "Drinking water contamination." {
		t.Errorf("health risk not taken from reply: %q", got.HealthRisk)
	}
	if got.ResponseTime == "" {
		t.Errorf("response time should be filled from the level table")
	}
	if len(got.UrgencyFactors) != 2 {
		t.Errorf("urgency factors not carried: %v", got.UrgencyFactors)
	}
}

func TestEstimateSelectsStrategy(t *testing.T) {
	c := models.ClassificationResult{Category: "Plastic waste", Confidence: 0.9, Description: "bottles"}

	ruleBased := Estimate(failingClient{}, c, "", false)
	if ruleBased.Method != MethodRuleBased {
		t.Errorf("useModel=false should never call the model, got method %s", ruleBased.Method)
	}

	modelReply := `{"severity": "high", "severity_score": 4, "reasoning": "r"}`
	modelBased := Estimate(cannedClient{reply: modelReply}, c, "", true)
	if modelBased.Method != MethodModelBased {
		t.Errorf("useModel=true should use the model path, got method %s", modelBased.Method)
	}
}
