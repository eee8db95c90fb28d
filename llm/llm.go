package llm

import "fmt"

// Client abstracts the hosted model endpoints the pipeline calls.
// Implementations must be concurrency-safe if used across goroutines.
type Client interface {
	// AnalyzeImage sends raw image bytes plus an instruction prompt to the
	// vision endpoint and returns the model's raw text reply.
	AnalyzeImage(imageData []byte, prompt string) (string, error)
	// Reason sends a scoring/reasoning prompt to the text endpoint.
	Reason(prompt string) (string, error)
	// Generate sends a system prompt plus a writing prompt to the
	// generation endpoint.
	Generate(systemPrompt, userPrompt string) (string, error)
	// SourceName returns a short provider label (e.g. "Nemotron", "Stub").
	SourceName() string
}

// RemoteCallError reports a failed call to a hosted model endpoint. Callers
// treat any such failure as terminal for that pipeline step and switch to
// the step's fallback; there are no retries.
type RemoteCallError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *RemoteCallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s call failed (status %d): %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s call failed: %v", e.Endpoint, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }
