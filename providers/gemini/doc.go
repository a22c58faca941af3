// Package gemini implements core.Provider for the Google Gemini API
// (generativelanguage.googleapis.com).
//
// The provider speaks the REST protocol directly: generateContent for whole
// responses and streamGenerateContent with alt=sse for streams. Each Send or
// OpenStream is a single attempt; retries belong to core.Client.
//
//	client := gemini.NewClient(gemini.ClientConfig{
//	    APIKey:       os.Getenv("GEMINI_API_KEY"),
//	    DefaultModel: gemini.ModelGemini25Flash,
//	    Retry:        core.RetryConfig{MaxAttempts: 5},
//	    Timeout:      30 * time.Second,
//	})
//
// Error responses are classified from the HTTP status first and the
// google.rpc.Status body second. RetryInfo and BadRequest details fill
// APIError.RetryAfter and APIError.Field.
package gemini
