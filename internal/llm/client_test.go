package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"leadpulse_backend/platform/config"
)

// slowBackend answers like Ollama's chat completions API after the given
// delay, aborting early when the request is canceled.
func slowBackend(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": `{"status": "ok"}`}},
			},
		})
	}))
}

func slowClientConfig(baseURL string, timeout time.Duration) *config.Config {
	return &config.Config{
		OllamaBaseURL: baseURL,
		OllamaModel:   "test-model",
		LLMTimeout:    timeout,
		LLMMaxTokens:  64,
		LLMEnabled:    true,
	}
}

func TestGenerateTimesOutAgainstHungBackend(t *testing.T) {
	server := slowBackend(t, 2*time.Second)
	defer server.Close()

	client, err := NewClient(slowClientConfig(server.URL, 200*time.Millisecond))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	start := time.Now()
	_, err = client.Generate(context.Background(), "ping")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatalf("expected error from hung backend")
	}
	if elapsed > time.Second {
		t.Fatalf("single call took %v, want bounded by the 200ms timeout", elapsed)
	}
}

func TestConcurrentGenerateCallsShareOneTimeoutWindow(t *testing.T) {
	server := slowBackend(t, 2*time.Second)
	defer server.Close()

	client, err := NewClient(slowClientConfig(server.URL, 300*time.Millisecond))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	const callers = 4
	errs := make([]error, callers)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = client.Generate(context.Background(), "ping")
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	// Every caller's deadline starts on entry, so queueing behind the
	// hung backend must not multiply the wait per caller.
	if elapsed > time.Second {
		t.Fatalf("%d concurrent calls took %v, want all to fail within one timeout window", callers, elapsed)
	}
	for i, err := range errs {
		if err == nil {
			t.Fatalf("caller %d: expected error from hung backend", i)
		}
	}
}
