package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/GeorgeShani/Learnyx-sub001/pkg/llm"
	"github.com/GeorgeShani/Learnyx-sub001/pkg/llm/factory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Exercises a locally running Ollama instance end to end. Opt in with
// OLLAMA_INTEGRATION=true.
func TestOllamaProviderChat(t *testing.T) {
	if os.Getenv("OLLAMA_INTEGRATION") != "true" {
		t.Skip("Skipping: set OLLAMA_INTEGRATION=true to run against a local Ollama")
	}

	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "llama3"
	}

	provider, err := factory.NewLLMProvider("ollama", model, baseURL, "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	history := []llm.Message{
		{Role: "system", Content: "You are a terse test assistant. Reply with one word."},
		{Role: "user", Content: "Say the word ping."},
	}

	reply, err := provider.Chat(ctx, history, llm.WithTemperature(0))
	require.NoError(t, err)
	assert.NotEmpty(t, reply)
	t.Logf("model replied: %q", reply)
}
