package advisor

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestLiveAdvise makes one real request to the configured advisory endpoint.
// It requires OPENAI_API_KEY and is skipped otherwise, so regular runs stay
// offline. Run with: go test -v -run TestLiveAdvise ./internal/advisor/...
func TestLiveAdvise(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set, skipping live connection test")
	}

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	defer logger.Sync()

	client, err := NewClient(Config{
		APIKey:  apiKey,
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   os.Getenv("OPENAI_MODEL"),
	}, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	advice, err := client.Advise(ctx, "What is the VAT rate in Nigeria and who must register for it?")
	require.NoError(t, err)
	require.NotNil(t, advice)

	t.Logf("advice_type=%s title=%q", advice.AdviceType, advice.Title)
	assert.True(t, advice.Relevant(), "a direct Nigerian tax question should be judged relevant")
	assert.NotEmpty(t, advice.DetailedExplanation)
}
