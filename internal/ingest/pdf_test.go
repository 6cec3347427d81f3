package ingest

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeVisionServer returns an OpenAI-compatible server whose chat completion
// always answers with the given message content.
func fakeVisionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		resp := map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func visionClient(t *testing.T, serverURL string) *openai.Client {
	t.Helper()
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = serverURL + "/v1"
	return openai.NewClientWithConfig(cfg)
}

// writeTempPNG writes a small image standing in for a scanned statement page.
func writeTempPNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		img.Set(x, 16, color.Black)
	}

	path := filepath.Join(t.TempDir(), "scan.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestPDFReader_Read_ScannedImage(t *testing.T) {
	items, err := json.Marshal(map[string]any{
		"items": []map[string]any{
			{"label": "Total Revenue", "amount": 145000000},
			{"label": "Cost of Sales", "amount": 60000000},
			{"label": "Profit Tax Paid", "amount": 4500000},
		},
	})
	require.NoError(t, err)

	server := fakeVisionServer(t, string(items))
	defer server.Close()

	reader := NewPDFReader(visionClient(t, server.URL), "gpt-4o", zap.NewNop())
	st, err := reader.Read(context.Background(), writeTempPNG(t))
	require.NoError(t, err)

	require.Len(t, st.Rows, 3)
	assert.Equal(t, "Total Revenue", st.Rows[0].Label)
	assert.True(t, st.Rows[0].Amount.Equal(decimal.NewFromInt(145_000_000)),
		"got %s", st.Rows[0].Amount)
}

func TestPDFReader_Read_MalformedVisionReply(t *testing.T) {
	server := fakeVisionServer(t, "these are not the line items you are looking for")
	defer server.Close()

	reader := NewPDFReader(visionClient(t, server.URL), "gpt-4o", zap.NewNop())
	_, err := reader.Read(context.Background(), writeTempPNG(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse vision response")
}

func TestPDFReader_Read_NoItemsFound(t *testing.T) {
	server := fakeVisionServer(t, `{"items": []}`)
	defer server.Close()

	reader := NewPDFReader(visionClient(t, server.URL), "gpt-4o", zap.NewNop())
	_, err := reader.Read(context.Background(), writeTempPNG(t))
	assert.ErrorIs(t, err, ErrEmptyStatement)
}

func TestPDFReader_Read_MissingFile(t *testing.T) {
	server := fakeVisionServer(t, `{"items": []}`)
	defer server.Close()

	reader := NewPDFReader(visionClient(t, server.URL), "gpt-4o", zap.NewNop())
	_, err := reader.Read(context.Background(), filepath.Join(t.TempDir(), "absent.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not accessible")
}

func TestPDFReader_Read_UnsupportedExtension(t *testing.T) {
	server := fakeVisionServer(t, `{"items": []}`)
	defer server.Close()

	path := filepath.Join(t.TempDir(), "statement.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a statement"), 0o644))

	reader := NewPDFReader(visionClient(t, server.URL), "gpt-4o", zap.NewNop())
	_, err := reader.Read(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
