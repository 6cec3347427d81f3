package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/tdurojaiye/taxadvisor/internal/advisor"
	"github.com/tdurojaiye/taxadvisor/internal/history"
	"github.com/tdurojaiye/taxadvisor/internal/ingest"
	"github.com/tdurojaiye/taxadvisor/internal/tax"
	"github.com/tdurojaiye/taxadvisor/pkg/database"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testService(t *testing.T, client *advisor.Client, store *history.Store) *Service {
	t.Helper()
	engine, err := tax.NewEngine(tax.DefaultRateTable())
	require.NoError(t, err)
	return NewService(ingest.NewReader(zap.NewNop()), nil, engine, client, store, zap.NewNop())
}

func testStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(database.Config{Path: filepath.Join(t.TempDir(), "history.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// sampleStatement writes the bundled example statement: a large company with
// a 50M gross profit that underpaid its 16.5M liability by 12M.
func sampleStatement(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "statement.csv")
	require.NoError(t, ingest.WriteSample(path))
	return path
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, got.Equal(decimal.RequireFromString(want)),
		"%s: want %s, got %s", field, want, got)
}

func TestService_Run(t *testing.T) {
	svc := testService(t, nil, nil)

	result, err := svc.Run(context.Background(), sampleStatement(t), false)
	require.NoError(t, err)

	assert.Equal(t, "statement.csv", result.Source)
	assertAmount(t, "50000000", result.Report.GrossProfit, "gross profit")
	assertAmount(t, "16500000", result.Report.TotalLiability, "liability")
	assertAmount(t, "12000000", result.Report.Variance, "variance")
	assert.Equal(t, tax.StatusUnderpaid, result.Report.Status)

	assert.Nil(t, result.Review, "no review unless advice is requested")
	assert.Empty(t, result.RecordID, "nothing recorded without a store")
}

func TestService_Run_PersistsToHistory(t *testing.T) {
	store := testStore(t)
	svc := testService(t, nil, store)
	ctx := context.Background()

	result, err := svc.Run(ctx, sampleStatement(t), false)
	require.NoError(t, err)
	require.NotEmpty(t, result.RecordID)

	stored, err := store.Get(ctx, result.RecordID)
	require.NoError(t, err)
	assert.Equal(t, "statement.csv", stored.Source)
	assert.Equal(t, tax.StatusUnderpaid, stored.Report.Status)
}

func TestService_Run_AdviceFallsBackWithoutClient(t *testing.T) {
	svc := testService(t, nil, nil)

	result, err := svc.Run(context.Background(), sampleStatement(t), true)
	require.NoError(t, err)

	require.NotNil(t, result.Review)
	assert.Contains(t, result.Review.ComplianceRecommendation, "OPENAI_API_KEY")
}

func TestService_Run_AdviceFromModel(t *testing.T) {
	review, err := json.Marshal(advisor.AssessmentReview{
		ComplianceRecommendation: "Settle the 12M shortfall before the filing deadline.",
		BusinessGrowthAdvice:     "Cost of sales is over 40% of turnover; renegotiate supplier terms.",
	})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": string(review)},
					"finish_reason": "stop",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	client, err := advisor.NewClient(advisor.Config{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		Model:   "gpt-4o",
	}, zap.NewNop())
	require.NoError(t, err)

	svc := testService(t, client, nil)
	result, err := svc.Run(context.Background(), sampleStatement(t), true)
	require.NoError(t, err)

	require.NotNil(t, result.Review)
	assert.Contains(t, result.Review.ComplianceRecommendation, "shortfall")
}

func TestService_Run_MissingFile(t *testing.T) {
	svc := testService(t, nil, nil)

	_, err := svc.Run(context.Background(), filepath.Join(t.TempDir(), "absent.csv"), false)
	assert.Error(t, err)
}

func TestService_Run_ScannedFormatsNeedVision(t *testing.T) {
	svc := testService(t, nil, nil)

	_, err := svc.Run(context.Background(), "statement.pdf", false)
	require.ErrorIs(t, err, ingest.ErrUnsupportedFormat)
	assert.ErrorContains(t, err, "API key")
}

func TestService_RunAll(t *testing.T) {
	store := testStore(t)
	svc := testService(t, nil, store)
	ctx := context.Background()

	good1 := sampleStatement(t)
	good2 := filepath.Join(t.TempDir(), "second.csv")
	require.NoError(t, ingest.WriteSample(good2))
	missing := filepath.Join(t.TempDir(), "absent.csv")

	results := svc.RunAll(ctx, []string{good1, missing, good2}, false)
	require.Len(t, results, 3)

	// Input order is preserved and the failure stays contained.
	require.NoError(t, results[0].Err)
	assert.Equal(t, tax.StatusUnderpaid, results[0].Report.Status)
	assert.Error(t, results[1].Err)
	assert.Equal(t, "absent.csv", results[1].Source)
	require.NoError(t, results[2].Err)
	assert.Equal(t, "second.csv", results[2].Source)

	stored, err := store.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, stored, 2, "only successful audits are recorded")
}
