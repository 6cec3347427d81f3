package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tdurojaiye/taxadvisor/internal/audit"
	"github.com/tdurojaiye/taxadvisor/internal/history"
	"github.com/tdurojaiye/taxadvisor/internal/ingest"
	"github.com/tdurojaiye/taxadvisor/internal/tax"
	"github.com/tdurojaiye/taxadvisor/pkg/database"
)

const sampleCSV = `Metric,Amount_NGN
Total Revenue,145000000
Cost of Sales,60000000
Operating Expenses,35000000
Profit Tax Paid,4500000
Output VAT,10875000
Input VAT,4125000
`

func testServer(t *testing.T) *Server {
	t.Helper()

	store, err := history.Open(database.Config{Path: filepath.Join(t.TempDir(), "history.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	engine, err := tax.NewEngine(tax.DefaultRateTable())
	require.NoError(t, err)

	audits := audit.NewService(ingest.NewReader(zap.NewNop()), nil, engine, nil, store, zap.NewNop())
	return New(Config{Host: "127.0.0.1", Port: 0}, audits, store, zap.NewNop())
}

// envelope mirrors Response with the payload kept raw for per-test decoding.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func doRequest(t *testing.T, s *Server, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w, env
}

func uploadRequest(t *testing.T, filename, content string, advice bool) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("statement", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	if advice {
		require.NoError(t, mw.WriteField("advice", "true"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	s := testServer(t)

	w, env := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
}

func TestCreateAssessment(t *testing.T) {
	s := testServer(t)

	w, env := doRequest(t, s, uploadRequest(t, "statement.csv", sampleCSV, false))
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	require.True(t, env.Success)

	var resp AssessmentResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "statement.csv", resp.Source)
	assert.Equal(t, tax.StatusUnderpaid, resp.Report.Status)
	assert.Equal(t, "16500000", resp.Report.TotalLiability.String())
	assert.Nil(t, resp.Review, "no review unless advice was requested")
}

func TestCreateAssessment_AdviceWithoutKeyFallsBack(t *testing.T) {
	s := testServer(t)

	w, env := doRequest(t, s, uploadRequest(t, "statement.csv", sampleCSV, true))
	require.Equal(t, http.StatusCreated, w.Code)

	var resp AssessmentResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotNil(t, resp.Review)
	assert.Contains(t, resp.Review.ComplianceRecommendation, "OPENAI_API_KEY")
}

func TestCreateAssessment_MissingFile(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments", nil)
	w, env := doRequest(t, s, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "statement")
}

func TestCreateAssessment_NoRevenue(t *testing.T) {
	s := testServer(t)

	content := "Metric,Amount_NGN\nCost of Sales,1000\n"
	w, env := doRequest(t, s, uploadRequest(t, "statement.csv", content, false))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "revenue")
}

func TestCreateAssessment_UnsupportedFormat(t *testing.T) {
	s := testServer(t)

	w, env := doRequest(t, s, uploadRequest(t, "statement.docx", "not a statement", false))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}

func TestListAssessments(t *testing.T) {
	s := testServer(t)

	for i := 0; i < 2; i++ {
		w, _ := doRequest(t, s, uploadRequest(t, "statement.csv", sampleCSV, false))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, env := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/assessments", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var items []AssessmentResponse
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 2)
}

func TestListAssessments_Empty(t *testing.T) {
	s := testServer(t)

	w, env := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/assessments", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var items []AssessmentResponse
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Empty(t, items)
}

func TestGetAssessment(t *testing.T) {
	s := testServer(t)

	_, created := doRequest(t, s, uploadRequest(t, "statement.csv", sampleCSV, false))
	var resp AssessmentResponse
	require.NoError(t, json.Unmarshal(created.Data, &resp))
	require.NotEmpty(t, resp.ID)

	w, env := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/assessments/"+resp.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got AssessmentResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, resp.ID, got.ID)
	assert.Equal(t, tax.StatusUnderpaid, got.Report.Status)
	assert.NotEmpty(t, got.CreatedAt)
}

func TestGetAssessment_NotFound(t *testing.T) {
	s := testServer(t)

	w, env := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/assessments/no-such-id", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
}
