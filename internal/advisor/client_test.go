package advisor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tdurojaiye/taxadvisor/internal/tax"
)

// fakeModelServer returns an OpenAI-compatible server that always answers
// with the given message content and records the last prompt it was sent.
type fakeModelServer struct {
	*httptest.Server
	lastUserPrompt string
}

func newFakeModelServer(t *testing.T, content string) *fakeModelServer {
	t.Helper()
	fake := &fakeModelServer{}
	fake.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		if n := len(req.Messages); n > 0 {
			fake.lastUserPrompt = req.Messages[n-1].Content
		}

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
	return fake
}

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: serverURL + "/v1",
		Model:   "gpt-4o",
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func validAdviceJSON(t *testing.T) string {
	t.Helper()
	content, err := json.Marshal(BusinessAdvice{
		RelevanceScore:      1.0,
		AdviceType:          AdviceTaxCompliance,
		Title:               "Registering for VAT",
		KeyPointsSummary:    "Register with FIRS once turnover passes the threshold.",
		DetailedExplanation: "Businesses above the registration threshold must charge VAT on taxable supplies and file monthly returns.",
		ActionableSteps:     []string{"Register on the FIRS TaxPro Max portal", "File returns by the 21st of each month"},
		Risks:               "Late registration attracts penalties.",
	})
	require.NoError(t, err)
	return string(content)
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	client, err := NewClient(Config{}, zap.NewNop())
	assert.Nil(t, client)
	assert.ErrorContains(t, err, "API key")
}

func TestClient_Advise(t *testing.T) {
	server := newFakeModelServer(t, validAdviceJSON(t))
	defer server.Close()

	advice, err := testClient(t, server.URL).Advise(context.Background(), "How do I register for VAT in Nigeria?")
	require.NoError(t, err)

	assert.True(t, advice.Relevant())
	assert.Equal(t, AdviceTaxCompliance, advice.AdviceType)
	assert.Equal(t, "Registering for VAT", advice.Title)
	assert.Len(t, advice.ActionableSteps, 2)
}

func TestClient_Advise_Guardrail(t *testing.T) {
	content, err := json.Marshal(BusinessAdvice{
		RelevanceScore:      0,
		AdviceType:          AdviceIrrelevant,
		Title:               "Query Irrelevant",
		KeyPointsSummary:    RejectionMessage,
		DetailedExplanation: "N/A",
		ActionableSteps:     []string{},
		Risks:               "N/A",
	})
	require.NoError(t, err)

	server := newFakeModelServer(t, string(content))
	defer server.Close()

	advice, err := testClient(t, server.URL).Advise(context.Background(), "Best jollof rice recipe?")
	require.NoError(t, err)

	assert.False(t, advice.Relevant())
	assert.Equal(t, RejectionMessage, advice.KeyPointsSummary)
}

func TestClient_Advise_FencedReply(t *testing.T) {
	fenced := "Here is the advice you asked for:\n```json\n" + validAdviceJSON(t) + "\n```\nLet me know if you need more."
	server := newFakeModelServer(t, fenced)
	defer server.Close()

	advice, err := testClient(t, server.URL).Advise(context.Background(), "How do I register for VAT?")
	require.NoError(t, err)
	assert.Equal(t, "Registering for VAT", advice.Title)
}

func TestClient_Advise_MalformedReply(t *testing.T) {
	server := newFakeModelServer(t, "sorry, I cannot respond in JSON today")
	defer server.Close()

	_, err := testClient(t, server.URL).Advise(context.Background(), "How do I register for VAT?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse advisory reply")
}

func TestClient_Advise_ContractViolation(t *testing.T) {
	server := newFakeModelServer(t, `{"relevance_score": 1.0, "advice_type": "FINANCIAL_ASTROLOGY", "advice_title": "t", "key_points_summary": "s", "detailed_explanation": "d", "actionable_steps": [], "potential_risks_or_considerations": "r"}`)
	defer server.Close()

	_, err := testClient(t, server.URL).Advise(context.Background(), "How do I register for VAT?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "response contract")
}

func TestClient_Advise_EmptyQuestion(t *testing.T) {
	server := newFakeModelServer(t, validAdviceJSON(t))
	defer server.Close()

	_, err := testClient(t, server.URL).Advise(context.Background(), "   ")
	assert.ErrorContains(t, err, "question is empty")
}

func TestClient_ReviewAssessment(t *testing.T) {
	content, err := json.Marshal(AssessmentReview{
		ComplianceRecommendation: "Settle the 2.8M NGN shortfall with FIRS before the filing deadline.",
		BusinessGrowthAdvice:     "Cost of sales at 40% of revenue leaves room for supplier renegotiation.",
	})
	require.NoError(t, err)

	server := newFakeModelServer(t, string(content))
	defer server.Close()

	report := &tax.Report{
		GrossProfit:    decimal.NewFromInt(40_000_000),
		TurnoverBand:   "standard",
		CITRate:        decimal.RequireFromString("0.30"),
		CIT:            decimal.NewFromInt(12_000_000),
		TET:            decimal.NewFromInt(800_000),
		TotalLiability: decimal.NewFromInt(12_800_000),
		ProfitTaxPaid:  decimal.NewFromInt(10_000_000),
		VATPayable:     decimal.NewFromInt(3_000_000),
		Status:         tax.StatusUnderpaid,
		Variance:       decimal.NewFromInt(2_800_000),
	}
	metrics := tax.Metrics{
		tax.MetricTotalRevenue: decimal.NewFromInt(100_000_000),
	}

	review, err := testClient(t, server.URL).ReviewAssessment(context.Background(), "Metric  Amount\nTotal Revenue  100000000.00\n", metrics, report)
	require.NoError(t, err)
	assert.Contains(t, review.ComplianceRecommendation, "shortfall")

	// The prompt must carry the engine's figures so the model has nothing to
	// compute.
	assert.Contains(t, server.lastUserPrompt, "total_profit_tax_due: 12800000.00")
	assert.Contains(t, server.lastUserPrompt, "NON-COMPLIANT (Underpaid)")
	assert.Contains(t, server.lastUserPrompt, "Total Revenue  100000000.00")
}

func TestClient_ReviewAssessment_NilReport(t *testing.T) {
	server := newFakeModelServer(t, "{}")
	defer server.Close()

	_, err := testClient(t, server.URL).ReviewAssessment(context.Background(), "", tax.Metrics{}, nil)
	assert.ErrorContains(t, err, "report is required")
}

func TestClient_AnalyzeBusiness(t *testing.T) {
	content, err := json.Marshal(BusinessAnalysis{
		Profitability:    "Net profit of 150,000 NGN gives a 30% margin.",
		GrowthProjection: "Above the retail benchmark; expect steady growth.",
		Efficiency:       "Cost-to-revenue ratio of 70% is workable.",
		Valuation:        "Roughly 3.6M-5.4M NGN. This is a theoretical estimate for informational purposes only and not a formal valuation.",
		TaxOverview:      "Annualized revenue of 6M NGN keeps you a small company: 0% CIT, VAT exempt.",
		LoanEligibility:  "Positive cash flow and a healthy balance favor eligibility.",
		ActionableAdvice: []string{"Track inventory shrinkage", "Negotiate bulk supply discounts"},
	})
	require.NoError(t, err)

	server := newFakeModelServer(t, string(content))
	defer server.Close()

	analysis, err := testClient(t, server.URL).AnalyzeBusiness(context.Background(), AnalysisInput{
		Industry:       "Retail",
		MonthlyRevenue: decimal.NewFromInt(500_000),
		MonthlyCosts:   decimal.NewFromInt(350_000),
		BankBalance:    decimal.NewFromInt(900_000),
	})
	require.NoError(t, err)

	assert.Len(t, analysis.ActionableAdvice, 2)
	assert.Contains(t, server.lastUserPrompt, "Industry: Retail")
	assert.Contains(t, server.lastUserPrompt, "Calculated Net Profit/Loss: 150000.00 NGN")
}

func TestClient_AnalyzeBusiness_InvalidInput(t *testing.T) {
	server := newFakeModelServer(t, "{}")
	defer server.Close()

	tests := []struct {
		name  string
		input AnalysisInput
	}{
		{
			name:  "missing industry",
			input: AnalysisInput{MonthlyRevenue: decimal.NewFromInt(1)},
		},
		{
			name:  "zero revenue",
			input: AnalysisInput{Industry: "Retail"},
		},
		{
			name: "negative costs",
			input: AnalysisInput{
				Industry:       "Retail",
				MonthlyRevenue: decimal.NewFromInt(100),
				MonthlyCosts:   decimal.NewFromInt(-5),
			},
		},
	}

	client := testClient(t, server.URL)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.AnalyzeBusiness(context.Background(), tt.input)
			assert.ErrorContains(t, err, "invalid analysis input")
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bare object",
			content: `{"a": 1}`,
			want:    `{"a": 1}`,
		},
		{
			name:    "markdown fence",
			content: "```json\n{\"a\": 1}\n```",
			want:    `{"a": 1}`,
		},
		{
			name:    "prose around object",
			content: `Sure! {"a": {"b": 2}} Hope that helps.`,
			want:    `{"a": {"b": 2}}`,
		},
		{
			name:    "braces inside strings",
			content: `{"text": "use {placeholders} like this"}`,
			want:    `{"text": "use {placeholders} like this"}`,
		},
		{
			name:    "escaped quotes inside strings",
			content: `{"text": "she said \"hello {world}\""}`,
			want:    `{"text": "she said \"hello {world}\""}`,
		},
		{
			name:    "no object",
			content: "no json here",
			want:    "",
		},
		{
			name:    "unbalanced",
			content: `{"a": 1`,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.content))
		})
	}
}

func TestFallbacks_AreWellFormed(t *testing.T) {
	advice := FallbackAdvice("service unreachable")
	assert.NoError(t, advice.Validate())
	assert.False(t, advice.Relevant())

	review := FallbackReview("service unreachable")
	assert.NoError(t, review.Validate())

	analysis := FallbackAnalysis("service unreachable")
	assert.NotEmpty(t, analysis.ActionableAdvice)
}
