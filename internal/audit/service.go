// Package audit runs the statement-to-report pipeline shared by the CLI and
// the HTTP server: read a statement, extract its metrics, assess them, ask
// the advisor for a second opinion when requested, and record the outcome.
package audit

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tdurojaiye/taxadvisor/internal/advisor"
	"github.com/tdurojaiye/taxadvisor/internal/history"
	"github.com/tdurojaiye/taxadvisor/internal/ingest"
	"github.com/tdurojaiye/taxadvisor/internal/tax"
)

// maxConcurrentAudits bounds how many statements a batch works on at once,
// keeping vision and review traffic within API rate limits.
const maxConcurrentAudits = 4

// Result is the outcome of auditing one statement file.
type Result struct {
	Source    string
	Statement *ingest.Statement
	Metrics   tax.Metrics
	Report    *tax.Report

	// Review is present only when advisory review was requested.
	Review *advisor.AssessmentReview

	// RecordID identifies the stored history row, empty when the audit was
	// not persisted.
	RecordID string

	// Err is set on batch entries whose audit failed.
	Err error
}

// Service orchestrates statement audits.
type Service struct {
	reader    *ingest.Reader
	pdfReader *ingest.PDFReader
	engine    *tax.Engine
	advisor   *advisor.Client
	store     *history.Store
	logger    *zap.Logger
}

// NewService wires the audit pipeline. pdfReader and client are nil when no
// OpenAI key is configured; store is nil when persistence is disabled. The
// deterministic path (spreadsheet in, report out) works with all three nil.
func NewService(
	reader *ingest.Reader,
	pdfReader *ingest.PDFReader,
	engine *tax.Engine,
	client *advisor.Client,
	store *history.Store,
	logger *zap.Logger,
) *Service {
	return &Service{
		reader:    reader,
		pdfReader: pdfReader,
		engine:    engine,
		advisor:   client,
		store:     store,
		logger:    logger,
	}
}

// Run audits one statement file end to end.
func (s *Service) Run(ctx context.Context, path string, withAdvice bool) (*Result, error) {
	st, err := s.readStatement(ctx, path)
	if err != nil {
		return nil, err
	}

	metrics, err := s.reader.ExtractMetrics(st)
	if err != nil {
		return nil, err
	}

	report, err := s.engine.Assess(metrics)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Source:    filepath.Base(path),
		Statement: st,
		Metrics:   metrics,
		Report:    report,
	}

	if withAdvice {
		result.Review = s.review(ctx, st, metrics, report)
	}

	s.persist(ctx, result)

	s.logger.Info("audit complete",
		zap.String("source", result.Source),
		zap.String("status", string(report.Status)),
		zap.String("liability", report.TotalLiability.StringFixed(2)))
	return result, nil
}

// RunAll audits several statements concurrently, preserving input order.
// Each entry carries its own error so one unreadable statement does not
// abort the rest.
func (s *Service) RunAll(ctx context.Context, paths []string, withAdvice bool) []*Result {
	results := make([]*Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentAudits)
	for i, path := range paths {
		g.Go(func() error {
			result, err := s.Run(ctx, path, withAdvice)
			if err != nil {
				s.logger.Error("audit failed",
					zap.String("path", path),
					zap.Error(err))
				result = &Result{Source: filepath.Base(path), Err: err}
			}
			results[i] = result
			return nil
		})
	}
	// Per-file errors live on the results, never on the group.
	_ = g.Wait()
	return results
}

// readStatement picks the reader by extension. Scanned formats need the
// vision-backed reader, which exists only when an API key is configured.
func (s *Service) readStatement(ctx context.Context, path string) (*ingest.Statement, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf", ".jpg", ".jpeg", ".png":
		if s.pdfReader == nil {
			return nil, fmt.Errorf("%w: reading %s statements requires an OpenAI API key", ingest.ErrUnsupportedFormat, ext)
		}
		return s.pdfReader.Read(ctx, path)
	default:
		return s.reader.Read(path)
	}
}

func (s *Service) review(ctx context.Context, st *ingest.Statement, metrics tax.Metrics, report *tax.Report) *advisor.AssessmentReview {
	if s.advisor == nil {
		return advisor.FallbackReview("Advisory review requires an OpenAI API key; set OPENAI_API_KEY and rerun.")
	}
	review, err := s.advisor.ReviewAssessment(ctx, st.Table(), metrics, report)
	if err != nil {
		s.logger.Warn("assessment review unavailable, using fallback", zap.Error(err))
		return advisor.FallbackReview("The advisory service could not be reached. Verify the figures above with a qualified tax professional.")
	}
	return review
}

// persist records the audit. Failure to record is logged, not fatal: the
// report has already been computed and belongs to the caller.
func (s *Service) persist(ctx context.Context, result *Result) {
	if s.store == nil {
		return
	}
	record := &history.Assessment{
		Source:  result.Source,
		Metrics: result.Metrics,
		Report:  result.Report,
	}
	if err := s.store.Save(ctx, record); err != nil {
		s.logger.Warn("failed to record assessment",
			zap.String("source", result.Source),
			zap.Error(err))
		return
	}
	result.RecordID = record.ID
}
