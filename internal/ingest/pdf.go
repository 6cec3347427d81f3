package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // registered for scanned statement images
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxPDFPages caps how many statement pages go to the vision model per file.
const maxPDFPages = 3

// PDFReader extracts statement line items from scanned or exported PDF
// statements by rasterizing pages and asking a vision model to read the
// figures.
type PDFReader struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewPDFReader creates a PDF statement reader on an already-configured
// OpenAI client.
func NewPDFReader(client *openai.Client, model string, logger *zap.Logger) *PDFReader {
	return &PDFReader{
		client: client,
		model:  model,
		logger: logger,
	}
}

// Read rasterizes the PDF at path and extracts its line items. JPEG and PNG
// scans of a statement page are accepted directly.
func (r *PDFReader) Read(ctx context.Context, path string) (*Statement, error) {
	r.logger.Info("reading PDF statement", zap.String("path", path))

	images, err := r.rasterize(path)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no pages rendered from %s", ErrEmptyStatement, path)
	}
	if len(images) > maxPDFPages {
		r.logger.Warn("statement has more pages than the vision request carries",
			zap.Int("pages", len(images)),
			zap.Int("sent", maxPDFPages))
		images = images[:maxPDFPages]
	}

	st, err := r.extract(ctx, images)
	if err != nil {
		return nil, err
	}
	st.Path = path

	r.logger.Info("extracted PDF statement",
		zap.String("path", path),
		zap.Int("rows", len(st.Rows)))
	return st, nil
}

// rasterize renders each PDF page to a JPEG. Plain image files are passed
// through re-encoded.
func (r *PDFReader) rasterize(path string) ([][]byte, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("statement file not accessible: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".jpg" || ext == ".jpeg" || ext == ".png" {
		return r.readImageFile(path)
	}
	if ext != ".pdf" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var images [][]byte
	for page := 0; page < doc.NumPage(); page++ {
		img, err := doc.Image(page)
		if err != nil {
			r.logger.Warn("failed to render PDF page",
				zap.Int("page", page),
				zap.Error(err))
			continue
		}
		data, err := encodeJPEG(img)
		if err != nil {
			r.logger.Warn("failed to encode PDF page",
				zap.Int("page", page),
				zap.Error(err))
			continue
		}
		images = append(images, data)
	}
	return images, nil
}

func (r *PDFReader) readImageFile(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	data, err := encodeJPEG(img)
	if err != nil {
		return nil, err
	}
	return [][]byte{data}, nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// visionStatement is the JSON shape the vision prompt asks for.
type visionStatement struct {
	Items []struct {
		Label  string  `json:"label"`
		Amount float64 `json:"amount"`
	} `json:"items"`
}

// extract sends the page images to the vision model and parses the returned
// line items.
func (r *PDFReader) extract(ctx context.Context, images [][]byte) (*Statement, error) {
	parts := []openai.ChatMessagePart{{
		Type: openai.ChatMessagePartTypeText,
		Text: pdfVisionPrompt,
	}}
	for i, data := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(data)),
				Detail: openai.ImageURLDetailHigh,
			},
		})
		r.logger.Debug("attached statement page",
			zap.Int("page", i+1),
			zap.Int("size_bytes", len(data)))
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		MaxTokens:   2048,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You read financial statements with perfect accuracy and always respond with valid JSON.",
			},
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vision request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("vision request returned no choices")
	}

	content := resp.Choices[0].Message.Content
	var vs visionStatement
	if err := json.Unmarshal([]byte(content), &vs); err != nil {
		r.logger.Error("failed to parse vision response",
			zap.String("content", content),
			zap.Error(err))
		return nil, fmt.Errorf("failed to parse vision response: %w", err)
	}
	if len(vs.Items) == 0 {
		return nil, fmt.Errorf("%w: vision model found no line items", ErrEmptyStatement)
	}

	st := &Statement{
		LabelHeader:  sampleLabelHeader,
		AmountHeader: sampleAmountHeader,
	}
	for _, item := range vs.Items {
		label := strings.TrimSpace(item.Label)
		if label == "" {
			continue
		}
		st.Rows = append(st.Rows, Row{
			Label:  label,
			Amount: decimal.NewFromFloat(item.Amount),
		})
	}
	if len(st.Rows) == 0 {
		return nil, fmt.Errorf("%w: vision model found no labeled amounts", ErrEmptyStatement)
	}
	return st, nil
}

const pdfVisionPrompt = `Read this Nigerian financial statement and list every line item that pairs
a label with a monetary amount.

Extract EXACTLY what you see. Do not compute, guess, or invent values.
Amounts are in naira (NGN); return them as plain numbers with no currency
symbols or thousands separators. Amounts shown in parentheses are negative.

Pay particular attention to lines for total revenue or turnover, cost of
sales, operating expenses, profit tax paid, output VAT, and input VAT, but
include every labeled amount on the page.

Return a JSON object with this exact structure:
{"items": [{"label": "string", "amount": number}]}`
