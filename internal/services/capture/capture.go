// Package capture turns SMS text, receipt images, voice memos and manual
// entries into expense drafts the user confirms before anything is saved
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/findosh/moneymanager/internal/api"
	"github.com/findosh/moneymanager/internal/config"
	"github.com/findosh/moneymanager/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultCategory is used when the parser could not classify an expense
const DefaultCategory = "Other"

// sniffLen is how much of an upload http.DetectContentType looks at
const sniffLen = 512

var ErrNoParser = errors.New("capture: no parser configured")

// Parser extracts expense fields from captured input. *api.Client satisfies it.
type Parser interface {
	ParseSMS(ctx context.Context, text string) (models.ParsedExpense, error)
	ParseReceipt(ctx context.Context, file api.Upload) (models.ParsedExpense, error)
	ParseVoice(ctx context.Context, file api.Upload) (models.ParsedExpense, error)
}

// Draft is a parsed expense awaiting confirmation. Input may be edited freely
// before it is confirmed.
type Draft struct {
	Input      models.ExpenseInput
	Confidence float64
}

// Validate checks the draft as it would be sent
func (d Draft) Validate() error {
	return d.Input.Validate()
}

// Service runs the capture flows
type Service struct {
	parser    Parser
	maxUpload int64
	logger    *log.Logger
	now       func() time.Time
}

// NewService creates a capture service
func NewService(parser Parser, cfg *config.Config, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		parser:    parser,
		maxUpload: cfg.MaxUploadSize,
		logger:    logger,
		now:       time.Now,
	}
}

// FromSMS parses a bank SMS into a draft
func (s *Service) FromSMS(ctx context.Context, text string) (Draft, error) {
	if strings.TrimSpace(text) == "" {
		return Draft{}, models.NewValidationError("text", "is required")
	}
	if s.parser == nil {
		return Draft{}, ErrNoParser
	}

	parsed, err := s.parser.ParseSMS(ctx, text)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to parse sms: %w", err)
	}
	return s.draft(parsed, models.SourceSMS, &models.SourcePayload{RawText: text}), nil
}

// FromReceipt parses a receipt image into a draft
func (s *Service) FromReceipt(ctx context.Context, name string, r io.Reader) (Draft, error) {
	upload, err := s.upload(name, r, "image/")
	if err != nil {
		return Draft{}, err
	}
	if s.parser == nil {
		return Draft{}, ErrNoParser
	}

	parsed, err := s.parser.ParseReceipt(ctx, upload)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to parse receipt: %w", err)
	}
	var payload *models.SourcePayload
	if len(parsed.Items) > 0 {
		payload = &models.SourcePayload{Items: parsed.Items}
	}
	return s.draft(parsed, models.SourceReceipt, payload), nil
}

// FromVoice parses a voice memo into a draft
func (s *Service) FromVoice(ctx context.Context, name string, r io.Reader) (Draft, error) {
	upload, err := s.upload(name, r, "audio/")
	if err != nil {
		return Draft{}, err
	}
	if s.parser == nil {
		return Draft{}, ErrNoParser
	}

	parsed, err := s.parser.ParseVoice(ctx, upload)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to parse voice memo: %w", err)
	}
	var payload *models.SourcePayload
	if parsed.Transcript != "" {
		payload = &models.SourcePayload{Transcript: parsed.Transcript}
	}
	return s.draft(parsed, models.SourceVoice, payload), nil
}

// Manual wraps a typed-in expense as a draft. It never touches the network.
func (s *Service) Manual(in models.ExpenseInput) (Draft, error) {
	in.Source = models.SourceManual
	in.Payload = nil
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	if err := in.Validate(); err != nil {
		return Draft{}, err
	}
	return Draft{Input: in, Confidence: 1}, nil
}

func (s *Service) draft(p models.ParsedExpense, source models.Source, payload *models.SourcePayload) Draft {
	in := models.ExpenseInput{
		Merchant:    strings.TrimSpace(p.Merchant),
		Amount:      decimal.Zero,
		Category:    p.Category,
		Date:        s.now(),
		Source:      source,
		Description: p.Description,
		Payload:     payload,
	}
	if p.Amount != nil {
		in.Amount = *p.Amount
	}
	if p.Date != nil {
		in.Date = *p.Date
	}
	if strings.TrimSpace(in.Category) == "" {
		in.Category = DefaultCategory
	}

	s.logger.Printf("capture: %s parsed with confidence %.2f", source, p.Confidence)
	return Draft{Input: in, Confidence: p.Confidence}
}

// upload reads the file into memory, enforcing the size limit and media type
func (s *Service) upload(name string, r io.Reader, wantPrefix string) (api.Upload, error) {
	if r == nil {
		return api.Upload{}, models.NewValidationError("file", "is required")
	}

	limit := s.maxUpload
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return api.Upload{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(data) == 0 {
		return api.Upload{}, models.NewValidationError("file", "is empty")
	}
	if int64(len(data)) > limit {
		return api.Upload{}, models.NewValidationError("file", fmt.Sprintf("must be at most %s", formatSize(limit)))
	}

	contentType, ok := mediaType(name, data, wantPrefix)
	if !ok {
		kind := "an image"
		if wantPrefix == "audio/" {
			kind = "an audio file"
		}
		return api.Upload{}, models.NewValidationError("file", "must be "+kind)
	}

	return api.Upload{
		Name:        filepath.Base(name),
		ContentType: contentType,
		Body:        bytes.NewReader(data),
	}, nil
}

var extensionTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".webm": "audio/webm",
	".flac": "audio/flac",
}

// Sniffed types that say nothing definite about the content
var ambiguousTypes = map[string]bool{
	"application/octet-stream": true,
	"application/ogg":          true,
	"video/webm":               true,
	"video/mp4":                true,
}

// mediaType determines the upload's content type from its bytes, falling
// back to the file extension only when sniffing is inconclusive
func mediaType(name string, data []byte, wantPrefix string) (string, bool) {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	sniffed := http.DetectContentType(head)
	if strings.HasPrefix(sniffed, wantPrefix) {
		return sniffed, true
	}
	if !ambiguousTypes[sniffed] {
		return "", false
	}

	byExt, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]
	if !ok || !strings.HasPrefix(byExt, wantPrefix) {
		return "", false
	}
	return byExt, true
}

func formatSize(n int64) string {
	const mb = 1 << 20
	if n >= mb && n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
