package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/findosh/moneymanager/internal/api"
	"github.com/findosh/moneymanager/internal/api/apitest"
	"github.com/findosh/moneymanager/internal/config"
	"github.com/findosh/moneymanager/internal/middleware"
	"github.com/findosh/moneymanager/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jpegBytes = append([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), bytes.Repeat([]byte{0x42}, 64)...)
	wavBytes  = append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), bytes.Repeat([]byte{0x00}, 64)...)
)

type stubParser struct {
	parsed  models.ParsedExpense
	err     error
	calls   int
	uploads []api.Upload
}

func (p *stubParser) ParseSMS(ctx context.Context, text string) (models.ParsedExpense, error) {
	p.calls++
	return p.parsed, p.err
}

func (p *stubParser) ParseReceipt(ctx context.Context, file api.Upload) (models.ParsedExpense, error) {
	p.calls++
	p.uploads = append(p.uploads, file)
	return p.parsed, p.err
}

func (p *stubParser) ParseVoice(ctx context.Context, file api.Upload) (models.ParsedExpense, error) {
	p.calls++
	p.uploads = append(p.uploads, file)
	return p.parsed, p.err
}

func newService(p Parser, maxUpload int64) *Service {
	svc := NewService(p, &config.Config{MaxUploadSize: maxUpload}, nil)
	fixed := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	return svc
}

func TestFromSMS(t *testing.T) {
	amount := decimal.RequireFromString("45.99")
	date := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	parser := &stubParser{parsed: models.ParsedExpense{
		Merchant:   " Starbucks ",
		Amount:     &amount,
		Category:   "Food & Dining",
		Date:       &date,
		Confidence: 0.9,
	}}
	svc := newService(parser, 1<<20)

	draft, err := svc.FromSMS(context.Background(), "Paid $45.99 at Starbucks")
	require.NoError(t, err)

	assert.Equal(t, "Starbucks", draft.Input.Merchant)
	assert.True(t, amount.Equal(draft.Input.Amount))
	assert.Equal(t, "Food & Dining", draft.Input.Category)
	assert.True(t, date.Equal(draft.Input.Date))
	assert.Equal(t, models.SourceSMS, draft.Input.Source)
	require.NotNil(t, draft.Input.Payload)
	assert.Equal(t, "Paid $45.99 at Starbucks", draft.Input.Payload.RawText)
	assert.InDelta(t, 0.9, draft.Confidence, 1e-9)
	assert.NoError(t, draft.Validate())
}

func TestFromSMS_EmptyTextNeverCallsParser(t *testing.T) {
	parser := &stubParser{}
	svc := newService(parser, 1<<20)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := svc.FromSMS(context.Background(), text)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "text", verr.Field)
	}
	assert.Zero(t, parser.calls)
}

func TestFromSMS_PartialParseNeedsEditing(t *testing.T) {
	svc := newService(&stubParser{parsed: models.ParsedExpense{Merchant: "Cafe"}}, 1<<20)

	draft, err := svc.FromSMS(context.Background(), "something unreadable")
	require.NoError(t, err)

	assert.Equal(t, DefaultCategory, draft.Input.Category)
	assert.True(t, draft.Input.Amount.IsZero())
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), draft.Input.Date)

	var verr *models.ValidationError
	require.ErrorAs(t, draft.Validate(), &verr)
	assert.Equal(t, "amount", verr.Field)

	draft.Input.Amount = decimal.NewFromInt(3)
	assert.NoError(t, draft.Validate())
}

func TestFromSMS_ParserError(t *testing.T) {
	cause := &api.TransportError{Op: "POST /parse/sms", Err: errors.New("connection refused")}
	svc := newService(&stubParser{err: cause}, 1<<20)

	_, err := svc.FromSMS(context.Background(), "Paid $5 at Cafe")
	assert.True(t, api.IsTransport(err))
}

func TestFromReceipt(t *testing.T) {
	items := []models.ReceiptItem{{Name: "Latte", Quantity: 1, Price: decimal.RequireFromString("4.50")}}
	parser := &stubParser{parsed: models.ParsedExpense{Merchant: "Cafe", Items: items}}
	svc := newService(parser, 1<<20)

	draft, err := svc.FromReceipt(context.Background(), "/tmp/scans/receipt.jpg", bytes.NewReader(jpegBytes))
	require.NoError(t, err)

	require.Len(t, parser.uploads, 1)
	assert.Equal(t, "receipt.jpg", parser.uploads[0].Name)
	assert.Equal(t, "image/jpeg", parser.uploads[0].ContentType)
	assert.Equal(t, models.SourceReceipt, draft.Input.Source)
	require.NotNil(t, draft.Input.Payload)
	assert.Len(t, draft.Input.Payload.Items, 1)
}

func TestFromVoice(t *testing.T) {
	parser := &stubParser{parsed: models.ParsedExpense{Merchant: "Taxi", Transcript: "spent twelve dollars on a taxi"}}
	svc := newService(parser, 1<<20)

	draft, err := svc.FromVoice(context.Background(), "memo.wav", bytes.NewReader(wavBytes))
	require.NoError(t, err)

	require.Len(t, parser.uploads, 1)
	assert.True(t, strings.HasPrefix(parser.uploads[0].ContentType, "audio/"))
	assert.Equal(t, models.SourceVoice, draft.Input.Source)
	require.NotNil(t, draft.Input.Payload)
	assert.Equal(t, "spent twelve dollars on a taxi", draft.Input.Payload.Transcript)
}

func TestUploadValidation(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    io.Reader
		voice   bool
		message string
	}{
		{"missing reader", "r.jpg", nil, false, "file is required"},
		{"empty file", "r.jpg", bytes.NewReader(nil), false, "file is empty"},
		{"too large", "r.jpg", bytes.NewReader(bytes.Repeat(jpegBytes, 20)), false, "file must be at most 1024 bytes"},
		{"text as receipt", "r.jpg", strings.NewReader("just some text"), false, "file must be an image"},
		{"audio as receipt", "r.wav", bytes.NewReader(wavBytes), false, "file must be an image"},
		{"image as voice", "memo.jpg", bytes.NewReader(jpegBytes), true, "file must be an audio file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &stubParser{}
			svc := newService(parser, 1024)

			var err error
			if tt.voice {
				_, err = svc.FromVoice(context.Background(), tt.file, tt.body)
			} else {
				_, err = svc.FromReceipt(context.Background(), tt.file, tt.body)
			}

			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.message, verr.Error())
			assert.Zero(t, parser.calls)
		})
	}
}

func TestMediaType(t *testing.T) {
	webm := []byte("\x1a\x45\xdf\xa3\x9f\x42\x86\x81\x01webm")

	tests := []struct {
		name   string
		file   string
		data   []byte
		prefix string
		want   string
		ok     bool
	}{
		{"sniffed jpeg", "x.bin", jpegBytes, "image/", "image/jpeg", true},
		{"sniffed png", "x", []byte("\x89PNG\r\n\x1a\n0000"), "image/", "image/png", true},
		{"sniffed wav", "memo", wavBytes, "audio/", "audio/wave", true},
		{"webm recording by extension", "memo.webm", webm, "audio/", "audio/webm", true},
		{"unknown bytes with image extension", "scan.heic", []byte{0x00, 0x01, 0x02}, "image/", "image/heic", true},
		{"unknown bytes with wrong extension", "scan.txt", []byte{0x00, 0x01, 0x02}, "image/", "", false},
		{"extension cannot override sniffed text", "scan.png", []byte("hello"), "image/", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := mediaType(tt.file, tt.data, tt.prefix)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestManual(t *testing.T) {
	svc := newService(nil, 1<<20)

	draft, err := svc.Manual(models.ExpenseInput{
		Merchant: "Bakery",
		Amount:   decimal.RequireFromString("7.25"),
		Category: "Food & Dining",
		Source:   models.SourceSMS,
		Payload:  &models.SourcePayload{RawText: "ignored"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.SourceManual, draft.Input.Source)
	assert.Nil(t, draft.Input.Payload)
	assert.False(t, draft.Input.Date.IsZero())
	assert.Equal(t, 1.0, draft.Confidence)

	_, err = svc.Manual(models.ExpenseInput{Merchant: "Bakery", Category: "Food & Dining"})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "amount", verr.Field)
}

func TestNoParser(t *testing.T) {
	svc := newService(nil, 1<<20)

	_, err := svc.FromSMS(context.Background(), "Paid $5 at Cafe")
	assert.ErrorIs(t, err, ErrNoParser)
}

func TestAgainstBackend(t *testing.T) {
	server := apitest.New(t)
	server.AddUser("Ada", "ada@example.com", "secret123", models.RoleUser)
	token := server.TokenFor("ada@example.com")

	cfg := &config.Config{APIBaseURL: server.APIURL(), RequestTimeout: 5 * time.Second, MaxUploadSize: 1 << 20}
	client := api.New(cfg, middleware.TokenFunc(func() string { return token }))
	svc := NewService(client, cfg, nil)
	ctx := context.Background()

	draft, err := svc.FromSMS(ctx, "Your card was charged $1,250.00 at Corner Deli on 01/03")
	require.NoError(t, err)
	assert.Equal(t, "Corner Deli", draft.Input.Merchant)
	assert.True(t, decimal.NewFromInt(1250).Equal(draft.Input.Amount))
	assert.Equal(t, "Other", draft.Input.Category)
	assert.InDelta(t, 1.0, draft.Confidence, 1e-9)

	receipt, err := svc.FromReceipt(ctx, "receipt.jpg", bytes.NewReader(jpegBytes))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(int64(len(jpegBytes))).Equal(receipt.Input.Amount))

	memo, err := svc.FromVoice(ctx, "memo.wav", bytes.NewReader(wavBytes))
	require.NoError(t, err)
	require.NotNil(t, memo.Input.Payload)
	assert.Contains(t, memo.Input.Payload.Transcript, "dollars")
}
