package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/findosh/moneymanager/internal/models"
)

// Upload is a file sent to a parsing endpoint
type Upload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

type smsRequest struct {
	Text string `json:"text"`
}

// ParseSMS extracts expense fields from a bank SMS
func (c *Client) ParseSMS(ctx context.Context, text string) (models.ParsedExpense, error) {
	var resp wireParsed
	if err := c.doJSON(ctx, http.MethodPost, "/parse/sms", nil, smsRequest{Text: text}, &resp); err != nil {
		return models.ParsedExpense{}, err
	}
	return resp.model(), nil
}

// ParseReceipt extracts expense fields from a receipt image
func (c *Client) ParseReceipt(ctx context.Context, file Upload) (models.ParsedExpense, error) {
	return c.parseUpload(ctx, "/parse/receipt", file)
}

// ParseVoice extracts expense fields from a voice memo
func (c *Client) ParseVoice(ctx context.Context, file Upload) (models.ParsedExpense, error) {
	return c.parseUpload(ctx, "/parse/voice", file)
}

func (c *Client) parseUpload(ctx context.Context, path string, file Upload) (models.ParsedExpense, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	header.Set("Content-Type", file.ContentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return models.ParsedExpense{}, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, file.Body); err != nil {
		return models.ParsedExpense{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return models.ParsedExpense{}, fmt.Errorf("failed to build upload: %w", err)
	}

	var resp wireParsed
	if err := c.send(ctx, http.MethodPost, path, nil, &buf, w.FormDataContentType(), &resp); err != nil {
		return models.ParsedExpense{}, err
	}
	return resp.model(), nil
}
