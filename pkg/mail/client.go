package mail

import (
	"context"
	"errors"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/martinquesada/tienda-backend/pkg/config"
	pkgerrors "github.com/martinquesada/tienda-backend/pkg/errors"
	"github.com/martinquesada/tienda-backend/pkg/logger"
)

// ErrDisabled is returned when no API key is configured and mail sending is off.
var ErrDisabled = errors.New("mail sending disabled")

var errLoggerRequired = errors.New("mail logger is required")

// Attachment is a file attached to an outgoing message.
type Attachment struct {
	Filename string
	Content  []byte
}

// Message is an outgoing transactional email.
type Message struct {
	To      []string
	Subject string
	HTML    string
	// IdempotencyKey dedupes retried sends at the provider.
	IdempotencyKey string
	Attachments    []Attachment
}

type emailSender interface {
	SendWithOptions(ctx context.Context, params *resend.SendEmailRequest, options *resend.SendEmailOptions) (*resend.SendEmailResponse, error)
}

// Client wraps the Resend API with logging, recipient override, and error mapping.
type Client struct {
	sender      emailSender
	defaultFrom string
	overrideTo  string
	logger      *logger.Logger
}

// NewClient initializes the mail wrapper. An empty API key yields a disabled
// client so environments without credentials still boot.
func NewClient(ctx context.Context, cfg config.MailConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	c := &Client{
		defaultFrom: strings.TrimSpace(cfg.DefaultFrom),
		overrideTo:  strings.TrimSpace(cfg.OverrideTo),
		logger:      logg,
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		logg.Warn(ctx, "mail client disabled: no api key configured")
		return c, nil
	}

	c.sender = resend.NewClient(apiKey).Emails
	logg.Info(ctx, "mail client initialized")
	return c, nil
}

// Enabled reports whether the client can actually send.
func (c *Client) Enabled() bool {
	return c != nil && c.sender != nil
}

// Send delivers the message and returns the provider message ID.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	if len(msg.To) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "mail recipient is required")
	}

	to := msg.To
	if c.overrideTo != "" {
		to = []string{c.overrideTo}
	}

	req := &resend.SendEmailRequest{
		From:    c.defaultFrom,
		To:      to,
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	for _, att := range msg.Attachments {
		req.Attachments = append(req.Attachments, &resend.Attachment{
			Filename: att.Filename,
			Content:  att.Content,
		})
	}

	var opts *resend.SendEmailOptions
	if msg.IdempotencyKey != "" {
		opts = &resend.SendEmailOptions{IdempotencyKey: msg.IdempotencyKey}
	}

	ctx = c.logger.WithFields(ctx, map[string]any{
		"subject":     msg.Subject,
		"recipients":  len(to),
		"attachments": len(msg.Attachments),
	})
	c.logger.Info(ctx, "mail send")

	resp, err := c.sender.SendWithOptions(ctx, req, opts)
	if err != nil {
		c.logger.Error(ctx, "mail send failed", err)
		return "", c.mapError(err)
	}

	return resp.Id, nil
}

// mapError classifies provider failures. The Resend client surfaces rate
// limiting only through the error text.
func (c *Client) mapError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "rate_limit") || strings.Contains(msg, "429") || strings.Contains(msg, "too many requests") {
		return pkgerrors.Wrap(pkgerrors.CodeRateLimit, err, "mail provider rate limited")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mail send failed")
}
