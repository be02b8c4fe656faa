package emails

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoSender `json:"sender"`
	To          []BrevoTo   `json:"to"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
}

type BrevoSender struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type BrevoTo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Sender sends transactional emails. A nil Sender means email is disabled.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail, firstName string) error
	SendAccountUpdated(ctx context.Context, toEmail, firstName string) error
	SendReviewDecision(ctx context.Context, toEmail, subject, message string) error
}

// BrevoClient sends emails via Brevo (Sendinblue): SENDINBLUE_API_KEY, MAIL_FROM.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	SiteURL  string
	Endpoint string // defaults to the Brevo v3 endpoint
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@listinghub.app"
}

func (c *BrevoClient) site() string {
	if c.SiteURL != "" {
		return c.SiteURL
	}
	return "http://localhost:5173"
}

func (c *BrevoClient) send(ctx context.Context, toEmail, subject, content string) error {
	if c.APIKey == "" || toEmail == "" {
		return nil
	}
	bodyBytes, err := json.Marshal(BrevoSendRequest{
		Sender:      BrevoSender{Email: c.from(), Name: "ListingHub"},
		To:          []BrevoTo{{Email: toEmail}},
		Subject:     subject,
		HTMLContent: EmailLayout(c.site(), content),
	})
	if err != nil {
		return err
	}
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = brevoAPI
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

// SendWelcome is sent the first time a profile becomes complete.
func (c *BrevoClient) SendWelcome(ctx context.Context, toEmail, firstName string) error {
	if firstName == "" {
		firstName = "there"
	}
	return c.send(ctx, toEmail, "Welcome to ListingHub", welcomeContent(c.site(), firstName))
}

func (c *BrevoClient) SendAccountUpdated(ctx context.Context, toEmail, firstName string) error {
	if firstName == "" {
		firstName = "there"
	}
	return c.send(ctx, toEmail, "Your ListingHub profile was updated", accountUpdatedContent(c.site(), firstName))
}

// SendReviewDecision mirrors an in-app review notification by email.
func (c *BrevoClient) SendReviewDecision(ctx context.Context, toEmail, subject, message string) error {
	return c.send(ctx, toEmail, subject, reviewDecisionContent(c.site(), message))
}
