// Package gmail wraps the Gmail API for the gmail connector. Clients are
// constructed per request from a broker-issued oauth2 token and discarded
// afterwards.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Client wraps the Gmail Users service for a single authenticated user.
type Client struct {
	svc *gmail.UsersService
}

// NewClient creates a Gmail client from an oauth2 token.
func NewClient(ctx context.Context, token *oauth2.Token) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Client{svc: svc.Users}, nil
}

// Message is a flattened view of a Gmail message.
type Message struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"threadId"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Subject  string   `json:"subject"`
	Date     string   `json:"date"`
	Snippet  string   `json:"snippet"`
	Body     string   `json:"body,omitempty"`
	Labels   []string `json:"labels,omitempty"`
}

// Search returns message summaries matching a Gmail query.
func (c *Client) Search(query string, maxResults int64) ([]Message, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	res, err := c.svc.Messages.List("me").Q(query).MaxResults(maxResults).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}

	messages := make([]Message, 0, len(res.Messages))
	for _, ref := range res.Messages {
		msg, err := c.svc.Messages.Get("me", ref.Id).Format("metadata").
			MetadataHeaders("From", "To", "Subject", "Date").Do()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch message %s: %w", ref.Id, err)
		}
		messages = append(messages, flatten(msg, false))
	}
	return messages, nil
}

// GetMessage fetches one message including its decoded plain-text body.
func (c *Client) GetMessage(id string) (*Message, error) {
	msg, err := c.svc.Messages.Get("me", id).Format("full").Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message %s: %w", id, err)
	}
	m := flatten(msg, true)
	return &m, nil
}

// SendEmail sends a plain-text email from the authenticated user.
func (c *Client) SendEmail(to, subject, body string) (string, error) {
	raw := fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		to, subject, body)
	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}
	sent, err := c.svc.Messages.Send("me", msg).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	return sent.Id, nil
}

// ListLabels returns the user's label names and ids.
func (c *Client) ListLabels() (map[string]string, error) {
	res, err := c.svc.Labels.List("me").Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	labels := make(map[string]string, len(res.Labels))
	for _, l := range res.Labels {
		labels[l.Name] = l.Id
	}
	return labels, nil
}

// ModifyLabels adds and removes labels on a message.
func (c *Client) ModifyLabels(id string, add, remove []string) error {
	_, err := c.svc.Messages.Modify("me", id, &gmail.ModifyMessageRequest{
		AddLabelIds:    add,
		RemoveLabelIds: remove,
	}).Do()
	if err != nil {
		return fmt.Errorf("failed to modify labels on %s: %w", id, err)
	}
	return nil
}

// flatten converts an API message into the wire shape, optionally decoding
// the body.
func flatten(msg *gmail.Message, withBody bool) Message {
	m := Message{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		Labels:   msg.LabelIds,
	}
	if msg.Payload == nil {
		return m
	}
	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "From":
			m.From = h.Value
		case "To":
			m.To = h.Value
		case "Subject":
			m.Subject = h.Value
		case "Date":
			m.Date = h.Value
		}
	}
	if withBody {
		m.Body = extractBody(msg.Payload)
	}
	return m
}

// extractBody walks the MIME tree and returns the first text/plain part,
// falling back to text/html when no plain part exists.
func extractBody(part *gmail.MessagePart) string {
	if body := findPart(part, "text/plain"); body != "" {
		return body
	}
	return findPart(part, "text/html")
}

func findPart(part *gmail.MessagePart, mimeType string) string {
	if strings.HasPrefix(part.MimeType, mimeType) && part.Body != nil && part.Body.Data != "" {
		decoded, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			return ""
		}
		return string(decoded)
	}
	for _, p := range part.Parts {
		if body := findPart(p, mimeType); body != "" {
			return body
		}
	}
	return ""
}
