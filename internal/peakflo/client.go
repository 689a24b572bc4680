// Package peakflo is a REST client for the Peakflo receivables API, backing
// the peakflo connector. The bearer token is minted per request by the
// credential broker from delegated trust material; no long-lived Peakflo
// token is ever stored.
package peakflo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultHost is the public Peakflo API endpoint.
const DefaultHost = "https://api.peakflo.co/v1"

// Client talks to the Peakflo API on behalf of one tenant.
type Client struct {
	token      string
	host       string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHost overrides the API host, mainly for tests.
func WithHost(host string) Option {
	return func(c *Client) { c.host = host }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Peakflo client for a minted bearer token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		host:       DefaultHost,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Customer is a Peakflo customer record.
type Customer struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Currency    string  `json:"currency"`
	Outstanding float64 `json:"outstandingAmount"`
}

// Invoice is a Peakflo invoice record.
type Invoice struct {
	ID         string  `json:"id"`
	CustomerID string  `json:"customerId"`
	Number     string  `json:"invoiceNumber"`
	Status     string  `json:"status"`
	Amount     float64 `json:"totalAmount"`
	Currency   string  `json:"currency"`
	DueDate    string  `json:"dueDate"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.host + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("peakflo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("peakflo returned status %d for %s: %s", resp.StatusCode, path, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode peakflo response: %w", err)
	}
	return nil
}

// ListCustomers returns customers, optionally filtered by name.
func (c *Client) ListCustomers(ctx context.Context, search string, limit int) ([]Customer, error) {
	query := url.Values{}
	if search != "" {
		query.Set("search", search)
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}
	var res struct {
		Data []Customer `json:"data"`
	}
	if err := c.get(ctx, "/customers", query, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// GetCustomer fetches one customer by id.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	var cust Customer
	if err := c.get(ctx, "/customers/"+url.PathEscape(customerID), nil, &cust); err != nil {
		return nil, err
	}
	return &cust, nil
}

// ListInvoices returns invoices, optionally filtered by customer and status.
func (c *Client) ListInvoices(ctx context.Context, customerID, status string, limit int) ([]Invoice, error) {
	query := url.Values{}
	if customerID != "" {
		query.Set("customerId", customerID)
	}
	if status != "" {
		query.Set("status", status)
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}
	var res struct {
		Data []Invoice `json:"data"`
	}
	if err := c.get(ctx, "/invoices", query, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// GetInvoice fetches one invoice by id.
func (c *Client) GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	var inv Invoice
	if err := c.get(ctx, "/invoices/"+url.PathEscape(invoiceID), nil, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}
