// Package sheets wraps the Google Sheets API for the gsheets connector.
package sheets

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	sheets "google.golang.org/api/sheets/v4"
	"google.golang.org/api/option"
)

// Client wraps the Sheets service for a single authenticated user.
type Client struct {
	svc *sheets.Service
}

// NewClient creates a Sheets client from an oauth2 token.
func NewClient(ctx context.Context, token *oauth2.Token) (*Client, error) {
	svc, err := sheets.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// GetValues reads a range of cells in A1 notation.
func (c *Client) GetValues(spreadsheetID, readRange string) ([][]interface{}, error) {
	res, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, readRange).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", readRange, err)
	}
	return res.Values, nil
}

// UpdateValues overwrites a range of cells with the given rows.
func (c *Client) UpdateValues(spreadsheetID, writeRange string, values [][]interface{}) (int64, error) {
	body := &sheets.ValueRange{Values: values}
	res, err := c.svc.Spreadsheets.Values.Update(spreadsheetID, writeRange, body).
		ValueInputOption("USER_ENTERED").Do()
	if err != nil {
		return 0, fmt.Errorf("failed to update range %s: %w", writeRange, err)
	}
	return res.UpdatedCells, nil
}

// AppendValues appends rows after the last row of the given range's table.
func (c *Client) AppendValues(spreadsheetID, appendRange string, values [][]interface{}) (int64, error) {
	body := &sheets.ValueRange{Values: values}
	res, err := c.svc.Spreadsheets.Values.Append(spreadsheetID, appendRange, body).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Do()
	if err != nil {
		return 0, fmt.Errorf("failed to append to range %s: %w", appendRange, err)
	}
	if res.Updates == nil {
		return 0, nil
	}
	return res.Updates.UpdatedRows, nil
}

// CreateSpreadsheet creates a new spreadsheet and returns its id and URL.
func (c *Client) CreateSpreadsheet(title string) (id, url string, err error) {
	res, err := c.svc.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
	}).Do()
	if err != nil {
		return "", "", fmt.Errorf("failed to create spreadsheet: %w", err)
	}
	return res.SpreadsheetId, res.SpreadsheetUrl, nil
}

// ListSheets returns the titles of the sheets inside a spreadsheet.
func (c *Client) ListSheets(spreadsheetID string) ([]string, error) {
	res, err := c.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheet %s: %w", spreadsheetID, err)
	}
	titles := make([]string, 0, len(res.Sheets))
	for _, sh := range res.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}
