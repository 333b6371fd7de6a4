// Package google reads retail transaction exports from Google Sheets.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"insights/internal/core"
	"insights/internal/ingest"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultRange covers the ten export columns of the "Transactions" tab.
const DefaultRange = "Transactions!A:J"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	readRange     string
}

var _ ingest.Source = (*Client)(nil)

// NewFromEnv creates a read-only Sheets client.
// Required: GOOGLE_SPREADSHEET_ID.
// Optional: GOOGLE_SHEET_RANGE (default DefaultRange).
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, spreadsheetID, os.Getenv("GOOGLE_SHEET_RANGE")), nil
}

// New wraps an existing service. A blank readRange selects DefaultRange.
func New(svc *gsheet.Service, spreadsheetID, readRange string) *Client {
	readRange = strings.TrimSpace(readRange)
	if readRange == "" {
		readRange = DefaultRange
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, readRange: readRange}
}

// newSheetsService initializes a Sheets service from service account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ReadTransactions implements ingest.Source. Values are read as displayed so
// dates keep their export format.
func (c *Client) ReadTransactions(ctx context.Context) ([]core.Transaction, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.readRange).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.readRange, err)
	}

	txs, err := parseTransactions(resp.Values)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.readRange, err)
	}
	slog.InfoContext(ctx, "Read transactions from sheet", "range", c.readRange, "rows", len(txs))
	return txs, nil
}
