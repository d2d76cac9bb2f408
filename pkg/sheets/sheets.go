// Package sheets reads and annotates rows of a Google Sheets inbox.
package sheets

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	gsheets "google.golang.org/api/sheets/v4"
	"google.golang.org/api/option"
)

// Client reads a block of rows and writes single cells back.
type Client interface {
	ReadRows(ctx context.Context, readRange string) ([][]string, error)
	WriteCells(ctx context.Context, values map[string]string) error
}

// GoogleClient talks to the Sheets v4 API for one spreadsheet.
type GoogleClient struct {
	srv           *gsheets.Service
	spreadsheetID string
}

// NewGoogleClient authenticates with a service-account credentials file.
func NewGoogleClient(ctx context.Context, credentialsFile, spreadsheetID string) (*GoogleClient, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	srv, err := gsheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &GoogleClient{srv: srv, spreadsheetID: spreadsheetID}, nil
}

// ReadRows returns the formatted cell values of readRange. Short rows are
// returned as-is; callers pad them.
func (c *GoogleClient) ReadRows(ctx context.Context, readRange string) ([][]string, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", readRange, err)
	}
	rows := make([][]string, len(resp.Values))
	for i, raw := range resp.Values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			row[j] = fmt.Sprint(cell)
		}
		rows[i] = row
	}
	return rows, nil
}

// WriteCells writes each A1 cell in a single batch request.
func (c *GoogleClient) WriteCells(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	req := &gsheets.BatchUpdateValuesRequest{ValueInputOption: "RAW"}
	for cell, value := range values {
		req.Data = append(req.Data, &gsheets.ValueRange{
			Range:  cell,
			Values: [][]interface{}{{value}},
		})
	}
	if _, err := c.srv.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %d cells: %w", len(values), err)
	}
	return nil
}

var rangePattern = regexp.MustCompile(`^(?:(.+)!)?\$?([A-Za-z]+)\$?(\d+)?(?::\$?[A-Za-z]+\$?\d*)?$`)

// Range is a parsed A1 read range.
type Range struct {
	Sheet    string
	FirstRow int
}

// ParseRange extracts the sheet name and first row number from an A1 range
// such as "Inbox!A2:F". A range without a row starts at row 1.
func ParseRange(a1 string) (Range, error) {
	m := rangePattern.FindStringSubmatch(strings.TrimSpace(a1))
	if m == nil {
		return Range{}, fmt.Errorf("invalid A1 range %q", a1)
	}
	r := Range{Sheet: strings.Trim(m[1], "'"), FirstRow: 1}
	if m[3] != "" {
		n, err := strconv.Atoi(m[3])
		if err != nil || n < 1 {
			return Range{}, fmt.Errorf("invalid row in range %q", a1)
		}
		r.FirstRow = n
	}
	return r, nil
}

// Cell returns the A1 reference of column on the row at offset from FirstRow.
func (r Range) Cell(column string, offset int) string {
	ref := fmt.Sprintf("%s%d", strings.ToUpper(column), r.FirstRow+offset)
	if r.Sheet == "" {
		return ref
	}
	if strings.ContainsAny(r.Sheet, " !'") {
		return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(r.Sheet, "'", "''"), ref)
	}
	return r.Sheet + "!" + ref
}
