package sheets

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const requestTimeout = 30 * time.Second

// Client writes exported conversations into an existing spreadsheet. The
// service account behind the credentials needs edit access to it.
type Client struct {
	sheets  *sheets.Service
	timeout time.Duration
}

// NewClient authenticates with the service account file at credentialsPath.
// Extra options are appended, which lets tests point the client elsewhere.
func NewClient(ctx context.Context, credentialsPath string, opts ...option.ClientOption) (*Client, error) {
	if credentialsPath != "" {
		opts = append([]option.ClientOption{option.WithCredentialsFile(credentialsPath)}, opts...)
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Client{sheets: srv, timeout: requestTimeout}, nil
}

func (c *Client) ClearRange(spreadsheetID, rangeStr string) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	_, err := c.sheets.Spreadsheets.Values.Clear(spreadsheetID, rangeStr, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear range %s: %w", rangeStr, err)
	}
	return nil
}

func (c *Client) UpdateValues(spreadsheetID, rangeStr string, values [][]interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	valRange := &sheets.ValueRange{Values: values}
	_, err := c.sheets.Spreadsheets.Values.Update(spreadsheetID, rangeStr, valRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update range %s: %w", rangeStr, err)
	}
	return nil
}
