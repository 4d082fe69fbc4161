package sheetsclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/utils"
)

// Client wraps the Google Sheets API client
type Client struct {
	service *sheets.Service
	token   *oauth2.Token
	ctx     context.Context
	backoff time.Duration
}

// NewClient creates a new Sheets client using OAuth credentials and performs OAuth flow if needed.
// Tokens are persisted to disk for the given environment. write selects
// read/write access; input-only runs ask for read-only access.
func NewClient(ctx context.Context, oauthCfg *config.OAuthClientConfig, env string, write bool, logger *zap.Logger) (*Client, error) {
	oauthConfig, err := utils.GetOAuthConfig(oauthCfg, utils.SheetsScopes(write)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth config: %w", err)
	}

	token, err := utils.GetTokenWithFlow(ctx, oauthConfig, env, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth token: %w", err)
	}

	service, err := sheets.NewService(ctx, option.WithHTTPClient(oauthConfig.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		service: service,
		token:   token,
		ctx:     ctx,
		backoff: initialBackoff,
	}, nil
}

// NewClientWithService wraps an existing sheets service
func NewClientWithService(ctx context.Context, service *sheets.Service) *Client {
	return &Client{
		service: service,
		ctx:     ctx,
		backoff: initialBackoff,
	}
}

// Token returns the OAuth token used by this client
func (c *Client) Token() *oauth2.Token {
	return c.token
}

// Calls rejected with a quota or availability error are retried with
// exponential backoff
const (
	maxAttempts    = 5
	initialBackoff = 500 * time.Millisecond
)

// retryable reports whether a Sheets API error is transient
func retryable(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// call runs an API call, retrying transient failures. op names the call in
// the returned error.
func (c *Client) call(op string, fn func() error) error {
	backoff := c.backoff
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if attempt == maxAttempts || !retryable(err) {
			return fmt.Errorf("failed to %s: %w", op, err)
		}

		select {
		case <-c.ctx.Done():
			return fmt.Errorf("failed to %s: %w", op, c.ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// GetValues reads values from a spreadsheet range
func (c *Client) GetValues(spreadsheetID, sheetRange string) ([][]interface{}, error) {
	var values [][]interface{}
	err := c.call("get values", func() error {
		resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, sheetRange).Context(c.ctx).Do()
		if err != nil {
			return err
		}
		values = resp.Values
		return nil
	})
	return values, err
}

// AppendRows appends rows to the end of a sheet
func (c *Client) AppendRows(spreadsheetID, sheetRange string, values [][]interface{}) error {
	return c.call("append rows", func() error {
		_, err := c.service.Spreadsheets.Values.Append(spreadsheetID, sheetRange, &sheets.ValueRange{Values: values}).
			ValueInputOption("RAW").
			Context(c.ctx).
			Do()
		return err
	})
}

// ReplaceValues clears a tab and writes values starting at A1
func (c *Client) ReplaceValues(spreadsheetID, tabTitle string, values [][]interface{}) error {
	err := c.call("clear tab "+tabTitle, func() error {
		_, err := c.service.Spreadsheets.Values.Clear(spreadsheetID, tabTitle, &sheets.ClearValuesRequest{}).
			Context(c.ctx).
			Do()
		return err
	})
	if err != nil {
		return err
	}

	return c.call("write tab "+tabTitle, func() error {
		_, err := c.service.Spreadsheets.Values.Update(spreadsheetID, tabTitle+"!A1", &sheets.ValueRange{Values: values}).
			ValueInputOption("RAW").
			Context(c.ctx).
			Do()
		return err
	})
}

// SheetTitles lists the tab titles of a spreadsheet
func (c *Client) SheetTitles(spreadsheetID string) ([]string, error) {
	var titles []string
	err := c.call("get spreadsheet metadata", func() error {
		spreadsheet, err := c.service.Spreadsheets.Get(spreadsheetID).
			Fields("sheets.properties.title").
			Context(c.ctx).
			Do()
		if err != nil {
			return err
		}
		titles = make([]string, 0, len(spreadsheet.Sheets))
		for _, sheet := range spreadsheet.Sheets {
			titles = append(titles, sheet.Properties.Title)
		}
		return nil
	})
	return titles, err
}

// CreateSheet adds a tab to the spreadsheet and returns its sheet ID
func (c *Client) CreateSheet(spreadsheetID, sheetTitle string) (int64, error) {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: sheetTitle},
			},
		}},
	}

	var resp *sheets.BatchUpdateSpreadsheetResponse
	err := c.call("create sheet "+sheetTitle, func() error {
		var err error
		resp, err = c.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(c.ctx).Do()
		return err
	})
	if err != nil {
		return 0, err
	}

	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil {
		return 0, fmt.Errorf("unexpected response from create sheet")
	}

	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

// EnsureSheet creates the tab if the spreadsheet does not have it yet
func (c *Client) EnsureSheet(spreadsheetID, sheetTitle string) error {
	titles, err := c.SheetTitles(spreadsheetID)
	if err != nil {
		return err
	}
	for _, title := range titles {
		if title == sheetTitle {
			return nil
		}
	}
	_, err = c.CreateSheet(spreadsheetID, sheetTitle)
	return err
}
