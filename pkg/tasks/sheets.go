package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2/google"

	"github.com/otherjamesbrown/sprintctl/pkg/meeting"
)

const (
	// DefaultSheetsBaseURL is the Google Sheets API endpoint.
	DefaultSheetsBaseURL = "https://sheets.googleapis.com"

	// DefaultActionLogRange is the sheet range holding the action log.
	DefaultActionLogRange = "Action Log!A:Z"

	sheetsReadOnlyScope = "https://www.googleapis.com/auth/spreadsheets.readonly"
)

// HTTPDoer describes the HTTP client used by the Sheets source.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SheetsConfig configures the Google Sheets action log reader. Either
// APIKey or ServiceAccountJSON must be set.
type SheetsConfig struct {
	SpreadsheetID      string
	Range              string
	APIKey             string
	ServiceAccountJSON []byte
	BaseURL            string
}

// SheetsSource reads existing tasks from the action log sheet. Column A is
// the task id and column B the description; the first row is a header.
type SheetsSource struct {
	baseURL       string
	spreadsheetID string
	rng           string
	apiKey        string
	client        HTTPDoer
}

// NewSheetsSource builds a Sheets reader. A nil client selects
// http.DefaultClient for API keys, or an OAuth2 client for service accounts.
func NewSheetsSource(ctx context.Context, cfg SheetsConfig, client HTTPDoer) (*SheetsSource, error) {
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, errors.New("sheets: spreadsheet id is required")
	}

	s := &SheetsSource{
		baseURL:       strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		spreadsheetID: id,
		rng:           strings.TrimSpace(cfg.Range),
		apiKey:        strings.TrimSpace(cfg.APIKey),
		client:        client,
	}
	if s.baseURL == "" {
		s.baseURL = DefaultSheetsBaseURL
	}
	if s.rng == "" {
		s.rng = DefaultActionLogRange
	}

	if s.client == nil {
		switch {
		case len(cfg.ServiceAccountJSON) > 0:
			jwtCfg, err := google.JWTConfigFromJSON(cfg.ServiceAccountJSON, sheetsReadOnlyScope)
			if err != nil {
				return nil, fmt.Errorf("sheets: parse service account: %w", err)
			}
			s.client = jwtCfg.Client(ctx)
		case s.apiKey != "":
			s.client = http.DefaultClient
		default:
			return nil, errors.New("sheets: an API key or service account is required")
		}
	}
	return s, nil
}

// Name identifies the backend.
func (s *SheetsSource) Name() string { return BackendSheets }

// Close releases nothing; the HTTP client is shared.
func (s *SheetsSource) Close() error { return nil }

type valuesResponse struct {
	Range  string  `json:"range"`
	Values [][]any `json:"values"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// FetchExistingTasks reads the action log.
func (s *SheetsSource) FetchExistingTasks(ctx context.Context) ([]meeting.ExistingTask, error) {
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		s.baseURL, url.PathEscape(s.spreadsheetID), url.PathEscape(s.rng))
	if s.apiKey != "" {
		endpoint += "?key=" + url.QueryEscape(s.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build sheets request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch action log: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read action log: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("sheets returned %d %s: %s", resp.StatusCode, apiErr.Error.Status, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("sheets returned %d", resp.StatusCode)
	}

	var values valuesResponse
	if err := json.Unmarshal(body, &values); err != nil {
		return nil, fmt.Errorf("decode action log: %w", err)
	}
	return rowsToTasks(values.Values), nil
}

// rowsToTasks skips the header row and maps columns A and B.
func rowsToTasks(rows [][]any) []meeting.ExistingTask {
	out := make([]meeting.ExistingTask, 0, len(rows))
	if len(rows) <= 1 {
		return out
	}
	for _, row := range rows[1:] {
		if t, ok := normalize(cell(row, 0), cell(row, 1)); ok {
			out = append(out, t)
		}
	}
	return out
}

func cell(row []any, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	if s, ok := row[i].(string); ok {
		return s
	}
	return fmt.Sprint(row[i])
}

func trim(s string) string { return strings.TrimSpace(s) }
