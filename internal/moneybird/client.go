package moneybird

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"bizledger/internal/config"
)

// maxResponseSize bounds a single API response body (10MB)
const maxResponseSize = 10 * 1024 * 1024

var (
	ErrUnauthorized      = errors.New("moneybird: access token rejected")
	ErrUnexpectedStatus  = errors.New("moneybird: unexpected status")
	ErrMalformedResponse = errors.New("moneybird: malformed response")
)

// StatusError carries the HTTP status of a non-success response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("moneybird: status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	return ErrUnexpectedStatus
}

// Credential authenticates requests for one tenant
type Credential struct {
	AccessToken      string
	AdministrationID string
}

// Client is a read-only Moneybird API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	perPage    int
	maxPages   int
	log        *zap.Logger
}

// NewClient creates a client from the moneybird config section
func NewClient(cfg config.MoneybirdConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 100
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		perPage:    perPage,
		maxPages:   maxPages,
		log:        log.Named("moneybird"),
	}
}

// Administration is a Moneybird tenant ledger
type Administration struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Currency string `json:"currency"`
	Country  string `json:"country"`
	TimeZone string `json:"time_zone"`
}

// ID accepts identifiers sent either as JSON strings or numbers
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// ListAdministrations returns every administration the token can access
func (c *Client) ListAdministrations(ctx context.Context, accessToken string) ([]Administration, error) {
	body, err := c.get(ctx, accessToken, "/administrations.json", nil)
	if err != nil {
		return nil, err
	}
	var admins []Administration
	if err := json.Unmarshal(body, &admins); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return admins, nil
}

func (c *Client) get(ctx context.Context, accessToken, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	return body, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func pageQuery(filter string, page, perPage int) url.Values {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", filter)
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	return q
}
