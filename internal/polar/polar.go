// Package polar implements the vendor device-linking protocol: the OAuth2
// authorization-code exchange against Polar AccessLink plus the
// bearer-authenticated follow-up calls (member registration, exercise and
// daily-activity passthroughs).
//
// No call in this package retries: authorization codes are single-use and
// expire quickly, so a failed exchange surfaces immediately and the caller
// decides whether to restart the flow.
package polar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fitsync-app/fitsync/internal/common"
)

// Config carries the vendor OAuth parameters and endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	AuthURL    string
	TokenURL   string
	APIBaseURL string
}

// Client is the AccessLink API client. It is safe for concurrent use.
type Client struct {
	cfg   Config
	httpc *http.Client
}

// NewClient constructs a Client. A nil httpc gets a default client with a
// 15-second timeout.
func NewClient(cfg Config, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{cfg: cfg, httpc: httpc}
}

// Token is the vendor token response, returned to the caller unmodified.
// It is never persisted by this package.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// UserRecord is the vendor's registration result for a linked member.
type UserRecord struct {
	PolarUserID      int64  `json:"polar-user-id"`
	MemberID         string `json:"member-id"`
	RegistrationDate string `json:"registration-date,omitempty"`
}

// AuthorizationURL returns the vendor authorization endpoint with the
// client_id, response_type=code and redirect_uri query parameters. Pure: no
// I/O, and the only failure mode is a missing client id.
func (c *Client) AuthorizationURL() (string, error) {
	if c.cfg.ClientID == "" {
		return "", fmt.Errorf("%w: vendor client id is not set", common.ErrConfiguration)
	}

	q := url.Values{}
	q.Set("client_id", c.cfg.ClientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", c.cfg.RedirectURI)

	return c.cfg.AuthURL + "?" + q.Encode(), nil
}

// ExchangeCode trades an authorization code for a token pair. The request is
// a form-encoded POST authenticated with HTTP Basic from
// client_id:client_secret. Non-2xx responses fail with ErrTokenExchange
// carrying the status; transport failures fail with common.ErrNetwork.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Kind: ErrTokenExchange, Status: resp.StatusCode}
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	return &token, nil
}

// RegisterUser registers the local user with the vendor, sending the local
// user id as the vendor "member-id". Non-2xx fails with ErrRegistration
// carrying the status.
func (c *Client) RegisterUser(ctx context.Context, accessToken, memberID string) (*UserRecord, error) {
	body, err := json.Marshal(map[string]string{"member-id": memberID})
	if err != nil {
		return nil, err
	}

	raw, err := c.doAPI(ctx, http.MethodPost, c.cfg.APIBaseURL+"/users", accessToken, body, ErrRegistration)
	if err != nil {
		return nil, err
	}

	var rec UserRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decoding registration response: %w", err)
	}
	return &rec, nil
}

// ListExercises opens an exercise-transaction listing for the given vendor
// user. The response body is passed through undecoded.
func (c *Client) ListExercises(ctx context.Context, accessToken, polarUserID string) (json.RawMessage, error) {
	u := fmt.Sprintf("%s/users/%s/exercise-transactions", c.cfg.APIBaseURL, url.PathEscape(polarUserID))
	return c.doAPI(ctx, http.MethodPost, u, accessToken, nil, ErrVendorAPI)
}

// ExerciseDetails fetches a single exercise resource by the URL the listing
// returned. The response body is passed through undecoded.
func (c *Client) ExerciseDetails(ctx context.Context, accessToken, exerciseURL string) (json.RawMessage, error) {
	return c.doAPI(ctx, http.MethodGet, exerciseURL, accessToken, nil, ErrVendorAPI)
}

// DailyActivity opens a daily-activity transaction for the given vendor
// user. The response body is passed through undecoded.
func (c *Client) DailyActivity(ctx context.Context, accessToken, polarUserID string) (json.RawMessage, error) {
	u := fmt.Sprintf("%s/users/%s/activity-transactions", c.cfg.APIBaseURL, url.PathEscape(polarUserID))
	return c.doAPI(ctx, http.MethodPost, u, accessToken, nil, ErrVendorAPI)
}

// doAPI performs one bearer-authenticated AccessLink call. kind selects the
// sentinel wrapped into the StatusError on a non-2xx response.
func (c *Client) doAPI(ctx context.Context, method, u, accessToken string, body []byte, kind error) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Kind: kind, Status: resp.StatusCode}
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	return json.RawMessage(raw), nil
}
