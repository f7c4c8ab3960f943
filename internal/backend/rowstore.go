package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fitsync-app/fitsync/internal/common"
)

// Filter narrows or shapes a row-store request. Filters compose into the
// PostgREST query string.
type Filter func(q url.Values)

// Eq keeps rows whose column equals value.
func Eq(column, value string) Filter {
	return func(q url.Values) { q.Set(column, "eq."+value) }
}

// OrderDesc sorts the result by column, newest/largest first.
func OrderDesc(column string) Filter {
	return func(q url.Values) { q.Set("order", column+".desc") }
}

// OrderAsc sorts the result by column, oldest/smallest first.
func OrderAsc(column string) Filter {
	return func(q url.Values) { q.Set("order", column+".asc") }
}

// Limit caps the number of returned rows.
func Limit(n int) Filter {
	return func(q url.Values) { q.Set("limit", strconv.Itoa(n)) }
}

// RowStore is the generic tabular backend: equality/ordering/limit reads and
// representation-returning writes over named tables.
//
// SelectSingle and Update report common.ErrNotFound when no row matched.
// Insert reports ErrConflict when the backend rejects the row on a
// uniqueness constraint.
type RowStore interface {
	Select(ctx context.Context, table string, dest any, filters ...Filter) error
	SelectSingle(ctx context.Context, table string, dest any, filters ...Filter) error
	Insert(ctx context.Context, table string, record any, dest any) error
	Update(ctx context.Context, table string, patch any, dest any, filters ...Filter) error
	Delete(ctx context.Context, table string, filters ...Filter) error
}

// TokenProvider supplies the bearer credential for row-store calls. The auth
// client implements it; the anonymous key is used while no user is signed in.
type TokenProvider interface {
	AccessToken() string
}

// HTTPRowStore implements RowStore against a PostgREST-style endpoint.
type HTTPRowStore struct {
	baseURL string
	anonKey string
	tokens  TokenProvider
	httpc   *http.Client
}

// NewHTTPRowStore constructs the row-store client. tokens may be nil
// (anonymous access only); a nil httpc gets a default client with a
// 15-second timeout.
func NewHTTPRowStore(baseURL, anonKey string, tokens TokenProvider, httpc *http.Client) *HTTPRowStore {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPRowStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		tokens:  tokens,
		httpc:   httpc,
	}
}

// Select reads all matching rows into dest (a pointer to a slice).
func (s *HTTPRowStore) Select(ctx context.Context, table string, dest any, filters ...Filter) error {
	raw, err := s.do(ctx, http.MethodGet, table, nil, filters)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// SelectSingle reads exactly one matching row into dest. Zero matches yield
// common.ErrNotFound.
func (s *HTTPRowStore) SelectSingle(ctx context.Context, table string, dest any, filters ...Filter) error {
	raw, err := s.do(ctx, http.MethodGet, table, nil, filters)
	if err != nil {
		return err
	}
	return firstRow(raw, dest)
}

// Insert writes one row and decodes the returned representation into dest
// (ignored when dest is nil).
func (s *HTTPRowStore) Insert(ctx context.Context, table string, record any, dest any) error {
	raw, err := s.do(ctx, http.MethodPost, table, record, nil)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	return firstRow(raw, dest)
}

// Update patches all matching rows. When dest is non-nil the first updated
// row is decoded into it; zero updated rows yield common.ErrNotFound.
func (s *HTTPRowStore) Update(ctx context.Context, table string, patch any, dest any, filters ...Filter) error {
	raw, err := s.do(ctx, http.MethodPatch, table, patch, filters)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	return firstRow(raw, dest)
}

// Delete removes all matching rows.
func (s *HTTPRowStore) Delete(ctx context.Context, table string, filters ...Filter) error {
	_, err := s.do(ctx, http.MethodDelete, table, nil, filters)
	return err
}

// firstRow decodes the first element of a JSON array into dest, reporting
// common.ErrNotFound for an empty array.
func firstRow(raw []byte, dest any) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return common.ErrNotFound
	}
	return json.Unmarshal(rows[0], dest)
}

func (s *HTTPRowStore) do(ctx context.Context, method, table string, body any, filters []Filter) ([]byte, error) {
	q := url.Values{}
	for _, f := range filters {
		f(q)
	}

	u := s.baseURL + "/rest/v1/" + url.PathEscape(table)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", s.anonKey)
	req.Header.Set("Authorization", "Bearer "+s.bearer())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseStoreError(resp.StatusCode, raw)
	}
	return raw, nil
}

func (s *HTTPRowStore) bearer() string {
	if s.tokens != nil {
		if token := s.tokens.AccessToken(); token != "" {
			return token
		}
	}
	return s.anonKey
}

func parseStoreError(status int, body []byte) *StoreError {
	var payload struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	_ = json.Unmarshal(body, &payload)

	if payload.Message == "" {
		payload.Message = http.StatusText(status)
	}
	return &StoreError{Status: status, Code: payload.Code, Message: payload.Message}
}
