package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-questionnaire/pkg/model"
)

// HTTPOption configures the HTTP client.
type HTTPOption func(*HTTPClient)

// WithHTTPClient swaps the underlying *http.Client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBearerToken sends the token as Authorization: Bearer on every call.
func WithBearerToken(token string) HTTPOption {
	return func(c *HTTPClient) {
		c.token = strings.TrimSpace(token)
	}
}

// WithTimeout bounds every call. Zero keeps calls unbounded.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		c.httpClient.Timeout = timeout
	}
}

// HTTPClient talks to the service by POSTing JSON to {base}/rpc/{call}.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client rooted at baseURL.
func NewHTTPClient(baseURL string, options ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

type fetchPayloadRequest struct {
	FormID string `json:"p_form_id"`
	Lang   string `json:"p_lang"`
}

type upsertAnswerRequest struct {
	FormID string `json:"p_form_id"`
	Code   string `json:"p_question_code"`
	Value  any    `json:"p_value"`
}

type upsertTableRowRequest struct {
	FormID   string         `json:"p_form_id"`
	Code     string         `json:"p_question_code"`
	RowIndex int            `json:"p_row_index"`
	Row      map[string]any `json:"p_row"`
}

type submitFormRequest struct {
	FormID string `json:"p_form_id"`
}

// FetchPayload implements PayloadFetcher.
func (c *HTTPClient) FetchPayload(ctx context.Context, formID, lang string) (*model.Payload, error) {
	var payload model.Payload
	if err := c.call(ctx, CallFetchPayload, fetchPayloadRequest{FormID: formID, Lang: lang}, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// UpsertAnswer implements AnswerWriter.
func (c *HTTPClient) UpsertAnswer(ctx context.Context, formID, code string, value any) error {
	return c.call(ctx, CallUpsertAnswer, upsertAnswerRequest{FormID: formID, Code: code, Value: value}, nil)
}

// UpsertTableRow implements RowWriter.
func (c *HTTPClient) UpsertTableRow(ctx context.Context, formID, code string, rowIndex int, row map[string]any) error {
	if row == nil {
		row = map[string]any{}
	}
	return c.call(ctx, CallUpsertTableRow, upsertTableRowRequest{FormID: formID, Code: code, RowIndex: rowIndex, Row: row}, nil)
}

// SubmitForm implements Submitter.
func (c *HTTPClient) SubmitForm(ctx context.Context, formID string) (SubmitResult, error) {
	var result SubmitResult
	if err := c.call(ctx, CallSubmitForm, submitFormRequest{FormID: formID}, &result); err != nil {
		return SubmitResult{}, err
	}
	return result, nil
}

func (c *HTTPClient) call(ctx context.Context, op string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &Error{Op: op, Message: "failed to marshal request", cause: err}
	}

	url := fmt.Sprintf("%s/rpc/%s", c.baseURL, op)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return &Error{Op: op, Message: "failed to create request", cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Op: op, Message: "failed to call service", cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Message: "failed to read response", cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		remoteErr := &Error{Op: op, Status: resp.StatusCode}
		if err := json.Unmarshal(data, remoteErr); err != nil || remoteErr.Message == "" {
			remoteErr.Message = strings.TrimSpace(string(data))
		}
		return remoteErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Message: "failed to unmarshal response", cause: err}
	}
	return nil
}
