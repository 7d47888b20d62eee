package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"dexbot/internal/model"
)

// ExecutionErrorKind classifies a failed call to the trading endpoint.
type ExecutionErrorKind string

const (
	KindTransport       ExecutionErrorKind = "TRANSPORT"
	KindTimeout         ExecutionErrorKind = "TIMEOUT"
	KindInvalidResponse ExecutionErrorKind = "INVALID_RESPONSE"
)

// ExecutionError wraps a transport-level failure of one execution call.
type ExecutionError struct {
	Kind ExecutionErrorKind
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execute trade (%s): %v", e.Kind, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// tradeRequest is the JSON body sent to the trading endpoint.
type tradeRequest struct {
	Action string  `json:"action"`
	Token  string  `json:"token"`
	Amount float64 `json:"amount"`
	APIKey string  `json:"api_key"`
}

// tradeResponse is the expected JSON shape from the trading endpoint.
type tradeResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
	Ref    string `json:"ref"`
}

// Client sends validated trade intents to the external trading endpoint.
type Client struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

// NewClient creates an executor client with the given timeout and optional
// proxy support.
func NewClient(endpoint, apiKey string, timeout time.Duration, proxyURL string) *Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Client{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Execute performs exactly one call to the trading endpoint. The returned
// TradeResult is never nil: transport failures, timeouts, and malformed
// bodies are folded into a Failure result alongside the ExecutionError, so
// callers always receive something they can report to the user. No retry
// happens here.
func (c *Client) Execute(ctx context.Context, intent model.TradeIntent) (*model.TradeResult, error) {
	fail := func(kind ExecutionErrorKind, err error) (*model.TradeResult, error) {
		execErr := &ExecutionError{Kind: kind, Err: err}
		return &model.TradeResult{
			Intent: intent,
			Status: model.StatusFailure,
			Detail: execErr.Error(),
		}, execErr
	}

	body, err := json.Marshal(tradeRequest{
		Action: string(intent.Action),
		Token:  intent.Token,
		Amount: intent.Amount,
		APIKey: c.APIKey,
	})
	if err != nil {
		return fail(KindInvalidResponse, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fail(KindTransport, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fail(KindTimeout, err)
		}
		return fail(KindTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fail(KindTransport, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(respBody)))
	}

	var tr tradeResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return fail(KindInvalidResponse, fmt.Errorf("decode response: %w", err))
	}

	// A well-formed 2xx body can still report a rejected trade; that is a
	// structured failure, not a transport fault.
	status := model.StatusSuccess
	if tr.Status == "error" || tr.Status == "failed" {
		status = model.StatusFailure
	}
	return &model.TradeResult{
		Intent:      intent,
		Status:      status,
		Detail:      tr.Detail,
		ExternalRef: tr.Ref,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
