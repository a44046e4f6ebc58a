package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

const defaultRequestTimeout = 30 * time.Second

// apiError is the backend's structured error payload. The code may carry a
// reserved sentinel (e.g. the not-ready condition); both code and message are
// fed through the error classification boundary.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

// ErrorCode exposes the structured code for classification.
func (e *apiError) ErrorCode() string { return e.Code }

// httpGateway is the HTTP JSON implementation of Gateway.
type httpGateway struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

// NewHTTPGateway creates a Gateway speaking HTTP JSON against the backend at
// baseURL.
//
// Parameters:
// - baseURL: the backend base URL, without trailing slash.
// - logger: the logger for logging purposes.
//
// Returns:
// - Gateway: the gateway client.
// - error: an error if the base URL is invalid.
func NewHTTPGateway(baseURL string, logger *logrus.Logger) (Gateway, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, errors.Wrap(err, "invalid backend base URL")
	}

	return &httpGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultRequestTimeout},
		logger:  logger,
	}, nil
}

type quoteRequest struct {
	PayToken     string `json:"pay_token"`
	PayAmount    string `json:"pay_amount"`
	ReceiveToken string `json:"receive_token"`
}

func (g *httpGateway) Quote(ctx context.Context, payToken, payAmount, receiveToken string) (*types.Quote, error) {
	var quote types.Quote
	err := g.call(ctx, http.MethodPost, "/v1/quote", &quoteRequest{
		PayToken:     payToken,
		PayAmount:    payAmount,
		ReceiveToken: receiveToken,
	}, &quote)
	if err != nil {
		return nil, err
	}

	return &quote, nil
}

type submitReply struct {
	RequestID string `json:"request_id"`
}

func (g *httpGateway) SubmitAsync(ctx context.Context, req *types.OperationRequest) (string, error) {
	var reply submitReply
	if err := g.call(ctx, http.MethodPost, "/v1/requests", req, &reply); err != nil {
		return "", err
	}

	if reply.RequestID == "" {
		return "", errors.New("backend accepted the request without a request id")
	}

	g.logger.WithFields(logrus.Fields{
		"requestID": reply.RequestID,
		"operation": req.Operation,
		"payTxRef":  req.PayTxRef.String(),
	}).Info("Operation accepted by backend")

	return reply.RequestID, nil
}

func (g *httpGateway) Status(ctx context.Context, requestID string) (*types.RequestStatus, error) {
	var status types.RequestStatus
	if err := g.call(ctx, http.MethodGet, "/v1/requests/"+url.PathEscape(requestID), nil, &status); err != nil {
		return nil, err
	}

	return &status, nil
}

// call performs one HTTP exchange with the backend. Non-2xx responses are
// decoded into apiError so that structured codes survive into classification.
func (g *httpGateway) call(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := g.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "backend request failed")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read backend response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if err := json.Unmarshal(payload, &apiErr); err == nil && (apiErr.Code != "" || apiErr.Message != "") {
			return &apiErr
		}
		return errors.Errorf("backend returned status %d: %s", resp.StatusCode, string(payload))
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return errors.Wrap(err, "failed to decode backend response")
	}

	return nil
}
