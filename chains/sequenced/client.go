package sequenced

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Client is the transport to a sequenced ledger node.
type Client interface {
	// Transfer applies a transfer synchronously and returns the block index
	// it was recorded at.
	Transfer(ctx context.Context, req *TransferRequest) (uint64, error)
	// Balance returns the token balance held by an address.
	Balance(ctx context.Context, address, token string) (*big.Int, error)
}

// TransferRequest is the ledger's transfer call payload.
type TransferRequest struct {
	To     string `json:"to"`
	Token  string `json:"token"`
	Amount string `json:"amount"`
	Memo   string `json:"memo,omitempty"`
}

type transferReply struct {
	BlockIndex uint64 `json:"block_index"`
}

type balanceReply struct {
	Balance string `json:"balance"`
}

// ledgerError is a structured error returned by the ledger node.
type ledgerError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ledgerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ledgerError) ErrorCode() string { return e.Code }

type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient(baseURL string) *httpClient {
	return &httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *httpClient) Transfer(ctx context.Context, req *TransferRequest) (uint64, error) {
	var reply transferReply
	if err := c.call(ctx, http.MethodPost, "/v1/transfer", req, &reply); err != nil {
		return 0, err
	}
	return reply.BlockIndex, nil
}

func (c *httpClient) Balance(ctx context.Context, address, token string) (*big.Int, error) {
	var reply balanceReply
	path := fmt.Sprintf("/v1/balance/%s/%s", address, token)
	if err := c.call(ctx, http.MethodGet, path, nil, &reply); err != nil {
		return nil, err
	}

	balance, ok := new(big.Int).SetString(reply.Balance, 10)
	if !ok {
		return nil, errors.Errorf("invalid balance %q", reply.Balance)
	}
	return balance, nil
}

func (c *httpClient) call(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "ledger call failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ledgerErr ledgerError
		if err := json.NewDecoder(resp.Body).Decode(&ledgerErr); err != nil || ledgerErr.Message == "" {
			return errors.Errorf("ledger returned status %d", resp.StatusCode)
		}
		return &ledgerErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode reply")
	}
	return nil
}
