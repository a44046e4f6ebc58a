// Package backend defines the client side of the AMM backend gateway. The
// backend is an opaque, authoritative collaborator: it prices and settles
// operations, observes source-ledger transfers, and enforces that a given
// (transaction reference, signature) pair authorizes at most one successful
// operation. This package consumes those guarantees, it does not implement
// them.
package backend

import (
	"context"

	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

// Gateway is the backend operation surface consumed by the orchestration
// protocol.
type Gateway interface {
	// Quote returns the expected outcome of swapping payAmount of payToken
	// into receiveToken. Read-only; a failed quote is simply re-asked.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - payToken: the chain-qualified pay token identifier.
	// - payAmount: the pay amount in the token's smallest unit, base-10.
	// - receiveToken: the chain-qualified receive token identifier.
	//
	// Returns:
	// - *types.Quote: the quote with per-hop breakdown.
	// - error: an error if quoting fails.
	Quote(ctx context.Context, payToken, payAmount, receiveToken string) (*types.Quote, error)

	// SubmitAsync submits an operation for asynchronous processing and
	// returns the request id used to poll for the terminal outcome. The
	// backend may reject with the not-ready sentinel until it has observed
	// the referenced source transfer with sufficient confirmation.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - req: the operation payload.
	//
	// Returns:
	// - string: the backend request id.
	// - error: an error if the submission is rejected.
	SubmitAsync(ctx context.Context, req *types.OperationRequest) (string, error)

	// Status returns the current status sequence and, once terminal, the
	// structured reply for a request. Safe to poll repeatedly without side
	// effects.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - requestID: the backend request id.
	//
	// Returns:
	// - *types.RequestStatus: the current view of the request.
	// - error: an error if the status lookup fails.
	Status(ctx context.Context, requestID string) (*types.RequestStatus, error)
}
