package types

// The backend reports request progress as human-readable status strings.
// The sequence is append-only and a terminal status is final: once a request
// reports Success or a Failed status, no further transition is expected.
const (
	// StatusTokenReceived indicates the backend has observed and accepted
	// the source-ledger transfer.
	StatusTokenReceived = "Token received"

	// StatusSendingToken indicates the receiving leg is being executed.
	StatusSendingToken = "Sending token"

	// StatusTokenSent indicates the receiving leg completed.
	StatusTokenSent = "Token sent"

	// StatusSuccess is the terminal success status.
	StatusSuccess = "Success"

	// StatusFailedMarker is the substring that marks any status string as a
	// terminal failure, whatever the surrounding text.
	StatusFailedMarker = "Failed"
)
