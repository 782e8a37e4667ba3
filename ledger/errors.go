package ledger

import "errors"

// Ledger failures are sentinel errors so callers can branch with errors.Is. All of
// them leave state untouched; there are no partial commits.
var (
	// ErrAlreadyCheckedIn means the re-check-in window has not elapsed for the
	// principal. Recoverable by retrying at a later tick.
	ErrAlreadyCheckedIn = errors.New("already checked in this window")

	// ErrFeeTransferFailed means the fee capability rejected the transfer, typically
	// for insufficient balance. The cause is attached via wrapping.
	ErrFeeTransferFailed = errors.New("fee transfer failed")

	// ErrInvalidAmount rejects zero values where a positive one is required: config
	// fields and check-in ticks.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNotAuthorized rejects admin operations from any caller other than the
	// admin principal fixed at ledger construction.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrInvalidBatch rejects bulk calls with an empty batch or one larger than
	// MaxBulkCheckins.
	ErrInvalidBatch = errors.New("batch size out of range")
)
