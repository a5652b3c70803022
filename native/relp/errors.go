package relp

import "errors"

var (
	// ErrNilState is returned when the engine has not been wired to a state backend.
	ErrNilState = errors.New("relp: state not configured")
	// ErrInvalidAmount is returned for zero-valued mints, burns and transfers.
	ErrInvalidAmount = errors.New("relp: amount must be positive")
	// ErrInsufficientBalance is returned when a debit exceeds the holder's balance.
	ErrInsufficientBalance = errors.New("relp: insufficient balance")
	// ErrBalanceLocked is returned when a debit would consume locked balance.
	ErrBalanceLocked = errors.New("relp: balance locked")
	// ErrInsufficientAllowance is returned when a delegated transfer exceeds the
	// spender's allowance.
	ErrInsufficientAllowance = errors.New("relp: insufficient allowance")
	// ErrOverflow is returned when a stored quantity would exceed 128 bits.
	ErrOverflow = errors.New("relp: arithmetic overflow")
	// ErrUnderflow is returned when a subtraction would go negative.
	ErrUnderflow = errors.New("relp: arithmetic underflow")
	// ErrIndexOutOfRange is returned for award lookups past the end of the log.
	ErrIndexOutOfRange = errors.New("relp: award index out of range")
	// ErrUnknownPool is returned for pool identifiers the engine does not serve.
	ErrUnknownPool = errors.New("relp: unknown reward pool")
	// ErrStaleBlock is returned when a call arrives with a height lower than the
	// last processed block.
	ErrStaleBlock = errors.New("relp: block height moved backwards")
)
