package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"lmsrmarket/store/ledger"
	"lmsrmarket/store/marketstate"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive with at most 8 decimal places")
	ErrInvalidSide     = errors.New("side must be yes or no")
	ErrInvalidOutcome  = errors.New("outcome must be yes or no")
	ErrMarketClosed    = marketstate.ErrMarketClosed
	ErrAlreadyResolved = marketstate.ErrAlreadyResolved
	ErrAccountNotFound = ledger.ErrAccountNotFound
	// ErrMarketBusy means the market could not be locked within the
	// configured timeout. Nothing was changed; the caller may retry.
	ErrMarketBusy = errors.New("market is busy")
)

// InsufficientBalanceError rejects a buy the account cannot pay for. It
// carries the computed cost so the caller can see why.
type InsufficientBalanceError struct {
	Cost    decimal.Decimal
	Balance decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: cost %s, balance %s", e.Cost.StringFixed(4), e.Balance.StringFixed(4))
}

// StorageError means the store could not read or commit. The operation was
// not applied.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Kind groups errors by how a caller should react to them.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation: bad input, nothing was attempted.
	KindValidation
	// KindState: the market is not in a state that allows the operation.
	KindState
	KindInsufficientBalance
	KindNotFound
	// KindStorage: the store failed; nothing was applied, retry later.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindInsufficientBalance:
		return "insufficient_balance"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	}
	return "unknown"
}

// KindOf classifies err.
func KindOf(err error) Kind {
	var insufficient *InsufficientBalanceError
	var storage *StorageError
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidSide), errors.Is(err, ErrInvalidOutcome):
		return KindValidation
	case errors.Is(err, ErrMarketClosed), errors.Is(err, ErrAlreadyResolved), errors.Is(err, ledger.ErrUsernameTaken):
		return KindState
	case errors.As(err, &insufficient):
		return KindInsufficientBalance
	case errors.Is(err, ErrAccountNotFound):
		return KindNotFound
	case errors.As(err, &storage), errors.Is(err, ErrMarketBusy):
		return KindStorage
	}
	return KindUnknown
}

// wrapStorage leaves domain errors alone and wraps everything else, which
// can only have come from the store, in a StorageError.
func wrapStorage(op string, err error) error {
	if err == nil || KindOf(err) != KindUnknown {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
