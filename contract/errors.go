package contract

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrRecordNotFound  = errors.New("record not found")
	ErrUnauthenticated = errors.New("unauthenticated caller")
	ErrEmptyCaller     = errors.New("empty caller")
)

// TransferError 转账失败，Err 通常是 account.ErrInsufficientBalance
type TransferError struct {
	From   string
	To     string
	Amount int64
	Err    error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %d from %s to %s: %s", e.Amount, e.From, e.To, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}
