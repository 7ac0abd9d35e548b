package model

import "errors"

// Error kinds returned by the ledger, transfer and import services.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidReference = errors.New("invalid reference")
	ErrInvalidTransfer  = errors.New("invalid transfer")
	ErrInactiveAccount  = errors.New("account is inactive")
	ErrDecodeFailure    = errors.New("statement could not be decoded")
	ErrTransferLeg      = errors.New("entry belongs to a transfer")
	ErrRowSkipped       = errors.New("row skipped")
)
