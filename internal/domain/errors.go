package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAccountNotFound    = errors.New("required account missing from chart of accounts")
	ErrAccountInactive    = errors.New("account inactive")
	ErrUnbalancedEntry    = errors.New("journal entry debits and credits do not balance")
	ErrEmptyEntry         = errors.New("journal entry has no lines")
	ErrInvalidLine        = errors.New("journal line must carry a nonzero amount on exactly one side")
	ErrInvalidAmount      = errors.New("amount must not be zero")
	ErrDuplicateReference = errors.New("journal reference already posted")
	ErrEntryNotPosted     = errors.New("journal entry is not in posted state")
	ErrDeletionUnsafe     = errors.New("deletion blocked by safety validation")
	ErrVersionConflict    = errors.New("optimistic lock conflict")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrStatementNotFound  = errors.New("statement not generated for period")
)
