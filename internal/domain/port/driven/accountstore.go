package driven

import (
	"context"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

// AccountStore defines the driven port for the current account context.
type AccountStore interface {
	// SetCurrent records acct and marks it as the current account.
	SetCurrent(ctx context.Context, acct model.Account) error

	// Current returns the current account or ErrNoAccount.
	Current(ctx context.Context) (*model.Account, error)
}
