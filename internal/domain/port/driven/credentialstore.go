package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
// TIMEGURU_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set TIMEGURU_SECRET_KEY")

// ServiceToggl is the credential service name holding the Toggl API token.
const ServiceToggl = "toggl"

// CredentialStore defines the driven port for API tokens kept in the local
// cache. Values cross this boundary in plaintext; the adapter encrypts them.
type CredentialStore interface {
	// Set stores or replaces the token for service.
	Set(ctx context.Context, service, plaintext string) error

	// Get returns the token for service, or ("", nil) when none is stored.
	Get(ctx context.Context, service string) (string, error)

	// List returns every stored credential with decrypted values.
	List(ctx context.Context) ([]model.Credential, error)

	// Delete removes the token for service.
	Delete(ctx context.Context, service string) error
}
