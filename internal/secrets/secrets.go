// Package secrets stores the per-user GAM credential blobs. Production
// deployments keep them in Google Secret Manager; development and tests use
// a file-backed store under the data directory.
package secrets

import (
	"context"
	"errors"

	"github.com/gamgui-io/gamgui/internal/models"
)

// Errors shared by secret stores.
var (
	// ErrSecretNotFound is returned when a credential has not been uploaded.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrInvalidSecretType is returned for an unknown credential type.
	ErrInvalidSecretType = errors.New("invalid secret type")
)

// Store holds per-user credential blobs, named by the
// `<type>___<userId>` convention.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Isolation: Upload replaces only the named credential; the other
//   credential types of the same user are never touched.
type Store interface {
	// Kind identifies the store ("local" or "gsm").
	Kind() string

	// Upload stores (or replaces) one credential blob.
	Upload(ctx context.Context, userID string, t models.SecretType, data []byte) error

	// Fetch returns a credential blob, or ErrSecretNotFound.
	Fetch(ctx context.Context, userID string, t models.SecretType) ([]byte, error)

	// Status reports which of the user's credentials have been uploaded.
	Status(ctx context.Context, userID string) (*models.SecretsStatus, error)

	// Delete removes one credential blob. Deleting an absent credential is
	// not an error.
	Delete(ctx context.Context, userID string, t models.SecretType) error

	// Close releases store resources (watchers, API clients).
	Close() error
}

// buildStatus assembles a SecretsStatus from a lookup function.
func buildStatus(userID string, lookup func(t models.SecretType) (bool, *models.SecretStatus)) *models.SecretsStatus {
	status := &models.SecretsStatus{
		UserID:  userID,
		Secrets: make([]models.SecretStatus, 0, len(models.SecretTypes)),
		Ready:   true,
	}
	for _, t := range models.SecretTypes {
		uploaded, s := lookup(t)
		if s == nil {
			s = &models.SecretStatus{Type: t, Uploaded: uploaded}
		}
		if !uploaded {
			status.Ready = false
		}
		status.Secrets = append(status.Secrets, *s)
	}
	return status
}
