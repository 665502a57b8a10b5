package secrets

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gamgui-io/gamgui/internal/models"
)

// GSMStore keeps credential blobs in Google Secret Manager. Versioning is
// delegated entirely to the provider; this store always reads "latest".
type GSMStore struct {
	client  *secretmanager.Client
	project string
}

// NewGSMStore creates a Secret Manager store for the given project, using
// application default credentials.
func NewGSMStore(ctx context.Context, project string) (*GSMStore, error) {
	if project == "" {
		return nil, fmt.Errorf("secret manager store requires a project ID")
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}

	return &GSMStore{client: client, project: project}, nil
}

// Kind returns the store kind identifier.
func (s *GSMStore) Kind() string {
	return "gsm"
}

// Close releases the underlying client.
func (s *GSMStore) Close() error {
	return s.client.Close()
}

// Upload adds a new version of one credential, creating the secret on first
// upload. Only the named secret is touched.
func (s *GSMStore) Upload(ctx context.Context, userID string, t models.SecretType, data []byte) error {
	if !models.ValidSecretType(t) {
		return ErrInvalidSecretType
	}

	name := models.SecretName(t, userID)

	_, err := s.client.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{
		Name: s.secretPath(name),
	})
	if err != nil {
		if status.Code(err) != codes.NotFound {
			return fmt.Errorf("failed to check secret %s: %w", name, err)
		}
		_, err = s.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
			Parent:   "projects/" + s.project,
			SecretId: name,
			Secret: &secretmanagerpb.Secret{
				Replication: &secretmanagerpb.Replication{
					Replication: &secretmanagerpb.Replication_Automatic_{
						Automatic: &secretmanagerpb.Replication_Automatic{},
					},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create secret %s: %w", name, err)
		}
	}

	_, err = s.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent: s.secretPath(name),
		Payload: &secretmanagerpb.SecretPayload{
			Data: data,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to add secret version for %s: %w", name, err)
	}
	return nil
}

// Fetch returns the latest version of one credential.
func (s *GSMStore) Fetch(ctx context.Context, userID string, t models.SecretType) ([]byte, error) {
	if !models.ValidSecretType(t) {
		return nil, ErrInvalidSecretType
	}

	name := models.SecretName(t, userID)
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.secretPath(name) + "/versions/latest",
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrSecretNotFound
		}
		return nil, fmt.Errorf("failed to access secret %s: %w", name, err)
	}
	return resp.GetPayload().GetData(), nil
}

// Status reports per-type upload state by probing each secret
// independently.
func (s *GSMStore) Status(ctx context.Context, userID string) (*models.SecretsStatus, error) {
	var firstErr error

	result := buildStatus(userID, func(t models.SecretType) (bool, *models.SecretStatus) {
		secret, err := s.client.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{
			Name: s.secretPath(models.SecretName(t, userID)),
		})
		if err != nil {
			if status.Code(err) != codes.NotFound && firstErr == nil {
				firstErr = err
			}
			return false, nil
		}

		st := &models.SecretStatus{Type: t, Uploaded: true}
		if created := secret.GetCreateTime(); created != nil {
			createdAt := created.AsTime()
			st.UpdatedAt = &createdAt
		}
		return true, st
	})

	if firstErr != nil {
		return nil, fmt.Errorf("failed to read secret status: %w", firstErr)
	}
	return result, nil
}

// Delete removes one credential and all its versions. Absent secrets are
// not an error.
func (s *GSMStore) Delete(ctx context.Context, userID string, t models.SecretType) error {
	if !models.ValidSecretType(t) {
		return ErrInvalidSecretType
	}

	name := models.SecretName(t, userID)
	err := s.client.DeleteSecret(ctx, &secretmanagerpb.DeleteSecretRequest{
		Name: s.secretPath(name),
	})
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("failed to delete secret %s: %w", name, err)
	}
	return nil
}

func (s *GSMStore) secretPath(name string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", s.project, name)
}

var _ Store = (*GSMStore)(nil)
