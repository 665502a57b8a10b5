package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamgui-io/gamgui/internal/models"
)

func newTestStore(t *testing.T) (*LocalStore, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, dir
}

func TestLocalStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	blob := []byte(`{"client_id":"x"}`)
	require.NoError(t, store.Upload(ctx, "alice", models.SecretTypeOAuth2, blob))

	got, err := store.Fetch(ctx, "alice", models.SecretTypeOAuth2)
	require.NoError(t, err)
	assert.Equal(t, blob, got)
}

func TestLocalStoreFetchMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Fetch(context.Background(), "alice", models.SecretTypeOAuth2)
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestLocalStoreRejectsUnknownType(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.Upload(ctx, "alice", "bogus", []byte("x")), ErrInvalidSecretType)
	_, err := store.Fetch(ctx, "alice", "bogus")
	assert.ErrorIs(t, err, ErrInvalidSecretType)
}

func TestUploadTouchesOnlyNamedCredential(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "alice", models.SecretTypeClientSecrets, []byte("a")))

	status, err := store.Status(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, status.Secrets, 3)
	assert.False(t, status.Ready)

	byType := make(map[models.SecretType]models.SecretStatus)
	for _, s := range status.Secrets {
		byType[s.Type] = s
	}
	assert.True(t, byType[models.SecretTypeClientSecrets].Uploaded)
	assert.False(t, byType[models.SecretTypeOAuth2].Uploaded)
	assert.False(t, byType[models.SecretTypeOAuth2Service].Uploaded)

	// Re-uploading the same type must not flip the others either.
	require.NoError(t, store.Upload(ctx, "alice", models.SecretTypeClientSecrets, []byte("b")))
	status, err = store.Status(ctx, "alice")
	require.NoError(t, err)
	for _, s := range status.Secrets {
		if s.Type != models.SecretTypeClientSecrets {
			assert.False(t, s.Uploaded, "type %s should stay absent", s.Type)
		}
	}
}

func TestReadyAfterAllThree(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, st := range models.SecretTypes {
		require.NoError(t, store.Upload(ctx, "alice", st, []byte("data")))
	}

	status, err := store.Status(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, status.Ready)
}

func TestStatusIsolatedPerUser(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "alice", models.SecretTypeOAuth2, []byte("a")))

	status, err := store.Status(ctx, "bob")
	require.NoError(t, err)
	for _, s := range status.Secrets {
		assert.False(t, s.Uploaded)
	}
}

func TestDeleteTolerant(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "alice", models.SecretTypeOAuth2, []byte("a")))
	require.NoError(t, store.Delete(ctx, "alice", models.SecretTypeOAuth2))
	// Deleting again is not an error.
	require.NoError(t, store.Delete(ctx, "alice", models.SecretTypeOAuth2))

	_, err := store.Fetch(ctx, "alice", models.SecretTypeOAuth2)
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestWatcherPicksUpExternalFiles(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	// A sidecar (e.g. the GSM sync job) drops a file directly in the dir.
	name := models.SecretName(models.SecretTypeOAuth2, "alice")
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("synced"), 0o600))

	require.Eventually(t, func() bool {
		status, err := store.Status(ctx, "alice")
		if err != nil {
			return false
		}
		for _, s := range status.Secrets {
			if s.Type == models.SecretTypeOAuth2 && s.Uploaded {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)
}

func TestScanFindsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	name := models.SecretName(models.SecretTypeClientSecrets, "alice")
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("pre-existing"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("junk"), 0o600))

	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	defer store.Close()

	status, err := store.Status(context.Background(), "alice")
	require.NoError(t, err)
	for _, s := range status.Secrets {
		if s.Type == models.SecretTypeClientSecrets {
			assert.True(t, s.Uploaded)
		} else {
			assert.False(t, s.Uploaded)
		}
	}
}
