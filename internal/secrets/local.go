package secrets

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gamgui-io/gamgui/internal/models"
)

// LocalStore keeps credential blobs as files under the data directory, one
// file per secret named by the store convention. An fsnotify watcher keeps
// the status cache current so externally synced credentials (e.g. a mounted
// volume) show up without a restart.
type LocalStore struct {
	dir string

	mu    sync.RWMutex
	known map[string]time.Time // secret name -> mod time

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewLocalStore creates a file-backed store rooted at dir and starts the
// watcher. Close releases it.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create secrets dir: %w", err)
	}

	s := &LocalStore{
		dir:   dir,
		known: make(map[string]time.Time),
		done:  make(chan struct{}),
	}

	if err := s.scan(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch secrets dir: %w", err)
	}
	s.watcher = watcher

	go s.watchLoop()

	return s, nil
}

// Kind returns the store kind identifier.
func (s *LocalStore) Kind() string {
	return "local"
}

// Close stops the watcher.
func (s *LocalStore) Close() error {
	close(s.done)
	return s.watcher.Close()
}

// Upload writes one credential blob to its own file. Only the named
// credential's file is touched.
func (s *LocalStore) Upload(ctx context.Context, userID string, t models.SecretType, data []byte) error {
	if !models.ValidSecretType(t) {
		return ErrInvalidSecretType
	}

	name := models.SecretName(t, userID)
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write secret %s: %w", name, err)
	}

	s.mu.Lock()
	s.known[name] = time.Now().UTC()
	s.mu.Unlock()
	return nil
}

// Fetch returns a credential blob, or ErrSecretNotFound.
func (s *LocalStore) Fetch(ctx context.Context, userID string, t models.SecretType) ([]byte, error) {
	if !models.ValidSecretType(t) {
		return nil, ErrInvalidSecretType
	}

	path := filepath.Join(s.dir, models.SecretName(t, userID))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSecretNotFound
		}
		return nil, err
	}
	return data, nil
}

// Status reports per-type upload state from the watcher-maintained cache.
func (s *LocalStore) Status(ctx context.Context, userID string) (*models.SecretsStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return buildStatus(userID, func(t models.SecretType) (bool, *models.SecretStatus) {
		mtime, ok := s.known[models.SecretName(t, userID)]
		if !ok {
			return false, nil
		}
		updated := mtime
		return true, &models.SecretStatus{Type: t, Uploaded: true, UpdatedAt: &updated}
	}), nil
}

// Delete removes one credential file. Absent files are not an error.
func (s *LocalStore) Delete(ctx context.Context, userID string, t models.SecretType) error {
	if !models.ValidSecretType(t) {
		return ErrInvalidSecretType
	}

	name := models.SecretName(t, userID)
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return err
	}

	s.mu.Lock()
	delete(s.known, name)
	s.mu.Unlock()
	return nil
}

// scan populates the cache from the files already on disk.
func (s *LocalStore) scan() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if e.IsDir() || !isSecretFileName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		s.known[e.Name()] = info.ModTime().UTC()
	}
	return nil
}

// watchLoop mirrors file creations, writes, and removals into the cache.
func (s *LocalStore) watchLoop() {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if !isSecretFileName(name) {
				continue
			}
			switch {
			case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
				s.mu.Lock()
				s.known[name] = time.Now().UTC()
				s.mu.Unlock()
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				s.mu.Lock()
				delete(s.known, name)
				s.mu.Unlock()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Secrets watcher error: %v", err)
		}
	}
}

// isSecretFileName reports whether a file name follows the
// `<type>___<userId>` convention with a known type.
func isSecretFileName(name string) bool {
	idx := strings.Index(name, "___")
	if idx <= 0 || idx+3 >= len(name) {
		return false
	}
	return models.ValidSecretType(models.SecretType(name[:idx]))
}

var _ Store = (*LocalStore)(nil)
