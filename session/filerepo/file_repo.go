package filerepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-task-client/session"
)

var _ session.Repo = (*FileRepo)(nil)

// FileRepo persists session records in a JSON object on disk, one entry per
// key, the way a browser keeps them in local storage. Writes go through a
// temp file and rename so a crash never leaves a half-written record.
type FileRepo struct {
	path string
	key  string
	mu   sync.Mutex
}

// New returns a repo storing its record under key in the file at path. The
// parent directory is created on first write.
func New(path, key string) (*FileRepo, error) {
	if path == "" {
		return nil, errors.New("[filerepo.New] path is required")
	}
	if key == "" {
		return nil, errors.New("[filerepo.New] key is required")
	}
	return &FileRepo{path: path, key: key}, nil
}

func (r *FileRepo) Load(_ context.Context) (*session.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.read()
	if err != nil {
		return nil, err
	}
	raw, ok := records[r.key]
	if !ok {
		return nil, nil
	}

	var cred session.Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, fmt.Errorf("decode record %q: %w", r.key, err)
	}
	return &cred, nil
}

func (r *FileRepo) Save(_ context.Context, cred session.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.read()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode record %q: %w", r.key, err)
	}
	records[r.key] = raw
	return r.write(records)
}

func (r *FileRepo) Remove(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.read()
	if err != nil {
		return err
	}
	if _, ok := records[r.key]; !ok {
		return nil
	}
	delete(records, r.key)
	return r.write(records)
}

func (r *FileRepo) read() (map[string]json.RawMessage, error) {
	records := make(map[string]json.RawMessage)
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return records, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", r.path, err)
	}
	return records, nil
}

func (r *FileRepo) write(records map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace %s: %w", r.path, err)
	}
	return nil
}
