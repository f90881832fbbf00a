package filerepo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/jrsteele09/clinician-portal/internal/errors"
	"github.com/jrsteele09/clinician-portal/session"
)

var _ session.Repo = (*FileRepo)(nil)

const recordVersion = 0

// envelope mirrors the layout the web client kept in local storage.
type envelope struct {
	State   session.Record `json:"state"`
	Version int            `json:"version"`
}

// FileRepo stores the session record as <dir>/auth-storage.json.
type FileRepo struct {
	path string
}

// NewFileRepo creates a repo rooted at dir. The directory is created on first save.
func NewFileRepo(dir string) *FileRepo {
	return &FileRepo{path: filepath.Join(dir, session.Namespace+".json")}
}

// Path is the location of the record file
func (r *FileRepo) Path() string {
	return r.path
}

func (r *FileRepo) Load(ctx context.Context) (session.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return session.Record{}, false, err
	}

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return session.Record{}, false, nil
	}
	if err != nil {
		return session.Record{}, false, fmt.Errorf("[FileRepo.Load] read %s: %w", r.path, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return session.Record{}, false, apperrors.Wrapf(apperrors.ErrMalformedSession, "[FileRepo.Load] %s: %v", r.path, err)
	}
	return env.State, true, nil
}

// Save writes to a temporary file in the same directory and renames it over
// the record, so a crash never leaves a half-written file behind.
func (r *FileRepo) Save(ctx context.Context, record session.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(envelope{State: record, Version: recordVersion})
	if err != nil {
		return fmt.Errorf("[FileRepo.Save] marshal: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("[FileRepo.Save] create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, session.Namespace+"-*.tmp")
	if err != nil {
		return fmt.Errorf("[FileRepo.Save] temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileRepo.Save] write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[FileRepo.Save] close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("[FileRepo.Save] chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("[FileRepo.Save] rename: %w", err)
	}
	return nil
}
