package filerepo

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/jrsteele09/clinician-portal/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ChangeFunc receives the record after another writer changed the file.
// found is false when the file was removed.
type ChangeFunc func(record session.Record, found bool)

// Watch reports every change to the record file until ctx is done. The
// directory is watched rather than the file because Save replaces the file
// by rename. Unreadable intermediate states are skipped.
func (r *FileRepo) Watch(ctx context.Context, onChange ChangeFunc) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrapf(err, "[FileRepo.Watch] create %s", dir)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "[FileRepo.Watch] fsnotify.NewWatcher")
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return errors.Wrapf(err, "[FileRepo.Watch] watch %s", dir)
	}

	name := filepath.Base(r.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name || event.Op == fsnotify.Chmod {
				continue
			}
			record, found, err := r.Load(ctx)
			if err != nil {
				log.Debug().Err(err).Msg("Skipping unreadable session change")
				continue
			}
			onChange(record, found)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Session file watcher error")
		}
	}
}
