// Package saveslot keeps the single local save of a game on disk.
package saveslot

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

var ErrEmptySlot = errors.New("save slot is empty")

// FileSlot is one save file. Every Write replaces the previous save atomically, so a
// crash mid-write leaves the older save readable.
type FileSlot struct {
	Path string
}

func New(path string) *FileSlot {
	return &FileSlot{Path: path}
}

func (s *FileSlot) Write(data []byte) error {
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return errors.Wrapf(err, "creating temp file in %s", dir)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "writing save")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "syncing save")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "closing save")
	}

	if err := os.Rename(tmpName, s.Path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "replacing %s", s.Path)
	}
	return nil
}

func (s *FileSlot) Read() ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(ErrEmptySlot, s.Path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", s.Path)
	}
	return data, nil
}

func (s *FileSlot) Exists() bool {
	_, err := os.Stat(s.Path)
	return err == nil
}

// Clear removes the save. Clearing an empty slot is not an error.
func (s *FileSlot) Clear() error {
	err := os.Remove(s.Path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s", s.Path)
	}
	return nil
}
