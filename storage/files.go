package storage

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"go.uber.org/zap"
)

// CreateFile creates an empty file. The parent folder must exist.
func (s *Store) CreateFile(id string) (FileEntry, error) {
	const op = "create file"

	if clean, err := cleanID(id); err == nil && clean == "" {
		return FileEntry{}, opErr(op, id, ErrAlreadyExists, nil)
	}
	root, p, id, err := s.locate(op, id)
	if err != nil {
		return FileEntry{}, err
	}
	if err := ValidateExtension(id, s.extensions); err != nil {
		return FileEntry{}, opErr(op, id, ErrInvalidExtension, err)
	}

	info, err := lookup(op, id, p)
	if err != nil {
		return FileEntry{}, err
	}
	if info != nil {
		return FileEntry{}, opErr(op, id, ErrAlreadyExists, nil)
	}

	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return FileEntry{}, opErr(op, id, ErrAlreadyExists, nil)
	}
	if err != nil {
		return FileEntry{}, opErr(op, id, ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return FileEntry{}, opErr(op, id, ErrIO, err)
	}

	s.log.Info("created file", zap.String("id", id))
	return entryOf(p, root)
}

// RenameFile renames oldID to newID. The new name is validated before
// anything on disk changes.
func (s *Store) RenameFile(oldID, newID string) (FileEntry, error) {
	return s.renameFile("rename file", oldID, newID)
}

// MoveFile moves id into destFolderID. An empty destFolderID is the root.
func (s *Store) MoveFile(id, destFolderID string) (FileEntry, error) {
	const op = "move file"

	newID, err := moveTarget(id, destFolderID)
	if err != nil {
		return FileEntry{}, opErr(op, id, ErrPathEscapesRoot, err)
	}
	return s.renameFile(op, id, newID)
}

func (s *Store) renameFile(op, oldID, newID string) (FileEntry, error) {
	root, oldPath, oldID, err := s.locate(op, oldID)
	if err != nil {
		return FileEntry{}, err
	}
	_, newPath, newID, err := s.locate(op, newID)
	if err != nil {
		return FileEntry{}, err
	}
	if err := ValidateExtension(newID, s.extensions); err != nil {
		return FileEntry{}, opErr(op, newID, ErrInvalidExtension, err)
	}

	info, err := lookup(op, oldID, oldPath)
	if err != nil {
		return FileEntry{}, err
	}
	if info == nil || info.IsDir() {
		return FileEntry{}, opErr(op, oldID, ErrNotFound, errors.New("original file does not exist"))
	}

	existing, err := lookup(op, newID, newPath)
	if err != nil {
		return FileEntry{}, err
	}
	if existing != nil {
		return FileEntry{}, opErr(op, newID, ErrAlreadyExists, nil)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return FileEntry{}, opErr(op, oldID, ErrIO, err)
	}

	s.log.Info("renamed file", zap.String("from", oldID), zap.String("to", newID))
	return entryOf(newPath, root)
}

// DeleteFile removes a file. Folders are not files.
func (s *Store) DeleteFile(id string) error {
	const op = "delete file"

	_, p, id, err := s.locate(op, id)
	if err != nil {
		return err
	}
	if err := requireFile(op, id, p); err != nil {
		return err
	}

	if err := os.Remove(p); err != nil {
		return opErr(op, id, ErrIO, err)
	}

	s.log.Info("deleted file", zap.String("id", id))
	return nil
}

// ReadFile returns the content of a file as text.
func (s *Store) ReadFile(id string) (string, error) {
	const op = "read file"

	_, p, id, err := s.locate(op, id)
	if err != nil {
		return "", err
	}
	if err := requireFile(op, id, p); err != nil {
		return "", err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return "", opErr(op, id, ErrIO, err)
	}
	if !utf8.Valid(data) {
		return "", opErr(op, id, ErrEncoding, &EncodingError{ID: id, Charset: detectCharset(data)})
	}
	return string(data), nil
}

// WriteFile replaces the content of an existing file.
func (s *Store) WriteFile(id, content string) error {
	const op = "write file"

	_, p, id, err := s.locate(op, id)
	if err != nil {
		return err
	}
	if err := requireFile(op, id, p); err != nil {
		return err
	}

	// no O_CREATE: a file removed since the check is reported, not recreated
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_TRUNC, 0)
	if errors.Is(err, fs.ErrNotExist) {
		return opErr(op, id, ErrNotFound, errors.New("file does not exist"))
	}
	if err != nil {
		return opErr(op, id, ErrIO, err)
	}

	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return opErr(op, id, ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return opErr(op, id, ErrIO, err)
	}

	s.log.Debug("saved file", zap.String("id", id), zap.Int("size", len(content)))
	return nil
}

func requireFile(op, id, p string) error {
	info, err := lookup(op, id, p)
	if err != nil {
		return err
	}
	if info == nil || info.IsDir() {
		return opErr(op, id, ErrNotFound, errors.New("file does not exist"))
	}
	return nil
}

// moveTarget builds the id of id's base name inside destFolderID.
func moveTarget(id, destFolderID string) (string, error) {
	src, err := cleanID(id)
	if err != nil {
		return "", err
	}
	dest, err := cleanID(destFolderID)
	if err != nil {
		return "", err
	}
	if src == "" {
		return "", nil
	}
	return path.Join(dest, path.Base(src)), nil
}

func detectCharset(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return ""
	}
	return strings.ToLower(result.Charset)
}
