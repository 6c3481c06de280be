package storage

import (
	"errors"
	"os"
	"strings"

	"go.uber.org/zap"
)

// CreateFolder creates a folder and any missing parents, and returns it.
func (s *Store) CreateFolder(id string) (Folder, error) {
	const op = "create folder"

	if clean, err := cleanID(id); err == nil && clean == "" {
		return Folder{}, opErr(op, id, ErrAlreadyExists, nil)
	}
	root, p, id, err := s.locate(op, id)
	if err != nil {
		return Folder{}, err
	}

	info, err := lookup(op, id, p)
	if err != nil {
		return Folder{}, err
	}
	if info != nil {
		return Folder{}, opErr(op, id, ErrAlreadyExists, nil)
	}

	if err := os.MkdirAll(p, 0o755); err != nil {
		return Folder{}, opErr(op, id, ErrIO, err)
	}
	s.log.Info("created folder", zap.String("id", id))

	folder, err := BuildFolder(p, root)
	if err != nil {
		return Folder{}, &CommittedError{Op: op, ID: id, Err: err}
	}
	return folder, nil
}

// RenameFolder renames or moves a folder and returns the rebuilt subtree.
// Every id below the folder changes with it.
func (s *Store) RenameFolder(oldID, newID string) (Folder, error) {
	return s.renameFolder("rename folder", oldID, newID)
}

// MoveFolder moves id into destFolderID keeping its name.
func (s *Store) MoveFolder(id, destFolderID string) (Folder, error) {
	const op = "move folder"

	newID, err := moveTarget(id, destFolderID)
	if err != nil {
		return Folder{}, opErr(op, id, ErrPathEscapesRoot, err)
	}
	return s.renameFolder(op, id, newID)
}

func (s *Store) renameFolder(op, oldID, newID string) (Folder, error) {
	root, oldPath, oldID, err := s.locate(op, oldID)
	if err != nil {
		return Folder{}, err
	}
	_, newPath, newID, err := s.locate(op, newID)
	if err != nil {
		return Folder{}, err
	}

	info, err := lookup(op, oldID, oldPath)
	if err != nil {
		return Folder{}, err
	}
	if info == nil || !info.IsDir() {
		return Folder{}, opErr(op, oldID, ErrNotFound, errors.New("original folder does not exist"))
	}

	existing, err := lookup(op, newID, newPath)
	if err != nil {
		return Folder{}, err
	}
	if existing != nil {
		return Folder{}, opErr(op, newID, ErrAlreadyExists, nil)
	}
	if strings.HasPrefix(newID, oldID+"/") {
		return Folder{}, opErr(op, oldID, ErrIO, errors.New("cannot move a folder into itself"))
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return Folder{}, opErr(op, oldID, ErrIO, err)
	}
	s.log.Info("renamed folder", zap.String("from", oldID), zap.String("to", newID))

	folder, err := BuildFolder(newPath, root)
	if err != nil {
		return Folder{}, &CommittedError{Op: op, ID: newID, Err: err}
	}
	return folder, nil
}

// DeleteFolder removes a folder and everything in it.
func (s *Store) DeleteFolder(id string) error {
	const op = "delete folder"

	_, p, id, err := s.locate(op, id)
	if err != nil {
		return err
	}

	info, err := lookup(op, id, p)
	if err != nil {
		return err
	}
	if info == nil || !info.IsDir() {
		return opErr(op, id, ErrNotFound, errors.New("folder does not exist"))
	}

	if err := os.RemoveAll(p); err != nil {
		return opErr(op, id, ErrIO, err)
	}

	s.log.Info("deleted folder", zap.String("id", id))
	return nil
}

// ListAll returns a snapshot of the whole storage tree.
func (s *Store) ListAll() (Folder, error) {
	const op = "list all"

	root, err := s.locator.Root()
	if err != nil {
		return Folder{}, err
	}

	folder, err := BuildFolder(root, root)
	if err != nil {
		return Folder{}, opErr(op, "", ErrIO, err)
	}
	return folder, nil
}
