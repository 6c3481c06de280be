package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// BuildFolder reads dir and everything below it into a Folder.
//
// Any unreadable directory or entry aborts the whole build; a partial tree is
// never returned. There is no depth limit.
func BuildFolder(dir, root string) (Folder, error) {
	id, err := ComputeID(dir, root)
	if err != nil {
		return Folder{}, err
	}

	folder := Folder{
		ID:         id,
		Files:      []FileEntry{},
		Subfolders: []Folder{},
	}
	if id != "" {
		folder.Name = filepath.Base(dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Folder{}, fmt.Errorf("%w: read directory %s: %v", ErrIO, dir, err)
	}

	for _, entry := range entries {
		p := filepath.Join(dir, entry.Name())

		// lstat catches entries removed since ReadDir
		if _, err := entry.Info(); err != nil {
			return Folder{}, fmt.Errorf("%w: stat %s: %v", ErrIO, p, err)
		}

		if entry.IsDir() {
			sub, err := BuildFolder(p, root)
			if err != nil {
				return Folder{}, err
			}
			folder.Subfolders = append(folder.Subfolders, sub)
			continue
		}

		fileID, err := ComputeID(p, root)
		if err != nil {
			return Folder{}, err
		}
		folder.Files = append(folder.Files, FileEntry{ID: fileID, Name: entry.Name()})
	}

	return folder, nil
}
