package storage

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ComputeID returns the id of abs, its slash-separated path relative to root.
// The root itself has the empty id.
func ComputeID(abs, root string) (string, error) {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPathEscapesRoot, err)
	}
	if rel == "." {
		return "", nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s is outside %s", ErrPathEscapesRoot, abs, root)
	}
	return filepath.ToSlash(rel), nil
}

// Resolve joins id onto root. Absolute ids and ".." segments are rejected
// before any path is built, and the joined path must still lie below root.
// The empty id resolves to root.
func Resolve(root, id string) (string, error) {
	clean, err := cleanID(id)
	if err != nil {
		return "", err
	}
	if clean == "" {
		return root, nil
	}

	p := filepath.Join(root, filepath.FromSlash(clean))
	if _, err := ComputeID(p, root); err != nil {
		return "", err
	}
	return p, nil
}

// cleanID normalizes a caller supplied id. Ids use "/" only; a backslash is
// a separator on Windows and is rejected everywhere.
func cleanID(id string) (string, error) {
	if id == "" {
		return "", nil
	}
	if strings.ContainsRune(id, '\\') {
		return "", fmt.Errorf("%w: %q contains a backslash", ErrPathEscapesRoot, id)
	}
	if strings.HasPrefix(id, "/") || filepath.IsAbs(id) || filepath.VolumeName(id) != "" {
		return "", fmt.Errorf("%w: %q is absolute", ErrPathEscapesRoot, id)
	}
	for _, seg := range strings.Split(id, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q contains ..", ErrPathEscapesRoot, id)
		}
	}

	clean := path.Clean(id)
	if clean == "." {
		return "", nil
	}
	return clean, nil
}
