package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"
)

// Store implements Notes on the local filesystem under the storage root.
// The filesystem is the only state; nothing is cached between calls.
type Store struct {
	locator    *Locator
	extensions []string
	log        *zap.Logger
}

var _ Notes = (*Store)(nil)

func NewStore(locator *Locator, extensions []string, logger *zap.Logger) *Store {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		locator:    locator,
		extensions: extensions,
		log:        logger.Named("storage"),
	}
}

// Root resolves the storage root.
func (s *Store) Root() (string, error) {
	return s.locator.Root()
}

// Extensions returns the file extension allow-list.
func (s *Store) Extensions() []string {
	return slices.Clone(s.extensions)
}

// locate resolves a non-root entry id. It returns the storage root, the
// absolute path and the normalized id.
func (s *Store) locate(op, id string) (root, p, clean string, err error) {
	clean, err = cleanID(id)
	if err != nil {
		return "", "", "", opErr(op, id, ErrPathEscapesRoot, err)
	}
	if clean == "" {
		return "", "", "", opErr(op, id, ErrNotFound, errors.New("the storage root is not an entry"))
	}

	root, err = s.locator.Root()
	if err != nil {
		return "", "", "", err
	}
	p, err = Resolve(root, clean)
	if err != nil {
		return "", "", "", opErr(op, id, ErrPathEscapesRoot, err)
	}
	return root, p, clean, nil
}

// lookup stats p without following a final symlink. A missing path is not
// an error.
func lookup(op, id, p string) (os.FileInfo, error) {
	info, err := os.Lstat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, opErr(op, id, ErrIO, err)
	}
	return info, nil
}

func entryOf(p, root string) (FileEntry, error) {
	id, err := ComputeID(p, root)
	if err != nil {
		return FileEntry{}, err
	}
	return FileEntry{ID: id, Name: filepath.Base(p)}, nil
}
