package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	appDir  = "corvex"
	dataDir = "data"
)

// Locator resolves the process-wide storage root.
//
// The path is computed once; the directory chain is ensured on every call so
// an externally removed root is recreated before the next operation.
type Locator struct {
	override string
	homeDir  func() (string, error)

	mu      sync.Mutex
	current *resolution
}

type resolution struct {
	once sync.Once
	root string
	err  error
}

// NewLocator returns a locator for <home>/corvex/data, or for override when
// it is not empty.
func NewLocator(override string) *Locator {
	return &Locator{
		override: override,
		homeDir:  os.UserHomeDir,
		current:  new(resolution),
	}
}

// Root returns the absolute storage root, creating it if needed.
func (l *Locator) Root() (string, error) {
	l.mu.Lock()
	r := l.current
	l.mu.Unlock()

	r.once.Do(func() { r.root, r.err = l.resolve() })
	if r.err != nil {
		return "", r.err
	}

	if err := ensureDir(r.root); err != nil {
		return "", err
	}
	return r.root, nil
}

// Reset forgets the memoized root. The next Root call resolves it again.
func (l *Locator) Reset() {
	l.mu.Lock()
	l.current = new(resolution)
	l.mu.Unlock()
}

func (l *Locator) resolve() (string, error) {
	if l.override != "" {
		abs, err := filepath.Abs(l.override)
		if err != nil {
			return "", opErr("resolve storage root", "", ErrStorageUnavailable, err)
		}
		return abs, nil
	}

	home, err := l.homeDir()
	if err == nil && home == "" {
		err = fmt.Errorf("empty home directory")
	}
	if err != nil {
		return "", opErr("resolve storage root", "", ErrStorageUnavailable,
			fmt.Errorf("unable to determine home directory: %w", err))
	}
	return filepath.Join(home, appDir, dataDir), nil
}

func ensureDir(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return opErr("create storage directory", "", ErrIO, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return opErr("create storage directory", "", ErrIO, err)
	}
	if !info.IsDir() {
		return opErr("create storage directory", "", ErrIO, fmt.Errorf("%s is not a directory", root))
	}
	return nil
}
