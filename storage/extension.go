package storage

import (
	"path"
	"slices"
	"strings"
)

// DefaultExtensions is the allow-list used when none is configured.
var DefaultExtensions = []string{"md", "tex"}

// ValidateExtension checks the final segment of filename against allowed.
// A dot-file such as ".md" has no extension.
func ValidateExtension(filename string, allowed []string) error {
	name := path.Base(filename)
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 || dot == len(name)-1 {
		return ErrMissingExtension
	}

	ext := name[dot+1:]
	if !slices.Contains(allowed, ext) {
		return &UnsupportedExtensionError{Ext: ext}
	}
	return nil
}
