package storage

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidExtension   = errors.New("invalid extension")
	ErrPathEscapesRoot    = errors.New("path escapes storage root")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrIO                 = errors.New("io error")
	ErrEncoding           = errors.New("encoding error")

	// ErrCommitted marks a failure that happened after the filesystem
	// mutation already took effect.
	ErrCommitted = errors.New("mutation committed")

	ErrMissingExtension = fmt.Errorf("%w: file must have an extension", ErrInvalidExtension)
)

// OpError records the operation, the entry it was applied to, the failure
// kind (one of the sentinels above) and the underlying cause if any.
type OpError struct {
	Op   string
	ID   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	msg := e.Op
	if e.ID != "" {
		msg += " " + quoteID(e.ID)
	}
	if e.Err != nil && !errors.Is(e.Err, e.Kind) {
		return fmt.Sprintf("%s: %v: %v", msg, e.Kind, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("%s: %v", msg, e.Kind)
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// UnsupportedExtensionError reports an extension outside the allow-list.
type UnsupportedExtensionError struct {
	Ext string
}

func (e *UnsupportedExtensionError) Error() string {
	return fmt.Sprintf("unsupported file extension: .%s", e.Ext)
}

func (e *UnsupportedExtensionError) Unwrap() error { return ErrInvalidExtension }

// EncodingError reports file content that is not valid UTF-8 text.
type EncodingError struct {
	ID      string
	Charset string
}

func (e *EncodingError) Error() string {
	if e.Charset == "" {
		return fmt.Sprintf("%s is not valid UTF-8 text", quoteID(e.ID))
	}
	return fmt.Sprintf("%s is not valid UTF-8 text (looks like %s)", quoteID(e.ID), e.Charset)
}

func (e *EncodingError) Unwrap() error { return ErrEncoding }

// CommittedError is returned when a rename or create reached the disk but
// the tree returned to the caller could not be rebuilt.
type CommittedError struct {
	Op  string
	ID  string
	Err error
}

func (e *CommittedError) Error() string {
	return fmt.Sprintf("%s %s committed, but reading it back failed: %v", e.Op, quoteID(e.ID), e.Err)
}

func (e *CommittedError) Unwrap() []error { return []error{ErrCommitted, e.Err} }

// Kind classifies err for transports. Unknown errors map to "IoError".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCommitted):
		return "Committed"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrAlreadyExists):
		return "AlreadyExists"
	case errors.Is(err, ErrInvalidExtension):
		return "InvalidExtension"
	case errors.Is(err, ErrPathEscapesRoot):
		return "PathEscapesRoot"
	case errors.Is(err, ErrStorageUnavailable):
		return "StorageUnavailable"
	case errors.Is(err, ErrEncoding):
		return "EncodingError"
	default:
		return "IoError"
	}
}

func opErr(op, id string, kind, err error) error {
	return &OpError{Op: op, ID: id, Kind: kind, Err: err}
}

func quoteID(id string) string {
	if id == "" {
		return "<root>"
	}
	return fmt.Sprintf("%q", id)
}
