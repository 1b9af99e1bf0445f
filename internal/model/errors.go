package model

import "errors"

// ErrorKind classifies pipeline failures. Row-local parse failures are
// recovered where they occur and surface only as drop counts; every
// other kind aborts the run.
type ErrorKind int

const (
	// KindFetch is a network or transport failure while retrieving the
	// source document.
	KindFetch ErrorKind = iota + 1
	// KindExtraction means the PDF yielded no extractable tables or was
	// malformed.
	KindExtraction
	// KindParse is a row-granular date/score failure. Non-fatal.
	KindParse
	// KindSchema means a stored file has unexpected columns. Fatal;
	// never silently coerced.
	KindSchema
	// KindWrite means an atomic replace failed. The original file is
	// left untouched.
	KindWrite
)

// String returns the kind's short name.
func (k ErrorKind) String() string {
	switch k {
	case KindFetch:
		return "fetch"
	case KindExtraction:
		return "extraction"
	case KindParse:
		return "parse"
	case KindSchema:
		return "schema"
	case KindWrite:
		return "write"
	default:
		return "unknown"
	}
}

// KindError tags an underlying error with its taxonomy kind.
type KindError struct {
	Kind ErrorKind
	Err  error
}

func (e *KindError) Error() string {
	return e.Kind.String() + " error: " + e.Err.Error()
}

func (e *KindError) Unwrap() error {
	return e.Err
}

// WrapKind tags err with the given kind. Returns nil if err is nil.
func WrapKind(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{Kind: kind, Err: err}
}

// IsKind reports whether any error in err's chain carries the kind.
func IsKind(err error, kind ErrorKind) bool {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind == kind
	}
	return false
}
