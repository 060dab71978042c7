package common

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a generation job or a single size failed
type ErrorKind int

const (
	// KindMissingSource means the source image does not exist. Nothing is produced.
	KindMissingSource ErrorKind = iota + 1
	// KindDecode means the source exists but could not be opened or decoded.
	KindDecode
	// KindOutputDir means the output directory could not be created.
	KindOutputDir
	// KindPerSize means one output failed; the remaining sizes were still attempted.
	KindPerSize
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingSource:
		return "missing source"
	case KindDecode:
		return "decode failure"
	case KindOutputDir:
		return "output directory"
	case KindPerSize:
		return "per-size failure"
	default:
		return "unknown"
	}
}

// GenerationError carries the kind of failure and the file it concerns
type GenerationError struct {
	Kind ErrorKind
	Path string
	Size int // 0 when the failure is not tied to one size
	Err  error
}

func (e *GenerationError) Error() string {
	if e.Size > 0 {
		return fmt.Sprintf("%s: %s (%dx%d): %v", e.Kind, e.Path, e.Size, e.Size, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a GenerationError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind == kind
	}
	return false
}
