// Package cfgerr defines the error kinds reported while building configurations.
package cfgerr

import (
	"errors"
	"fmt"
)

var (
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrDuplicateName       = errors.New("duplicate name")
	ErrTypeMismatch        = errors.New("type mismatch")
	ErrMalformed           = errors.New("malformed configuration")
	ErrCyclicReference     = errors.New("cyclic reference")
	ErrNotFound            = errors.New("not found")
)

// Error is a configuration error of a given Kind at Path.
// Path is a dotted location such as "OuterTrackerMCTruth.TH1TPart_Pt.Nbinsx".
type Error struct {
	Kind error
	Path string
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Path == "" && e.Msg == "":
		return e.Kind.Error()
	case e.Path == "":
		return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
	case e.Msg == "":
		return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Path)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind.Error(), e.Path, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

// New returns an *Error of the given kind.
func New(kind error, path, format string, args ...any) error {
	return &Error{Kind: kind, Path: path, Msg: fmt.Sprintf(format, args...)}
}

func Unresolved(path, name string) error {
	return &Error{Kind: ErrUnresolvedReference, Path: path, Msg: fmt.Sprintf("%q is not defined", name)}
}

func Duplicate(path, name string) error {
	return &Error{Kind: ErrDuplicateName, Path: path, Msg: fmt.Sprintf("%q declared more than once", name)}
}

func Mismatch(path, want, got string) error {
	return &Error{Kind: ErrTypeMismatch, Path: path, Msg: fmt.Sprintf("want %s, got %s", want, got)}
}

func Malformed(path, format string, args ...any) error {
	return New(ErrMalformed, path, format, args...)
}

// Join returns a dotted path of the non-empty parts.
func Join(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += "."
		}
		out += p
	}
	return out
}
