package core

import (
	"fmt"

	"github.com/git-pkgs/checklatest/client"
)

// NotFoundError wraps client.ErrNotFound with additional context.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("crate %s not found", e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return client.ErrNotFound
}

// DecodeError reports a registry response that could not be turned into a
// usable VersionSet: invalid JSON, a missing field, or a version string
// that fails semver parsing. One bad entry fails the whole retrieval; a
// silently shrunk version list could answer "no update available" wrongly.
type DecodeError struct {
	Field string // JSON field that failed, e.g. "versions", "num", "created_at"
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decoding %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("decoding %q: field missing", e.Field)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// InputError reports that the caller's own input (the current version
// string) could not be parsed. Kept distinct from DecodeError so callers
// can tell their mistake from a registry or network problem.
type InputError struct {
	Value string
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid current version %q: %v", e.Value, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}
