package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindNotFound            ErrorKind = "not_found"
	KindUnsupportedTopology ErrorKind = "unsupported_topology"
	KindAffiliationConflict ErrorKind = "affiliation_conflict"
	KindAlreadyFinalized    ErrorKind = "already_finalized"
	KindInternalConsistency ErrorKind = "internal_consistency"
)

// Error is a ledger error the calling layer translates into its own messages.
// Errors of every kind abort the enclosing transaction and are never retried.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is matches on Kind so callers can use errors.Is with the sentinels below.
// ErrValidation also matches not-found errors, which are missing lookups.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Msg != "" {
		return false
	}
	if t.Kind == KindValidation && e.Kind == KindNotFound {
		return true
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrUnsupportedTopology = &Error{Kind: KindUnsupportedTopology}
	ErrAffiliationConflict = &Error{Kind: KindAffiliationConflict}
	ErrAlreadyFinalized    = &Error{Kind: KindAlreadyFinalized}
	ErrInternalConsistency = &Error{Kind: KindInternalConsistency}
)

func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func UnsupportedTopologyf(format string, args ...any) error {
	return &Error{Kind: KindUnsupportedTopology, Msg: fmt.Sprintf(format, args...)}
}

func AffiliationConflictf(format string, args ...any) error {
	return &Error{Kind: KindAffiliationConflict, Msg: fmt.Sprintf(format, args...)}
}

func AlreadyFinalizedf(format string, args ...any) error {
	return &Error{Kind: KindAlreadyFinalized, Msg: fmt.Sprintf(format, args...)}
}

func InternalConsistencyf(format string, args ...any) error {
	return &Error{Kind: KindInternalConsistency, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first ledger error in err's chain, or "" for
// infrastructure errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsDomain reports whether err carries a ledger error kind.
func IsDomain(err error) bool {
	return KindOf(err) != ""
}
