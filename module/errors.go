package module

import (
	"fmt"

	"emperror.dev/errors"
)

// Kind classifies lifecycle failures.
type Kind string

const (
	KindNotFound               Kind = "not_found"
	KindPackageUnavailable     Kind = "package_unavailable"
	KindDescriptorMissing      Kind = "descriptor_missing"
	KindNotInstalled           Kind = "not_installed"
	KindMigrationFailed        Kind = "migration_failed"
	KindMigrationTimeout       Kind = "migration_timeout"
	KindDurableListWriteFailed Kind = "durable_list_write_failed"
	KindStoreFailed            Kind = "store_failed"
)

// Sentinels for errors.Is; an *Error matches the sentinel of its Kind.
var (
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrPackageUnavailable     = &Error{Kind: KindPackageUnavailable}
	ErrDescriptorMissing      = &Error{Kind: KindDescriptorMissing}
	ErrNotInstalled           = &Error{Kind: KindNotInstalled}
	ErrMigrationFailed        = &Error{Kind: KindMigrationFailed}
	ErrMigrationTimeout       = &Error{Kind: KindMigrationTimeout}
	ErrDurableListWriteFailed = &Error{Kind: KindDurableListWriteFailed}
	ErrStoreFailed            = &Error{Kind: KindStoreFailed}
)

// Error carries the offending identifier and the underlying cause.
type Error struct {
	Kind       Kind
	Identifier string
	Cause      error
}

// NewError builds an *Error of kind for identifier.
func NewError(kind Kind, identifier string, cause error) *Error {
	return &Error{Kind: kind, Identifier: identifier, Cause: cause}
}

func (e *Error) Error() string {
	msg := e.message()
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) message() string {
	id := e.Identifier
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("module '%s' not found in registry", id)
	case KindPackageUnavailable:
		return fmt.Sprintf("module package '%s' is not available to this process", id)
	case KindDescriptorMissing:
		return fmt.Sprintf("module '%s' does not expose a valid module info", id)
	case KindNotInstalled:
		return fmt.Sprintf("module '%s' is not installed, install it first", id)
	case KindMigrationFailed:
		return fmt.Sprintf("schema migration for module '%s' failed", id)
	case KindMigrationTimeout:
		return fmt.Sprintf("schema migration for module '%s' timed out", id)
	case KindDurableListWriteFailed:
		return fmt.Sprintf("could not update the enablement list for module '%s'", id)
	case KindStoreFailed:
		return fmt.Sprintf("could not persist module '%s'", id)
	default:
		return fmt.Sprintf("module '%s': %s", id, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error of the same Kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return ""
}
