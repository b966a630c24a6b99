// Package apperr defines the error taxonomy shared by every component.
package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")

	// ErrIO covers open/read/write failures on the hosts file and its temp and backup siblings.
	ErrIO = errors.New("hosts file i/o failure")
	// ErrElevation is returned when the elevated side channel exits non-zero. A declined
	// prompt and a failing script are not distinguished.
	ErrElevation = errors.New("elevation failed")
	// ErrEnumeration is logged when the OS interface query fails; the classifier degrades to empty.
	ErrEnumeration = errors.New("interface enumeration failed")
	// ErrSnapshot marks an unreadable snapshot, which is treated as absent.
	ErrSnapshot = errors.New("snapshot unreadable")
)
