package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/git-pkgs/pkgdesc/client"
)

// ErrNotFound is returned when a package or version is not found.
var ErrNotFound = client.ErrNotFound

type (
	HTTPError      = client.HTTPError
	NotFoundError  = client.NotFoundError
	RateLimitError = client.RateLimitError
)

// ErrInvalidRequirement is returned when an install_requires entry does not
// follow the "name" or "name==version" grammar.
var ErrInvalidRequirement = errors.New("invalid requirement")

// InvalidRequirementError describes why a requirement string was rejected.
type InvalidRequirementError struct {
	Input  string
	Reason string
}

func (e *InvalidRequirementError) Error() string {
	return fmt.Sprintf("invalid requirement %q: %s", e.Input, e.Reason)
}

func (e *InvalidRequirementError) Unwrap() error {
	return ErrInvalidRequirement
}

// ValidationError collects every problem found in a descriptor.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid descriptor: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid descriptor: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}
