package core

import (
	"errors"
	"regexp"
	"strings"

	packageurl "github.com/package-url/packageurl-go"
)

// PinSeparator separates a name from its exact version in a pinned requirement.
const PinSeparator = "=="

var (
	nameRegex    = regexp.MustCompile(`^([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9])$`)
	versionRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.+!_-]*$`)
	separators   = regexp.MustCompile(`[-_.]+`)
)

// ParseRequirement parses an install_requires entry.
// Accepted forms are a bare name ("cloudml-hypertune") and an exact pin
// ("pandas-gbq==0.11.0"). Surrounding whitespace is ignored.
func ParseRequirement(s string) (Requirement, error) {
	input := strings.TrimSpace(s)
	if input == "" {
		return Requirement{}, &InvalidRequirementError{Input: s, Reason: "empty"}
	}

	parts := strings.Split(input, PinSeparator)
	switch len(parts) {
	case 1:
		name := parts[0]
		if !nameRegex.MatchString(name) {
			return Requirement{}, &InvalidRequirementError{Input: s, Reason: "name must be letters, digits, '-', '_' or '.'"}
		}
		return Requirement{Name: name}, nil

	case 2:
		name := strings.TrimSpace(parts[0])
		version := strings.TrimSpace(parts[1])
		if name == "" {
			return Requirement{}, &InvalidRequirementError{Input: s, Reason: "missing name before =="}
		}
		if version == "" {
			return Requirement{}, &InvalidRequirementError{Input: s, Reason: "missing version after =="}
		}
		if !nameRegex.MatchString(name) {
			return Requirement{}, &InvalidRequirementError{Input: s, Reason: "name must be letters, digits, '-', '_' or '.'"}
		}
		if !versionRegex.MatchString(version) {
			return Requirement{}, &InvalidRequirementError{Input: s, Reason: "version contains unsupported characters"}
		}
		return Requirement{Name: name, Version: version, Pinned: true}, nil

	default:
		return Requirement{}, &InvalidRequirementError{Input: s, Reason: "more than one =="}
	}
}

// ParseRequirements parses every entry, keeping declaration order.
// All failures are returned joined together.
func ParseRequirements(entries []string) ([]Requirement, error) {
	reqs := make([]Requirement, 0, len(entries))
	var errs []error
	for _, e := range entries {
		r, err := ParseRequirement(e)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		reqs = append(reqs, r)
	}
	return reqs, errors.Join(errs...)
}

// String returns the canonical install_requires form.
func (r Requirement) String() string {
	if r.Pinned {
		return r.Name + PinSeparator + r.Version
	}
	return r.Name
}

// NormalizedName returns the PEP 503 form of the name.
func (r Requirement) NormalizedName() string {
	return NormalizeName(r.Name)
}

// PURL returns the package URL, with a version only for pinned requirements.
func (r Requirement) PURL() string {
	p := packageurl.NewPackageURL(packageurl.TypePyPi, "", r.NormalizedName(), r.Version, nil, "")
	return p.ToString()
}

// NormalizeName lowercases a Python project name and collapses runs of
// "-", "_" and "." into a single "-".
func NormalizeName(name string) string {
	return separators.ReplaceAllString(strings.ToLower(name), "-")
}
