package core

import (
	"context"
	"fmt"

	packageurl "github.com/package-url/packageurl-go"
)

// PURL wraps packageurl.PackageURL with registry-specific helpers.
type PURL struct {
	packageurl.PackageURL
}

// FullName returns the package name in the format expected by the registry.
func (p PURL) FullName() string {
	if p.Namespace == "" {
		return p.Name
	}
	return p.Namespace + "/" + p.Name
}

// Requirement converts the PURL to an install_requires entry.
// A versioned PURL becomes an exact pin.
func (p PURL) Requirement() Requirement {
	return Requirement{
		Name:    p.FullName(),
		Version: p.Version,
		Pinned:  p.Version != "",
	}
}

// ParsePURL parses a Package URL string into its components.
// Supports both package PURLs (pkg:pypi/pandas-gbq) and version PURLs (pkg:pypi/pandas-gbq@0.11.0).
func ParsePURL(purl string) (*PURL, error) {
	p, err := packageurl.FromString(purl)
	if err != nil {
		return nil, err
	}
	return &PURL{p}, nil
}

// NewFromPURL creates a registry client from a PURL and returns the parsed components.
// Returns the registry, full package name, and version (empty if not in PURL).
// A repository_url qualifier overrides the registry base URL.
func NewFromPURL(purl string, client *Client) (Registry, string, string, error) {
	p, err := ParsePURL(purl)
	if err != nil {
		return nil, "", "", err
	}

	baseURL := p.Qualifiers.Map()["repository_url"]

	reg, err := New(p.Type, baseURL, client)
	if err != nil {
		return nil, "", "", err
	}

	return reg, p.FullName(), p.Version, nil
}

// FetchVersionFromPURL fetches a specific version's metadata using a PURL.
// Returns an error if the PURL doesn't include a version.
func FetchVersionFromPURL(ctx context.Context, purl string, client *Client) (*Version, error) {
	reg, name, version, err := NewFromPURL(purl, client)
	if err != nil {
		return nil, err
	}
	if version == "" {
		return nil, fmt.Errorf("PURL has no version: %s", purl)
	}
	return FindVersion(ctx, reg, name, version)
}

// FetchDependenciesFromPURL fetches dependencies for a specific version using a PURL.
// Returns an error if the PURL doesn't include a version.
func FetchDependenciesFromPURL(ctx context.Context, purl string, client *Client) ([]Dependency, error) {
	reg, name, version, err := NewFromPURL(purl, client)
	if err != nil {
		return nil, err
	}
	if version == "" {
		return nil, fmt.Errorf("PURL has no version: %s", purl)
	}
	return reg.FetchDependencies(ctx, name, version)
}
