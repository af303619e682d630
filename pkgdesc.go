// Package pkgdesc describes a Python distribution and checks its pinned
// install requirements against PyPI.
//
// The package exposes the descriptor model, the "name" / "name==version"
// requirement grammar and a PyPI registry client with retries.
//
// Basic usage:
//
//	d := pkgdesc.Trainer()
//	if err := d.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
//	reg, err := pkgdesc.New("pypi", "", pkgdesc.DefaultClient())
//	if err != nil {
//		log.Fatal(err)
//	}
//	reqs, _ := d.Requirements()
//	report, err := pkgdesc.VerifyRequirements(context.Background(), reg, reqs)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, r := range report.Resolutions {
//		fmt.Println(r.Requirement, r.Status, r.Resolved)
//	}
package pkgdesc

import (
	"context"

	"github.com/git-pkgs/pkgdesc/client"
	"github.com/git-pkgs/pkgdesc/internal/core"
	_ "github.com/git-pkgs/pkgdesc/internal/pypi"
)

// Re-export types from internal/core
type (
	// Descriptor is the static metadata record of a distribution.
	Descriptor = core.Descriptor

	// Requirement is a parsed install_requires entry.
	Requirement = core.Requirement

	// Registry is the interface implemented by registry clients.
	Registry = core.Registry

	// Package represents metadata about a package from a registry.
	Package = core.Package

	// Version represents a specific version of a package.
	Version = core.Version

	// Dependency represents a dependency declared by a published release.
	Dependency = core.Dependency

	// Scope indicates when a dependency is required.
	Scope = core.Scope

	// VersionStatus represents the status of a package version.
	VersionStatus = core.VersionStatus

	// Report is the ordered result of VerifyRequirements.
	Report = core.Report

	// Resolution records how one requirement resolved.
	Resolution = core.Resolution

	// Status is the outcome of resolving one requirement.
	Status = core.Status

	// VerifyOption configures VerifyRequirements.
	VerifyOption = core.VerifyOption
)

// Re-export types from client
type (
	// Client is an HTTP client with retry logic for registry APIs.
	Client = client.Client

	// URLBuilder constructs URLs for a registry.
	URLBuilder = client.URLBuilder

	// RateLimiter controls request pacing.
	RateLimiter = client.RateLimiter
)

// Re-export constants
const (
	Runtime     = core.Runtime
	Development = core.Development
	Test        = core.Test
	Build       = core.Build
	Optional    = core.Optional

	StatusNone       = core.StatusNone
	StatusYanked     = core.StatusYanked
	StatusDeprecated = core.StatusDeprecated

	StatusOK             = core.StatusOK
	StatusResolved       = core.StatusResolved
	StatusYankedPin      = core.StatusYankedPin
	StatusMissingVersion = core.StatusMissingVersion
	StatusMissingPackage = core.StatusMissingPackage
	StatusUnresolved     = core.StatusUnresolved
	StatusError          = core.StatusError
)

// Re-export errors
var (
	ErrNotFound           = client.ErrNotFound
	ErrInvalidRequirement = core.ErrInvalidRequirement
)

// Error types
type (
	HTTPError               = client.HTTPError
	NotFoundError           = client.NotFoundError
	RateLimitError          = client.RateLimitError
	InvalidRequirementError = core.InvalidRequirementError
	ValidationError         = core.ValidationError
)

// Trainer returns the descriptor of the training application package.
// Each call builds a fresh value.
func Trainer() *Descriptor {
	return core.Trainer()
}

// ParseRequirement parses a single "name" or "name==version" entry.
func ParseRequirement(s string) (Requirement, error) {
	return core.ParseRequirement(s)
}

// ParseRequirements parses entries in order and joins every failure.
func ParseRequirements(entries []string) ([]Requirement, error) {
	return core.ParseRequirements(entries)
}

// NormalizeName applies PEP 503 name normalization.
func NormalizeName(name string) string {
	return core.NormalizeName(name)
}

// New creates a new registry for the given ecosystem.
// If baseURL is empty, the default registry URL is used.
// If client is nil, DefaultClient() is used.
//
// Supported ecosystems: "pypi"
func New(ecosystem string, baseURL string, c *Client) (Registry, error) {
	return core.New(ecosystem, baseURL, c)
}

// DefaultClient returns a client with sensible defaults:
// - 30s timeout
// - 5 retries with exponential backoff
// - Retry on 429 and 5xx responses
func DefaultClient() *Client {
	return client.DefaultClient()
}

// NewClient creates a new client with the given options.
func NewClient(opts ...Option) *Client {
	return client.NewClient(opts...)
}

// Option configures a Client.
type Option = client.Option

// WithTimeout sets the HTTP client timeout.
var WithTimeout = client.WithTimeout

// WithMaxRetries sets the maximum number of retries.
var WithMaxRetries = client.WithMaxRetries

// WithConcurrency limits the number of parallel registry lookups.
var WithConcurrency = core.WithConcurrency

// WithLogger sets the logger used while verifying.
var WithLogger = core.WithLogger

// SupportedEcosystems returns all registered ecosystem types.
func SupportedEcosystems() []string {
	return core.SupportedEcosystems()
}

// BuildURLs returns a map of all non-empty URLs for a package.
// Keys are "registry", "download", "docs", and "purl".
func BuildURLs(urls URLBuilder, name, version string) map[string]string {
	return client.BuildURLs(urls, name, version)
}

// DefaultURL returns the default registry URL for an ecosystem.
func DefaultURL(ecosystem string) string {
	return core.DefaultURL(ecosystem)
}

// PURL represents a parsed Package URL.
type PURL = core.PURL

// ParsePURL parses a Package URL string into its components.
func ParsePURL(purlStr string) (*PURL, error) {
	return core.ParsePURL(purlStr)
}

// NewFromPURL creates a registry client from a PURL and returns the parsed components.
// Returns the registry, full package name, and version (empty if not in PURL).
func NewFromPURL(purl string, c *Client) (Registry, string, string, error) {
	return core.NewFromPURL(purl, c)
}

// FetchVersionFromPURL fetches a specific version's metadata using a PURL.
// Returns an error if the PURL doesn't include a version.
func FetchVersionFromPURL(ctx context.Context, purl string, c *Client) (*Version, error) {
	return core.FetchVersionFromPURL(ctx, purl, c)
}

// FetchDependenciesFromPURL fetches dependencies for a specific version using a PURL.
// Returns an error if the PURL doesn't include a version.
func FetchDependenciesFromPURL(ctx context.Context, purl string, c *Client) ([]Dependency, error) {
	return core.FetchDependenciesFromPURL(ctx, purl, c)
}

// FetchLatestVersion returns the latest non-yanked version.
// Returns nil if no valid versions exist.
func FetchLatestVersion(ctx context.Context, reg Registry, name string) (*Version, error) {
	return core.FetchLatestVersion(ctx, reg, name)
}

// FindVersion returns the named release of a package.
func FindVersion(ctx context.Context, reg Registry, name, version string) (*Version, error) {
	return core.FindVersion(ctx, reg, name, version)
}

// VerifyRequirements resolves every requirement against reg in parallel.
// Per-requirement failures are recorded in the report.
func VerifyRequirements(ctx context.Context, reg Registry, reqs []Requirement, opts ...VerifyOption) (*Report, error) {
	return core.VerifyRequirements(ctx, reg, reqs, opts...)
}
