// Package core provides the descriptor model, the requirement grammar and
// the registry system used to resolve requirements.
package core

import "time"

// Descriptor is the static metadata record describing how to build a
// distributable Python package.
type Descriptor struct {
	Name               string   `koanf:"name" json:"name" yaml:"name"`
	Version            string   `koanf:"version" json:"version" yaml:"version"`
	Description        string   `koanf:"description" json:"description" yaml:"description"`
	License            string   `koanf:"license" json:"license,omitempty" yaml:"license,omitempty"`
	InstallRequires    []string `koanf:"install_requires" json:"install_requires" yaml:"install_requires"`
	IncludePackageData bool     `koanf:"include_package_data" json:"include_package_data" yaml:"include_package_data"`
	Packages           []string `koanf:"packages" json:"packages,omitempty" yaml:"packages,omitempty"` // filled in by discovery
}

// Requirement is a parsed install_requires entry.
type Requirement struct {
	Name    string
	Version string // empty unless Pinned
	Pinned  bool
}

// Package represents metadata about a package from a registry.
type Package struct {
	Name        string
	Description string
	Homepage    string
	Repository  string
	Licenses    string
	Keywords    []string
	Metadata    map[string]any // registry-specific data
}

// Version represents a specific version of a package.
type Version struct {
	Number      string
	PublishedAt time.Time
	Licenses    string
	Integrity   string        // sha256-...
	Status      VersionStatus // "", "yanked"
	Metadata    map[string]any
}

// VersionStatus represents the status of a package version.
type VersionStatus string

const (
	StatusNone       VersionStatus = ""
	StatusYanked     VersionStatus = "yanked"
	StatusDeprecated VersionStatus = "deprecated"
)

// Dependency represents a dependency declared by a published release.
type Dependency struct {
	Name         string
	Requirements string
	Scope        Scope
	Optional     bool
}

// Scope indicates when a dependency is required.
type Scope string

const (
	Runtime     Scope = "runtime"
	Development Scope = "development"
	Test        Scope = "test"
	Build       Scope = "build"
	Optional    Scope = "optional"
)
