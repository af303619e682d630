package core

import (
	"fmt"
	"slices"
	"strings"

	"github.com/github/go-spdx/v2/spdxexp"
)

// Trainer returns the descriptor of the training application package.
// Each call builds a fresh value.
func Trainer() *Descriptor {
	return &Descriptor{
		Name:    "trainer",
		Version: "0.1",
		InstallRequires: []string{
			"cloudml-hypertune",
			"google-cloud-bigquery==1.17.0",
			"pandas-gbq==0.11.0",
		},
		IncludePackageData: true,
		Description:        "My training application package",
	}
}

// Clone returns a deep copy of d.
func (d *Descriptor) Clone() *Descriptor {
	cp := *d
	cp.InstallRequires = slices.Clone(d.InstallRequires)
	cp.Packages = slices.Clone(d.Packages)
	return &cp
}

// WithPackages returns a copy of d carrying the discovered packages.
func (d *Descriptor) WithPackages(pkgs []string) *Descriptor {
	cp := d.Clone()
	cp.Packages = slices.Clone(pkgs)
	return cp
}

// Requirements parses InstallRequires in declaration order.
func (d *Descriptor) Requirements() ([]Requirement, error) {
	return ParseRequirements(d.InstallRequires)
}

// Validate reports every structural problem with the descriptor.
// It returns nil or a *ValidationError.
func (d *Descriptor) Validate() error {
	var problems []string

	if strings.TrimSpace(d.Name) == "" {
		problems = append(problems, "name is empty")
	} else if !nameRegex.MatchString(d.Name) {
		problems = append(problems, fmt.Sprintf("name %q is not a valid project name", d.Name))
	}
	if strings.TrimSpace(d.Version) == "" {
		problems = append(problems, "version is empty")
	}
	if strings.TrimSpace(d.Description) == "" {
		problems = append(problems, "description is empty")
	}

	seen := make(map[string]string, len(d.InstallRequires))
	for _, entry := range d.InstallRequires {
		r, err := ParseRequirement(entry)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		norm := r.NormalizedName()
		if prev, ok := seen[norm]; ok {
			problems = append(problems, fmt.Sprintf("requirement %q duplicates %q", entry, prev))
			continue
		}
		seen[norm] = entry
	}

	if d.License != "" {
		if ok, _ := spdxexp.ValidateLicenses([]string{d.License}); !ok {
			problems = append(problems, fmt.Sprintf("license %q is not a valid SPDX expression", d.License))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}
