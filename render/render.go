// Package render writes a descriptor in the formats Python packaging tools read.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/git-pkgs/pkgdesc/internal/core"
)

// Format names an output format.
type Format string

const (
	SetupPy      Format = "setup.py"
	Requirements Format = "requirements.txt"
	PKGInfo      Format = "pkg-info"
	JSON         Format = "json"
	YAML         Format = "yaml"
)

// Formats lists every supported format in display order.
var Formats = []Format{SetupPy, Requirements, PKGInfo, JSON, YAML}

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "setup", "setup.py":
		return SetupPy, nil
	case "requirements", "requirements.txt":
		return Requirements, nil
	case "pkg-info", "pkginfo", "metadata":
		return PKGInfo, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// Render writes d to w in the given format.
func Render(w io.Writer, d *core.Descriptor, f Format) error {
	switch f {
	case SetupPy:
		return renderSetupPy(w, d)
	case Requirements:
		return renderRequirements(w, d)
	case PKGInfo:
		return renderPKGInfo(w, d)
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q", f)
}

func renderSetupPy(w io.Writer, d *core.Descriptor) error {
	var b strings.Builder
	b.WriteString("from setuptools import find_packages\n")
	b.WriteString("from setuptools import setup\n\n")

	quoted := make([]string, len(d.InstallRequires))
	for i, r := range d.InstallRequires {
		quoted[i] = pyString(r)
	}
	fmt.Fprintf(&b, "REQUIRED_PACKAGES = [%s]\n\n", strings.Join(quoted, ", "))

	b.WriteString("setup(\n")
	fmt.Fprintf(&b, "    name=%s,\n", pyString(d.Name))
	fmt.Fprintf(&b, "    version=%s,\n", pyString(d.Version))
	b.WriteString("    install_requires=REQUIRED_PACKAGES,\n")
	b.WriteString("    packages=find_packages(),\n")
	fmt.Fprintf(&b, "    include_package_data=%s,\n", pyBool(d.IncludePackageData))
	if d.License != "" {
		fmt.Fprintf(&b, "    license=%s,\n", pyString(d.License))
	}
	fmt.Fprintf(&b, "    description=%s,\n", pyString(d.Description))
	b.WriteString(")\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func renderRequirements(w io.Writer, d *core.Descriptor) error {
	var b strings.Builder
	for _, r := range d.InstallRequires {
		b.WriteString(strings.TrimSpace(r))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// renderPKGInfo writes core metadata version 2.1.
func renderPKGInfo(w io.Writer, d *core.Descriptor) error {
	var b strings.Builder
	b.WriteString("Metadata-Version: 2.1\n")
	fmt.Fprintf(&b, "Name: %s\n", d.Name)
	fmt.Fprintf(&b, "Version: %s\n", d.Version)
	fmt.Fprintf(&b, "Summary: %s\n", oneLine(d.Description))
	if d.License != "" {
		fmt.Fprintf(&b, "License: %s\n", d.License)
	}
	for _, r := range d.InstallRequires {
		fmt.Fprintf(&b, "Requires-Dist: %s\n", strings.TrimSpace(r))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// pyString quotes s as a single-quoted Python literal.
func pyString(s string) string {
	q := strconv.Quote(s)
	q = strings.ReplaceAll(q[1:len(q)-1], `\"`, `"`)
	return "'" + strings.ReplaceAll(q, "'", `\'`) + "'"
}

func pyBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
