package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/git-pkgs/pkgdesc/client"
	"github.com/git-pkgs/pkgdesc/discover"
	"github.com/git-pkgs/pkgdesc/internal/config"
	"github.com/git-pkgs/pkgdesc/internal/core"
	_ "github.com/git-pkgs/pkgdesc/internal/pypi"
)

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported output format %q", format)
}

func newTable(w io.Writer, header ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row(header))
	return t
}

// loadDescriptor reads the configured descriptor and fills in the packages
// found under the configured root.
func loadDescriptor(cfg *config.Config) (*core.Descriptor, error) {
	d, err := config.LoadDescriptor(cfg.Descriptor)
	if err != nil {
		return nil, err
	}
	pkgs, err := discover.FindPackages(cfg.Root, discover.Exclude(cfg.Exclude...))
	if err != nil {
		return nil, fmt.Errorf("discovering packages in %s: %w", cfg.Root, err)
	}
	return d.WithPackages(pkgs), nil
}

func userAgent() string {
	return "pkgdesc/" + Version
}

func newRegistry(cfg *config.Config) (core.Registry, error) {
	c := client.NewClient(
		client.WithTimeout(cfg.Timeout),
		client.WithMaxRetries(cfg.MaxRetries),
	).WithUserAgent(userAgent())
	return core.New("pypi", cfg.RegistryURL, c)
}

// verify resolves every requirement of d against the configured registry.
func verify(ctx context.Context, cfg *config.Config, reg core.Registry, d *core.Descriptor) (*core.Report, error) {
	reqs, err := d.Requirements()
	if err != nil {
		return nil, err
	}
	return core.VerifyRequirements(ctx, reg, reqs,
		core.WithConcurrency(cfg.Concurrency),
		core.WithLogger(config.GetLogger(ctx)),
	)
}

type resolutionView struct {
	Requirement string      `json:"requirement" yaml:"requirement"`
	Resolved    string      `json:"resolved,omitempty" yaml:"resolved,omitempty"`
	Status      core.Status `json:"status" yaml:"status"`
	PURL        string      `json:"purl,omitempty" yaml:"purl,omitempty"`
	Integrity   string      `json:"integrity,omitempty" yaml:"integrity,omitempty"`
	Error       string      `json:"error,omitempty" yaml:"error,omitempty"`
}

func reportView(r *core.Report) []resolutionView {
	out := make([]resolutionView, 0, len(r.Resolutions))
	for _, res := range r.Resolutions {
		v := resolutionView{
			Requirement: res.Requirement.String(),
			Resolved:    res.Resolved,
			Status:      res.Status,
			PURL:        res.PURL,
			Integrity:   res.Integrity,
		}
		if res.Err != nil {
			v.Error = res.Err.Error()
		}
		out = append(out, v)
	}
	return out
}

func lines(items []string) string {
	return strings.Join(items, "\n")
}
