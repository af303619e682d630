package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/git-pkgs/pkgdesc/internal/core"
)

type checkResult struct {
	Name     string   `json:"name" yaml:"name"`
	Version  string   `json:"version" yaml:"version"`
	Valid    bool     `json:"valid" yaml:"valid"`
	Problems []string `json:"problems,omitempty" yaml:"problems,omitempty"`
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the package descriptor",
		Long: `Validate the descriptor: name, version and description must be set,
every install requirement must be "name" or "name==version", no project
may be listed twice and a license, when given, must be an SPDX expression.

Exits non-zero when any problem is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			d, err := loadDescriptor(cfg)
			if err != nil {
				return err
			}

			verr := d.Validate()
			res := checkResult{Name: d.Name, Version: d.Version, Valid: verr == nil}
			var ve *core.ValidationError
			if errors.As(verr, &ve) {
				res.Problems = ve.Problems
			}

			out := cmd.OutOrStdout()
			if cfg.Output != "text" {
				if err := writeStructured(out, cfg.Output, res); err != nil {
					return err
				}
				return verr
			}

			if verr == nil {
				_, _ = fmt.Fprintf(out, "%s %s: ok\n", d.Name, d.Version)
				return nil
			}
			_, _ = fmt.Fprintf(out, "%s %s: %d problem(s)\n", d.Name, d.Version, len(res.Problems))
			for _, p := range res.Problems {
				_, _ = fmt.Fprintf(out, "  - %s\n", p)
			}
			return verr
		},
	}
}
