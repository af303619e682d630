package cli

import (
	"github.com/spf13/cobra"

	"github.com/git-pkgs/pkgdesc/render"
)

func newRenderCommand() *cobra.Command {
	valid := make([]string, len(render.Formats))
	for i, f := range render.Formats {
		valid[i] = string(f)
	}

	return &cobra.Command{
		Use:   "render <format>",
		Short: "Render the descriptor as setup.py, requirements.txt, PKG-INFO, JSON or YAML",
		Example: `  pkgdesc render setup.py > setup.py
  pkgdesc render requirements.txt
  pkgdesc render pkg-info --descriptor scorer.yaml`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: valid,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(args[0])
			if err != nil {
				return err
			}
			d, err := loadDescriptor(getConfig(cmd.Context()))
			if err != nil {
				return err
			}
			return render.Render(cmd.OutOrStdout(), d, f)
		},
	}
}
