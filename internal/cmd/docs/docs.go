// Package docs provides the hidden docs command.
package docs

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/schmitthub/gantry/internal/cmdutil"
	gendocs "github.com/schmitthub/gantry/internal/docs"
)

// NewCmdDocs creates the hidden docs command, which regenerates the
// markdown reference from the live command tree.
func NewCmdDocs(f *cmdutil.Factory) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:    "docs",
		Short:  "Generate markdown reference documentation",
		Hidden: true,
		Args:   cmdutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			if err := gendocs.GenMarkdownTree(cmd.Root(), dir); err != nil {
				return err
			}
			return f.IOStreams.PrintSuccess("Wrote docs to %s", dir)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "./docs", "Output directory")

	return cmd
}
