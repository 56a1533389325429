// Package config provides the config command group.
package config

import (
	"github.com/spf13/cobra"

	"github.com/schmitthub/gantry/internal/cmd/config/check"
	"github.com/schmitthub/gantry/internal/cmdutil"
)

// NewCmdConfig creates the config command group.
func NewCmdConfig(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate gantry configuration",
	}

	cmd.AddCommand(check.NewCmdCheck(f, nil))

	return cmd
}
