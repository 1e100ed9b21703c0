package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X ...cli.Version=v1.2.3".
var Version = "dev"

// VersionInfo is the version command output.
type VersionInfo struct {
	Version string `json:"version"`
	Go      string `json:"go"`
}

// RenderText implements textRenderer.
func (v VersionInfo) RenderText(w io.Writer) {
	fmt.Fprintf(w, "relfilter %s (%s)\n", v.Version, v.Go)
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print the version",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return formatter.Success(VersionInfo{Version: Version, Go: runtime.Version()})
		},
	}
}
