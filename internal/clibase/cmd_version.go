package clibase

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

const (
	depPrefixDefault  = "github.com/SkyMack"
	depPrefixFlagName = "dep-prefix"
)

func writeVersion(w io.Writer, name, depPrefix string) {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		fmt.Fprintf(w, "%s (build info unavailable)\n", name)
		return
	}
	fmt.Fprintf(w, "%s (%s %s)\n\n", name, buildInfo.Main.Path, buildInfo.Main.Version)

	fmt.Fprintf(w, "  Compiled with: %s\n", runtime.Compiler)
	fmt.Fprintf(w, "         GOARCH: %s\n", runtime.GOARCH)
	fmt.Fprintf(w, "           GOOS: %s\n", runtime.GOOS)
	fmt.Fprintf(w, "     Go Version: %s\n\n", runtime.Version())

	for _, pkg := range buildInfo.Deps {
		if !strings.HasPrefix(pkg.Path, depPrefix) {
			continue
		}
		line := fmt.Sprintf("%s %s", pkg.Path, pkg.Version)
		if pkg.Replace != nil {
			line = fmt.Sprintf("%s => %s %s", line, pkg.Replace.Path, pkg.Replace.Version)
		}
		fmt.Fprintf(w, "  %s\n", line)
	}
}

func addVersionCmd(rootCmd *cobra.Command) {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "output the binary version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			depPrefix, err := cmd.Flags().GetString(depPrefixFlagName)
			if err != nil {
				return err
			}
			writeVersion(cmd.OutOrStdout(), rootCmd.Name(), depPrefix)
			return nil
		},
	}
	versionCmd.Flags().String(depPrefixFlagName, depPrefixDefault, "only list dependencies under this module prefix")

	rootCmd.AddCommand(versionCmd)
}
