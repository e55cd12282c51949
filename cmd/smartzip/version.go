package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// compressModule writes every archive entry.
const compressModule = "github.com/klauspost/compress"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the smartzip build",
	Long: `Print the smartzip release, the commit and date it was built from,
and the Go toolchain and deflate library it was compiled with.

Archives written by different deflate library versions can differ
byte-for-byte while holding the same files.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "smartzip %s\n", version)
		fmt.Fprintf(out, "  commit:   %s\n", commit)
		fmt.Fprintf(out, "  built:    %s\n", date)
		fmt.Fprintf(out, "  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "  deflate:  %s %s\n", compressModule, moduleVersion(compressModule))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// moduleVersion reports the version of a dependency linked into the binary.
func moduleVersion(path string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range info.Deps {
		if dep.Path != path {
			continue
		}
		if dep.Replace != nil {
			return dep.Replace.Version
		}
		return dep.Version
	}
	return "unknown"
}
