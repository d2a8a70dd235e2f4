package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/calumari/restitch/internal/logger"
)

// deriveVersion inspects build info for module version or vcs revision.
// preference order: module semantic version -> short commit hash -> "devel".
func deriveVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok {
		return versionFrom(bi)
	}
	return "devel"
}

func versionFrom(bi *debug.BuildInfo) string {
	if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	var revision string
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			revision = s.Value
			break
		}
	}
	if len(revision) >= 12 {
		return revision[:12]
	}
	if revision != "" {
		return revision
	}
	return "devel"
}

func newRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "restitch",
		Short: "Restructure generated API client declarations",
		Long: `restitch merges the partial modules of a generated HTTP API client,
rewrites their paths, folds free operation functions into per-resource
API objects and emits the models, apis, params and builders units.

Examples:
  restitch generate                     # read ./dump, write ./generated
  restitch generate --archive dump.txtar
  restitch generate -vv --json-logs`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			mode, err := cmd.Root().PersistentFlags().GetString("color")
			if err != nil {
				return err
			}
			switch mode {
			case "on", "off", "auto":
			default:
				return errors.Newf("--color must be auto, on or off, got %q", mode)
			}
			color.NoColor = !(mode == "on" || (mode == "auto" && isTerminal(os.Stdout)))
			return nil
		},
	}
	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	root.AddCommand(newGenerateCmd(version))
	root.AddCommand(newVersionCmd(version))
	return root
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func main() {
	defer logger.Cleanup()
	if err := newRootCmd(deriveVersion()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "restitch: %v\n", err)
		os.Exit(1)
	}
}
