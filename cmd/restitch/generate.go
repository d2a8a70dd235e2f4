package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/calumari/restitch/internal/config"
	"github.com/calumari/restitch/internal/emit"
	"github.com/calumari/restitch/internal/loader"
	"github.com/calumari/restitch/internal/logger"
	"github.com/calumari/restitch/internal/pipeline"
)

var (
	unitColor      = color.New(color.FgCyan, color.Bold)
	changedColor   = color.New(color.FgYellow)
	unchangedColor = color.New(color.Faint)
	doneColor      = color.New(color.FgGreen, color.Bold)
)

type generateFlags struct {
	configFile string
	jsonLogs   bool
	verbosity  int
}

func newGenerateCmd(version string) *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Load declaration dumps and write the restructured units",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Initialize(f.jsonLogs, f.verbosity); err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}
			v, err := config.NewViper(f.configFile)
			if err != nil {
				return err
			}
			for _, key := range []string{"input", "archive", "output", "jobs"} {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(key)); err != nil {
					return errors.Wrapf(err, "bind flag %s", key)
				}
			}
			return runGenerate(cmd.Context(), v, version, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&f.configFile, "config", "", "config file (default ./"+config.DefaultFile+" when present)")
	cmd.Flags().String("input", "", "directory holding the models and apis dump groups")
	cmd.Flags().String("archive", "", "txtar archive holding the dump groups; takes precedence over --input")
	cmd.Flags().String("output", "", "directory the units are written to")
	cmd.Flags().Int("jobs", 0, "concurrent decoders (0 means GOMAXPROCS)")
	cmd.Flags().BoolVar(&f.jsonLogs, "json-logs", false, "write logs as JSON")
	cmd.Flags().CountVarP(&f.verbosity, "verbose", "v", "increase log verbosity (-v, -vv)")
	return cmd
}

// runGenerate renders every unit before writing any file, so a failing stage
// leaves the output directory untouched.
func runGenerate(ctx context.Context, v *viper.Viper, version string, w io.Writer) error {
	c, err := config.Load(v)
	if err != nil {
		return err
	}
	s, err := pipeline.FromConfig(c)
	if err != nil {
		return err
	}

	units, err := load(ctx, c)
	if err != nil {
		return err
	}
	out, err := pipeline.Run(ctx, s, units)
	if err != nil {
		return err
	}

	manifest := emit.NewManifest(version)
	var files []emit.File
	for _, f := range out.Units() {
		name := f.Name + ".rs"
		data, err := emit.Render(f, emit.Options{Version: version})
		if err != nil {
			return errors.Wrapf(err, "render %s", f.Name)
		}
		manifest.Add(name, f, data)
		files = append(files, emit.File{Path: name, Data: data})
	}

	manifestPath := c.Manifest
	if !filepath.IsAbs(manifestPath) {
		manifestPath = filepath.Join(c.Output, manifestPath)
	}
	prev, err := emit.ReadManifest(manifestPath)
	if err != nil {
		logger.Warnw("ignoring unreadable manifest", "path", manifestPath, "error", err)
		prev = nil
	}
	if prev != nil && prev.NewerThan(version) {
		logger.Warnw("previous output was written by a newer restitch", "path", manifestPath, "version", prev.Version, "running", version)
	}
	changed := manifest.Changed(prev)
	encoded, err := manifest.Encode()
	if err != nil {
		return err
	}

	if err := emit.WriteAll(c.Output, files); err != nil {
		return err
	}
	if err := emit.WriteAll(filepath.Dir(manifestPath), []emit.File{{Path: filepath.Base(manifestPath), Data: encoded}}); err != nil {
		return err
	}
	logger.Infow("generate wrote units", "output", c.Output, "units", len(files), "changed", len(changed))

	return printSummary(w, manifest, changed, c.Output)
}

func load(ctx context.Context, c *config.Config) ([]loader.Unit, error) {
	opts := loader.Options{Groups: []string{c.Groups.Models, c.Groups.Apis}, Jobs: c.Jobs}
	if c.Archive != "" {
		return loader.LoadArchiveFile(ctx, c.Archive, opts)
	}
	return loader.LoadDir(ctx, c.Input, opts)
}

func printSummary(w io.Writer, m *emit.Manifest, changed []string, dir string) error {
	for _, e := range m.Units {
		state := unchangedColor.Sprint("unchanged")
		if slices.Contains(changed, e.Name) {
			state = changedColor.Sprint("changed")
		}
		if _, err := fmt.Fprintf(w, "  %s %4d decls  %s\n", unitColor.Sprintf("%-10s", e.Name), e.Decls, state); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s %d units in %s\n", doneColor.Sprint("wrote"), len(m.Units), dir)
	return err
}
