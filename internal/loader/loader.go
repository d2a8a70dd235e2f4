// Package loader reads declaration dumps, one YAML document per partial
// module, from a directory tree or a txtar archive. The first path element
// below the root names the input group a file belongs to.
package loader

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/txtar"

	"github.com/calumari/restitch/internal/logger"
	"github.com/calumari/restitch/internal/module"
)

// Unit is one decoded partial module tagged with its input group.
type Unit struct {
	Group  string
	Module *module.Module
}

type Options struct {
	// Groups lists the accepted group directories. Files elsewhere are skipped.
	Groups []string
	// Jobs bounds concurrent decoding; zero means GOMAXPROCS.
	Jobs int
}

// source is one file waiting to be decoded. Either data is set or read
// fetches it.
type source struct {
	group string
	name  string
	data  []byte
	read  func() ([]byte, error)
}

// LoadDir decodes every .yaml/.yml file under root/<group>/. Units are
// returned in lexical path order regardless of decoding order.
func LoadDir(ctx context.Context, root string, opts Options) ([]Unit, error) {
	var srcs []source
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isDump(p) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		group, ok := groupOf(rel, opts.Groups)
		if !ok {
			logger.Debugw("loader skipped file outside groups", "file", rel)
			return nil
		}
		srcs = append(srcs, source{group: group, name: rel, read: func() ([]byte, error) { return os.ReadFile(p) }})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk %s", root)
	}
	return decodeAll(ctx, srcs, opts.Jobs)
}

// LoadArchive decodes the dump files of a txtar archive. File names are
// slash-separated paths whose first element is the group.
func LoadArchive(ctx context.Context, ar *txtar.Archive, opts Options) ([]Unit, error) {
	var srcs []source
	for _, f := range ar.Files {
		name := path.Clean(f.Name)
		if !isDump(name) {
			continue
		}
		group, ok := groupOf(name, opts.Groups)
		if !ok {
			logger.Debugw("loader skipped file outside groups", "file", name)
			continue
		}
		srcs = append(srcs, source{group: group, name: name, data: f.Data})
	}
	slices.SortStableFunc(srcs, func(a, b source) int { return strings.Compare(a.name, b.name) })
	return decodeAll(ctx, srcs, opts.Jobs)
}

// LoadArchiveFile reads a txtar archive from disk and decodes it.
func LoadArchiveFile(ctx context.Context, file string, opts Options) ([]Unit, error) {
	ar, err := txtar.ParseFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "read archive %s", file)
	}
	return LoadArchive(ctx, ar, opts)
}

// decodeAll decodes srcs concurrently. Each goroutine writes only its own
// slot, so the result order is the input order.
func decodeAll(ctx context.Context, srcs []source, jobs int) ([]Unit, error) {
	if len(srcs) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	units := make([]Unit, len(srcs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(srcs)))
	for i, src := range srcs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data := src.data
			if src.read != nil {
				var err error
				if data, err = src.read(); err != nil {
					return errors.Wrapf(err, "read %s", src.name)
				}
			}
			m, err := Decode(src.name, data)
			if err != nil {
				return err
			}
			units[i] = Unit{Group: src.group, Module: m}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Debugw("loader decoded files", "files", len(units))
	return units, nil
}

func isDump(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func groupOf(rel string, groups []string) (string, bool) {
	first, rest, ok := strings.Cut(rel, "/")
	if !ok || rest == "" {
		return "", false
	}
	return first, slices.Contains(groups, first)
}
