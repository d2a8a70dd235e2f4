package emit

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"

	"github.com/calumari/restitch/internal/module"
)

// Manifest records what one generation run wrote.
type Manifest struct {
	Generator string      `toml:"generator"`
	Version   string      `toml:"version,omitempty"`
	Units     []UnitEntry `toml:"unit"`
}

// UnitEntry describes one rendered output unit.
type UnitEntry struct {
	Name    string   `toml:"name"`
	File    string   `toml:"file"`
	Modules []string `toml:"modules"`
	Decls   int      `toml:"decls"`
	SHA256  string   `toml:"sha256"`
}

func NewManifest(version string) *Manifest {
	return &Manifest{Generator: "restitch", Version: version}
}

// Add records a rendered unit.
func (m *Manifest) Add(file string, f *module.SourceFile, content []byte) {
	sum := sha256.Sum256(content)
	e := UnitEntry{Name: f.Name, File: file, Decls: f.Decls(), SHA256: hex.EncodeToString(sum[:])}
	for _, mod := range f.Modules {
		e.Modules = append(e.Modules, string(mod.Name))
	}
	m.Units = append(m.Units, e)
}

// Unit returns the entry called name.
func (m *Manifest) Unit(name string) (UnitEntry, bool) {
	i := slices.IndexFunc(m.Units, func(e UnitEntry) bool { return e.Name == name })
	if i < 0 {
		return UnitEntry{}, false
	}
	return m.Units[i], true
}

// Changed lists the units whose digest differs from prev, or that prev does
// not know. A nil prev reports every unit.
func (m *Manifest) Changed(prev *Manifest) []string {
	var out []string
	for _, e := range m.Units {
		if prev != nil {
			if p, ok := prev.Unit(e.Name); ok && p.SHA256 == e.SHA256 {
				continue
			}
		}
		out = append(out, e.Name)
	}
	return out
}

// NewerThan reports whether m was written by a release newer than version.
// Versions that are not semantic, such as "devel" or a commit hash, never
// compare as newer.
func (m *Manifest) NewerThan(version string) bool {
	written, err := semver.NewVersion(m.Version)
	if err != nil {
		return false
	}
	running, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return written.GreaterThan(running)
}

// Encode renders the manifest as TOML.
func (m *Manifest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, errors.Wrap(err, "encode manifest")
	}
	return buf.Bytes(), nil
}

// ReadManifest loads a manifest written by an earlier run. A missing file is
// not an error and yields nil.
func ReadManifest(path string) (*Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "%s: failed to parse manifest", path)
	}
	return &m, nil
}
