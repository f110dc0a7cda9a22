package dashboard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// ProvisionManifest lists dashboards to load, pre-select and persist.
type ProvisionManifest struct {
	Version    string           `json:"version" yaml:"version"`
	Name       string           `json:"name,omitempty" yaml:"name,omitempty"`
	Dashboards []ProvisionEntry `json:"dashboards" yaml:"dashboards"`
	Source     string           `json:"-" yaml:"-"`
}

// ProvisionEntry is one dashboard of a manifest. Path is slash separated and
// relative to the filesystem handed to Service.Provision.
type ProvisionEntry struct {
	UID       string              `json:"uid" yaml:"uid"`
	Path      string              `json:"path" yaml:"path"`
	Variables map[string][]string `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// ReadManifest loads a manifest file from disk.
func ReadManifest(path string) (*ProvisionManifest, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashboard: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*ProvisionManifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc ProvisionManifest
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("dashboard: manifest is empty")
		}
		return nil, fmt.Errorf("dashboard: parse manifest: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures the manifest satisfies required fields.
func (doc *ProvisionManifest) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("dashboard: unsupported manifest version %q", doc.Version)
	}
	seen := make(map[string]struct{}, len(doc.Dashboards))
	for idx, entry := range doc.Dashboards {
		if entry.Path == "" {
			return fmt.Errorf("dashboard: manifest dashboard at index %d is missing path", idx)
		}
		if entry.UID == "" {
			return fmt.Errorf("dashboard: manifest dashboard %s is missing uid", entry.Path)
		}
		if _, exists := seen[entry.UID]; exists {
			return fmt.Errorf("dashboard: manifest duplicates dashboard uid %s", entry.UID)
		}
		seen[entry.UID] = struct{}{}
	}
	return nil
}

// applyDefaults fills the version and derives missing uids from file names.
func (doc *ProvisionManifest) applyDefaults() {
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	for i := range doc.Dashboards {
		entry := &doc.Dashboards[i]
		if entry.UID == "" && entry.Path != "" {
			base := path.Base(entry.Path)
			entry.UID = strcase.ToKebab(strings.TrimSuffix(base, path.Ext(base)))
		}
	}
}

func (e ProvisionEntry) variableNames() []string {
	names := make([]string, 0, len(e.Variables))
	for name := range e.Variables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
