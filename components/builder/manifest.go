package builder

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// ManifestDocument models a YAML/JSON manifest describing extra block types.
type ManifestDocument struct {
	Version  string              `json:"version" yaml:"version"`
	Name     string              `json:"name,omitempty" yaml:"name,omitempty"`
	Package  string              `json:"package,omitempty" yaml:"package,omitempty"`
	Homepage string              `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	Types    []ManifestBlockType `json:"types" yaml:"types"`
	Source   string              `json:"-" yaml:"-"`
}

// ManifestBlockType describes a single block type entry within a manifest.
type ManifestBlockType struct {
	Definition  BlockTypeDefinition `json:"definition" yaml:"definition"`
	Maintainers []string            `json:"maintainers,omitempty" yaml:"maintainers,omitempty"`
	Tags        []string            `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// LoadManifestFile reads a manifest from disk, registers it against the catalog, and returns the document.
func (c *Catalog) LoadManifestFile(path string) (*ManifestDocument, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := c.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadManifestDocument registers block types and metadata from a decoded manifest.
func (c *Catalog) LoadManifestDocument(doc *ManifestDocument) error {
	if doc == nil {
		return fmt.Errorf("builder: manifest document is nil")
	}
	for _, entry := range doc.Types {
		if err := c.Register(entry.Definition); err != nil {
			return fmt.Errorf("builder: register block type %s from %s: %w", entry.Definition.Name, doc.Source, err)
		}
		c.recordManifestMetadata(entry.Definition.Name, entry)
	}
	return nil
}

// ReadManifest loads a manifest file from disk without registering it.
func ReadManifest(path string) (*ManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("builder: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("builder: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*ManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc ManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("builder: manifest is empty")
		}
		return nil, fmt.Errorf("builder: parse manifest: %w", err)
	}
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures the manifest satisfies required fields.
func (doc *ManifestDocument) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("builder: unsupported manifest version %q", doc.Version)
	}
	seen := make(map[string]struct{}, len(doc.Types))
	for idx, entry := range doc.Types {
		if entry.Definition.Name == "" {
			return fmt.Errorf("builder: manifest type at index %d is missing definition.name", idx)
		}
		if _, exists := seen[entry.Definition.Name]; exists {
			return fmt.Errorf("builder: manifest duplicates block type %s", entry.Definition.Name)
		}
		seen[entry.Definition.Name] = struct{}{}
	}
	return nil
}
