package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-emailbuilder/components/builder"
)

type scaffoldCmd struct {
	Name         string            `required:"" help:"Block type name (normalized to snake_case)."`
	DisplayName  string            `help:"Palette label (defaults to the title-cased name)."`
	Description  string            `help:"One-line description shown in the palette."`
	Category     string            `default:"custom" help:"Block category (basic, media, layout, ...)."`
	ManifestPath string            `name:"manifest" required:"" type:"path" help:"Manifest YAML file to create or update."`
	SchemaPath   string            `name:"schema" type:"path" help:"Optional JSON schema file for the block content."`
	Defaults     map[string]string `name:"default" help:"Default content value as key=value (repeatable)."`
	Tag          []string          `help:"Tags to include in the manifest (repeatable)."`
	Maintainer   []string          `help:"Maintainers to record in the manifest."`
	Premium      bool              `help:"Mark the block type as premium."`
	Overwrite    bool              `help:"Replace an existing entry with the same name."`
}

func (cmd *scaffoldCmd) Run(logger *log.Logger) error {
	return cmd.run(logger, os.Stdout)
}

func (cmd *scaffoldCmd) run(logger *log.Logger, out io.Writer) error {
	name := strcase.ToSnake(cmd.Name)
	if name == "" {
		return fmt.Errorf("blockctl: block type name %q is empty after normalization", cmd.Name)
	}
	manifestPath, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("blockctl: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(manifestPath)
	if err != nil {
		return err
	}
	schema, err := cmd.loadSchema()
	if err != nil {
		return err
	}

	displayName := cmd.DisplayName
	if displayName == "" {
		displayName = strcase.ToCase(name, strcase.TitleCase, ' ')
	}
	defaults := make(map[string]any, len(cmd.Defaults))
	for key, value := range cmd.Defaults {
		defaults[key] = value
	}
	entry := builder.ManifestBlockType{
		Definition: builder.BlockTypeDefinition{
			Name:          name,
			Category:      cmd.Category,
			DisplayName:   displayName,
			Description:   cmd.Description,
			IsPremium:     cmd.Premium,
			DefaultConfig: defaults,
			Schema:        schema,
		},
		Maintainers: cmd.Maintainer,
		Tags:        cmd.Tag,
	}

	replaced := false
	for idx := range doc.Types {
		if doc.Types[idx].Definition.Name != name {
			continue
		}
		if !cmd.Overwrite {
			return fmt.Errorf("blockctl: manifest already defines block type %s (use --overwrite to replace)", name)
		}
		doc.Types[idx] = entry
		replaced = true
		break
	}
	if !replaced {
		doc.Types = append(doc.Types, entry)
	}
	sort.Slice(doc.Types, func(i, j int) bool {
		return doc.Types[i].Definition.Name < doc.Types[j].Definition.Name
	})
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := writeManifest(manifestPath, doc); err != nil {
		return err
	}
	logger.Debug("manifest written", "path", manifestPath, "types", len(doc.Types))
	fmt.Fprintf(out, "✓ Added %s to %s\n", name, manifestPath)
	return nil
}

// loadSchema reads the schema file, or derives a string-typed object schema
// from the default keys.
func (cmd *scaffoldCmd) loadSchema() (map[string]any, error) {
	if cmd.SchemaPath == "" {
		properties := map[string]any{}
		for key := range cmd.Defaults {
			properties[key] = map[string]any{"type": "string"}
		}
		return map[string]any{
			"type":       "object",
			"properties": properties,
		}, nil
	}
	data, err := os.ReadFile(cmd.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("blockctl: read schema file: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("blockctl: parse schema JSON: %w", err)
	}
	return schema, nil
}

func loadOrInitManifest(path string) (*builder.ManifestDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &builder.ManifestDocument{
				Version: builder.ManifestVersion,
				Types:   []builder.ManifestBlockType{},
				Source:  path,
			}, nil
		}
		return nil, fmt.Errorf("blockctl: stat manifest: %w", err)
	}
	return builder.ReadManifest(path)
}

func writeManifest(path string, doc *builder.ManifestDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("blockctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("blockctl: create manifest %s: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("blockctl: write manifest: %w", err)
	}
	return nil
}
