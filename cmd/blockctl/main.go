package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/goliatone/go-emailbuilder/components/builder"
	"github.com/goliatone/go-emailbuilder/components/builder/queries"
)

type cli struct {
	Verbose bool `short:"v" help:"Enable debug logging."`

	Catalog  catalogCmd  `cmd:"" help:"List the block types available to the editor."`
	Export   exportCmd   `cmd:"" help:"Render a layout file to HTML or plain text."`
	Scaffold scaffoldCmd `cmd:"" help:"Add a block type entry to a manifest."`
}

func main() {
	var app cli
	ctx := kong.Parse(&app,
		kong.Name("blockctl"),
		kong.Description("Block catalog and layout export utility for go-emailbuilder."),
		kong.UsageOnError(),
	)
	level := log.InfoLevel
	if app.Verbose {
		level = log.DebugLevel
	}
	logger := newLogger(os.Stderr, level)
	ctx.BindTo(context.Background(), (*context.Context)(nil))
	err := ctx.Run(logger)
	ctx.FatalIfErrorf(err)
}

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		Prefix:          "blockctl",
	})
}

// logTelemetry prints session events at debug level.
type logTelemetry struct {
	logger *log.Logger
}

func (t logTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	keyvals := make([]any, 0, len(payload)*2)
	for _, key := range keys {
		keyvals = append(keyvals, key, payload[key])
	}
	t.logger.Debug(event, keyvals...)
}

type catalogCmd struct {
	Manifest []string `type:"existingfile" help:"Extra block type manifests to load (repeatable)."`
	Locale   string   `default:"en" help:"Locale used for display names."`
	Category string   `help:"Only list block types in this category."`
	JSON     bool     `name:"json" help:"Print JSON instead of a table."`
}

func (cmd *catalogCmd) Run(ctx context.Context, logger *log.Logger) error {
	return cmd.run(ctx, logger, os.Stdout)
}

func (cmd *catalogCmd) run(ctx context.Context, logger *log.Logger, out io.Writer) error {
	catalog, err := loadCatalog(logger, cmd.Manifest)
	if err != nil {
		return err
	}
	entries, err := queries.NewCatalogQuery(catalog).Query(ctx, queries.CatalogInput{
		Locale:   cmd.Locale,
		Category: cmd.Category,
	})
	if err != nil {
		return fmt.Errorf("blockctl: list block types: %w", err)
	}
	if cmd.JSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tDISPLAY NAME\tPREMIUM")
	for _, entry := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", entry.Name, entry.Category, entry.DisplayName, entry.IsPremium)
	}
	return tw.Flush()
}

type exportCmd struct {
	Layout   string   `arg:"" type:"existingfile" help:"Layout file (YAML or JSON) to render."`
	Format   string   `enum:"html,text" default:"html" help:"Output format (html, text)."`
	Out      string   `short:"o" type:"path" help:"Write the export to this file instead of stdout."`
	Config   string   `type:"existingfile" help:"Builder config file."`
	Manifest []string `type:"existingfile" help:"Extra block type manifests to load (repeatable)."`
	Template bool     `help:"Wrap the document with the embedded email template."`
}

func (cmd *exportCmd) Run(ctx context.Context, logger *log.Logger) error {
	if cmd.Out == "" {
		return cmd.run(ctx, logger, os.Stdout)
	}
	if err := os.MkdirAll(filepath.Dir(cmd.Out), 0o755); err != nil {
		return fmt.Errorf("blockctl: mkdir %s: %w", filepath.Dir(cmd.Out), err)
	}
	file, err := os.Create(cmd.Out) //nolint:gosec
	if err != nil {
		return fmt.Errorf("blockctl: create %s: %w", cmd.Out, err)
	}
	defer file.Close()
	if err := cmd.run(ctx, logger, file); err != nil {
		return err
	}
	logger.Info("export written", "path", cmd.Out, "format", cmd.Format)
	return nil
}

func (cmd *exportCmd) run(ctx context.Context, logger *log.Logger, out io.Writer) error {
	cfg := builder.DefaultConfig()
	if cmd.Config != "" {
		loaded, err := builder.LoadConfig(cmd.Config)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if cmd.Template {
		cfg.Export.UseTemplate = true
	}
	exporterOpts, err := cfg.ExporterOptions()
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(logger, append(append([]string(nil), cfg.Manifests...), cmd.Manifest...))
	if err != nil {
		return err
	}
	layout, err := builder.ReadLayoutFile(cmd.Layout)
	if err != nil {
		return err
	}

	session := builder.NewSession(builder.SessionOptions{
		ID:            "blockctl",
		Catalog:       catalog,
		Validator:     builder.NewJSONSchemaValidator(),
		Exporter:      builder.NewExporter(exporterOpts),
		Telemetry:     logTelemetry{logger: logger},
		AutoSaveDelay: -1,
	})
	defer session.Close(ctx)

	doc, err := builder.Replay(ctx, session, layout)
	if err != nil {
		return fmt.Errorf("blockctl: replay %s: %w", cmd.Layout, err)
	}
	logger.Debug("layout replayed", "blocks", len(doc.Blocks), "grid", doc.Layout.GridSystem)

	preview, err := queries.NewPreviewQuery(builder.NewController(session)).Query(ctx, queries.PreviewInput{Format: cmd.Format})
	if err != nil {
		return fmt.Errorf("blockctl: export: %w", err)
	}
	_, err = io.WriteString(out, preview.Body)
	return err
}

func loadCatalog(logger *log.Logger, manifests []string) (*builder.Catalog, error) {
	catalog := builder.NewCatalog()
	for _, path := range manifests {
		doc, err := catalog.LoadManifestFile(path)
		if err != nil {
			return nil, err
		}
		logger.Debug("manifest loaded", "path", path, "types", len(doc.Types))
	}
	return catalog, nil
}
