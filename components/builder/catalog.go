package builder

import (
	"context"
	"fmt"
	"sync"

	"github.com/ettle/strcase"
)

// BlockTypeDefinition describes a registered block type and the payloads a new
// block of that type is seeded with.
type BlockTypeDefinition struct {
	Name                 string            `json:"name" yaml:"name"`
	Category             string            `json:"category" yaml:"category"`
	DisplayName          string            `json:"display_name" yaml:"display_name"`
	Description          string            `json:"description,omitempty" yaml:"description,omitempty"`
	IsPremium            bool              `json:"is_premium" yaml:"is_premium"`
	DefaultConfig        map[string]any    `json:"default_config,omitempty" yaml:"default_config,omitempty"`
	DefaultStyles        map[string]any    `json:"default_styles,omitempty" yaml:"default_styles,omitempty"`
	Schema               map[string]any    `json:"schema,omitempty" yaml:"schema,omitempty"`
	NameLocalized        map[string]string `json:"name_localized,omitempty" yaml:"name_localized,omitempty"`
	DescriptionLocalized map[string]string `json:"description_localized,omitempty" yaml:"description_localized,omitempty"`
}

// Clone returns a deep copy so seeded blocks never alias catalog data.
func (def BlockTypeDefinition) Clone() BlockTypeDefinition {
	def.DefaultConfig = cloneMap(def.DefaultConfig)
	def.DefaultStyles = cloneMap(def.DefaultStyles)
	def.Schema = cloneMap(def.Schema)
	if def.NameLocalized != nil {
		names := make(map[string]string, len(def.NameLocalized))
		for k, v := range def.NameLocalized {
			names[k] = v
		}
		def.NameLocalized = names
	}
	if def.DescriptionLocalized != nil {
		descriptions := make(map[string]string, len(def.DescriptionLocalized))
		for k, v := range def.DescriptionLocalized {
			descriptions[k] = v
		}
		def.DescriptionLocalized = descriptions
	}
	return def
}

// CatalogHook lets packages register block types during init().
type CatalogHook func(cat *Catalog) error

var (
	globalHookMu sync.Mutex
	globalHooks  []CatalogHook
)

// RegisterCatalogHook registers a hook executed against new catalogs.
func RegisterCatalogHook(h CatalogHook) {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	globalHooks = append(globalHooks, h)
}

// Catalog is the read-mostly registry of block types.
type Catalog struct {
	mu           sync.RWMutex
	types        map[string]BlockTypeDefinition
	order        []string
	manifestMeta map[string]ManifestBlockType
}

// NewCatalog builds a catalog with the default block types and applies global hooks.
func NewCatalog() *Catalog {
	cat := NewEmptyCatalog()
	for _, def := range DefaultBlockTypes() {
		_ = cat.Register(def)
	}
	_ = cat.ApplyHooks()
	return cat
}

// NewEmptyCatalog builds a catalog without any registered types.
func NewEmptyCatalog() *Catalog {
	return &Catalog{
		types:        map[string]BlockTypeDefinition{},
		manifestMeta: map[string]ManifestBlockType{},
	}
}

// NewCatalogFromSource loads every block type exposed by src. It runs once at
// editor startup.
func NewCatalogFromSource(ctx context.Context, src CatalogSource) (*Catalog, error) {
	if src == nil {
		return nil, errMissingCatalog
	}
	defs, err := src.ListBlockTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("builder: list block types: %w", err)
	}
	cat := NewEmptyCatalog()
	for _, def := range defs {
		if err := cat.Register(def); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// ApplyHooks executes registered catalog hooks.
func (c *Catalog) ApplyHooks() error {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	for _, hook := range globalHooks {
		if err := hook(c); err != nil {
			return err
		}
	}
	return nil
}

// Register stores a block type. Re-registering a name replaces the definition
// but keeps its original position.
func (c *Catalog) Register(def BlockTypeDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("builder: block type name is required")
	}
	if def.Category == "" {
		def.Category = "custom"
	}
	if def.DisplayName == "" {
		def.DisplayName = strcase.ToCase(def.Name, strcase.TitleCase, ' ')
	}
	def.normalizeLocalizedFields()
	def = def.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.types[def.Name]; !exists {
		c.order = append(c.order, def.Name)
	}
	c.types[def.Name] = def
	return nil
}

// Type fetches a block type by name.
func (c *Catalog) Type(name string) (BlockTypeDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.types[name]
	if !ok {
		return BlockTypeDefinition{}, fmt.Errorf("%w: %q", ErrUnknownBlockType, name)
	}
	return def.Clone(), nil
}

// Has reports whether name is registered.
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.types[name]
	return ok
}

// Types returns every block type, grouped by category. Categories appear in
// the order they were first registered; types keep registration order.
func (c *Catalog) Types() []BlockTypeDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	categories := c.categoriesLocked()
	grouped := make(map[string][]BlockTypeDefinition, len(categories))
	for _, name := range c.order {
		def := c.types[name]
		grouped[def.Category] = append(grouped[def.Category], def.Clone())
	}
	out := make([]BlockTypeDefinition, 0, len(c.order))
	for _, category := range categories {
		out = append(out, grouped[category]...)
	}
	return out
}

// Categories lists category labels in presentation order.
func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.categoriesLocked()
}

func (c *Catalog) categoriesLocked() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, name := range c.order {
		category := c.types[name].Category
		if _, ok := seen[category]; ok {
			continue
		}
		seen[category] = struct{}{}
		out = append(out, category)
	}
	return out
}

// ListBlockTypes satisfies CatalogSource.
func (c *Catalog) ListBlockTypes(context.Context) ([]BlockTypeDefinition, error) {
	return c.Types(), nil
}

// ManifestMetadata returns manifest metadata recorded for a block type.
func (c *Catalog) ManifestMetadata(name string) (ManifestBlockType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	meta, ok := c.manifestMeta[name]
	return meta, ok
}

func (c *Catalog) recordManifestMetadata(name string, meta ManifestBlockType) {
	if len(meta.Maintainers) == 0 && len(meta.Tags) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manifestMeta[name] = meta
}
