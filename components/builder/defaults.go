package builder

// Block type names shipped with the default catalog.
const (
	BlockText    = "text"
	BlockHeading = "heading"
	BlockImage   = "image"
	BlockButton  = "button"
	BlockDivider = "divider"
	BlockSpacer  = "spacer"
	BlockHTML    = "html"
)

var defaultBlockTypes = []BlockTypeDefinition{
	{
		Name:        BlockText,
		Category:    "basic",
		DisplayName: "Text",
		NameLocalized: map[string]string{
			"es": "Texto",
		},
		Description: "A paragraph of body copy",
		DescriptionLocalized: map[string]string{
			"es": "Un párrafo de texto",
		},
		DefaultConfig: map[string]any{"text": DefaultText},
		DefaultStyles: map[string]any{
			"font_size":   "16px",
			"color":       "#333333",
			"line_height": "1.5",
			"padding":     "10px",
		},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
		},
	},
	{
		Name:        BlockHeading,
		Category:    "basic",
		DisplayName: "Heading",
		NameLocalized: map[string]string{
			"es": "Título",
		},
		Description:   "A section title",
		DefaultConfig: map[string]any{"text": DefaultHeadingText, "level": 2},
		DefaultStyles: map[string]any{
			"font_size":   "24px",
			"color":       "#111111",
			"font_weight": "bold",
			"padding":     "10px",
		},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text":  map[string]any{"type": "string"},
				"level": map[string]any{"type": "integer", "minimum": 1, "maximum": 6},
			},
		},
	},
	{
		Name:        BlockImage,
		Category:    "media",
		DisplayName: "Image",
		NameLocalized: map[string]string{
			"es": "Imagen",
		},
		Description:   "A responsive image with alt text",
		DefaultConfig: map[string]any{"src": "", "alt": "Image"},
		DefaultStyles: map[string]any{
			"width":   "100%",
			"padding": "0",
		},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"src":  map[string]any{"type": "string"},
				"alt":  map[string]any{"type": "string"},
				"link": map[string]any{"type": "string"},
			},
		},
	},
	{
		Name:        BlockButton,
		Category:    "actions",
		DisplayName: "Button",
		NameLocalized: map[string]string{
			"es": "Botón",
		},
		Description:   "A call-to-action link styled as a button",
		DefaultConfig: map[string]any{"text": DefaultButtonText, "url": "#"},
		DefaultStyles: map[string]any{
			"background_color": "#007bff",
			"color":            "#ffffff",
			"padding":          "12px 24px",
			"border_radius":    "4px",
		},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
				"url":  map[string]any{"type": "string"},
			},
		},
	},
	{
		Name:          BlockDivider,
		Category:      "layout",
		DisplayName:   "Divider",
		Description:   "A horizontal rule between sections",
		DefaultConfig: map[string]any{},
		DefaultStyles: map[string]any{},
		Schema:        map[string]any{"type": "object"},
	},
	{
		Name:          BlockSpacer,
		Category:      "layout",
		DisplayName:   "Spacer",
		Description:   "Fixed vertical whitespace",
		DefaultConfig: map[string]any{"height": DefaultSpacerHeight},
		DefaultStyles: map[string]any{},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"height": map[string]any{"type": []string{"string", "number"}},
			},
		},
	},
	{
		Name:          BlockHTML,
		Category:      "advanced",
		DisplayName:   "Custom HTML",
		Description:   "Raw HTML inserted verbatim",
		IsPremium:     true,
		DefaultConfig: map[string]any{"html": "<p>Custom HTML</p>"},
		DefaultStyles: map[string]any{},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"html": map[string]any{"type": "string"},
			},
		},
	},
}

// DefaultBlockTypes returns copies of the built-in block types.
func DefaultBlockTypes() []BlockTypeDefinition {
	out := make([]BlockTypeDefinition, len(defaultBlockTypes))
	for i, def := range defaultBlockTypes {
		out[i] = def.Clone()
	}
	return out
}

// SeedBlock describes a block placed by SeedLayout.
type SeedBlock struct {
	BlockType  string
	Row        int
	Column     int
	ColumnSpan int
	Content    map[string]any
	Styling    map[string]any
}

var defaultSeedBlocks = []SeedBlock{
	{BlockType: BlockHeading, Row: 0, Content: map[string]any{"text": "Welcome aboard", "level": 1}},
	{BlockType: BlockText, Row: 1, Content: map[string]any{"text": "Thanks for signing up. Here is what happens next."}},
	{BlockType: BlockButton, Row: 2, ColumnSpan: 4, Content: map[string]any{"text": "Get started", "url": "https://example.com/start"}},
	{BlockType: BlockDivider, Row: 3},
	{BlockType: BlockText, Row: 4, Content: map[string]any{"text": "You are receiving this email because you created an account."}, Styling: map[string]any{"font_size": "12px", "color": "#888888"}},
}

// DefaultSeedBlocks returns the blocks of the starter template.
func DefaultSeedBlocks() []SeedBlock {
	out := make([]SeedBlock, len(defaultSeedBlocks))
	for i, seed := range defaultSeedBlocks {
		seed.Content = cloneMap(seed.Content)
		seed.Styling = cloneMap(seed.Styling)
		out[i] = seed
	}
	return out
}
