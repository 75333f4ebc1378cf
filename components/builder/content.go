package builder

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Fallback values used when a block's content bag omits a rendering key.
const (
	DefaultText          = "Text content"
	DefaultHeadingText   = "Heading text"
	DefaultHeadingLevel  = 2
	DefaultButtonText    = "Button"
	DefaultButtonURL     = "#"
	DefaultImageSrc      = "https://placehold.co/600x200?text=Image"
	DefaultImageAlt      = "Image"
	DefaultSpacerHeight  = "40px"
	DefaultDividerWidth  = "2px"
	DefaultDividerStyle  = "solid"
	DefaultDividerColor  = "currentColor"
	DefaultBackground    = "#ffffff"
	DefaultMaxWidth      = "600px"
	defaultHTMLFragment  = ""
	unknownContentPrefix = "Unsupported block type"
)

// Content is the closed set of typed block payloads. Content and styling are
// stored as open bags; DecodeContent projects a bag onto its variant.
type Content interface {
	BlockType() string
	isContent()
}

type TextContent struct {
	Text string `json:"text"`
}

type HeadingContent struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

type ImageContent struct {
	Src  string `json:"src"`
	Alt  string `json:"alt"`
	Link string `json:"link,omitempty"`
}

type ButtonContent struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// DividerContent draws a horizontal rule; its look comes from styling.
type DividerContent struct {
	Width string `json:"border_width"`
	Style string `json:"border_style"`
	Color string `json:"border_color"`
}

type SpacerContent struct {
	Height string `json:"height"`
}

// HTMLContent is emitted verbatim.
type HTMLContent struct {
	HTML string `json:"html"`
}

// UnknownContent stands in for blocks whose type has no renderer.
type UnknownContent struct {
	Type string `json:"block_type"`
}

func (TextContent) BlockType() string { return BlockText }
func (HeadingContent) BlockType() string { return BlockHeading }
func (ImageContent) BlockType() string { return BlockImage }
func (ButtonContent) BlockType() string { return BlockButton }
func (DividerContent) BlockType() string { return BlockDivider }
func (SpacerContent) BlockType() string { return BlockSpacer }
func (HTMLContent) BlockType() string { return BlockHTML }
func (c UnknownContent) BlockType() string { return c.Type }

func (TextContent) isContent() {}
func (HeadingContent) isContent() {}
func (ImageContent) isContent() {}
func (ButtonContent) isContent() {}
func (DividerContent) isContent() {}
func (SpacerContent) isContent() {}
func (HTMLContent) isContent() {}
func (UnknownContent) isContent() {}

// TypedContent decodes the block's content bag into its variant.
func (b Block) TypedContent() Content {
	return DecodeContent(b.BlockType, b.Content, b.Styling)
}

// DecodeContent maps a content bag (and, for dividers, styling) to a typed
// variant, filling absent or unusable keys with defaults.
func DecodeContent(blockType string, content, styling map[string]any) Content {
	switch blockType {
	case BlockText:
		return TextContent{Text: stringValue(content, "text", DefaultText)}
	case BlockHeading:
		return HeadingContent{
			Text:  stringValue(content, "text", DefaultHeadingText),
			Level: headingLevel(content["level"]),
		}
	case BlockImage:
		return ImageContent{
			Src:  stringValue(content, "src", DefaultImageSrc),
			Alt:  stringValue(content, "alt", DefaultImageAlt),
			Link: stringValue(content, "link", ""),
		}
	case BlockButton:
		return ButtonContent{
			Text: stringValue(content, "text", DefaultButtonText),
			URL:  stringValue(content, "url", DefaultButtonURL),
		}
	case BlockDivider:
		return DividerContent{
			Width: cssLength(styling["border_width"], DefaultDividerWidth),
			Style: stringValue(styling, "border_style", DefaultDividerStyle),
			Color: stringValue(styling, "border_color", DefaultDividerColor),
		}
	case BlockSpacer:
		return SpacerContent{Height: cssLength(content["height"], DefaultSpacerHeight)}
	case BlockHTML:
		return HTMLContent{HTML: stringValue(content, "html", defaultHTMLFragment)}
	default:
		return UnknownContent{Type: blockType}
	}
}

func stringValue(bag map[string]any, key, fallback string) string {
	raw, ok := bag[key]
	if !ok || raw == nil {
		return fallback
	}
	var value string
	switch v := raw.(type) {
	case string:
		value = v
	case fmt.Stringer:
		value = v.String()
	case bool, int, int32, int64, float32, float64:
		value = fmt.Sprint(v)
	default:
		return fallback
	}
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func headingLevel(raw any) int {
	var level int
	switch v := raw.(type) {
	case int:
		level = v
	case int64:
		level = int(v)
	case float64:
		level = int(math.Round(v))
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return DefaultHeadingLevel
		}
		level = parsed
	default:
		return DefaultHeadingLevel
	}
	if level < 1 || level > 6 {
		return DefaultHeadingLevel
	}
	return level
}

// cssLength accepts "40px"-style strings or bare numbers, read as pixels.
func cssLength(raw any, fallback string) string {
	switch v := raw.(type) {
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return fallback
		}
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return v + "px"
		}
		return v
	case int:
		return strconv.Itoa(v) + "px"
	case int64:
		return strconv.FormatInt(v, 10) + "px"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64) + "px"
	default:
		return fallback
	}
}
