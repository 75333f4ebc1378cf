package builder

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/ettle/strcase"
)

// DefaultDocumentTemplate is the go-template used when ExporterOptions.Renderer is set.
const DefaultDocumentTemplate = "email"

// ExporterOptions configures the Exporter. Without a Renderer the document
// wrapper is produced in code.
type ExporterOptions struct {
	Renderer Renderer
	Template string
	Cache    RenderCache
}

// Exporter materializes a layout and its blocks into an HTML document.
type Exporter struct {
	opts ExporterOptions
}

// NewExporter builds an Exporter.
func NewExporter(opts ExporterOptions) *Exporter {
	if opts.Template == "" {
		opts.Template = DefaultDocumentTemplate
	}
	return &Exporter{opts: opts}
}

// DocumentData is passed to document templates.
type DocumentData struct {
	Layout          Layout `json:"layout"`
	Title           string `json:"title"`
	BackgroundColor string `json:"background_color"`
	MaxWidth        string `json:"max_width"`
	ContainerStyle  string `json:"container_style"`
	Content         string `json:"content"`
	BlockCount      int    `json:"block_count"`
}

// Export renders blocks in (row, column) order wrapped in the layout
// container. Individual blocks never fail the export; unsupported ones render
// a diagnostic fragment.
func (x *Exporter) Export(layout *Layout, blocks []Block) (string, error) {
	if layout == nil {
		return "", ErrNoActiveLayout
	}
	if x.opts.Cache == nil {
		return x.render(*layout, blocks)
	}
	hash, ok := documentHash(*layout, blocks)
	if !ok {
		return x.render(*layout, blocks)
	}
	return x.opts.Cache.GetOrRender("html:"+hash, func() (string, error) {
		return x.render(*layout, blocks)
	})
}

func (x *Exporter) render(layout Layout, blocks []Block) (string, error) {
	data := DocumentData{
		Layout:          layout.Clone(),
		Title:           layout.Name,
		BackgroundColor: layoutBackground(layout),
		MaxWidth:        cssLength(layout.ContainerSettings["max_width"], DefaultMaxWidth),
		Content:         renderBody(layout, blocks),
		BlockCount:      len(blocks),
	}
	data.ContainerStyle = containerStyle(layout, data)
	if data.Title == "" {
		data.Title = "Email"
	}
	if x.opts.Renderer != nil {
		out, err := x.opts.Renderer.Render(x.opts.Template, map[string]any{
			"layout":           data.Layout,
			"title":            data.Title,
			"background_color": data.BackgroundColor,
			"max_width":        data.MaxWidth,
			"container_style":  data.ContainerStyle,
			"content":          data.Content,
			"block_count":      data.BlockCount,
		})
		if err != nil {
			return "", fmt.Errorf("builder: render document template %s: %w", x.opts.Template, err)
		}
		return out, nil
	}
	return wrapDocument(data), nil
}

// ExportText renders a plain-text alternative body.
func (x *Exporter) ExportText(layout *Layout, blocks []Block) (string, error) {
	if layout == nil {
		return "", ErrNoActiveLayout
	}
	if x.opts.Cache == nil {
		return renderText(blocks), nil
	}
	hash, ok := documentHash(*layout, blocks)
	if !ok {
		return renderText(blocks), nil
	}
	return x.opts.Cache.GetOrRender("text:"+hash, func() (string, error) {
		return renderText(blocks), nil
	})
}

// SortBlocks orders blocks by row, then column. Ties on the same cell, which
// only malformed input can produce, fall back to id.
func SortBlocks(blocks []Block) []Block {
	out := make([]Block, len(blocks))
	copy(out, blocks)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		if out[i].Column != out[j].Column {
			return out[i].Column < out[j].Column
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func renderBody(layout Layout, blocks []Block) string {
	grid := layout.GridSystem
	if grid < 1 {
		grid = DefaultGridSystem
	}
	var b strings.Builder
	ordered := SortBlocks(blocks)
	for i := 0; i < len(ordered); {
		row := ordered[i].Row
		fmt.Fprintf(&b, "<div class=\"eb-row\" data-row=\"%d\">\n", row)
		cursor := 0
		for ; i < len(ordered) && ordered[i].Row == row; i++ {
			block := ordered[i]
			style := "display:inline-block;vertical-align:top;box-sizing:border-box;width:" + percent(block.ColumnSpan, grid) + ";"
			if gap := block.Column - cursor; gap > 0 {
				style += "margin-left:" + percent(gap, grid) + ";"
			}
			cursor = block.Column + block.ColumnSpan
			fmt.Fprintf(&b, "<div class=\"eb-block eb-%s\" data-block-id=\"%s\" style=\"%s\">%s</div>\n",
				html.EscapeString(block.BlockType), html.EscapeString(block.ID), style, RenderBlock(block))
		}
		b.WriteString("</div>\n")
	}
	return b.String()
}

// RenderBlock renders a single block fragment.
func RenderBlock(block Block) string {
	switch c := block.TypedContent().(type) {
	case TextContent:
		return "<p" + styleAttr(block.Styling) + ">" + escapeText(c.Text) + "</p>"
	case HeadingContent:
		tag := "h" + strconv.Itoa(c.Level)
		return "<" + tag + styleAttr(block.Styling) + ">" + escapeText(c.Text) + "</" + tag + ">"
	case ImageContent:
		img := fmt.Sprintf("<img src=\"%s\" alt=\"%s\"%s>",
			html.EscapeString(safeURL(c.Src, DefaultImageSrc, imageSchemes)), html.EscapeString(c.Alt),
			styleAttr(mergeMap(map[string]any{"max_width": "100%", "display": "block"}, block.Styling)))
		if link := safeURL(c.Link, "", linkSchemes); link != "" {
			return "<a href=\"" + html.EscapeString(link) + "\">" + img + "</a>"
		}
		return img
	case ButtonContent:
		styles := mergeMap(map[string]any{"display": "inline-block", "text_decoration": "none"}, block.Styling)
		href := safeURL(c.URL, DefaultButtonURL, linkSchemes)
		return fmt.Sprintf("<a href=\"%s\"%s>%s</a>", html.EscapeString(href), styleAttr(styles), html.EscapeString(c.Text))
	case DividerContent:
		styles := mergeMap(block.Styling, map[string]any{
			"border":       "none",
			"border_top":   c.Width + " " + c.Style + " " + c.Color,
			"border_width": nil,
			"border_style": nil,
			"border_color": nil,
		})
		return "<hr" + styleAttr(styles) + ">"
	case SpacerContent:
		styles := mergeMap(block.Styling, map[string]any{
			"height":      c.Height,
			"line_height": c.Height,
			"font_size":   "0",
		})
		return "<div" + styleAttr(styles) + ">&nbsp;</div>"
	case HTMLContent:
		return c.HTML
	case UnknownContent:
		return fmt.Sprintf("<div class=\"eb-unsupported\" data-block-type=\"%s\">%s: %s</div>",
			html.EscapeString(c.Type), unknownContentPrefix, html.EscapeString(c.Type))
	default:
		return ""
	}
}

var (
	linkSchemes  = []string{"http", "https", "mailto", "tel"}
	imageSchemes = []string{"http", "https", "cid"}
)

// safeURL returns raw when it is relative or uses one of schemes, otherwise
// fallback.
func safeURL(raw, fallback string, schemes []string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	if u.Scheme == "" || slices.Contains(schemes, strings.ToLower(u.Scheme)) {
		return raw
	}
	return fallback
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func renderText(blocks []Block) string {
	var parts []string
	for _, block := range SortBlocks(blocks) {
		switch c := block.TypedContent().(type) {
		case TextContent:
			parts = append(parts, c.Text)
		case HeadingContent:
			parts = append(parts, strings.ToUpper(c.Text))
		case ImageContent:
			parts = append(parts, "["+c.Alt+"]")
		case ButtonContent:
			parts = append(parts, c.Text+": "+safeURL(c.URL, DefaultButtonURL, linkSchemes))
		case DividerContent:
			parts = append(parts, strings.Repeat("-", 40))
		case SpacerContent:
			parts = append(parts, "")
		case HTMLContent:
			parts = append(parts, strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(c.HTML, ""))))
		case UnknownContent:
			parts = append(parts, "["+unknownContentPrefix+": "+c.Type+"]")
		}
	}
	return strings.Join(parts, "\n\n") + "\n"
}

func wrapDocument(data DocumentData) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	b.WriteString("<title>" + html.EscapeString(data.Title) + "</title>\n</head>\n")
	b.WriteString("<body style=\"margin:0;padding:0;background-color:" + html.EscapeString(data.BackgroundColor) + ";\">\n")
	fmt.Fprintf(&b, "<div class=\"eb-container\" data-layout-id=\"%s\" style=\"%s\">\n",
		html.EscapeString(data.Layout.ID), data.ContainerStyle)
	b.WriteString(data.Content)
	b.WriteString("</div>\n</body>\n</html>\n")
	return b.String()
}

func layoutBackground(layout Layout) string {
	if layout.BackgroundColor != "" {
		return layout.BackgroundColor
	}
	return stringValue(layout.ContainerSettings, "background_color", DefaultBackground)
}

func containerStyle(layout Layout, data DocumentData) string {
	extra := cloneMap(layout.ContainerSettings)
	delete(extra, "max_width")
	delete(extra, "background_color")
	base := "max-width:" + html.EscapeString(data.MaxWidth) + ";margin:0 auto;background-color:" + html.EscapeString(data.BackgroundColor) + ";"
	return base + inlineStyle(extra)
}

// inlineStyle renders styling keys in sorted order as CSS declarations.
// snake_case and camelCase keys become kebab-case properties.
func inlineStyle(styles map[string]any) string {
	if len(styles) == 0 {
		return ""
	}
	keys := make([]string, 0, len(styles))
	for key := range styles {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, key := range keys {
		value := stringValue(styles, key, "")
		if value == "" {
			continue
		}
		b.WriteString(strcase.ToKebab(key))
		b.WriteByte(':')
		b.WriteString(html.EscapeString(value))
		b.WriteByte(';')
	}
	return b.String()
}

func styleAttr(styles map[string]any) string {
	style := inlineStyle(styles)
	if style == "" {
		return ""
	}
	return " style=\"" + style + "\""
}

func escapeText(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
}

func percent(part, whole int) string {
	value := strconv.FormatFloat(float64(part)/float64(whole)*100, 'f', 4, 64)
	return strings.TrimRight(strings.TrimRight(value, "0"), ".") + "%"
}
