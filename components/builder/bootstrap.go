package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedLayout creates a layout populated with the starter blocks.
func SeedLayout(ctx context.Context, session *Session, settings LayoutSettings) (LayoutDocument, error) {
	if session == nil {
		return LayoutDocument{}, errors.New("builder: session is required to seed layout")
	}
	if _, err := session.CreateLayout(ctx, settings); err != nil {
		return LayoutDocument{}, err
	}
	var seedErr error
	for _, seed := range DefaultSeedBlocks() {
		_, err := session.InsertBlock(ctx, InsertBlockRequest{
			BlockType:  seed.BlockType,
			Row:        seed.Row,
			Column:     seed.Column,
			ColumnSpan: seed.ColumnSpan,
			Content:    seed.Content,
			Styling:    seed.Styling,
		})
		if err != nil {
			seedErr = errors.Join(seedErr, fmt.Errorf("seed %s at (%d,%d): %w", seed.BlockType, seed.Row, seed.Column, err))
		}
	}
	doc, err := session.Document()
	if err != nil {
		return LayoutDocument{}, err
	}
	return doc, seedErr
}

// LayoutFile is a declarative layout: settings plus block placements,
// replayed through the placement engine.
type LayoutFile struct {
	Layout LayoutSettings       `yaml:"layout" json:"layout"`
	Blocks []InsertBlockRequest `yaml:"blocks" json:"blocks"`
}

// ReadLayoutFile loads a layout file from disk.
func ReadLayoutFile(path string) (LayoutFile, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return LayoutFile{}, fmt.Errorf("builder: open layout %s: %w", path, err)
	}
	defer f.Close()
	file, err := DecodeLayoutFile(f)
	if err != nil {
		return LayoutFile{}, fmt.Errorf("builder: layout %s: %w", path, err)
	}
	return file, nil
}

// DecodeLayoutFile parses a YAML (or JSON) layout file.
func DecodeLayoutFile(r io.Reader) (LayoutFile, error) {
	var file LayoutFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if err == io.EOF {
			return LayoutFile{}, fmt.Errorf("%w: layout file is empty", ErrInvalidConfig)
		}
		return LayoutFile{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if file.Layout.GridSystem == 0 {
		file.Layout.GridSystem = DefaultGridSystem
	}
	return file, nil
}

// Replay creates the file's layout in session and inserts every block. It
// stops at the first rejected placement.
func Replay(ctx context.Context, session *Session, file LayoutFile) (LayoutDocument, error) {
	if _, err := session.CreateLayout(ctx, file.Layout); err != nil {
		return LayoutDocument{}, err
	}
	for i, req := range file.Blocks {
		if _, err := session.InsertBlock(ctx, req); err != nil {
			return LayoutDocument{}, fmt.Errorf("block %d (%s): %w", i, req.BlockType, err)
		}
	}
	return session.Document()
}
