package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-emailbuilder/components/builder"
)

func newSession(t *testing.T) *builder.Session {
	t.Helper()
	session := builder.NewSession(builder.SessionOptions{})
	if _, err := session.CreateLayout(context.Background(), builder.LayoutSettings{GridSystem: 12}); err != nil {
		t.Fatalf("CreateLayout returned error: %v", err)
	}
	return session
}

func TestCreateLayoutCommandSeeds(t *testing.T) {
	session := builder.NewSession(builder.SessionOptions{})
	telemetry := &stubTelemetry{}
	cmd := NewCreateLayoutCommand(session, telemetry)
	var doc builder.LayoutDocument
	if err := cmd.Execute(context.Background(), CreateLayoutInput{
		Settings: builder.LayoutSettings{Name: "Welcome", GridSystem: 12},
		Seed:     true,
		Output:   &doc,
	}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(doc.Blocks) != len(builder.DefaultSeedBlocks()) {
		t.Fatalf("expected %d seeded blocks, got %d", len(builder.DefaultSeedBlocks()), len(doc.Blocks))
	}
	if telemetry.calls != 1 {
		t.Fatalf("expected telemetry to record events")
	}

	if err := cmd.Execute(context.Background(), CreateLayoutInput{Settings: builder.LayoutSettings{GridSystem: 6}, Output: &doc}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(doc.Blocks) != 0 || doc.Layout.GridSystem != 6 {
		t.Fatalf("expected a blank 6 column layout, got %+v", doc.Layout)
	}
}

func TestInsertBlockCommand(t *testing.T) {
	session := newSession(t)
	cmd := NewInsertBlockCommand(session, nil)
	var block builder.Block
	err := cmd.Execute(context.Background(), InsertBlockInput{
		InsertBlockRequest: builder.InsertBlockRequest{BlockType: builder.BlockButton, ColumnSpan: 6},
		Actor:              Actor{ActorID: "user-1"},
		Output:             &block,
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if block.ID == "" || block.ColumnSpan != 6 {
		t.Fatalf("expected output block, got %+v", block)
	}
	if err := cmd.Execute(context.Background(), InsertBlockInput{}); err == nil {
		t.Fatalf("expected error for missing block type")
	}
}

func TestMoveBlockCommand(t *testing.T) {
	session := newSession(t)
	block, err := session.InsertBlock(context.Background(), builder.InsertBlockRequest{BlockType: builder.BlockText, ColumnSpan: 6})
	if err != nil {
		t.Fatalf("InsertBlock returned error: %v", err)
	}
	cmd := NewMoveBlockCommand(session, nil)
	var moved builder.Block
	if err := cmd.Execute(context.Background(), MoveBlockInput{BlockID: block.ID, Row: 2, Column: 6, Output: &moved}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if moved.Row != 2 || moved.Column != 6 {
		t.Fatalf("expected block at (2,6), got (%d,%d)", moved.Row, moved.Column)
	}
	err = cmd.Execute(context.Background(), MoveBlockInput{BlockID: block.ID, Row: 2, Column: 8})
	if !errors.Is(err, builder.ErrInvalidSpan) {
		t.Fatalf("expected ErrInvalidSpan, got %v", err)
	}
}

func TestUpdateBlockCommand(t *testing.T) {
	session := newSession(t)
	block, err := session.InsertBlock(context.Background(), builder.InsertBlockRequest{BlockType: builder.BlockText})
	if err != nil {
		t.Fatalf("InsertBlock returned error: %v", err)
	}
	telemetry := &stubTelemetry{}
	cmd := NewUpdateBlockCommand(session, telemetry)
	name := "Intro"
	span := 10
	var updated builder.Block
	err = cmd.Execute(context.Background(), UpdateBlockInput{
		BlockID:    block.ID,
		Name:       &name,
		ColumnSpan: &span,
		Content:    map[string]any{"text": "Hello"},
		Styling:    map[string]any{"color": "#000000"},
		Output:     &updated,
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if updated.Name != "Intro" || updated.ColumnSpan != 10 || updated.Content["text"] != "Hello" || updated.Styling["color"] != "#000000" {
		t.Fatalf("unexpected block %+v", updated)
	}
	if telemetry.last["fields"] == nil {
		t.Fatalf("expected updated fields in telemetry")
	}

	err = cmd.Execute(context.Background(), UpdateBlockInput{BlockID: "missing", Name: &name})
	if !errors.Is(err, builder.ErrBlockNotFound) {
		t.Fatalf("expected ErrBlockNotFound, got %v", err)
	}
}

func TestUpdateBlockCommandRejectsWholeEdit(t *testing.T) {
	session := newSession(t)
	block, err := session.InsertBlock(context.Background(), builder.InsertBlockRequest{BlockType: builder.BlockText})
	if err != nil {
		t.Fatalf("InsertBlock returned error: %v", err)
	}
	telemetry := &stubTelemetry{}
	cmd := NewUpdateBlockCommand(session, telemetry)
	span := 6
	err = cmd.Execute(context.Background(), UpdateBlockInput{
		BlockID:    block.ID,
		ColumnSpan: &span,
		Content:    map[string]any{"text": 42},
	})
	if !errors.Is(err, builder.ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent, got %v", err)
	}
	after, err := session.Block(block.ID)
	if err != nil {
		t.Fatalf("Block returned error: %v", err)
	}
	if after.ColumnSpan != block.ColumnSpan || after.Content["text"] != block.Content["text"] {
		t.Fatalf("expected rejected update to leave block unchanged, got %+v", after)
	}
	if telemetry.calls != 0 {
		t.Fatalf("expected no telemetry for rejected update")
	}
}

func TestRemoveBlockCommand(t *testing.T) {
	session := newSession(t)
	block, err := session.InsertBlock(context.Background(), builder.InsertBlockRequest{BlockType: builder.BlockDivider})
	if err != nil {
		t.Fatalf("InsertBlock returned error: %v", err)
	}
	cmd := NewRemoveBlockCommand(session, nil)
	if err := cmd.Execute(context.Background(), RemoveBlockInput{BlockID: block.ID}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(session.Blocks()) != 0 {
		t.Fatalf("expected block to be removed")
	}
	if err := cmd.Execute(context.Background(), RemoveBlockInput{}); err == nil {
		t.Fatalf("expected error for missing block id")
	}
}

func TestUpdateLayoutCommand(t *testing.T) {
	session := newSession(t)
	cmd := NewUpdateLayoutCommand(session, nil)
	color := "#fafafa"
	var layout builder.Layout
	if err := cmd.Execute(context.Background(), UpdateLayoutInput{
		LayoutPatch: builder.LayoutPatch{BackgroundColor: &color},
		Output:      &layout,
	}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if layout.BackgroundColor != color {
		t.Fatalf("expected background %s, got %s", color, layout.BackgroundColor)
	}
}

func TestSaveLayoutCommand(t *testing.T) {
	repo := builder.NewMemoryRepository()
	session := builder.NewSession(builder.SessionOptions{Repository: repo, AutoSaveDelay: -1})
	if _, err := session.CreateLayout(context.Background(), builder.LayoutSettings{GridSystem: 12}); err != nil {
		t.Fatalf("CreateLayout returned error: %v", err)
	}
	cmd := NewSaveLayoutCommand(session, nil)
	if err := cmd.Execute(context.Background(), SaveLayoutInput{}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(repo.Layouts(session.ID())) != 1 {
		t.Fatalf("expected layout to be persisted")
	}
	if err := NewSaveLayoutCommand(nil, nil).Execute(context.Background(), SaveLayoutInput{}); err == nil {
		t.Fatalf("expected error without service")
	}
}

func TestActorReachesTelemetry(t *testing.T) {
	session := newSession(t)
	telemetry := &stubTelemetry{}
	cmd := NewInsertBlockCommand(session, telemetry)
	if err := cmd.Execute(context.Background(), InsertBlockInput{
		InsertBlockRequest: builder.InsertBlockRequest{BlockType: builder.BlockSpacer},
		Actor:              Actor{ActorID: "user-9", TenantID: "acme"},
	}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if telemetry.actor.ActorID != "user-9" || telemetry.actor.TenantID != "acme" {
		t.Fatalf("expected actor on context, got %+v", telemetry.actor)
	}
}

type stubTelemetry struct {
	calls int
	last  map[string]any
	actor builder.Actor
}

func (s *stubTelemetry) Record(ctx context.Context, _ string, payload map[string]any) {
	s.calls++
	s.last = payload
	s.actor = builder.ActorFromContext(ctx)
}
