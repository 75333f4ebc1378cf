package builder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSaveTimeout bounds a single auto-save flush.
const DefaultSaveTimeout = 30 * time.Second

// SessionOptions configures an editor Session. Every collaborator is an
// interface with a safe default, except Repository: without one the session
// edits purely in memory and never schedules saves.
type SessionOptions struct {
	ID            string
	Catalog       *Catalog
	Repository    Repository
	Validator     ContentValidator
	Notifier      Notifier
	ChangeHook    ChangeHook
	Telemetry     Telemetry
	Logger        *zap.Logger
	Exporter      *Exporter
	AutoSaveDelay time.Duration
	SaveTimeout   time.Duration
	IDGenerator   func() string
	Clock         func() time.Time
	Spans         []int
}

// Session is one editor working on one layout. It owns the layout store, the
// placement engine, the current selection and the auto-save pipeline.
//
// Local state is authoritative: accepted mutations commit immediately and are
// queued in the outbox; remote failures are reported but never roll local
// state back.
type Session struct {
	opts     SessionOptions
	store    *LayoutStore
	engine   *Engine
	outbox   *Outbox
	saver    *AutoSaver
	exporter *Exporter
	logger   *zap.Logger

	mu             sync.Mutex
	selected       string
	remoteLayoutID string
	remoteBlocks   map[string]string
	lastSaveErr    error

	saveMu sync.Mutex
}

// NewSession builds a Session with safe defaults.
func NewSession(opts SessionOptions) *Session {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Catalog == nil {
		opts.Catalog = NewCatalog()
	}
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaValidator()
	}
	if opts.Notifier == nil {
		opts.Notifier = noopNotifier{}
	}
	if opts.ChangeHook == nil {
		opts.ChangeHook = noopChangeHook{}
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Exporter == nil {
		opts.Exporter = NewExporter(ExporterOptions{})
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = DefaultSaveTimeout
	}
	store := NewLayoutStore(StoreOptions{IDGenerator: opts.IDGenerator, Clock: opts.Clock})
	s := &Session{
		opts:  opts,
		store: store,
		engine: NewEngine(EngineOptions{
			Store:       store,
			Catalog:     opts.Catalog,
			Validator:   opts.Validator,
			IDGenerator: opts.IDGenerator,
			Spans:       opts.Spans,
		}),
		outbox:       NewOutbox(),
		exporter:     opts.Exporter,
		logger:       opts.Logger.With(zap.String("session_id", opts.ID)),
		remoteBlocks: map[string]string{},
	}
	delay := opts.AutoSaveDelay
	if opts.Repository == nil {
		delay = -1
	}
	s.saver = NewAutoSaver(delay, s.autoSave)
	return s
}

// ID returns the session id sent with every repository call.
func (s *Session) ID() string { return s.opts.ID }

// Catalog returns the block type catalog used by this session.
func (s *Session) Catalog() *Catalog { return s.opts.Catalog }

// AutoSaver exposes the session's debounced saver.
func (s *Session) AutoSaver() *AutoSaver { return s.saver }

// CreateLayout starts a fresh layout, discarding any previous one.
func (s *Session) CreateLayout(ctx context.Context, settings LayoutSettings) (Layout, error) {
	layout, err := s.store.CreateLayout(settings)
	if err != nil {
		return Layout{}, err
	}
	s.outbox.Reset()
	s.mu.Lock()
	s.selected = ""
	s.remoteLayoutID = ""
	s.remoteBlocks = map[string]string{}
	s.mu.Unlock()
	s.outbox.Record(PendingChange{Kind: ChangeCreateLayout, Layout: layout})
	s.committed(ctx, EventLayoutCreate, ChangeEvent{LayoutID: layout.ID, Reason: ReasonLayoutCreated}, map[string]any{
		"layout_id":   layout.ID,
		"grid_system": layout.GridSystem,
	})
	return layout, nil
}

// Open loads a persisted layout and its blocks, replacing local state.
func (s *Session) Open(ctx context.Context, layoutID string) (LayoutDocument, error) {
	if s.opts.Repository == nil {
		return LayoutDocument{}, errMissingRepository
	}
	doc, err := s.opts.Repository.GetLayout(ctx, layoutID, s.opts.ID)
	if err != nil {
		return LayoutDocument{}, fmt.Errorf("%w: get layout %s: %w", ErrRemotePersistence, layoutID, err)
	}
	if err := s.store.Load(doc.Layout, doc.Blocks); err != nil {
		return LayoutDocument{}, err
	}
	s.saver.Cancel()
	s.outbox.Reset()
	s.mu.Lock()
	s.selected = ""
	s.remoteLayoutID = doc.Layout.ID
	s.remoteBlocks = make(map[string]string, len(doc.Blocks))
	for _, block := range doc.Blocks {
		s.remoteBlocks[block.ID] = block.ID
	}
	s.mu.Unlock()
	s.emit(ctx, ChangeEvent{LayoutID: doc.Layout.ID, Reason: ReasonLayoutOpened})
	s.opts.Telemetry.Record(ctx, EventLayoutOpen, map[string]any{
		"layout_id": doc.Layout.ID,
		"blocks":    len(doc.Blocks),
	})
	return s.Document()
}

// Layout returns the active layout.
func (s *Session) Layout() (Layout, error) {
	layout, ok := s.store.Layout()
	if !ok {
		return Layout{}, ErrNoActiveLayout
	}
	return layout, nil
}

// Blocks lists blocks in insertion order.
func (s *Session) Blocks() []Block {
	return s.store.Blocks()
}

// Block returns a block by id.
func (s *Session) Block(id string) (Block, error) {
	if _, ok := s.store.Layout(); !ok {
		return Block{}, ErrNoActiveLayout
	}
	block, ok := s.store.Block(id)
	if !ok {
		return Block{}, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	return block, nil
}

// Document returns the layout with its blocks.
func (s *Session) Document() (LayoutDocument, error) {
	layout, blocks := s.store.Snapshot()
	if layout == nil {
		return LayoutDocument{}, ErrNoActiveLayout
	}
	return LayoutDocument{Layout: *layout, Blocks: blocks}, nil
}

// InsertBlock places a new block.
func (s *Session) InsertBlock(ctx context.Context, req InsertBlockRequest) (Block, error) {
	block, err := s.engine.InsertBlock(req)
	if err != nil {
		return Block{}, err
	}
	s.blockChanged(ctx, ChangeCreateBlock, EventBlockInsert, ReasonBlockInserted, block)
	return block, nil
}

// MoveBlock moves a block to a new start cell. Moving a block onto its own
// cell succeeds and records nothing.
func (s *Session) MoveBlock(ctx context.Context, id string, row, column int) (Block, error) {
	before, existed := s.store.Block(id)
	block, err := s.engine.MoveBlock(id, row, column)
	if err != nil {
		return Block{}, err
	}
	if existed && before.Row == block.Row && before.Column == block.Column {
		return block, nil
	}
	s.blockChanged(ctx, ChangeUpdateBlock, EventBlockMove, ReasonBlockMoved, block)
	return block, nil
}

// UpdateBlock applies several block edits as one change.
func (s *Session) UpdateBlock(ctx context.Context, id string, edit BlockEdit) (Block, error) {
	block, err := s.engine.UpdateBlock(id, edit)
	if err != nil {
		return Block{}, err
	}
	s.blockChanged(ctx, ChangeUpdateBlock, EventBlockUpdate, ReasonBlockUpdated, block)
	return block, nil
}

// UpdateBlockContent shallow-merges a content patch.
func (s *Session) UpdateBlockContent(ctx context.Context, id string, patch map[string]any) (Block, error) {
	block, err := s.engine.UpdateBlockContent(id, patch)
	if err != nil {
		return Block{}, err
	}
	s.blockChanged(ctx, ChangeUpdateBlock, EventBlockUpdate, ReasonBlockUpdated, block)
	return block, nil
}

// UpdateBlockStyle shallow-merges a styling patch.
func (s *Session) UpdateBlockStyle(ctx context.Context, id string, patch map[string]any) (Block, error) {
	block, err := s.engine.UpdateBlockStyle(id, patch)
	if err != nil {
		return Block{}, err
	}
	s.blockChanged(ctx, ChangeUpdateBlock, EventBlockUpdate, ReasonBlockUpdated, block)
	return block, nil
}

// UpdateBlockSpan resizes a block.
func (s *Session) UpdateBlockSpan(ctx context.Context, id string, span int) (Block, error) {
	block, err := s.engine.UpdateBlockSpan(id, span)
	if err != nil {
		return Block{}, err
	}
	s.blockChanged(ctx, ChangeUpdateBlock, EventBlockUpdate, ReasonBlockUpdated, block)
	return block, nil
}

// RenameBlock sets a block's label.
func (s *Session) RenameBlock(ctx context.Context, id, name string) (Block, error) {
	block, err := s.engine.RenameBlock(id, name)
	if err != nil {
		return Block{}, err
	}
	s.blockChanged(ctx, ChangeUpdateBlock, EventBlockUpdate, ReasonBlockUpdated, block)
	return block, nil
}

// DeleteBlock removes a block and clears the selection if it pointed at it.
func (s *Session) DeleteBlock(ctx context.Context, id string) error {
	block, err := s.engine.DeleteBlock(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.selected == id {
		s.selected = ""
	}
	s.mu.Unlock()
	s.outbox.Record(PendingChange{Kind: ChangeDeleteBlock, Block: block})
	s.committed(ctx, EventBlockDelete, ChangeEvent{LayoutID: block.LayoutID, BlockID: block.ID, Reason: ReasonBlockDeleted}, map[string]any{
		"block_id":   block.ID,
		"block_type": block.BlockType,
	})
	return nil
}

// UpdateLayoutSettings merges presentation settings into the layout.
func (s *Session) UpdateLayoutSettings(ctx context.Context, patch LayoutPatch) (Layout, error) {
	layout, err := s.store.UpdateLayoutSettings(patch)
	if err != nil {
		return Layout{}, err
	}
	s.outbox.Record(PendingChange{Kind: ChangeUpdateLayout, Layout: layout})
	s.committed(ctx, EventLayoutUpdate, ChangeEvent{LayoutID: layout.ID, Reason: ReasonLayoutUpdated}, map[string]any{
		"layout_id": layout.ID,
	})
	return layout, nil
}

// Select marks a block as the current selection.
func (s *Session) Select(id string) error {
	if _, err := s.Block(id); err != nil {
		return err
	}
	s.mu.Lock()
	s.selected = id
	s.mu.Unlock()
	return nil
}

// Selected returns the selected block id, if any.
func (s *Session) Selected() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.selected != ""
}

// ClearSelection drops the selection.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	s.selected = ""
	s.mu.Unlock()
}

// Export renders the current state as an HTML document.
func (s *Session) Export(ctx context.Context) (string, error) {
	layout, blocks := s.store.Snapshot()
	out, err := s.exporter.Export(layout, blocks)
	if err != nil {
		return "", err
	}
	s.opts.Telemetry.Record(ctx, EventExport, map[string]any{
		"layout_id": layout.ID,
		"blocks":    len(blocks),
		"format":    "html",
	})
	return out, nil
}

// ExportText renders the current state as plain text.
func (s *Session) ExportText(ctx context.Context) (string, error) {
	layout, blocks := s.store.Snapshot()
	out, err := s.exporter.ExportText(layout, blocks)
	if err != nil {
		return "", err
	}
	s.opts.Telemetry.Record(ctx, EventExport, map[string]any{
		"layout_id": layout.ID,
		"blocks":    len(blocks),
		"format":    "text",
	})
	return out, nil
}

// Pending returns the changes waiting to be pushed.
func (s *Session) Pending() []PendingChange {
	return s.outbox.Pending()
}

// LastSaveError returns the error of the most recent flush, nil on success.
func (s *Session) LastSaveError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaveErr
}

// Save pushes every pending change now, superseding a scheduled auto-save.
func (s *Session) Save(ctx context.Context) error {
	s.saver.Cancel()
	return s.sync(ctx)
}

// Close stops the auto-saver and flushes pending changes.
func (s *Session) Close(ctx context.Context) error {
	s.saver.Stop()
	if s.opts.Repository == nil || s.outbox.Len() == 0 {
		return nil
	}
	return s.sync(ctx)
}

func (s *Session) autoSave() {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.SaveTimeout)
	defer cancel()
	_ = s.sync(ctx)
}

func (s *Session) blockChanged(ctx context.Context, kind ChangeKind, event, reason string, block Block) {
	s.outbox.Record(PendingChange{Kind: kind, Block: block})
	snapshot := block.Clone()
	s.committed(ctx, event, ChangeEvent{LayoutID: block.LayoutID, BlockID: block.ID, Reason: reason, Block: &snapshot}, map[string]any{
		"block_id":   block.ID,
		"block_type": block.BlockType,
		"row":        block.Row,
		"column":     block.Column,
	})
}

// committed runs the side effects shared by every accepted mutation.
func (s *Session) committed(ctx context.Context, event string, change ChangeEvent, payload map[string]any) {
	payload["pending"] = s.outbox.Len()
	s.emit(ctx, change)
	s.opts.Telemetry.Record(ctx, event, payload)
	s.saver.Schedule()
}

func (s *Session) emit(ctx context.Context, change ChangeEvent) {
	if err := s.opts.ChangeHook.LayoutChanged(ctx, change); err != nil {
		s.logger.Warn("change hook failed", zap.String("reason", change.Reason), zap.Error(err))
	}
}

// sync drains the outbox into the repository. Failed changes go back into the
// outbox; nothing is rolled back locally.
func (s *Session) sync(ctx context.Context) error {
	if s.opts.Repository == nil {
		return errMissingRepository
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	changes := s.outbox.Drain()
	if len(changes) == 0 {
		return nil
	}
	started := time.Now()
	var (
		failed []PendingChange
		errs   []error
	)
	for i, change := range changes {
		if err := s.push(ctx, change); err != nil {
			errs = append(errs, err)
			if change.Kind == ChangeCreateLayout {
				failed = append(failed, changes[i:]...)
				break
			}
			failed = append(failed, change)
		}
	}
	if len(failed) > 0 {
		s.outbox.Requeue(failed)
	}
	err := errors.Join(errs...)
	s.mu.Lock()
	s.lastSaveErr = err
	layoutID := s.remoteLayoutID
	s.mu.Unlock()

	payload := map[string]any{
		"layout_id":   layoutID,
		"changes":     len(changes),
		"failed":      len(failed),
		"pending":     s.outbox.Len(),
		"duration_ms": time.Since(started).Milliseconds(),
	}
	if err != nil {
		s.logger.Error("auto-save failed",
			zap.Int("changes", len(changes)),
			zap.Int("failed", len(failed)),
			zap.Error(err),
		)
		s.opts.Notifier.Notify(ctx, Notice{
			Level:    NoticeError,
			Message:  fmt.Sprintf("Could not save %d change(s); they will be retried on the next save", len(failed)),
			LayoutID: layoutID,
			Err:      err,
		})
		s.opts.Telemetry.Record(ctx, EventSaveFailed, payload)
		s.emit(ctx, ChangeEvent{LayoutID: layoutID, Reason: ReasonSaveFailed})
		return err
	}
	s.logger.Debug("auto-save flushed", zap.Int("changes", len(changes)))
	s.opts.Telemetry.Record(ctx, EventSaveSucceeded, payload)
	s.emit(ctx, ChangeEvent{LayoutID: layoutID, Reason: ReasonSaved})
	return nil
}

func (s *Session) push(ctx context.Context, change PendingChange) error {
	repo := s.opts.Repository
	sessionID := s.opts.ID
	switch change.Kind {
	case ChangeCreateLayout:
		remote, err := repo.CreateLayout(ctx, sessionID, change.Layout.Settings())
		if err != nil {
			return remoteError(change, err)
		}
		id := remote.ID
		if id == "" {
			id = change.Layout.ID
		}
		s.mu.Lock()
		s.remoteLayoutID = id
		s.mu.Unlock()
	case ChangeUpdateLayout:
		layoutID, err := s.remoteLayout(change)
		if err != nil {
			return err
		}
		if _, err := repo.UpdateLayout(ctx, layoutID, sessionID, change.Layout.fullPatch()); err != nil {
			return remoteError(change, err)
		}
	case ChangeCreateBlock:
		layoutID, err := s.remoteLayout(change)
		if err != nil {
			return err
		}
		remote, err := repo.CreateBlock(ctx, layoutID, sessionID, change.Block.createRequest())
		if err != nil {
			return remoteError(change, err)
		}
		id := remote.ID
		if id == "" {
			id = change.Block.ID
		}
		s.mu.Lock()
		s.remoteBlocks[change.Block.ID] = id
		s.mu.Unlock()
	case ChangeUpdateBlock:
		if _, err := repo.UpdateBlock(ctx, s.remoteBlock(change.Block.ID), sessionID, change.Block.fullPatch()); err != nil {
			return remoteError(change, err)
		}
	case ChangeDeleteBlock:
		if err := repo.DeleteBlock(ctx, s.remoteBlock(change.Block.ID), sessionID); err != nil {
			return remoteError(change, err)
		}
		s.mu.Lock()
		delete(s.remoteBlocks, change.Block.ID)
		s.mu.Unlock()
	default:
		return fmt.Errorf("builder: unknown change kind %q", change.Kind)
	}
	return nil
}

func (s *Session) remoteLayout(change PendingChange) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remoteLayoutID == "" {
		return "", remoteError(change, errors.New("layout not persisted yet"))
	}
	return s.remoteLayoutID, nil
}

func (s *Session) remoteBlock(localID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.remoteBlocks[localID]; ok {
		return id
	}
	return localID
}

func remoteError(change PendingChange, err error) error {
	target := change.Block.ID
	if change.Kind == ChangeCreateLayout || change.Kind == ChangeUpdateLayout {
		target = change.Layout.ID
	}
	return fmt.Errorf("%w: %s %s: %w", ErrRemotePersistence, change.Kind, target, err)
}
