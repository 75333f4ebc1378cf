package builder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository. Layouts are scoped to the
// session that created them.
type MemoryRepository struct {
	mu      sync.RWMutex
	layouts map[string]memoryLayout
	blocks  map[string]Block
	now     func() time.Time
}

type memoryLayout struct {
	layout    Layout
	sessionID string
	order     []string
}

// NewMemoryRepository builds an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		layouts: map[string]memoryLayout{},
		blocks:  map[string]Block{},
		now:     time.Now,
	}
}

func (r *MemoryRepository) CreateLayout(_ context.Context, sessionID string, settings LayoutSettings) (Layout, error) {
	if settings.GridSystem < 1 {
		return Layout{}, fmt.Errorf("%w: grid system must be positive", ErrInvalidConfig)
	}
	now := r.now().UTC()
	layout := Layout{
		ID:                uuid.NewString(),
		Name:              settings.Name,
		LayoutType:        settings.LayoutType,
		GridSystem:        settings.GridSystem,
		BackgroundColor:   settings.BackgroundColor,
		ContainerSettings: cloneMap(settings.ContainerSettings),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layouts[layout.ID] = memoryLayout{layout: layout, sessionID: sessionID}
	return layout.Clone(), nil
}

func (r *MemoryRepository) GetLayout(_ context.Context, layoutID, sessionID string) (LayoutDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, err := r.layoutLocked(layoutID, sessionID)
	if err != nil {
		return LayoutDocument{}, err
	}
	doc := LayoutDocument{Layout: entry.layout.Clone(), Blocks: make([]Block, 0, len(entry.order))}
	for _, id := range entry.order {
		doc.Blocks = append(doc.Blocks, r.blocks[id].Clone())
	}
	return doc, nil
}

func (r *MemoryRepository) CreateBlock(_ context.Context, layoutID, sessionID string, req CreateBlockRequest) (Block, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, err := r.layoutLocked(layoutID, sessionID)
	if err != nil {
		return Block{}, err
	}
	block := Block{
		ID:         uuid.NewString(),
		LayoutID:   layoutID,
		BlockType:  req.BlockType,
		Name:       req.Name,
		Row:        req.Row,
		Column:     req.Column,
		ColumnSpan: req.ColumnSpan,
		Content:    cloneMap(req.Content),
		Styling:    cloneMap(req.Styling),
	}
	r.blocks[block.ID] = block
	entry.order = append(entry.order, block.ID)
	entry.layout.UpdatedAt = r.now().UTC()
	r.layouts[layoutID] = entry
	return block.Clone(), nil
}

func (r *MemoryRepository) UpdateBlock(_ context.Context, blockID, sessionID string, patch BlockPatch) (Block, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	block, err := r.blockLocked(blockID, sessionID)
	if err != nil {
		return Block{}, err
	}
	block = patch.Apply(block)
	r.blocks[blockID] = block
	return block.Clone(), nil
}

func (r *MemoryRepository) DeleteBlock(_ context.Context, blockID, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	block, err := r.blockLocked(blockID, sessionID)
	if err != nil {
		return err
	}
	delete(r.blocks, blockID)
	entry := r.layouts[block.LayoutID]
	for i, id := range entry.order {
		if id == blockID {
			entry.order = append(entry.order[:i], entry.order[i+1:]...)
			break
		}
	}
	r.layouts[block.LayoutID] = entry
	return nil
}

func (r *MemoryRepository) UpdateLayout(_ context.Context, layoutID, sessionID string, patch LayoutPatch) (Layout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, err := r.layoutLocked(layoutID, sessionID)
	if err != nil {
		return Layout{}, err
	}
	entry.layout = patch.Apply(entry.layout)
	entry.layout.UpdatedAt = r.now().UTC()
	r.layouts[layoutID] = entry
	return entry.layout.Clone(), nil
}

// Layouts returns the ids of layouts owned by sessionID.
func (r *MemoryRepository) Layouts(sessionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for id, entry := range r.layouts {
		if entry.sessionID == sessionID {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *MemoryRepository) layoutLocked(layoutID, sessionID string) (memoryLayout, error) {
	entry, ok := r.layouts[layoutID]
	if !ok || entry.sessionID != sessionID {
		return memoryLayout{}, fmt.Errorf("%w: layout %s", ErrRecordNotFound, layoutID)
	}
	return entry, nil
}

func (r *MemoryRepository) blockLocked(blockID, sessionID string) (Block, error) {
	block, ok := r.blocks[blockID]
	if !ok {
		return Block{}, fmt.Errorf("%w: block %s", ErrRecordNotFound, blockID)
	}
	if _, err := r.layoutLocked(block.LayoutID, sessionID); err != nil {
		return Block{}, fmt.Errorf("%w: block %s", ErrRecordNotFound, blockID)
	}
	return block, nil
}
