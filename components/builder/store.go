package builder

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MutationKind identifies the block change committed through LayoutStore.Apply.
type MutationKind string

const (
	MutationInsert MutationKind = "insert"
	MutationUpdate MutationKind = "update"
	MutationDelete MutationKind = "delete"
)

// BlockMutation is a validated change handed to the store by the Engine.
// Delete only reads Block.ID.
type BlockMutation struct {
	Kind  MutationKind
	Block Block
}

// StoreOptions configures a LayoutStore.
type StoreOptions struct {
	IDGenerator func() string
	Clock       func() time.Time
}

// LayoutStore holds the canonical in-memory state for one layout and its
// blocks. It does not validate placement; the Engine does that before calling
// Apply.
type LayoutStore struct {
	mu     sync.RWMutex
	opts   StoreOptions
	layout *Layout
	order  []string
	blocks map[string]Block
	cells  map[string]string
}

// NewLayoutStore builds an empty store.
func NewLayoutStore(opts StoreOptions) *LayoutStore {
	if opts.IDGenerator == nil {
		opts.IDGenerator = uuid.NewString
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &LayoutStore{
		opts:   opts,
		blocks: map[string]Block{},
		cells:  map[string]string{},
	}
}

// CellKey formats the occupancy key of a grid cell.
func CellKey(row, column int) string {
	return strconv.Itoa(row) + "-" + strconv.Itoa(column)
}

// CreateLayout replaces the current state with a fresh, empty layout.
func (s *LayoutStore) CreateLayout(settings LayoutSettings) (Layout, error) {
	if settings.GridSystem < 1 {
		return Layout{}, fmt.Errorf("%w: grid system must be positive, got %d", ErrInvalidConfig, settings.GridSystem)
	}
	if settings.LayoutType == "" {
		settings.LayoutType = LayoutSingleColumn
	}
	now := s.opts.Clock().UTC()
	layout := Layout{
		ID:                s.opts.IDGenerator(),
		Name:              settings.Name,
		LayoutType:        settings.LayoutType,
		GridSystem:        settings.GridSystem,
		BackgroundColor:   settings.BackgroundColor,
		ContainerSettings: cloneMap(settings.ContainerSettings),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked(layout)
	return layout.Clone(), nil
}

// Load replaces the current state with a layout read from persistence.
// Blocks keep the given order; a later block claiming an occupied cell is
// rejected so the occupancy invariant holds for loaded state too.
func (s *LayoutStore) Load(layout Layout, blocks []Block) error {
	if layout.GridSystem < 1 {
		return fmt.Errorf("%w: grid system must be positive, got %d", ErrInvalidConfig, layout.GridSystem)
	}
	seen := make(map[string]string, len(blocks))
	for _, block := range blocks {
		key := CellKey(block.Row, block.Column)
		if other, ok := seen[key]; ok {
			return fmt.Errorf("%w: blocks %s and %s both at %s", ErrCellOccupied, other, block.ID, key)
		}
		seen[key] = block.ID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked(layout.Clone())
	for _, block := range blocks {
		block = block.Clone()
		block.LayoutID = layout.ID
		s.insertLocked(block)
	}
	return nil
}

func (s *LayoutStore) resetLocked(layout Layout) {
	s.layout = &layout
	s.order = nil
	s.blocks = map[string]Block{}
	s.cells = map[string]string{}
}

// Layout returns the active layout.
func (s *LayoutStore) Layout() (Layout, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.layout == nil {
		return Layout{}, false
	}
	return s.layout.Clone(), true
}

// Blocks lists blocks in insertion order. Callers needing positional order
// must sort explicitly.
func (s *LayoutStore) Blocks() []Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Block, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.blocks[id].Clone())
	}
	return out
}

// Block returns a block by id.
func (s *LayoutStore) Block(id string) (Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	block, ok := s.blocks[id]
	if !ok {
		return Block{}, false
	}
	return block.Clone(), true
}

// Occupant returns the id of the block starting at (row, column).
func (s *LayoutStore) Occupant(row, column int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.cells[CellKey(row, column)]
	return id, ok
}

// Snapshot returns the layout and its blocks under a single read lock.
func (s *LayoutStore) Snapshot() (*Layout, []Block) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.layout == nil {
		return nil, nil
	}
	layout := s.layout.Clone()
	blocks := make([]Block, 0, len(s.order))
	for _, id := range s.order {
		blocks = append(blocks, s.blocks[id].Clone())
	}
	return &layout, blocks
}

// UpdateLayoutSettings merges presentation fields. ID, LayoutType and
// GridSystem never change.
func (s *LayoutStore) UpdateLayoutSettings(patch LayoutPatch) (Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.layout == nil {
		return Layout{}, ErrNoActiveLayout
	}
	updated := s.layout.Clone()
	if patch.Name != nil {
		updated.Name = *patch.Name
	}
	if patch.BackgroundColor != nil {
		updated.BackgroundColor = *patch.BackgroundColor
	}
	if patch.ContainerSettings != nil {
		updated.ContainerSettings = mergeMap(updated.ContainerSettings, patch.ContainerSettings)
	}
	updated.UpdatedAt = s.opts.Clock().UTC()
	s.layout = &updated
	return updated.Clone(), nil
}

// Apply commits a block mutation.
func (s *LayoutStore) Apply(m BlockMutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.layout == nil {
		return ErrNoActiveLayout
	}
	switch m.Kind {
	case MutationInsert:
		block := m.Block.Clone()
		block.LayoutID = s.layout.ID
		s.insertLocked(block)
	case MutationUpdate:
		current, ok := s.blocks[m.Block.ID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrBlockNotFound, m.Block.ID)
		}
		s.releaseCellLocked(current)
		block := m.Block.Clone()
		block.LayoutID = s.layout.ID
		s.blocks[block.ID] = block
		s.cells[CellKey(block.Row, block.Column)] = block.ID
	case MutationDelete:
		current, ok := s.blocks[m.Block.ID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrBlockNotFound, m.Block.ID)
		}
		s.releaseCellLocked(current)
		delete(s.blocks, current.ID)
		for i, id := range s.order {
			if id == current.ID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	default:
		return fmt.Errorf("builder: unknown mutation kind %q", m.Kind)
	}
	s.layout.UpdatedAt = s.opts.Clock().UTC()
	return nil
}

func (s *LayoutStore) insertLocked(block Block) {
	if _, exists := s.blocks[block.ID]; !exists {
		s.order = append(s.order, block.ID)
	}
	s.blocks[block.ID] = block
	s.cells[CellKey(block.Row, block.Column)] = block.ID
}

func (s *LayoutStore) releaseCellLocked(block Block) {
	key := CellKey(block.Row, block.Column)
	if s.cells[key] == block.ID {
		delete(s.cells, key)
	}
}
