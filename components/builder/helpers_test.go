package builder

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

func sequentialIDs(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s%d", prefix, n.Add(1))
	}
}

// recordingRepository wraps MemoryRepository, logs every call and can be
// told to fail selected operations.
type recordingRepository struct {
	*MemoryRepository

	mu      sync.Mutex
	calls   []string
	patches []BlockPatch
	fail    map[string]error
}

func newRecordingRepository() *recordingRepository {
	return &recordingRepository{
		MemoryRepository: NewMemoryRepository(),
		fail:             map[string]error{},
	}
}

func (r *recordingRepository) record(op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, op)
	return r.fail[op]
}

func (r *recordingRepository) failOn(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.fail, op)
		return
	}
	r.fail[op] = err
}

func (r *recordingRepository) count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, call := range r.calls {
		if call == op {
			n++
		}
	}
	return n
}

func (r *recordingRepository) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.patches = nil
}

func (r *recordingRepository) lastPatch() BlockPatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.patches) == 0 {
		return BlockPatch{}
	}
	return r.patches[len(r.patches)-1]
}

func (r *recordingRepository) CreateLayout(ctx context.Context, sessionID string, settings LayoutSettings) (Layout, error) {
	if err := r.record("CreateLayout"); err != nil {
		return Layout{}, err
	}
	return r.MemoryRepository.CreateLayout(ctx, sessionID, settings)
}

func (r *recordingRepository) GetLayout(ctx context.Context, layoutID, sessionID string) (LayoutDocument, error) {
	if err := r.record("GetLayout"); err != nil {
		return LayoutDocument{}, err
	}
	return r.MemoryRepository.GetLayout(ctx, layoutID, sessionID)
}

func (r *recordingRepository) CreateBlock(ctx context.Context, layoutID, sessionID string, req CreateBlockRequest) (Block, error) {
	if err := r.record("CreateBlock"); err != nil {
		return Block{}, err
	}
	return r.MemoryRepository.CreateBlock(ctx, layoutID, sessionID, req)
}

func (r *recordingRepository) UpdateBlock(ctx context.Context, blockID, sessionID string, patch BlockPatch) (Block, error) {
	if err := r.record("UpdateBlock"); err != nil {
		return Block{}, err
	}
	r.mu.Lock()
	r.patches = append(r.patches, patch)
	r.mu.Unlock()
	return r.MemoryRepository.UpdateBlock(ctx, blockID, sessionID, patch)
}

func (r *recordingRepository) DeleteBlock(ctx context.Context, blockID, sessionID string) error {
	if err := r.record("DeleteBlock"); err != nil {
		return err
	}
	return r.MemoryRepository.DeleteBlock(ctx, blockID, sessionID)
}

func (r *recordingRepository) UpdateLayout(ctx context.Context, layoutID, sessionID string, patch LayoutPatch) (Layout, error) {
	if err := r.record("UpdateLayout"); err != nil {
		return Layout{}, err
	}
	return r.MemoryRepository.UpdateLayout(ctx, layoutID, sessionID, patch)
}

type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (t *recordingTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

func (t *recordingTelemetry) has(event string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.events {
		if e == event {
			return true
		}
	}
	return false
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *recordingNotifier) Notify(_ context.Context, notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) all() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}
