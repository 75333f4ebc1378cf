package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-emailbuilder/components/builder"
	"github.com/goliatone/go-emailbuilder/components/builder/commands"
)

// Handlers exposes HTTP endpoints backed by shared commands.
type Handlers struct {
	Insert gocommand.Commander[commands.InsertBlockInput]
	Move   gocommand.Commander[commands.MoveBlockInput]
	Update gocommand.Commander[commands.UpdateBlockInput]
	Remove gocommand.Commander[commands.RemoveBlockInput]
	Layout gocommand.Commander[commands.UpdateLayoutInput]
	Save   gocommand.Commander[commands.SaveLayoutInput]
}

func (h *Handlers) HandleInsertBlock(w http.ResponseWriter, r *http.Request) {
	var payload commands.InsertBlockInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var block builder.Block
	payload.Output = &block
	if err := h.Insert.Execute(r.Context(), payload); err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, block)
}

func (h *Handlers) HandleMoveBlock(w http.ResponseWriter, r *http.Request, blockID string) {
	var payload commands.MoveBlockInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payload.BlockID = blockID
	var block builder.Block
	payload.Output = &block
	if err := h.Move.Execute(r.Context(), payload); err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, block)
}

func (h *Handlers) HandleUpdateBlock(w http.ResponseWriter, r *http.Request, blockID string) {
	var payload commands.UpdateBlockInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payload.BlockID = blockID
	var block builder.Block
	payload.Output = &block
	if err := h.Update.Execute(r.Context(), payload); err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, block)
}

func (h *Handlers) HandleRemoveBlock(w http.ResponseWriter, r *http.Request, blockID string) {
	input := commands.RemoveBlockInput{BlockID: blockID}
	if err := h.Remove.Execute(r.Context(), input); err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleUpdateLayout(w http.ResponseWriter, r *http.Request) {
	var payload commands.UpdateLayoutInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var layout builder.Layout
	payload.Output = &layout
	if err := h.Layout.Execute(r.Context(), payload); err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

func (h *Handlers) HandleSave(w http.ResponseWriter, r *http.Request) {
	if err := h.Save.Execute(r.Context(), commands.SaveLayoutInput{}); err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// StatusFor maps builder errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, builder.ErrBlockNotFound):
		return http.StatusNotFound
	case errors.Is(err, builder.ErrNoActiveLayout),
		errors.Is(err, builder.ErrCellOccupied):
		return http.StatusConflict
	case errors.Is(err, builder.ErrUnknownBlockType),
		errors.Is(err, builder.ErrInvalidSpan),
		errors.Is(err, builder.ErrInvalidPosition),
		errors.Is(err, builder.ErrInvalidContent),
		errors.Is(err, builder.ErrInvalidConfig):
		return http.StatusUnprocessableEntity
	case errors.Is(err, builder.ErrRemotePersistence):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
