package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/grocer/internal/grocery"
	"github.com/dukerupert/grocer/internal/model"
)

type ItemHandler struct {
	items  *grocery.ItemManager
	logger *slog.Logger
}

func NewItemHandler(items *grocery.ItemManager, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{items: items, logger: logger}
}

type itemCreateRequest struct {
	Name      string                  `json:"name"`
	Quantity  model.Optional[float64] `json:"quantity"`
	Unit      *string                 `json:"unit"`
	Category  *string                 `json:"category"`
	Store     *string                 `json:"store"`
	Notes     *string                 `json:"notes"`
	Purchased model.Optional[bool]    `json:"purchased"`
}

type itemUpdateRequest struct {
	Name      model.Optional[string]  `json:"name"`
	Quantity  model.Optional[float64] `json:"quantity"`
	Unit      model.Optional[*string] `json:"unit"`
	Category  model.Optional[*string] `json:"category"`
	Store     model.Optional[*string] `json:"store"`
	Notes     model.Optional[*string] `json:"notes"`
	Purchased model.Optional[bool]    `json:"purchased"`
}

func (req itemUpdateRequest) patch() model.ItemPatch {
	return model.ItemPatch{
		Name:      req.Name,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		Category:  req.Category,
		Store:     req.Store,
		Notes:     req.Notes,
		Purchased: req.Purchased,
	}
}

func (h *ItemHandler) ListForList(w http.ResponseWriter, r *http.Request) {
	listID, err := parseIDParam(r, "list_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	page, err := pageParams(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	items, err := h.items.ListForList(r.Context(), listID, caller(r).Username, page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	listID, err := parseIDParam(r, "list_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req itemCreateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	item, err := h.items.Create(r.Context(), listID, model.NewItem{
		Name:      req.Name,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		Category:  req.Category,
		Store:     req.Store,
		Notes:     req.Notes,
		Purchased: req.Purchased,
	}, caller(r).Username)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	item, err := h.items.Get(r.Context(), id, caller(r).Username)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req itemUpdateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	item, err := h.items.Update(r.Context(), id, req.patch(), caller(r).Username)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// SetPurchased reads the flag from the purchased query parameter, or from a
// {"purchased": bool} body when the parameter is absent.
func (h *ItemHandler) SetPurchased(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	purchased, ok, err := boolParam(r, "purchased")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if !ok {
		var body struct {
			Purchased *bool `json:"purchased"`
		}
		if err := decodeJSON(w, r, &body, true); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		if body.Purchased == nil {
			writeError(w, r, h.logger, grocery.ValidationErrors{{Field: "purchased", Message: "is required"}})
			return
		}
		purchased = *body.Purchased
	}

	item, err := h.items.SetPurchased(r.Context(), id, purchased, caller(r).Username)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.items.Delete(r.Context(), id, caller(r).Username); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
