package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/grocer/internal/grocery"
	"github.com/dukerupert/grocer/internal/model"
)

type ListHandler struct {
	lists    *grocery.ListManager
	migrator *grocery.Migrator
	logger   *slog.Logger
}

func NewListHandler(lists *grocery.ListManager, migrator *grocery.Migrator, logger *slog.Logger) *ListHandler {
	return &ListHandler{lists: lists, migrator: migrator, logger: logger}
}

type listCreateRequest struct {
	Name        *string   `json:"name"`
	Stores      *string   `json:"stores"`
	Description *string   `json:"description"`
	ListDate    *listDate `json:"list_date"`
}

type listUpdateRequest struct {
	Name        model.Optional[string]    `json:"name"`
	Stores      model.Optional[*string]   `json:"stores"`
	Description model.Optional[*string]   `json:"description"`
	ListDate    model.Optional[*listDate] `json:"list_date"`
	IsClosed    model.Optional[bool]      `json:"is_closed"`
}

func (req listUpdateRequest) patch() model.ListPatch {
	p := model.ListPatch{
		Name:        req.Name,
		Stores:      req.Stores,
		Description: req.Description,
		IsClosed:    req.IsClosed,
	}
	if req.ListDate.Set {
		p.ListDate = model.Optional[*time.Time]{Value: req.ListDate.Value.time(), Set: true, Null: req.ListDate.Null}
	}
	return p
}

type closeRequest struct {
	Migration *model.MigrationRequest `json:"migration"`
}

func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	includeClosed, _, err := boolParam(r, "include_closed")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	lists, err := h.lists.ListForOwner(r.Context(), caller(r).Username, page, includeClosed)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req listCreateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	l, err := h.lists.Create(r.Context(), model.NewList{
		Name:        req.Name,
		Stores:      req.Stores,
		Description: req.Description,
		ListDate:    req.ListDate.time(),
	}, caller(r).Username)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	l, err := h.lists.GetWithItems(r.Context(), id, caller(r).Username)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *ListHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req listUpdateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	l, err := h.lists.Update(r.Context(), id, req.patch(), caller(r).Username)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.lists.Delete(r.Context(), id, caller(r).Username); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Close archives a list. The body is optional; {"migration": {...}} moves
// items out first.
func (h *ListHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req closeRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	l, err := h.lists.Close(r.Context(), id, req.Migration, caller(r).Username)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// MigrateItems moves items out of the list in the path and returns the
// destination list with its items.
func (h *ListHandler) MigrateItems(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req model.MigrationRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	dest, err := h.migrator.Migrate(r.Context(), &id, req, caller(r).Username)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dest)
}
