package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/grocer/internal/grocery"
)

type StoreHandler struct {
	stores *grocery.StoreDirectory
	logger *slog.Logger
}

func NewStoreHandler(stores *grocery.StoreDirectory, logger *slog.Logger) *StoreHandler {
	return &StoreHandler{stores: stores, logger: logger}
}

func (h *StoreHandler) Popular(w http.ResponseWriter, r *http.Request) {
	limit := grocery.DefaultPopularStores
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, r, h.logger, grocery.ValidationErrors{{Field: "limit", Message: "must be an integer"}})
			return
		}
		limit = n
	}

	stores, err := h.stores.Popular(r.Context(), limit, caller(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"stores": stores})
}
