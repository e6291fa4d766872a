package session

import (
	"encoding/json"
	"net/http"
)

type Handler struct {
	Store *Store
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Store.Load(r))
}
