package config

import (
	"encoding/json"
	"net/http"
)

// ServeHTTP lists the dropdown option tables.
func (o Options) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(o)
}
