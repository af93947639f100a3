package serve

import (
	"encoding/json"
	"net/http"
	"strconv"

	"motioncam/store"
)

const defaultHistoryLimit = 100

type Catalog interface {
	Recent(limit int) ([]*store.Recording, error)
}

// HistoryServer lists recordings from the catalog, including ones whose
// files have since been deleted.
type HistoryServer struct {
	Catalog Catalog
}

func (s *HistoryServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit := defaultHistoryLimit
	if l := r.Form.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	rows, err := s.Catalog.Recent(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rows); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
