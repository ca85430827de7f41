package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"fieldserve-backend/internal/cache"
	"fieldserve-backend/internal/models"
)

// serveDropdown answers a /dropdown request from the redis cache, falling
// back to fetch and re-priming the cache on a miss.
func serveDropdown(w http.ResponseWriter, r *http.Request, entity string, fetch func(ctx context.Context) ([]*models.DropdownItem, error)) {
	if data, ok := cache.GetDropdown(r.Context(), entity); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
		return
	}

	items, err := fetch(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if items == nil {
		items = []*models.DropdownItem{}
	}

	payload, err := json.Marshal(items)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	cache.CacheDropdown(r.Context(), entity, payload)

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}
