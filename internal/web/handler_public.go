package web

import (
	"net/http"
)

// handlePublicProducts serves the catalog to anonymous consumers.
func (s *Server) handlePublicProducts(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "s-maxage=60, stale-while-revalidate=300")

	catalog, err := s.catalog.Latest(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch products")
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}
