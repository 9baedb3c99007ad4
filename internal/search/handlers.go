package search

import (
	"errors"
	"net/http"

	"github.com/vastra-group/storefront-api/internal/common"
)

// Handler exposes the public catalog search endpoint.
type Handler struct {
	Svc *Service
}

// Search handles GET /products/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, 0)
	result, err := h.Svc.Search(r.Context(), Params{
		Query:      r.URL.Query().Get("q"),
		CategoryID: r.URL.Query().Get("categoryId"),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "search failed", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}
