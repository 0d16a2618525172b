package handler

import (
	"errors"
	"net/http"

	"github.com/tieubaoca/docqa-be/service"
	"github.com/tieubaoca/docqa-be/types"
)

type DocumentHandler struct {
	documentService *service.DocumentService
}

func NewDocumentHandler(documentService *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
	}
}

// HandleDocuments serves the document catalog: GET lists every ingested
// document, DELETE removes one by its id query parameter.
func (h *DocumentHandler) HandleDocuments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			sendSuccess(w, types.DocumentListResponse{
				Documents: h.documentService.List(),
			})
		case http.MethodDelete:
			id := r.URL.Query().Get("id")
			if id == "" {
				sendError(w, http.StatusBadRequest, "id parameter is required")
				return
			}
			deleted, err := h.documentService.Delete(r.Context(), id)
			if err != nil {
				if errors.Is(err, types.ErrDocumentNotFound) {
					sendError(w, http.StatusNotFound, err.Error())
					return
				}
				sendError(w, http.StatusInternalServerError, err.Error())
				return
			}
			sendSuccess(w, types.DeleteResponse{ID: id, Deleted: deleted})
		default:
			sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}
