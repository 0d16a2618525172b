package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/tieubaoca/docqa-be/service"
	"github.com/tieubaoca/docqa-be/types"
)

const maxUploadSize = 10 << 20 // 10MB

type UploadHandler struct {
	documentService *service.DocumentService
}

func NewUploadHandler(documentService *service.DocumentService) *UploadHandler {
	return &UploadHandler{
		documentService: documentService,
	}
}

func (h *UploadHandler) HandleUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		file, header, err := r.FormFile("file")
		if err != nil {
			sendError(w, http.StatusBadRequest, "Invalid file")
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			sendError(w, http.StatusBadRequest, "Failed to read file")
			return
		}

		doc, err := h.documentService.Ingest(r.Context(), content, header.Filename)
		if err != nil {
			switch {
			case errors.Is(err, types.ErrUnsupportedFileType),
				errors.Is(err, types.ErrEmptyContent),
				errors.Is(err, types.ErrDecode):
				sendError(w, http.StatusBadRequest, err.Error())
			default:
				sendError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}

		sendSuccess(w, types.UploadResponse{Document: doc})
	}
}
