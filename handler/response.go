package handler

import (
	"encoding/json"
	"net/http"

	"github.com/tieubaoca/docqa-be/types"
)

func sendJSON(w http.ResponseWriter, status int, body types.DataResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func sendError(w http.ResponseWriter, status int, message string) {
	sendJSON(w, status, types.DataResponse{
		Status:  "error",
		Message: message,
	})
}

func sendSuccess(w http.ResponseWriter, data interface{}) {
	sendJSON(w, http.StatusOK, types.DataResponse{
		Status: "success",
		Data:   data,
	})
}
