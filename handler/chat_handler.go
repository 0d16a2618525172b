package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tieubaoca/docqa-be/service"
	"github.com/tieubaoca/docqa-be/types"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

func (h *ChatHandler) HandleChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var chatRequest types.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&chatRequest); err != nil {
			sendError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		response, err := h.chatService.Chat(r.Context(), chatRequest.SessionID, chatRequest.Message, chatRequest.DocumentIDs)
		if err != nil {
			// Blank input is the only error the chat pipeline propagates.
			if errors.Is(err, types.ErrEmptyMessage) {
				sendError(w, http.StatusBadRequest, err.Error())
				return
			}
			sendError(w, http.StatusInternalServerError, err.Error())
			return
		}

		sendSuccess(w, response)
	}
}
