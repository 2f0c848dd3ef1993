package ai

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"innovatefund/internal/common"
)

const maxConversationLen = 50

type Handler struct {
	assistant *Assistant
}

func NewHandler(assistant *Assistant) *Handler {
	return &Handler{assistant: assistant}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/ai/chat", h.Chat).Methods(http.MethodPost)
}

// Chat relays a conversation to the assistant and answers with its reply.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Messages []Message `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.WriteError(w, common.NewValidationError("body", "invalid JSON"))
		return
	}
	if len(body.Messages) == 0 {
		common.WriteError(w, common.NewValidationError("messages", "required"))
		return
	}
	if len(body.Messages) > maxConversationLen {
		common.WriteError(w, common.NewValidationError("messages", "conversation too long"))
		return
	}

	reply, err := h.assistant.Complete(r.Context(), body.Messages)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
