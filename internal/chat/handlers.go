package chat

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"innovatefund/internal/common"
)

const maxAttachmentSize = 25 << 20 // 25 MB

// Handler exposes the chat surface over REST. Live events ride the
// websocket; these routes cover history, sending and receipts.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/chat/threads", h.CreateThread).Methods(http.MethodPost)
	r.HandleFunc("/chat/threads", h.ListThreads).Methods(http.MethodGet)
	r.HandleFunc("/chat/attachments/{id}", h.DownloadAttachment).Methods(http.MethodGet)
	r.HandleFunc("/chat/{chatId}/messages", h.ListMessages).Methods(http.MethodGet)
	r.HandleFunc("/chat/{chatId}/messages", h.SendMessage).Methods(http.MethodPost)
	r.HandleFunc("/chat/{chatId}/read", h.MarkRead).Methods(http.MethodPut)
	r.HandleFunc("/chat/{chatId}/attachments", h.UploadAttachment).Methods(http.MethodPost)
}

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())

	var body struct {
		ParticipantID string `json:"participantId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.WriteError(w, common.NewValidationError("body", "invalid JSON"))
		return
	}

	thread, err := h.service.GetOrCreateThread(r.Context(), userID, body.ParticipantID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, thread)
}

func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())

	threads, err := h.service.Threads(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]any{"chats": threads})
}

// ListMessages returns a page of history and, as a side effect, records the
// reader's receipts: opening a conversation is reading it.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())
	chatID := mux.Vars(r)["chatId"]

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 50
	}

	messages, total, err := h.service.Messages(r.Context(), chatID, userID, limit, (page-1)*limit)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.service.MarkRead(r.Context(), chatID, userID); err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]any{
		"messages":   messages,
		"total":      total,
		"page":       page,
		"totalPages": (total + int64(limit) - 1) / int64(limit),
	})
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())
	chatID := mux.Vars(r)["chatId"]

	var body struct {
		Content      string             `json:"content"`
		MessageType  common.MessageKind `json:"messageType"`
		AttachmentID string             `json:"attachmentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.WriteError(w, common.NewValidationError("body", "invalid JSON"))
		return
	}

	msg, err := h.service.SendMessage(r.Context(), chatID, userID, body.Content, body.MessageType, body.AttachmentID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, msg)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())
	chatID := mux.Vars(r)["chatId"]

	if err := h.service.MarkRead(r.Context(), chatID, userID); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "Messages marked as read"})
}

func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())
	chatID := mux.Vars(r)["chatId"]

	r.Body = http.MaxBytesReader(w, r.Body, maxAttachmentSize)
	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		common.WriteError(w, common.NewValidationError("file", "invalid or oversized upload"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		common.WriteError(w, common.NewValidationError("file", "required"))
		return
	}
	defer file.Close()

	attachment, err := h.service.UploadAttachment(r.Context(), chatID, userID,
		header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, attachment)
}

func (h *Handler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())
	id := mux.Vars(r)["id"]

	content, attachment, err := h.service.DownloadAttachment(r.Context(), id, userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	defer content.Close()

	if attachment.MimeType != "" {
		w.Header().Set("Content-Type", attachment.MimeType)
	}
	w.Header().Set("Content-Disposition", `inline; filename="`+attachment.Filename+`"`)
	if _, err := io.Copy(w, content); err != nil {
		return
	}
}
