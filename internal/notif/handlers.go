package notif

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"innovatefund/internal/common"
)

// Handler exposes the notification inbox over REST. All routes assume
// AuthMiddleware ran and scope every query to the authenticated principal.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/notifications", h.List).Methods(http.MethodGet)
	r.HandleFunc("/notifications/unread-count", h.UnreadCount).Methods(http.MethodGet)
	r.HandleFunc("/notifications/read-all", h.MarkAllRead).Methods(http.MethodPut)
	r.HandleFunc("/notifications/fcm-token", h.RegisterToken).Methods(http.MethodPost)
	r.HandleFunc("/notifications/{id}/read", h.MarkRead).Methods(http.MethodPut)
	r.HandleFunc("/notifications/{id}", h.Delete).Methods(http.MethodDelete)
}

// List answers with a page of notifications plus the total and unread counts
// the client badge needs.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	unreadOnly := r.URL.Query().Get("unreadOnly") == "true"

	notifications, err := h.service.store.ByRecipient(r.Context(), userID, limit, (page-1)*limit, unreadOnly)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	total, err := h.service.store.CountByRecipient(r.Context(), userID, unreadOnly)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	unread, err := h.service.store.CountByRecipient(r.Context(), userID, true)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]any{
		"notifications": notifications,
		"total":         total,
		"unreadCount":   unread,
		"page":          page,
		"totalPages":    (total + int64(limit) - 1) / int64(limit),
	})
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())

	unread, err := h.service.store.CountByRecipient(r.Context(), userID, true)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]int64{"unreadCount": unread})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())
	id := mux.Vars(r)["id"]

	n, err := h.service.store.MarkRead(r.Context(), id, userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, n)
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())

	if err := h.service.store.MarkAllRead(r.Context(), userID); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "All notifications marked as read"})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())
	id := mux.Vars(r)["id"]

	if err := h.service.store.Delete(r.Context(), id, userID); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "Notification deleted"})
}

func (h *Handler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())

	var body struct {
		FCMToken string `json:"fcmToken"`
		Platform string `json:"platform"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.WriteError(w, common.NewValidationError("body", "invalid JSON"))
		return
	}

	if err := h.service.RegisterDevice(r.Context(), userID, body.FCMToken, body.Platform); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "FCM token registered"})
}
