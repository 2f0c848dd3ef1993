package user

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"innovatefund/internal/common"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublic mounts the unauthenticated auth routes.
func (h *Handler) RegisterPublic(r *mux.Router) {
	r.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
}

// RegisterProtected mounts routes that require a session.
func (h *Handler) RegisterProtected(r *mux.Router) {
	r.HandleFunc("/auth/me", h.Me).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", h.Profile).Methods(http.MethodGet)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.WriteError(w, common.NewValidationError("body", "invalid JSON"))
		return
	}

	result, err := h.service.Register(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.WriteError(w, common.NewValidationError("body", "invalid JSON"))
		return
	}

	result, err := h.service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())

	u, err := h.service.ByID(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.ByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, u)
}
