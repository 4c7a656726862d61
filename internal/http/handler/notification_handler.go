package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/campus-notify-core/internal/http/middleware"
	"github.com/sandeepkv93/campus-notify-core/internal/http/response"
	"github.com/sandeepkv93/campus-notify-core/internal/repository"
	"github.com/sandeepkv93/campus-notify-core/internal/service"
)

type notificationPage struct {
	Items      []service.NotificationView `json:"items"`
	Page       int                        `json:"page"`
	PageSize   int                        `json:"page_size"`
	Total      int64                      `json:"total"`
	TotalPages int                        `json:"total_pages"`
}

type NotificationHandler struct {
	inbox service.NotificationInbox
}

func NewNotificationHandler(inbox service.NotificationInbox) *NotificationHandler {
	return &NotificationHandler{inbox: inbox}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	page, err := queryInt(r, "page", repository.DefaultPage)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "page must be a positive integer", nil)
		return
	}
	pageSize, err := queryInt(r, "page_size", repository.DefaultPageSize)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "page_size must be a positive integer", nil)
		return
	}
	result, err := h.inbox.ListForUser(r.Context(), userID, repository.PageRequest{Page: page, PageSize: pageSize})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	items := result.Items
	if items == nil {
		items = []service.NotificationView{}
	}
	response.JSON(w, r, http.StatusOK, notificationPage{
		Items:      items,
		Page:       result.Page,
		PageSize:   result.PageSize,
		Total:      result.Total,
		TotalPages: result.TotalPages,
	})
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	n, err := h.inbox.UnreadCount(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]int64{"unread": n})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.inbox.MarkRead(r.Context(), userID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	n, err := h.inbox.MarkAllRead(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]int64{"updated": n})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.inbox.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	n, err := h.inbox.DeleteAll(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]int64{"deleted": n})
}

func requireUser(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return 0, false
	}
	return id, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid notification id", nil)
		return 0, false
	}
	return uint(id), true
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
