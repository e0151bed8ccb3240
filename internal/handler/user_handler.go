package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/resumedigest/internal/middleware"
)

// UserServiceInterface はアカウント操作のサービス。
type UserServiceInterface interface {
	// Withdraw は要約レコード、セッション、identities、userをまとめて削除する。
	Withdraw(ctx context.Context, userID string) error
	PictureURL(ctx context.Context, userID string) (string, error)
}

// UserHandler は/api/users配下を扱う。
type UserHandler struct {
	service UserServiceInterface
	cookies CookieConfig
}

func NewUserHandler(service UserServiceInterface, cookies CookieConfig) *UserHandler {
	return &UserHandler{service: service, cookies: cookies}
}

// Withdraw は退会させ、204を返す。
// DELETE /api/users/me
//
// 削除に失敗した場合はセッションCookieを残し、再試行できるようにする。
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, errUnauthorized)
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	slog.Info("account withdrawn", slog.String("user_id", userID))
	h.cookies.clearSession(w)
	w.Header().Set("Clear-Site-Data", `"cookies"`)
	w.WriteHeader(http.StatusNoContent)
}
