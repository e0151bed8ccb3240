// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/resumedigest/internal/middleware"
	"github.com/hitoshi/resumedigest/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	LoginURL(state string) string
	Logout(ctx context.Context, sessionID string) error
	CurrentProfile(ctx context.Context, sessionID string) (*model.Profile, error)
}

// StateIssuer はOAuthのanti-replay stateを発行する。
type StateIssuer interface {
	Issue() (string, error)
}

// DraftDiscarder はログアウト時にセッションの下書きを破棄する。
type DraftDiscarder interface {
	Discard(ctx context.Context, sessionID string) error
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
// 認可コードの受け取りはページ（GET /）のブートストラップが担うため、専用のコールバックは持たない。
type AuthHandler struct {
	service AuthServiceInterface
	states  StateIssuer
	drafts  DraftDiscarder
	cookies CookieConfig
}

// NewAuthHandler はAuthHandlerを生成する。draftsはnilでもよい。
func NewAuthHandler(service AuthServiceInterface, states StateIssuer, drafts DraftDiscarder, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		states:  states,
		drafts:  drafts,
		cookies: cookies,
	}
}

// Login はGoogle OAuthフローを開始する。
// GET /auth/google/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := h.states.Issue()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// stateをCookieに保存（リダイレクト戻りでクエリのstateと照合する）
	h.cookies.setState(w, state)

	http.Redirect(w, r, h.service.LoginURL(state), http.StatusTemporaryRedirect)
}

// Logout はセッションと下書きを破棄し、ログイン画面に戻す。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := cookieValue(r, middleware.SessionCookieName); sessionID != "" {
		if h.drafts != nil {
			if err := h.drafts.Discard(r.Context(), sessionID); err != nil {
				slog.Warn("failed to discard summary draft", slog.String("error", err.Error()))
			}
		}
		if err := h.service.Logout(r.Context(), sessionID); err != nil {
			slog.Error("failed to logout", slog.String("error", err.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	h.cookies.clearSession(w)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Me は現在のログインユーザーのプロフィールを返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sessionID := cookieValue(r, middleware.SessionCookieName)
	if sessionID == "" {
		writeAPIErrorResponse(w, http.StatusUnauthorized, errUnauthorized)
		return
	}

	profile, err := h.service.CurrentProfile(r.Context(), sessionID)
	if err != nil {
		slog.Error("failed to get current profile", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusUnauthorized, errUnauthorized)
		return
	}
	if profile == nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, errUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
