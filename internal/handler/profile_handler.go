package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hitoshi/resumedigest/internal/avatar"
	"github.com/hitoshi/resumedigest/internal/middleware"
	"github.com/hitoshi/resumedigest/internal/model"
)

// PictureURLFinder はユーザーのプロフィール画像URLを返す。
type PictureURLFinder interface {
	PictureURL(ctx context.Context, userID string) (string, error)
}

// AvatarFetcher はプロフィール画像を取得する。
type AvatarFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*avatar.Image, error)
}

// ProfileHandler はプロフィール画像のプロキシハンドラー。
// 画像はサーバー側でSSRF対策済みクライアントを使って取得し、ブラウザからIdPのホストへ直接アクセスさせない。
type ProfileHandler struct {
	users   PictureURLFinder
	fetcher AvatarFetcher
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(users PictureURLFinder, fetcher AvatarFetcher) *ProfileHandler {
	return &ProfileHandler{
		users:   users,
		fetcher: fetcher,
	}
}

// Picture はログインユーザーのプロフィール画像を返す。
// GET /api/profile/picture
func (h *ProfileHandler) Picture(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, errUnauthorized)
		return
	}

	pictureURL, err := h.users.PictureURL(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	img, err := h.fetcher.Fetch(r.Context(), pictureURL)
	if err != nil {
		slog.Warn("failed to fetch profile picture",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, avatar.ErrBlockedURL) {
			writeAPIErrorResponse(w, http.StatusForbidden, model.NewSSRFBlockedError())
			return
		}
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNoPictureError())
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Data); err != nil {
		slog.Warn("failed to write profile picture", slog.String("error", err.Error()))
	}
}
