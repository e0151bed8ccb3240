package handler

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/hitoshi/resumedigest/internal/bootstrap"
	"github.com/hitoshi/resumedigest/internal/middleware"
	"github.com/hitoshi/resumedigest/internal/model"
)

//go:embed templates/index.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// signInFailedNotice は認可コード交換に失敗したときにログイン画面へ表示する汎用メッセージ。
// IdP固有の詳細はログにのみ出力する。
const signInFailedNotice = "Sign-in failed. Please try again."

// Bootstrapper はページ読み込みごとのセッション確立を行う。
type Bootstrapper interface {
	Resolve(ctx context.Context, req bootstrap.Request) bootstrap.Result
}

// PageHandler は単一ページ（GET /）を描画するハンドラー。
type PageHandler struct {
	bootstrapper Bootstrapper
	workspace    WorkspaceService
	cookies      CookieConfig
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(bootstrapper Bootstrapper, ws WorkspaceService, cookies CookieConfig) *PageHandler {
	return &PageHandler{
		bootstrapper: bootstrapper,
		workspace:    ws,
		cookies:      cookies,
	}
}

type summaryView struct {
	Lines []string
	Date  string
}

type pageData struct {
	Authenticated   bool
	CSRFToken       string
	Profile         *model.Profile
	Notice          string
	Draft           []string
	Summaries       []summaryView
	SummariesFailed bool
}

// Index はブートストラップを実行し、認証済み画面またはログイン画面を描画する。
// 認可コード交換に成功した場合はセッションCookieを発行し、codeとstateを除いたURLへリダイレクトする。
// GET /
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	sessionID := cookieValue(r, middleware.SessionCookieName)

	res := h.bootstrapper.Resolve(r.Context(), bootstrap.Request{
		SessionID:   sessionID,
		URL:         r.URL,
		StateCookie: cookieValue(r, oauthStateCookie),
	})

	// リダイレクト戻りのstateは1回限り
	query := r.URL.Query()
	if query.Has("code") || query.Has("state") || query.Has("error") {
		h.cookies.clearState(w)
	}

	if res.Session != nil {
		h.cookies.setSession(w, res.Session.ID)
		http.Redirect(w, r, res.CleanURL, http.StatusSeeOther)
		return
	}

	data := pageData{CSRFToken: middleware.CSRFTokenFromContext(r.Context())}
	if res.State == bootstrap.StateAuthenticated && res.Profile != nil {
		data.Authenticated = true
		data.Profile = res.Profile
		h.loadWorkspace(r.Context(), sessionID, res.Profile.UserID, &data)
	} else {
		if res.Failed {
			data.Notice = signInFailedNotice
		}
		if sessionID != "" {
			// 無効になったセッションCookieは残さない
			h.cookies.clearSession(w)
		}
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		slog.Error("failed to render page", slog.String("error", err.Error()))
	}
}

// loadWorkspace は下書きと保存済み要約一覧を読み込む。一覧の取得失敗は画面上の通知にとどめる。
func (h *PageHandler) loadWorkspace(ctx context.Context, sessionID, userID string, data *pageData) {
	draft, err := h.workspace.Draft(ctx, sessionID)
	if err != nil {
		slog.Warn("failed to load summary draft", slog.String("error", err.Error()))
	}
	data.Draft = draft

	records, err := h.workspace.List(ctx, userID)
	if err != nil {
		slog.Error("failed to load summaries",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		data.SummariesFailed = true
		return
	}
	for _, rec := range records {
		data.Summaries = append(data.Summaries, summaryView{
			Lines: rec.Lines(),
			Date:  rec.FormattedDate(),
		})
	}
}

// StaticHandler は埋め込み静的ファイル（JavaScript、CSS）を配信するハンドラーを返す。
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
