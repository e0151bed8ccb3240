package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/hitoshi/resumedigest/internal/avatar"
	"github.com/hitoshi/resumedigest/internal/bootstrap"
	"github.com/hitoshi/resumedigest/internal/middleware"
	"github.com/hitoshi/resumedigest/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	loginURLFn       func(state string) string
	logoutFn         func(ctx context.Context, sessionID string) error
	currentProfileFn func(ctx context.Context, sessionID string) (*model.Profile, error)
}

func (m *mockAuthService) LoginURL(state string) string {
	if m.loginURLFn != nil {
		return m.loginURLFn(state)
	}
	return ""
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) CurrentProfile(ctx context.Context, sessionID string) (*model.Profile, error) {
	if m.currentProfileFn != nil {
		return m.currentProfileFn(ctx, sessionID)
	}
	return nil, nil
}

type mockStateIssuer struct {
	issueFn func() (string, error)
}

func (m *mockStateIssuer) Issue() (string, error) {
	if m.issueFn != nil {
		return m.issueFn()
	}
	return "state-token", nil
}

type mockWorkspace struct {
	summarizeFn func(ctx context.Context, sessionID, resumeText string) ([]string, error)
	saveFn      func(ctx context.Context, sessionID, userID string) (*model.SummaryRecord, error)
	listFn      func(ctx context.Context, userID string) ([]*model.SummaryRecord, error)
	draftFn     func(ctx context.Context, sessionID string) ([]string, error)
	discardFn   func(ctx context.Context, sessionID string) error
}

func (m *mockWorkspace) Summarize(ctx context.Context, sessionID, resumeText string) ([]string, error) {
	if m.summarizeFn != nil {
		return m.summarizeFn(ctx, sessionID, resumeText)
	}
	return nil, nil
}

func (m *mockWorkspace) Save(ctx context.Context, sessionID, userID string) (*model.SummaryRecord, error) {
	if m.saveFn != nil {
		return m.saveFn(ctx, sessionID, userID)
	}
	return nil, nil
}

func (m *mockWorkspace) List(ctx context.Context, userID string) ([]*model.SummaryRecord, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockWorkspace) Draft(ctx context.Context, sessionID string) ([]string, error) {
	if m.draftFn != nil {
		return m.draftFn(ctx, sessionID)
	}
	return nil, nil
}

func (m *mockWorkspace) Discard(ctx context.Context, sessionID string) error {
	if m.discardFn != nil {
		return m.discardFn(ctx, sessionID)
	}
	return nil
}

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	withdrawFn   func(ctx context.Context, userID string) error
	pictureURLFn func(ctx context.Context, userID string) (string, error)
}

func (m *mockUserService) Withdraw(ctx context.Context, userID string) error {
	if m.withdrawFn != nil {
		return m.withdrawFn(ctx, userID)
	}
	return nil
}

func (m *mockUserService) PictureURL(ctx context.Context, userID string) (string, error) {
	if m.pictureURLFn != nil {
		return m.pictureURLFn(ctx, userID)
	}
	return "", nil
}

type mockAvatarFetcher struct {
	fetchFn func(ctx context.Context, rawURL string) (*avatar.Image, error)
}

func (m *mockAvatarFetcher) Fetch(ctx context.Context, rawURL string) (*avatar.Image, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, rawURL)
	}
	return nil, avatar.ErrNotImage
}

type mockBootstrapper struct {
	resolveFn func(ctx context.Context, req bootstrap.Request) bootstrap.Result
}

func (m *mockBootstrapper) Resolve(ctx context.Context, req bootstrap.Request) bootstrap.Result {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, req)
	}
	return bootstrap.Result{State: bootstrap.StateUnauthenticated}
}

type mockSessionFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

// --- ヘルパー ---

// withUserID はリクエストのコンテキストにユーザーIDを注入する。
func withUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}

// withSession はリクエストのコンテキストにセッションIDとユーザーIDを注入する。
func withSession(r *http.Request, sessionID, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithSession(r.Context(), sessionID, userID))
}

// findCookie はレスポンスから指定名のCookieを探す。
func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func containsStr(s, substr string) bool {
	return strings.Contains(s, substr)
}
