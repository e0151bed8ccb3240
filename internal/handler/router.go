package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/resumedigest/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	StatusRecorder    middleware.StatusRecorder
	MetricsHandler    http.Handler
	Logger            *slog.Logger
	Cookies           CookieConfig
	CSRF              middleware.CSRFConfig
	UploadMaxSize     int64

	// ページ・認証
	Bootstrapper Bootstrapper
	AuthService  AuthServiceInterface
	StateIssuer  StateIssuer

	// 要約
	Workspace WorkspaceService

	// ユーザー
	UserService   UserServiceInterface
	AvatarFetcher AvatarFetcher
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → SecurityHeaders → Logging → Metrics → CORS
//	  /api: Session → RateLimit(General) → CSRF
//
// ページ（GET /）と認証ルート（/auth/*）はセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(chimw.RequestID)
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.Cookies.Secure))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	csrf := middleware.NewCSRFMiddleware(deps.CSRF)

	pageHandler := NewPageHandler(deps.Bootstrapper, deps.Workspace, deps.Cookies)
	authHandler := NewAuthHandler(deps.AuthService, deps.StateIssuer, deps.Workspace, deps.Cookies)
	summaryHandler := NewSummaryHandler(deps.Workspace, deps.UploadMaxSize)
	profileHandler := NewProfileHandler(deps.UserService, deps.AvatarFetcher)
	userHandler := NewUserHandler(deps.UserService, deps.Cookies)

	// --- 認証不要のルート ---

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}
	r.Handle("/static/*", StaticHandler())

	// ページ: ブートストラップ（セッション復元・認可コード交換）を毎回実行する
	r.With(csrf).Get("/", pageHandler.Index)
	r.Handle("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRF))

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General) → CSRF
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(csrf)

		// 要約
		r.Route("/api/summaries", func(r chi.Router) {
			r.Get("/", summaryHandler.List)
			r.Post("/", summaryHandler.Save)

			// POST /api/summaries/generate - 要約生成（生成専用レート制限を追加）
			r.With(deps.RateLimiter.GenerateMiddleware()).Post("/generate", summaryHandler.Generate)
		})

		// プロフィール画像
		r.Get("/api/profile/picture", profileHandler.Picture)

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Delete("/me", userHandler.Withdraw)
		})
	})

	return r
}
