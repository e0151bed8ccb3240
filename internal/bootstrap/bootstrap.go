// Package bootstrap はページ読み込みごとのセッション確立フローを提供する。
// 既存セッションの復元、OAuthリダイレクト戻りでの認可コード交換、未ログインのいずれか
// ちょうど1つの終端状態に解決する。
package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	"github.com/hitoshi/resumedigest/internal/model"
)

// State はブートストラップの状態。
type State string

const (
	StateUnknown         State = "unknown"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
	StateExchanging      State = "exchanging"
)

// Outcome はメトリクス記録用の解決結果ラベル。
const (
	OutcomeRestored       = "restored"
	OutcomeAnonymous      = "anonymous"
	OutcomeExchanged      = "exchanged"
	OutcomeExchangeFailed = "exchange_failed"
)

// providerLabel はフェデレーションログインで使う固定のプロバイダーラベル。
const providerLabel = "google"

// redirectParams はリダイレクト戻りでIdPが付与し、交換後にURLから取り除くクエリパラメータ。
var redirectParams = []string{"code", "state", "scope", "authuser", "prompt", "hd", "error", "error_description", "error_uri"}

var errNoProfile = errors.New("no profile for the new session")

// Identity はブートストラップが利用するIDバックエンドの操作。
type Identity interface {
	CurrentProfile(ctx context.Context, sessionID string) (*model.Profile, error)
	ExchangeCode(ctx context.Context, code string) (string, error)
	FederatedLogin(ctx context.Context, provider, accessToken string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// StateVerifier はリダイレクト戻りのanti-replay stateを検証する。
type StateVerifier interface {
	Verify(state, cookieValue string) error
}

// Recorder はブートストラップの解決結果を記録する。
type Recorder interface {
	RecordBootstrap(outcome string)
}

// Request はページ読み込み1回分の入力。
type Request struct {
	SessionID   string   // session_id Cookieの値（無ければ空）
	URL         *url.URL // ページのURL
	StateCookie string   // oauth_state Cookieの値（無ければ空）
}

// Result はブートストラップの解決結果。
type Result struct {
	State   State
	Profile *model.Profile
	// Session は認可コード交換で新たに発行されたセッション。既存セッション復元時はnil。
	Session *model.Session
	// CleanURL は認可コード等を取り除いたURL。交換成功時のみ設定される。
	CleanURL string
	// Trail は通過した状態の履歴。
	Trail []State
	// Failed は交換に失敗したことを示す。画面には汎用メッセージのみを表示する。
	Failed bool
}

// Flow はセッション確立フロー。
type Flow struct {
	identity Identity
	states   StateVerifier
	recorder Recorder
	logger   *slog.Logger
}

// NewFlow はFlowを生成する。recorderはnilでもよい。
func NewFlow(identity Identity, states StateVerifier, recorder Recorder, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{
		identity: identity,
		states:   states,
		recorder: recorder,
		logger:   logger,
	}
}

// Resolve はページ読み込み1回分のブートストラップを実行する。
// 既存セッションが有効なら認可コードがあっても交換しない。交換は1回の呼び出しにつき最大1回で、再試行しない。
func (f *Flow) Resolve(ctx context.Context, req Request) Result {
	res := Result{State: StateUnknown, Trail: []State{StateUnknown}}

	profile, err := f.identity.CurrentProfile(ctx, req.SessionID)
	if err != nil {
		// セッション確認の失敗は「セッションなし」として扱う
		f.logger.Debug("session probe failed",
			slog.String("error", err.Error()),
		)
	}
	if err == nil && profile != nil {
		f.record(OutcomeRestored)
		return res.to(StateAuthenticated, profile)
	}

	query := url.Values{}
	if req.URL != nil {
		query = req.URL.Query()
	}

	code := query.Get("code")
	if code == "" {
		if providerErr := query.Get("error"); providerErr != "" {
			f.logger.Warn("identity provider returned an error",
				slog.String("error", providerErr),
				slog.String("error_description", query.Get("error_description")),
			)
			res.Failed = true
			f.record(OutcomeExchangeFailed)
			return res.to(StateUnauthenticated, nil)
		}
		f.record(OutcomeAnonymous)
		return res.to(StateUnauthenticated, nil)
	}

	res = res.to(StateExchanging, nil)
	session, profile, step, err := f.exchange(ctx, code, query.Get("state"), req.StateCookie)
	if err != nil {
		f.logger.Warn("authorization code exchange failed",
			slog.String("step", step),
			slog.String("error", err.Error()),
		)
		res.Failed = true
		f.record(OutcomeExchangeFailed)
		return res.to(StateUnauthenticated, nil)
	}

	res.Session = session
	res.CleanURL = CleanURL(req.URL)
	f.logger.Info("authorization code exchanged",
		slog.String("user_id", session.UserID),
	)
	f.record(OutcomeExchanged)
	return res.to(StateAuthenticated, profile)
}

// exchange は認可コード交換のサブフローを実行する。失敗した場合は失敗した手順名を返す。
func (f *Flow) exchange(ctx context.Context, code, state, stateCookie string) (*model.Session, *model.Profile, string, error) {
	if err := f.states.Verify(state, stateCookie); err != nil {
		return nil, nil, "state", err
	}

	accessToken, err := f.identity.ExchangeCode(ctx, code)
	if err != nil {
		return nil, nil, "token_exchange", err
	}

	session, err := f.identity.FederatedLogin(ctx, providerLabel, accessToken)
	if err != nil {
		return nil, nil, "federated_login", err
	}

	profile, err := f.identity.CurrentProfile(ctx, session.ID)
	if err == nil && profile == nil {
		err = errNoProfile
	}
	if err != nil {
		// 中途半端なログイン状態を残さないよう、発行したセッションを破棄する
		if logoutErr := f.identity.Logout(ctx, session.ID); logoutErr != nil {
			f.logger.Error("failed to revoke session after profile fetch failure",
				slog.String("error", logoutErr.Error()),
			)
		}
		return nil, nil, "profile", err
	}

	return session, profile, "", nil
}

func (f *Flow) record(outcome string) {
	if f.recorder != nil {
		f.recorder.RecordBootstrap(outcome)
	}
}

// to は状態遷移を記録した新しいResultを返す。
func (r Result) to(state State, profile *model.Profile) Result {
	r.State = state
	r.Profile = profile
	r.Trail = append(r.Trail, state)
	return r
}

// CleanURL はリダイレクト戻りのクエリパラメータを取り除いた相対URLを返す。
func CleanURL(u *url.URL) string {
	if u == nil {
		return "/"
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	query := u.Query()
	for _, key := range redirectParams {
		query.Del(key)
	}
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}
