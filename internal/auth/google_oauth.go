package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const (
	googleIssuer             = "https://accounts.google.com"
	defaultGoogleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultGoogleTokenURL    = "https://oauth2.googleapis.com/token"
	defaultGoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	defaultGoogleJWKSURL     = "https://www.googleapis.com/oauth2/v3/certs"
)

// GoogleOAuthConfig はGoogle OAuthプロバイダーの設定。
type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	AuthURL     string
	TokenURL    string
	UserInfoURL string

	// HTTPClient はトークン交換・ユーザー情報取得に使うクライアント。nilの場合はhttp.DefaultClient。
	HTTPClient *http.Client
}

// GoogleOAuthProvider はGoogle OAuth 2.0 / OpenID Connectによる認証を提供する。
// クライアントシークレットはこの構造体の中にのみ保持し、ブラウザには渡さない。
type GoogleOAuthProvider struct {
	oauth2   *oauth2.Config
	provider *oidc.Provider
	client   *http.Client
}

// NewGoogleOAuthProvider はGoogleOAuthProviderを生成する。
// エンドポイントは静的に設定し、起動時のディスカバリー通信は行わない。
func NewGoogleOAuthProvider(config GoogleOAuthConfig) *GoogleOAuthProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultGoogleAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultGoogleTokenURL
	}
	if config.UserInfoURL == "" {
		config.UserInfoURL = defaultGoogleUserInfoURL
	}
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	providerConfig := &oidc.ProviderConfig{
		IssuerURL:   googleIssuer,
		AuthURL:     config.AuthURL,
		TokenURL:    config.TokenURL,
		UserInfoURL: config.UserInfoURL,
		JWKSURL:     defaultGoogleJWKSURL,
		Algorithms:  []string{oidc.RS256},
	}
	provider := providerConfig.NewProvider(oidc.ClientContext(context.Background(), client))

	return &GoogleOAuthProvider{
		oauth2: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   config.AuthURL,
				TokenURL:  config.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{oidc.ScopeOpenID, "email", "profile"},
		},
		provider: provider,
		client:   client,
	}
}

// LoginURL はGoogleの認可画面のURLを生成する。
// オフラインアクセスと同意画面の再表示を要求する。
func (p *GoogleOAuthProvider) LoginURL(state string) string {
	return p.oauth2.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// ExchangeCode は認可コードをトークンエンドポイントでアクセストークンに交換する。
// リクエストはフォーム形式で、client_secretはサーバー側で付与する。
func (p *GoogleOAuthProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)

	token, err := p.oauth2.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}
	return token, nil
}

// googleClaims はユーザー情報エンドポイントの追加クレーム。
type googleClaims struct {
	Name      string `json:"name"`
	GivenName string `json:"given_name"`
	Picture   string `json:"picture"`
}

// FetchUserInfo はアクセストークンでOIDCユーザー情報を取得する。
func (p *GoogleOAuthProvider) FetchUserInfo(ctx context.Context, accessToken string) (*OAuthUserInfo, error) {
	ctx = oidc.ClientContext(ctx, p.client)

	info, err := p.provider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	if err != nil {
		return nil, fmt.Errorf("user info request failed: %w", err)
	}
	if info.Subject == "" {
		return nil, fmt.Errorf("empty sub in user info response")
	}

	var claims googleClaims
	if err := info.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse user info claims: %w", err)
	}

	return &OAuthUserInfo{
		ProviderUserID: info.Subject,
		Email:          info.Email,
		Name:           claims.Name,
		GivenName:      claims.GivenName,
		PictureURL:     claims.Picture,
		Provider:       ProviderGoogle,
	}, nil
}

// compile-time interface check
var _ OAuthProvider = (*GoogleOAuthProvider)(nil)
