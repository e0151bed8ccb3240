package middleware

import "net/http"

// contentSecurityPolicy はページとAPIに共通のCSP。
// 画像はアバタープロキシを通すため同一オリジンのみ。
const contentSecurityPolicy = "default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' data:; " +
	"form-action 'self' https://accounts.google.com; frame-ancestors 'none'; base-uri 'none'"

const hstsValue = "max-age=63072000; includeSubDomains"

// NewSecurityHeadersMiddleware は全レスポンスに固定のセキュリティヘッダーを付ける。
// hstsはHTTPSで配信する環境（Secure Cookie有効時）だけtrueにする。
func NewSecurityHeadersMiddleware(hsts bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			h.Set("Content-Security-Policy", contentSecurityPolicy)
			if hsts {
				h.Set("Strict-Transport-Security", hstsValue)
			}
			next.ServeHTTP(w, r)
		})
	}
}
