// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// SSRFGuardService は外部画像を取得するときのSSRF対策。
type SSRFGuardService interface {
	// NewSafeClient はダイヤル時に解決後のIPを検査するHTTPクライアントを返す。
	// リダイレクト先もValidateURLで検査する。
	NewSafeClient(timeout time.Duration) *http.Client

	// ValidateURL はDNS解決なしでURLを検査する。
	ValidateURL(rawURL string) error
}

// ErrUnsafeURL はValidateURLが拒否したURLに対して返される。
var ErrUnsafeURL = errors.New("unsafe url")

const maxRedirects = 3

var allowedSchemes = []string{"https"}

// blockedPrefixes はIPリテラルで指定された場合に拒否する範囲。
// 169.254.0.0/16はクラウドのメタデータIPを含む。
var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
}

// Guard はSSRFGuardServiceの実装。
type Guard struct {
	// 空でなければ、ホスト名がいずれかのドメインかそのサブドメインであるURLだけを通す。
	allowedHostSuffixes []string
}

// NewSSRFGuard は"googleusercontent.com"のような許可ドメインを受け取ってGuardを返す。
func NewSSRFGuard(allowedHostSuffixes ...string) *Guard {
	suffixes := make([]string, 0, len(allowedHostSuffixes))
	for _, s := range allowedHostSuffixes {
		s = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
		if s != "" {
			suffixes = append(suffixes, s)
		}
	}
	return &Guard{allowedHostSuffixes: suffixes}
}

// NewSafeClient はsafeurlのクライアントを返す。
// safeurlはダイヤル時に解決済みIPを検査するため、DNSリバインディングも防げる。
func (g *Guard) NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(443).
		Build()

	client := safeurl.Client(config).Client
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("%w: too many redirects", ErrUnsafeURL)
		}
		return g.ValidateURL(req.URL.String())
	}
	return client
}

// ValidateURL はスキーム、ユーザー情報、ホスト、IPリテラル、許可ドメインを検査する。
// 拒否した場合のエラーはErrUnsafeURLをラップする。
func (g *Guard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: empty URL", ErrUnsafeURL)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafeURL, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !slices.Contains(allowedSchemes, scheme) {
		return fmt.Errorf("%w: disallowed scheme %q", ErrUnsafeURL, scheme)
	}
	if parsed.User != nil {
		return fmt.Errorf("%w: credentials in URL", ErrUnsafeURL)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return fmt.Errorf("%w: empty host", ErrUnsafeURL)
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if isBlockedAddr(addr) {
			return fmt.Errorf("%w: blocked IP address %s", ErrUnsafeURL, addr)
		}
	} else if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("%w: blocked host %s", ErrUnsafeURL, host)
	}

	if len(g.allowedHostSuffixes) > 0 && !g.isAllowedHost(host) {
		return fmt.Errorf("%w: host %s is not in the allow list", ErrUnsafeURL, host)
	}
	return nil
}

func (g *Guard) isAllowedHost(host string) bool {
	return slices.ContainsFunc(g.allowedHostSuffixes, func(suffix string) bool {
		return host == suffix || strings.HasSuffix(host, "."+suffix)
	})
}

func isBlockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if addr.IsUnspecified() || addr.IsLoopback() || addr.IsLinkLocalUnicast() || addr.IsPrivate() {
		return true
	}
	return slices.ContainsFunc(blockedPrefixes, func(p netip.Prefix) bool {
		return p.Contains(addr)
	})
}
