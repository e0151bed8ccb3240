package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/resumedigest/internal/model"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // API全般のレート（req/sec）
	GeneralBurst    int           // API全般のバーストサイズ
	GenerateRate    rate.Limit    // 要約生成のレート（req/sec）
	GenerateBurst   int           // 要約生成のバーストサイズ
	CleanupInterval time.Duration // 使われなくなったリミッターを掃除する間隔
}

// DefaultRateLimiterConfig は既定のレート制限設定を返す。
// API全般 120 req/min/user、要約生成 10 req/min/user。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(120.0 / 60.0),
		GeneralBurst:    120,
		GenerateRate:    rate.Limit(10.0 / 60.0),
		GenerateBurst:   10,
		CleanupInterval: 5 * time.Minute,
	}
}

var errRateLimited = &model.APIError{
	Code:     "RATE_LIMITED",
	Message:  "Too many requests. Please try again later.",
	Category: "system",
	Action:   "Wait for the time in the Retry-After header and retry.",
}

// limiterPool はユーザーIDごとのトークンバケットを保持する。
type limiterPool struct {
	kind  string
	limit rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]*poolEntry
}

type poolEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func newLimiterPool(kind string, limit rate.Limit, burst int) *limiterPool {
	return &limiterPool{
		kind:    kind,
		limit:   limit,
		burst:   burst,
		now:     time.Now,
		entries: make(map[string]*poolEntry),
	}
}

// allow はユーザーのバケットから1トークン消費できればtrueを返す。
func (p *limiterPool) allow(userID string) bool {
	p.mu.Lock()
	now := p.now()
	e, ok := p.entries[userID]
	if !ok {
		e = &poolEntry{limiter: rate.NewLimiter(p.limit, p.burst)}
		p.entries[userID] = e
	}
	e.lastAccess = now
	p.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// evictIdle はttlより長くアクセスのないエントリを削除する。
func (p *limiterPool) evictIdle(ttl time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for userID, e := range p.entries {
		if now.Sub(e.lastAccess) > ttl {
			delete(p.entries, userID)
		}
	}
}

func (p *limiterPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// middleware はセッションミドルウェアの後段で使う。コンテキストにユーザーIDが必要。
func (p *limiterPool) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			WriteErrorResponse(w, http.StatusUnauthorized, errUnauthenticated)
			return
		}

		if !p.allow(userID) {
			slog.Warn("rate limit exceeded",
				slog.String("user_id", userID),
				slog.String("limit_type", p.kind),
			)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(p.limit)))
			WriteErrorResponse(w, http.StatusTooManyRequests, errRateLimited)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimiter はユーザーごとのレート制限を管理する。
// API全般と要約生成の2系統は独立したバケットを持つ。
type RateLimiter struct {
	general  *limiterPool
	generate *limiterPool
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter は新しいRateLimiterを生成し、バックグラウンドの掃除を開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	interval := config.CleanupInterval
	if interval <= 0 {
		interval = DefaultRateLimiterConfig().CleanupInterval
	}

	rl := &RateLimiter{
		general:  newLimiterPool("general", config.GeneralRate, config.GeneralBurst),
		generate: newLimiterPool("generate", config.GenerateRate, config.GenerateBurst),
		interval: interval,
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop はバックグラウンドの掃除を停止する。複数回呼んでもよい。
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// GeneralMiddleware はAPI全般のレート制限ミドルウェアを返す。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return rl.general.middleware
}

// GenerateMiddleware は要約生成専用のレート制限ミドルウェアを返す。
func (rl *RateLimiter) GenerateMiddleware() func(next http.Handler) http.Handler {
	return rl.generate.middleware
}

// GeneralLimiterCount はAPI全般のリミッター数を返す。
func (rl *RateLimiter) GeneralLimiterCount() int {
	return rl.general.size()
}

// GenerateLimiterCount は要約生成のリミッター数を返す。
func (rl *RateLimiter) GenerateLimiterCount() int {
	return rl.generate.size()
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は掃除間隔の2倍以上使われていないリミッターを削除する。
func (rl *RateLimiter) cleanup() {
	ttl := rl.interval * 2
	rl.general.evictIdle(ttl)
	rl.generate.evictIdle(ttl)
}

// retryAfterSeconds は1トークンが補充されるまでの秒数（切り上げ、最小1）。
func retryAfterSeconds(limit rate.Limit) int {
	if limit <= 0 || limit == rate.Inf {
		return 1
	}
	sec := int(math.Ceil(1.0 / float64(limit)))
	if sec < 1 {
		sec = 1
	}
	return sec
}
