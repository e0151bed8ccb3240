package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	stateIssuer = "resumedigest/oauth-state"

	// DefaultStateTTL はanti-replay stateの有効期間。
	DefaultStateTTL = 10 * time.Minute
)

var (
	// ErrStateMissing はリダイレクト戻り時にstateが付与されていない場合に返される。
	ErrStateMissing = errors.New("oauth state is missing")
	// ErrStateMismatch はstateとCookieの値が一致しない場合に返される。
	ErrStateMismatch = errors.New("oauth state does not match cookie")
	// ErrStateInvalid はstateの署名・有効期限の検証に失敗した場合に返される。
	ErrStateInvalid = errors.New("oauth state is invalid")
)

// StateSigner はOAuthのanti-replay stateを署名付きトークンとして発行・検証する。
// stateはHS256で署名したJWTで、同じ値をCookieにも保存して戻り時に照合する。
type StateSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewStateSigner はStateSignerを生成する。
func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{
		secret: []byte(secret),
		ttl:    DefaultStateTTL,
		now:    time.Now,
	}
}

// Issue は新しいstateを発行する。
func (s *StateSigner) Issue() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate state nonce: %w", err)
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    stateIssuer,
		ID:        hex.EncodeToString(nonce),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return signed, nil
}

// Verify はリダイレクト戻り時のstateを検証する。
// Cookieの値と一致し、かつ署名・発行者・有効期限が正しい場合のみnilを返す。
func (s *StateSigner) Verify(state, cookieValue string) error {
	if state == "" {
		return ErrStateMissing
	}
	if subtle.ConstantTimeCompare([]byte(state), []byte(cookieValue)) != 1 {
		return ErrStateMismatch
	}

	_, err := jwt.ParseWithClaims(state, &jwt.RegisteredClaims{},
		func(_ *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStateInvalid, err)
	}
	return nil
}
