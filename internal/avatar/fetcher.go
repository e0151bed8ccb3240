// Package avatar はGoogleプロフィール画像をSSRF防止付きクライアントで取得する。
package avatar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/resumedigest/internal/security"
)

// AllowedHostSuffixes はプロフィール画像の取得を許可するドメイン。
var AllowedHostSuffixes = []string{"googleusercontent.com"}

var (
	// ErrBlockedURL はURLがSSRF検証に失敗した場合に返される。
	ErrBlockedURL = errors.New("avatar url is not allowed")
	// ErrNotImage はレスポンスが画像でない場合に返される。
	ErrNotImage = errors.New("avatar response is not an image")
	// ErrTooLarge はレスポンスが最大サイズを超えた場合に返される。
	ErrTooLarge = errors.New("avatar response exceeds size limit")
)

// Image は取得した画像データ。
type Image struct {
	ContentType string
	Data        []byte
}

// Fetcher はプロフィール画像を取得する。
type Fetcher struct {
	guard   security.SSRFGuardService
	client  *http.Client
	maxSize int64
}

// NewFetcher は新しいFetcherを生成する。
// HTTPクライアントはguard.NewSafeClientで生成される。
func NewFetcher(guard security.SSRFGuardService, timeout time.Duration, maxSize int64) *Fetcher {
	return &Fetcher{
		guard:   guard,
		client:  guard.NewSafeClient(timeout),
		maxSize: maxSize,
	}
}

// Fetch は画像URLを検証してから取得する。
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Image, error) {
	if err := f.guard.ValidateURL(rawURL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBlockedURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build avatar request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("avatar upstream returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("%w: %q", ErrNotImage, contentType)
	}

	// 上限+1バイトまで読み込み、超過を検出する
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read avatar body: %w", err)
	}
	if int64(len(data)) > f.maxSize {
		return nil, ErrTooLarge
	}

	return &Image{ContentType: mediaType, Data: data}, nil
}
