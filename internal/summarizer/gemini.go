package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel は要約に使用するGeminiモデルの既定値。
const DefaultModel = "gemini-2.5-flash-lite"

// GeminiConfig はGeminiGeneratorの設定を保持する。
type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL が空の場合はSDKの既定エンドポイントを使用する。
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiGenerator はgenai SDK経由でGeminiのgenerateContentを呼び出すGenerator実装。
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator はAPIキー認証のGemini Developer APIクライアントを生成する。
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate はプロンプトを単一のユーザーターンとして送信し、
// 最初の候補の最初のパートのテキストを返す。候補がない場合は空文字列を返す。
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generateContent %s: %w", g.model, err)
	}

	return firstPartText(resp), nil
}

func firstPartText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0] == nil {
		return ""
	}
	return strings.TrimSpace(content.Parts[0].Text)
}

var _ Generator = (*GeminiGenerator)(nil)
