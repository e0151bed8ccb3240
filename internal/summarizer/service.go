// Package summarizer は履歴書テキストを生成系APIで箇条書きに要約する。
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/resumedigest/internal/security"
)

// PromptPrefix は履歴書本文の前に付与する指示文。
const PromptPrefix = "Summarize this résumé in 5 bullet points:\n\n"

// NoSummaryText は生成APIがテキストを返さなかった場合の要約本文。
const NoSummaryText = "No summary returned."

// ErrEmptyInput は空白のみの入力で要約を要求した場合に返される。
var ErrEmptyInput = errors.New("resume text is empty")

// Generator はプロンプトからテキストを生成する外部APIを抽象化する。
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Recorder は要約生成のメトリクスを記録する。
type Recorder interface {
	RecordGenerateSuccess()
	RecordGenerateFailure(reason string)
	RecordGenerateLatency(duration time.Duration)
}

// Service は要約生成のユースケースを提供する。
type Service struct {
	generator Generator
	sanitizer security.TextSanitizer
	recorder  Recorder
	logger    *slog.Logger
}

// NewService は新しいServiceを生成する。recorderとloggerはnilでもよい。
func NewService(generator Generator, sanitizer security.TextSanitizer, recorder Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		generator: generator,
		sanitizer: sanitizer,
		recorder:  recorder,
		logger:    logger,
	}
}

// Summarize は履歴書テキストを要約し、表示用の行スライスを返す。
// 入力が空白のみの場合は生成APIを呼び出さずにErrEmptyInputを返す。
func (s *Service) Summarize(ctx context.Context, resumeText string) ([]string, error) {
	text := strings.TrimSpace(resumeText)
	if text == "" {
		return nil, ErrEmptyInput
	}

	start := time.Now()
	raw, err := s.generator.Generate(ctx, PromptPrefix+text)
	if s.recorder != nil {
		s.recorder.RecordGenerateLatency(time.Since(start))
	}
	if err != nil {
		reason := failureReason(err)
		if s.recorder != nil {
			s.recorder.RecordGenerateFailure(reason)
		}
		s.logger.Error("summary generation failed",
			slog.String("reason", reason),
			slog.Int("input_length", len(text)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("generate summary: %w", err)
	}

	lines := s.clean(ParseSummary(raw))
	if len(lines) == 0 {
		lines = []string{NoSummaryText}
	}
	if s.recorder != nil {
		s.recorder.RecordGenerateSuccess()
	}
	s.logger.Info("summary generated",
		slog.Int("input_length", len(text)),
		slog.Int("lines", len(lines)),
	)
	return lines, nil
}

func (s *Service) clean(lines []string) []string {
	if s.sanitizer == nil {
		return lines
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if cleaned := s.sanitizer.SanitizeLine(line); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

// ParseSummary は生成テキストを行に分割し、行頭の "*" マーカーと前後の空白を取り除く。
// 空行は除外される。
func ParseSummary(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "*"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "api_error"
	}
}
