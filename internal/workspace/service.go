// Package workspace は認証済みユーザーの要約作業（生成・保存・一覧）のコマンドを提供する。
//
// 各セッションは直近の要約（下書き）を1つだけ持つ。下書きは生成成功時にのみ上書きされ、
// 保存コマンドだけが読み出す。同一セッションで同時に実行できるコマンドは1つまでである。
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/resumedigest/internal/model"
	"github.com/hitoshi/resumedigest/internal/repository"
	"github.com/hitoshi/resumedigest/internal/summarizer"
)

var (
	// ErrBusy は同一セッションで別のコマンドが実行中の場合に返される。
	ErrBusy = errors.New("another command is in progress for this session")
	// ErrNoDraft は保存対象の下書きがない場合に返される。
	ErrNoDraft = errors.New("no summary draft to save")
)

// Summarizer は履歴書テキストを要約行に変換する。
type Summarizer interface {
	Summarize(ctx context.Context, resumeText string) ([]string, error)
}

// Recorder は保存件数のメトリクスを記録する。
type Recorder interface {
	RecordSummarySaved()
}

// Service は要約作業のコマンドハンドラー。
type Service struct {
	summarizer Summarizer
	drafts     repository.DraftStore
	summaries  repository.SummaryRepository
	recorder   Recorder
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService は新しいServiceを生成する。recorderとloggerはnilでもよい。
func NewService(
	s Summarizer,
	drafts repository.DraftStore,
	summaries repository.SummaryRepository,
	recorder Recorder,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		summarizer: s,
		drafts:     drafts,
		summaries:  summaries,
		recorder:   recorder,
		logger:     logger,
		now:        time.Now,
		inFlight:   make(map[string]struct{}),
	}
}

// acquire はセッションのコマンド実行権を取得する。
// 取得できた場合は解放関数を返す。
func (s *Service) acquire(sessionID string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inFlight[sessionID]; busy {
		return nil, ErrBusy
	}
	s.inFlight[sessionID] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inFlight, sessionID)
		s.mu.Unlock()
	}, nil
}

// Summarize は履歴書テキストを要約し、成功した場合のみ下書きを上書きする。
// 空白のみのテキストは生成APIを呼ばずにsummarizer.ErrEmptyInputを返す。
func (s *Service) Summarize(ctx context.Context, sessionID, resumeText string) ([]string, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, summarizer.ErrEmptyInput
	}

	release, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	lines, err := s.summarizer.Summarize(ctx, resumeText)
	if err != nil {
		return nil, err
	}

	if err := s.drafts.SaveDraft(ctx, sessionID, lines); err != nil {
		return nil, fmt.Errorf("failed to store summary draft: %w", err)
	}
	return lines, nil
}

// Save は現在の下書きを要約レコードとして保存する。
// 下書きは保存後も保持されるため、同じ要約を再度保存できる。
func (s *Service) Save(ctx context.Context, sessionID, userID string) (*model.SummaryRecord, error) {
	release, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	lines, err := s.drafts.LoadDraft(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load summary draft: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrNoDraft
	}

	record := &model.SummaryRecord{
		UserID:      userID,
		AccessScope: model.AccessScopePrivate,
		Summary:     model.JoinSummary(lines),
		Date:        s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.summaries.Insert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to insert summary record: %w", err)
	}

	if s.recorder != nil {
		s.recorder.RecordSummarySaved()
	}
	s.logger.Info("summary saved",
		slog.String("user_id", userID),
		slog.String("summary_id", record.ID),
		slog.Int("lines", len(lines)),
	)
	return record, nil
}

// List はユーザーの保存済み要約を新しい順に最大model.SummaryListLimit件返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.SummaryRecord, error) {
	records, err := s.summaries.ListByUser(ctx, userID, model.SummaryListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	return records, nil
}

// Draft は現在の下書きを返す。下書きがない場合は空スライスを返す。
func (s *Service) Draft(ctx context.Context, sessionID string) ([]string, error) {
	lines, err := s.drafts.LoadDraft(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load summary draft: %w", err)
	}
	return lines, nil
}

// Discard は下書きを破棄する。ログアウト時に呼ばれる。
func (s *Service) Discard(ctx context.Context, sessionID string) error {
	if err := s.drafts.ClearDraft(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to discard summary draft: %w", err)
	}
	return nil
}
