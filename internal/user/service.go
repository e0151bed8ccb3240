// Package user は退会とプロフィール参照を扱う。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/resumedigest/internal/model"
	"github.com/hitoshi/resumedigest/internal/repository"
)

// SummaryDeleter は要約レコードの一括削除インターフェース。
type SummaryDeleter interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// Service はユーザー単位の操作をまとめる。
type Service struct {
	users     repository.UserRepository
	sessions  repository.SessionRepository
	summaries SummaryDeleter
}

// NewService はServiceを生成する。sessionsとsummariesはnilでもよい。
func NewService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	summaries SummaryDeleter,
) *Service {
	return &Service{users: users, sessions: sessions, summaries: summaries}
}

// withdrawStep は退会時に順に実行する削除処理の1段。
type withdrawStep struct {
	name string
	run  func(ctx context.Context, userID string) error
}

// withdrawSteps は削除順序を返す。
// 要約 → セッション(下書きを含む) → ユーザー(identitiesはCASCADE)。
func (s *Service) withdrawSteps() []withdrawStep {
	var steps []withdrawStep
	if s.summaries != nil {
		steps = append(steps, withdrawStep{"summaries", s.summaries.DeleteByUserID})
	}
	if s.sessions != nil {
		steps = append(steps, withdrawStep{"sessions", s.sessions.DeleteByUserID})
	}
	return append(steps, withdrawStep{"user", s.users.DeleteByID})
}

// Withdraw はユーザーと関連データをすべて削除する。
// 途中の段で失敗した場合、それ以降は実行しない。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	if _, err := s.lookup(ctx, userID); err != nil {
		return err
	}

	for _, step := range s.withdrawSteps() {
		if err := step.run(ctx, userID); err != nil {
			// 並行した退会で先に消えていた
			if errors.Is(err, repository.ErrUserNotFound) {
				return model.NewUserNotFoundError()
			}
			return fmt.Errorf("withdraw %s: failed to delete %s: %w", userID, step.name, err)
		}
		slog.DebugContext(ctx, "withdraw step done",
			slog.String("user_id", userID),
			slog.String("step", step.name),
		)
	}
	return nil
}

// PictureURL はユーザーのプロフィール画像URLを返す。
// 未登録ならNO_PICTURE。
func (s *Service) PictureURL(ctx context.Context, userID string) (string, error) {
	u, err := s.lookup(ctx, userID)
	if err != nil {
		return "", err
	}
	if u.PictureURL == "" {
		return "", model.NewNoPictureError()
	}
	return u.PictureURL, nil
}

func (s *Service) lookup(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", userID, err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError()
	}
	return u, nil
}
