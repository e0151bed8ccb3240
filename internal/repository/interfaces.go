// Package repository はPostgreSQLへの永続化を扱う。
// 取得系は該当なしのとき (nil, nil) を返す。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/resumedigest/internal/model"
)

// UserRepository はusersテーブルを扱う。
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	// CreateWithIdentity はユーザーとidentityを1トランザクションで作る。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error
	// UpdateProfile は表示名と画像URLをIdPの値で上書きする。対象がなければErrUserNotFound。
	UpdateProfile(ctx context.Context, user *model.User) error
	// DeleteByID はユーザーを消す。identities、sessions、resume_summariesはCASCADE。
	DeleteByID(ctx context.Context, id string) error
}

// IdentityRepository はGoogleアカウント (provider, sub) とユーザーの紐付けを扱う。
type IdentityRepository interface {
	FindBySubject(ctx context.Context, provider, subject string) (*model.Identity, error)
	TouchLastLogin(ctx context.Context, identityID string, at time.Time) error
}

// SessionRepository はサーバー側セッションを扱う。
// FindByIDは期限切れのセッションを返さない。
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	FindByID(ctx context.Context, id string) (*model.Session, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID string) error
}

// DraftStore は未保存の直近の要約をsessions.dataに置く。
// セッションが消えると下書きも消える。
type DraftStore interface {
	// LoadDraft は未生成なら空スライスを返す。
	LoadDraft(ctx context.Context, sessionID string) ([]string, error)
	SaveDraft(ctx context.Context, sessionID string, lines []string) error
	ClearDraft(ctx context.Context, sessionID string) error
}

// SummaryRepository は保存済みの要約を扱う。参照は常に所有ユーザーで絞る。
type SummaryRepository interface {
	// Insert はIDとCreatedAtが空なら採番してから追加する。
	Insert(ctx context.Context, record *model.SummaryRecord) error
	// ListByUser はdate降順で最大limit件返す。
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.SummaryRecord, error)
	DeleteByUserID(ctx context.Context, userID string) error
}
