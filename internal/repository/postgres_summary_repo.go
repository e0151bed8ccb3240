package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/resumedigest/internal/model"
)

// PostgresSummaryRepo はPostgreSQLを使用した要約レコードリポジトリ。
type PostgresSummaryRepo struct {
	db *sql.DB
}

// NewPostgresSummaryRepo はPostgresSummaryRepoを生成する。
func NewPostgresSummaryRepo(db *sql.DB) *PostgresSummaryRepo {
	return &PostgresSummaryRepo{db: db}
}

// Insert は要約レコードを追加する。
// アクセス範囲が未設定の場合はprivateとして保存する。
func (r *PostgresSummaryRepo) Insert(ctx context.Context, record *model.SummaryRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.AccessScope == "" {
		record.AccessScope = model.AccessScopePrivate
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO resume_summaries (id, user_id, access_scope, summary, date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID, record.UserID, record.AccessScope, record.Summary, record.Date, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}
	return nil
}

// ListByUser はユーザーの要約レコードをdate降順で最大limit件返す。
// 同一日時の場合は作成順の新しいものを先に返す。
func (r *PostgresSummaryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.SummaryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, access_scope, summary, date, created_at
		 FROM resume_summaries
		 WHERE user_id = $1 AND access_scope = $2
		 ORDER BY date DESC, created_at DESC
		 LIMIT $3`,
		userID, model.AccessScopePrivate, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	defer rows.Close()

	records := make([]*model.SummaryRecord, 0, limit)
	for rows.Next() {
		rec := &model.SummaryRecord{}
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.AccessScope, &rec.Summary, &rec.Date, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate summaries: %w", err)
	}

	return records, nil
}

// DeleteByUserID はユーザーの全要約レコードを削除する。
func (r *PostgresSummaryRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM resume_summaries WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete summaries: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SummaryRepository = (*PostgresSummaryRepo)(nil)
