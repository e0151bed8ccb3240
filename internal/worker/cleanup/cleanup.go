// Package cleanup は期限切れセッションを定期的に削除するワーカーを提供する。
// セッションに保持された未保存の要約（下書き）もセッションとともに消える。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// DefaultBatchSize は1回のDELETEで消す最大件数。
const DefaultBatchSize = 500

// Executor は*sql.DBと*sql.Txが満たす。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// 期限切れ行をbatch件ずつ削除する。ロックを短く保つため一度に全件は消さない。
const deleteExpiredSessionsSQL = `
DELETE FROM sessions
WHERE id IN (
	SELECT id FROM sessions
	WHERE expires_at < now() - make_interval(secs => $1)
	LIMIT $2
)`

// CleanupJob は期限切れセッションの削除ジョブ。冪等なので複数プロセスから動かしてよい。
type CleanupJob struct {
	db     Executor
	logger *slog.Logger

	// Grace は期限切れから削除までの猶予。
	Grace time.Duration
	// BatchSize は1回のDELETEの上限。0以下ならDefaultBatchSize。
	BatchSize int
}

// NewCleanupJob は猶予0、DefaultBatchSizeのジョブを返す。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:        db,
		logger:    logger,
		BatchSize: DefaultBatchSize,
	}
}

// Run は対象がなくなるまでバッチ削除を繰り返し、合計件数をログに残す。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()
	batch := j.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	var total int64
	batches := 0
	for {
		n, err := j.deleteBatch(ctx, batch)
		if err != nil {
			j.logger.Error("セッションクリーンアップに失敗しました",
				slog.String("error", err.Error()),
				slog.Int64("deleted_count", total),
				slog.Duration("grace", j.Grace),
			)
			return err
		}
		total += n
		batches++
		if n < int64(batch) || ctx.Err() != nil {
			break
		}
	}

	j.logger.Info("セッションクリーンアップが完了しました",
		slog.Int64("deleted_count", total),
		slog.Int("batches", batches),
		slog.Duration("grace", j.Grace),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

func (j *CleanupJob) deleteBatch(ctx context.Context, batch int) (int64, error) {
	res, err := j.db.ExecContext(ctx, deleteExpiredSessionsSQL, j.Grace.Seconds(), batch)
	if err != nil {
		return 0, fmt.Errorf("期限切れセッションの削除に失敗: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	return n, nil
}

// Start は起動直後に1回、その後intervalごとにRunを実行する。
// ctxがキャンセルされるまでブロックする。失敗はログに記録して次回に持ち越す。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	_ = j.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
