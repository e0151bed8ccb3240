package model

import (
	"strings"
	"time"
)

const (
	// SummaryTable は要約レコードを保存するテーブル名。
	SummaryTable = "resume_summaries"

	// AccessScopePrivate は所有ユーザーのみが読み書きできるアクセス範囲。
	AccessScopePrivate = "private"

	// SummaryListLimit は要約一覧の取得件数。
	SummaryListLimit = 10

	// SummaryDateLayout は要約レコードの日付（ISO-8601、ミリ秒、UTC）の書式。
	SummaryDateLayout = "2006-01-02T15:04:05.000Z07:00"
)

// SummaryRecord は保存済みの要約レコードを表す。
// Summaryは箇条書きの各行を改行で連結した文字列。
type SummaryRecord struct {
	ID          string
	UserID      string
	AccessScope string
	Summary     string
	Date        time.Time
	CreatedAt   time.Time
}

// Lines は要約を箇条書きの行に分割する。
// 各行の前後空白を除去し、空行は除外する。順序は保持する。
func (r *SummaryRecord) Lines() []string {
	return SplitSummary(r.Summary)
}

// FormattedDate はDateをISO-8601（UTC、ミリ秒精度）で返す。
func (r *SummaryRecord) FormattedDate() string {
	return r.Date.UTC().Format(SummaryDateLayout)
}

// SplitSummary は改行区切りの要約を行スライスに変換する。
func SplitSummary(summary string) []string {
	var lines []string
	for _, line := range strings.Split(summary, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// JoinSummary は行スライスを改行区切りの要約に変換する。
func JoinSummary(lines []string) string {
	return strings.Join(lines, "\n")
}
