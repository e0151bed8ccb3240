package security

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は外部の生成系APIが返したテキストをプレーンテキストに正規化する。
type TextSanitizer interface {
	// SanitizeLine はHTMLタグを除去し、制御文字を取り除いた1行を返す。
	// 出力はエスケープされていないプレーンテキストで、表示時のエスケープはテンプレート側で行う。
	SanitizeLine(line string) string
}

type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はすべてのタグを除去するbluemondayのstrictポリシーでTextSanitizerを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// SanitizeLine はHTMLタグと制御文字を除去し、前後の空白を取り除く。
func (s *textSanitizer) SanitizeLine(line string) string {
	stripped := html.UnescapeString(s.policy.Sanitize(line))
	stripped = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, stripped)
	return strings.TrimSpace(stripped)
}

var _ TextSanitizer = (*textSanitizer)(nil)
