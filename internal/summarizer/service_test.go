package summarizer

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/hitoshi/resumedigest/internal/security"
)

// --- モック定義 ---

type mockGenerator struct {
	generateFn func(ctx context.Context, prompt string) (string, error)
	calls      int
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls++
	if m.generateFn != nil {
		return m.generateFn(ctx, prompt)
	}
	return "", nil
}

type mockRecorder struct {
	success   int
	failures  []string
	latencies int
}

func (m *mockRecorder) RecordGenerateSuccess()              { m.success++ }
func (m *mockRecorder) RecordGenerateFailure(reason string) { m.failures = append(m.failures, reason) }
func (m *mockRecorder) RecordGenerateLatency(time.Duration) { m.latencies++ }

// --- テスト ---

func TestSummarize_Success(t *testing.T) {
	var gotPrompt string
	gen := &mockGenerator{generateFn: func(ctx context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return "** Built payment APIs in Go\n* Led a team of 4\n\n*   Shipped <b>three</b> products  \n", nil
	}}
	rec := &mockRecorder{}
	svc := NewService(gen, security.NewTextSanitizer(), rec, nil)

	lines, err := svc.Summarize(context.Background(), "  Jane Doe\nSenior engineer  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPrompt != PromptPrefix+"Jane Doe\nSenior engineer" {
		t.Errorf("prompt = %q", gotPrompt)
	}
	want := []string{"Built payment APIs in Go", "Led a team of 4", "Shipped three products"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("lines = %q, want %q", lines, want)
	}
	if rec.success != 1 || rec.latencies != 1 || len(rec.failures) != 0 {
		t.Errorf("recorder = %+v", rec)
	}
}

func TestSummarize_EmptyInputSkipsGenerator(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t\n"} {
		gen := &mockGenerator{}
		svc := NewService(gen, security.NewTextSanitizer(), nil, nil)

		_, err := svc.Summarize(context.Background(), input)
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("Summarize(%q) error = %v, want ErrEmptyInput", input, err)
		}
		if gen.calls != 0 {
			t.Errorf("Summarize(%q) called generator %d times", input, gen.calls)
		}
	}
}

func TestSummarize_NoTextReturned(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "空文字列", raw: ""},
		{name: "マーカーのみ", raw: "*\n**\n  "},
		{name: "タグのみ", raw: "<br><br>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{generateFn: func(context.Context, string) (string, error) { return tt.raw, nil }}
			svc := NewService(gen, security.NewTextSanitizer(), nil, nil)

			lines, err := svc.Summarize(context.Background(), "resume")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(lines) != 1 || lines[0] != NoSummaryText {
				t.Errorf("lines = %q, want [%q]", lines, NoSummaryText)
			}
		})
	}
}

func TestSummarize_GeneratorError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantReason string
	}{
		{name: "APIエラー", err: errors.New("status 500"), wantReason: "api_error"},
		{name: "タイムアウト", err: context.DeadlineExceeded, wantReason: "timeout"},
		{name: "キャンセル", err: context.Canceled, wantReason: "canceled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{generateFn: func(context.Context, string) (string, error) { return "", tt.err }}
			rec := &mockRecorder{}
			svc := NewService(gen, security.NewTextSanitizer(), rec, nil)

			lines, err := svc.Summarize(context.Background(), "resume")
			if !errors.Is(err, tt.err) {
				t.Errorf("error = %v, want wrapping %v", err, tt.err)
			}
			if lines != nil {
				t.Errorf("lines = %q, want nil", lines)
			}
			if len(rec.failures) != 1 || rec.failures[0] != tt.wantReason {
				t.Errorf("failures = %v, want [%s]", rec.failures, tt.wantReason)
			}
			if rec.success != 0 {
				t.Errorf("success = %d, want 0", rec.success)
			}
		})
	}
}

func TestParseSummary(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "アスタリスク箇条書き", raw: "* one\n* two", want: []string{"one", "two"}},
		{name: "連続アスタリスク", raw: "**bold start\n***x", want: []string{"bold start", "x"}},
		{name: "インデント付き", raw: "   * nested", want: []string{"nested"}},
		{name: "行中のアスタリスクは残す", raw: "5* rating", want: []string{"5* rating"}},
		{name: "CRLF", raw: "a\r\nb\r\n", want: []string{"a", "b"}},
		{name: "空", raw: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseSummary(tt.raw); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseSummary(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
