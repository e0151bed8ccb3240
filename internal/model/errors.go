package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, summary, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeEmptyResume         = "EMPTY_RESUME"
	ErrCodeUnsupportedFileType = "UNSUPPORTED_FILE_TYPE"
	ErrCodeExtractFailed       = "EXTRACT_FAILED"
	ErrCodeGenerationFailed    = "GENERATION_FAILED"
	ErrCodeNoDraft             = "NO_DRAFT"
	ErrCodeCommandInProgress   = "COMMAND_IN_PROGRESS"
	ErrCodeSaveFailed          = "SAVE_FAILED"
	ErrCodeSSRFBlocked         = "SSRF_BLOCKED"
	ErrCodeNoPicture           = "NO_PICTURE"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
)

// NewEmptyResumeError は要約対象のテキストが空の場合のエラーを生成する。
func NewEmptyResumeError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyResume,
		Message:  "Please paste your résumé text first.",
		Category: "validation",
		Action:   "Paste your résumé text or upload a file before summarizing.",
	}
}

// NewUnsupportedFileTypeError はアップロードされたファイル形式が未対応の場合のエラーを生成する。
func NewUnsupportedFileTypeError(mime string) *APIError {
	return &APIError{
		Code:     ErrCodeUnsupportedFileType,
		Message:  fmt.Sprintf("Unsupported file type: %s", mime),
		Category: "validation",
		Action:   "Upload a plain text, PDF, or DOCX file.",
	}
}

// NewExtractFailedError はファイルからのテキスト抽出失敗エラーを生成する。
func NewExtractFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeExtractFailed,
		Message:  "Could not read text from the uploaded file.",
		Category: "validation",
		Action:   "Check that the file is not corrupted, or paste the text instead.",
	}
}

// NewGenerationFailedError は要約生成失敗エラーを生成する。
func NewGenerationFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeGenerationFailed,
		Message:  "Failed to summarize résumé.",
		Category: "summary",
		Action:   "Wait a moment and try again.",
	}
}

// NewNoDraftError は保存対象の要約が存在しない場合のエラーを生成する。
func NewNoDraftError() *APIError {
	return &APIError{
		Code:     ErrCodeNoDraft,
		Message:  "There is no summary to save.",
		Category: "summary",
		Action:   "Generate a summary first.",
	}
}

// NewCommandInProgressError は同一セッションで処理中のコマンドがある場合のエラーを生成する。
func NewCommandInProgressError() *APIError {
	return &APIError{
		Code:     ErrCodeCommandInProgress,
		Message:  "Another request is still in progress.",
		Category: "summary",
		Action:   "Wait for the current request to finish.",
	}
}

// NewSaveFailedError は要約保存失敗エラーを生成する。
func NewSaveFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeSaveFailed,
		Message:  "Failed to save summary.",
		Category: "summary",
		Action:   "Wait a moment and try again.",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "The request was blocked by the security policy.",
		Category: "validation",
		Action:   "Only public addresses can be fetched.",
	}
}

// NewNoPictureError はプロフィール画像が登録されていない場合のエラーを生成する。
func NewNoPictureError() *APIError {
	return &APIError{
		Code:     ErrCodeNoPicture,
		Message:  "No profile picture is available.",
		Category: "auth",
		Action:   "",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found.",
		Category: "auth",
		Action:   "Sign in again.",
	}
}
