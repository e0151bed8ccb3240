package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/resumedigest/internal/model"
)

// ErrorResponseBody はAPIエラーの共通JSON形式。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

var errInternal = &model.APIError{
	Code:     "INTERNAL_ERROR",
	Message:  "An internal error occurred.",
	Category: "system",
	Action:   "Please wait a moment and try again.",
}

// WriteErrorResponse はAPIErrorをJSONで書き込む。エラー応答はキャッシュさせない。
// apiErrがnilなら内部エラーとして扱う。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	if apiErr == nil {
		apiErr = errInternal
	}
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteInternalServerError は500を返す。詳細は呼び出し側でログに残す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, errInternal)
}
