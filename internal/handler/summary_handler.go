package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/hitoshi/resumedigest/internal/middleware"
	"github.com/hitoshi/resumedigest/internal/model"
	"github.com/hitoshi/resumedigest/internal/resume"
	"github.com/hitoshi/resumedigest/internal/summarizer"
	"github.com/hitoshi/resumedigest/internal/workspace"
)

// WorkspaceService は要約ハンドラーとページが必要とする作業領域のコマンド。
type WorkspaceService interface {
	Summarize(ctx context.Context, sessionID, resumeText string) ([]string, error)
	Save(ctx context.Context, sessionID, userID string) (*model.SummaryRecord, error)
	List(ctx context.Context, userID string) ([]*model.SummaryRecord, error)
	Draft(ctx context.Context, sessionID string) ([]string, error)
	Discard(ctx context.Context, sessionID string) error
}

// defaultUploadMaxSize はアップロードサイズ上限の既定値（5MB）。
const defaultUploadMaxSize int64 = 5 << 20

// SummaryHandler は要約の生成・保存・一覧のHTTPハンドラー。
type SummaryHandler struct {
	workspace     WorkspaceService
	uploadMaxSize int64
}

// NewSummaryHandler はSummaryHandlerを生成する。
func NewSummaryHandler(ws WorkspaceService, uploadMaxSize int64) *SummaryHandler {
	if uploadMaxSize <= 0 {
		uploadMaxSize = defaultUploadMaxSize
	}
	return &SummaryHandler{
		workspace:     ws,
		uploadMaxSize: uploadMaxSize,
	}
}

// generateRequest はPOST /api/summaries/generate のJSONリクエストボディ。
type generateRequest struct {
	ResumeText string `json:"resume_text"`
}

// generateResponse は生成結果。
type generateResponse struct {
	Summary []string `json:"summary"`
}

// summaryResponse は保存済み要約1件のレスポンス。
type summaryResponse struct {
	ID      string   `json:"id"`
	Summary []string `json:"summary"`
	Date    string   `json:"date"`
}

// listSummariesResponse は要約一覧のレスポンス。
type listSummariesResponse struct {
	Summaries []summaryResponse `json:"summaries"`
}

// Generate は履歴書テキスト（またはアップロードファイル）を要約し、セッションの下書きを更新する。
// POST /api/summaries/generate
func (h *SummaryHandler) Generate(w http.ResponseWriter, r *http.Request) {
	sessionID, err := middleware.SessionIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, errUnauthorized)
		return
	}

	text, apiErr := h.readResumeText(w, r)
	if apiErr != nil {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	lines, err := h.workspace.Summarize(r.Context(), sessionID, text)
	switch {
	case err == nil:
	case errors.Is(err, summarizer.ErrEmptyInput):
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewEmptyResumeError())
		return
	case errors.Is(err, workspace.ErrBusy):
		writeAPIErrorResponse(w, http.StatusConflict, model.NewCommandInProgressError())
		return
	default:
		slog.Error("failed to summarize resume", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusBadGateway, model.NewGenerationFailedError())
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{Summary: lines})
}

// readResumeText はJSONボディまたはmultipartのfileフィールドから履歴書テキストを読み取る。
func (h *SummaryHandler) readResumeText(w http.ResponseWriter, r *http.Request) (string, *model.APIError) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", errInvalidRequest
		}
		return req.ResumeText, nil
	}

	if err := r.ParseMultipartForm(h.uploadMaxSize); err != nil {
		return "", errInvalidRequest
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		// ファイルなしのフォーム送信はテキスト欄の値を使う
		return r.FormValue("resume_text"), nil
	}
	if err != nil {
		return "", errInvalidRequest
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", errInvalidRequest
	}

	mimeType := resume.DetectMIME(header.Header.Get("Content-Type"), header.Filename)
	text, err := resume.ExtractText(mimeType, data)
	if errors.Is(err, resume.ErrUnsupportedType) {
		return "", model.NewUnsupportedFileTypeError(mimeType)
	}
	if err != nil {
		slog.Warn("failed to extract resume text",
			slog.String("mime", mimeType),
			slog.Int("size", len(data)),
			slog.String("error", err.Error()),
		)
		return "", model.NewExtractFailedError()
	}
	return text, nil
}

// Save はセッションの下書きを要約レコードとして保存する。
// POST /api/summaries
func (h *SummaryHandler) Save(w http.ResponseWriter, r *http.Request) {
	sessionID, err := middleware.SessionIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, errUnauthorized)
		return
	}
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, errUnauthorized)
		return
	}

	record, err := h.workspace.Save(r.Context(), sessionID, userID)
	switch {
	case err == nil:
	case errors.Is(err, workspace.ErrNoDraft):
		writeAPIErrorResponse(w, http.StatusConflict, model.NewNoDraftError())
		return
	case errors.Is(err, workspace.ErrBusy):
		writeAPIErrorResponse(w, http.StatusConflict, model.NewCommandInProgressError())
		return
	default:
		slog.Error("failed to save summary", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewSaveFailedError())
		return
	}

	writeJSON(w, http.StatusCreated, toSummaryResponse(record))
}

// List はユーザーの保存済み要約を新しい順に返す。
// GET /api/summaries
func (h *SummaryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, errUnauthorized)
		return
	}

	records, err := h.workspace.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := listSummariesResponse{Summaries: make([]summaryResponse, 0, len(records))}
	for _, rec := range records {
		resp.Summaries = append(resp.Summaries, toSummaryResponse(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

// toSummaryResponse はmodel.SummaryRecordからAPIレスポンスに変換する。
func toSummaryResponse(rec *model.SummaryRecord) summaryResponse {
	lines := rec.Lines()
	if lines == nil {
		lines = []string{}
	}
	return summaryResponse{
		ID:      rec.ID,
		Summary: lines,
		Date:    rec.FormattedDate(),
	}
}
