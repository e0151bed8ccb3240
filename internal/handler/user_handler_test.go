package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/resumedigest/internal/model"
)

func TestUserHandler_Withdraw(t *testing.T) {
	tests := []struct {
		name         string
		userID       string
		withdrawErr  error
		wantStatus   int
		wantCalled   bool
		wantClearing bool
	}{
		{name: "成功", userID: "user-123", wantStatus: http.StatusNoContent, wantCalled: true, wantClearing: true},
		{name: "未認証", wantStatus: http.StatusUnauthorized},
		{name: "ユーザーなし", userID: "user-123", withdrawErr: model.NewUserNotFoundError(), wantStatus: http.StatusNotFound, wantCalled: true},
		{name: "DBエラー", userID: "user-123", withdrawErr: errors.New("transaction failed"), wantStatus: http.StatusInternalServerError, wantCalled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calledWith string
			svc := &mockUserService{
				withdrawFn: func(ctx context.Context, userID string) error {
					calledWith = userID
					return tt.withdrawErr
				},
			}

			req := httptest.NewRequest(http.MethodDelete, "/api/users/me", nil)
			if tt.userID != "" {
				req = withUserID(req, tt.userID)
			}
			w := httptest.NewRecorder()
			NewUserHandler(svc, testCookies).Withdraw(w, req)

			resp := w.Result()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if (calledWith != "") != tt.wantCalled || (tt.wantCalled && calledWith != tt.userID) {
				t.Errorf("Withdraw called with %q, want called=%v", calledWith, tt.wantCalled)
			}

			c := findCookie(resp, "session_id")
			cleared := c != nil && c.MaxAge < 0
			if cleared != tt.wantClearing {
				t.Errorf("session cookie cleared = %v, want %v", cleared, tt.wantClearing)
			}
			if got := resp.Header.Get("Clear-Site-Data"); (got != "") != tt.wantClearing {
				t.Errorf("Clear-Site-Data = %q", got)
			}
		})
	}
}
