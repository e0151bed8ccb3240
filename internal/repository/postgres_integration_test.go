package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/hitoshi/resumedigest/internal/database"
	"github.com/hitoshi/resumedigest/internal/model"
)

// openTestDB はTEST_DATABASE_URLのDBにマイグレーションを適用して返す。
// 未設定または接続できない場合はテストをスキップする。
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL が未設定のためスキップ")
	}

	db, err := database.Open(dbURL, database.PoolConfig{MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("データベースへの接続に失敗: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("テスト用データベースに接続できません（スキップ）: %v", err)
	}
	if err := database.RunMigrations(dbURL); err != nil {
		t.Fatalf("マイグレーション実行に失敗: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB) *model.User {
	t.Helper()

	now := time.Now().UTC()
	user := &model.User{
		ID:        uuid.New().String(),
		Email:     "repo-test@example.com",
		Name:      "Repo Test",
		CreatedAt: now,
		UpdatedAt: now,
	}
	identity := &model.Identity{
		ID:             uuid.New().String(),
		UserID:         user.ID,
		Provider:       "google",
		ProviderUserID: "sub-" + user.ID,
		CreatedAt:      now,
	}
	if err := NewPostgresUserRepo(db).CreateWithIdentity(context.Background(), user, identity); err != nil {
		t.Fatalf("ユーザー作成に失敗: %v", err)
	}
	t.Cleanup(func() { db.Exec(`DELETE FROM users WHERE id = $1`, user.ID) })
	return user
}

func TestPostgresSessionRepo_DraftRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db)
	repo := NewPostgresSessionRepo(db)

	session := &model.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	draft, err := repo.LoadDraft(ctx, session.ID)
	if err != nil {
		t.Fatalf("LoadDraft failed: %v", err)
	}
	if len(draft) != 0 {
		t.Errorf("initial draft = %v, want empty", draft)
	}

	if err := repo.SaveDraft(ctx, session.ID, []string{"one", "two"}); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	draft, err = repo.LoadDraft(ctx, session.ID)
	if err != nil {
		t.Fatalf("LoadDraft failed: %v", err)
	}
	if len(draft) != 2 || draft[0] != "one" || draft[1] != "two" {
		t.Errorf("draft = %v, want [one two]", draft)
	}

	if err := repo.ClearDraft(ctx, session.ID); err != nil {
		t.Fatalf("ClearDraft failed: %v", err)
	}
	draft, _ = repo.LoadDraft(ctx, session.ID)
	if len(draft) != 0 {
		t.Errorf("draft after clear = %v, want empty", draft)
	}
}

func TestPostgresSessionRepo_SaveDraft_UnknownSession(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresSessionRepo(db)

	err := repo.SaveDraft(context.Background(), "no-such-session", []string{"x"})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestPostgresSummaryRepo_ListByUser_OrderAndLimit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db)
	other := createTestUser(t, db)
	repo := NewPostgresSummaryRepo(db)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		rec := &model.SummaryRecord{
			UserID:  user.ID,
			Summary: model.JoinSummary([]string{"line"}),
			Date:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	if err := repo.Insert(ctx, &model.SummaryRecord{UserID: other.ID, Summary: "other", Date: base.Add(time.Hour)}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	records, err := repo.ListByUser(ctx, user.ID, model.SummaryListLimit)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(records) != model.SummaryListLimit {
		t.Fatalf("len = %d, want %d", len(records), model.SummaryListLimit)
	}
	for i := 1; i < len(records); i++ {
		if records[i-1].Date.Before(records[i].Date) {
			t.Errorf("records not sorted by date desc at %d", i)
		}
	}
	for _, rec := range records {
		if rec.UserID != user.ID {
			t.Errorf("record of another user returned: %s", rec.UserID)
		}
		if rec.AccessScope != model.AccessScopePrivate {
			t.Errorf("AccessScope = %q, want %q", rec.AccessScope, model.AccessScopePrivate)
		}
	}
	if !records[0].Date.Equal(base.Add(11 * time.Minute)) {
		t.Errorf("newest date = %v, want %v", records[0].Date, base.Add(11*time.Minute))
	}
}

func TestPostgresSummaryRepo_InsertThenList_KeepsLineOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db)
	repo := NewPostgresSummaryRepo(db)

	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := repo.Insert(ctx, &model.SummaryRecord{
		UserID:  user.ID,
		Summary: "A\nB\nC",
		Date:    date,
	}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	records, err := repo.ListByUser(ctx, user.ID, model.SummaryListLimit)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len = %d, want 1", len(records))
	}
	if got := records[0].FormattedDate(); got != "2024-01-01T00:00:00.000Z" {
		t.Errorf("date = %q, want %q", got, "2024-01-01T00:00:00.000Z")
	}
	lines := records[0].Lines()
	want := []string{"A", "B", "C"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("lines[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestPostgresIdentityRepo_FindBySubjectAndTouch(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db)
	repo := NewPostgresIdentityRepo(db)

	identity, err := repo.FindBySubject(ctx, "google", "sub-"+user.ID)
	if err != nil {
		t.Fatalf("FindBySubject failed: %v", err)
	}
	if identity == nil || identity.UserID != user.ID {
		t.Fatalf("identity = %+v, want user %s", identity, user.ID)
	}

	later := identity.LastLoginAt.Add(2 * time.Hour).UTC().Truncate(time.Microsecond)
	if err := repo.TouchLastLogin(ctx, identity.ID, later); err != nil {
		t.Fatalf("TouchLastLogin failed: %v", err)
	}
	again, err := repo.FindBySubject(ctx, "google", "sub-"+user.ID)
	if err != nil {
		t.Fatalf("FindBySubject failed: %v", err)
	}
	if !again.LastLoginAt.Equal(later) {
		t.Errorf("LastLoginAt = %v, want %v", again.LastLoginAt, later)
	}

	missing, err := repo.FindBySubject(ctx, "google", "no-such-subject")
	if err != nil || missing != nil {
		t.Errorf("FindBySubject(unknown) = (%v, %v), want (nil, nil)", missing, err)
	}
	if err := repo.TouchLastLogin(ctx, uuid.New().String(), later); err == nil {
		t.Error("TouchLastLogin on a missing identity should fail")
	}
}

func TestPostgresUserRepo_UpdateProfileAndDelete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db)
	repo := NewPostgresUserRepo(db)

	user.Name = ""
	user.GivenName = "Repo"
	user.PictureURL = "https://lh3.googleusercontent.com/a/pic"
	user.UpdatedAt = user.UpdatedAt.Add(time.Minute)
	if err := repo.UpdateProfile(ctx, user); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	got, err := repo.FindByID(ctx, user.ID)
	if err != nil || got == nil {
		t.Fatalf("FindByID = (%v, %v)", got, err)
	}
	if got.GivenName != "Repo" || got.PictureURL != user.PictureURL || got.Name != "" {
		t.Errorf("profile not updated: %+v", got)
	}

	if err := repo.DeleteByID(ctx, user.ID); err != nil {
		t.Fatalf("DeleteByID failed: %v", err)
	}
	if got, err := repo.FindByID(ctx, user.ID); err != nil || got != nil {
		t.Errorf("FindByID after delete = (%v, %v), want (nil, nil)", got, err)
	}
	var identities int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM identities WHERE user_id = $1`, user.ID).Scan(&identities); err != nil {
		t.Fatal(err)
	}
	if identities != 0 {
		t.Errorf("identities = %d, want 0 after cascade", identities)
	}

	if err := repo.DeleteByID(ctx, user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("second DeleteByID err = %v, want ErrUserNotFound", err)
	}
	if err := repo.UpdateProfile(ctx, user); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UpdateProfile on deleted user err = %v, want ErrUserNotFound", err)
	}
}
