package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// getTestDB returns a database pool for testing.
// Skips the test if DATABASE_URL is not set.
func getTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, s *Store) *User {
	t.Helper()
	email := "test-" + time.Now().Format("150405.000000") + "@example.com"
	user, _, err := s.FindOrCreateUser(context.Background(), email)
	if err != nil {
		t.Fatalf("FindOrCreateUser failed: %v", err)
	}
	return user
}

func TestHashAudioFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recording.wav")
	if err := os.WriteFile(path, []byte("fake audio bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	h1, err := HashAudioFile(path)
	if err != nil {
		t.Fatalf("HashAudioFile failed: %v", err)
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(h1))
	}

	h2, err := HashAudioFile(path)
	if err != nil {
		t.Fatalf("HashAudioFile (second) failed: %v", err)
	}
	if h1 != h2 {
		t.Error("hash should be deterministic for identical content")
	}

	other := filepath.Join(dir, "other.wav")
	if err := os.WriteFile(other, []byte("different audio bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	h3, err := HashAudioFile(other)
	if err != nil {
		t.Fatalf("HashAudioFile (other) failed: %v", err)
	}
	if h1 == h3 {
		t.Error("different content should produce different hashes")
	}

	if _, err := HashAudioFile(filepath.Join(dir, "missing.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestUserOperations(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	s := New(db)
	ctx := context.Background()

	email := "user-ops-" + time.Now().Format("150405.000000") + "@example.com"

	user, isNew, err := s.FindOrCreateUser(ctx, email)
	if err != nil {
		t.Fatalf("FindOrCreateUser failed: %v", err)
	}
	if !isNew {
		t.Error("expected isNew = true for new user")
	}
	if user.Email != email {
		t.Errorf("user email = %q, want %q", user.Email, email)
	}

	user2, isNew2, err := s.FindOrCreateUser(ctx, email)
	if err != nil {
		t.Fatalf("FindOrCreateUser (existing) failed: %v", err)
	}
	if isNew2 {
		t.Error("expected isNew = false for existing user")
	}
	if user2.ID != user.ID {
		t.Errorf("user2 ID = %q, want %q", user2.ID, user.ID)
	}

	if err := s.UpdateUserName(ctx, user.ID, "Test User"); err != nil {
		t.Fatalf("UpdateUserName failed: %v", err)
	}
	user3, err := s.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if user3.Name == nil || *user3.Name != "Test User" {
		t.Errorf("user name = %v, want %q", user3.Name, "Test User")
	}

	// Cleanup
	_, _ = db.Exec(ctx, "DELETE FROM users WHERE id = $1", user.ID)
}

func TestInterviewLifecycle(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	s := New(db)
	ctx := context.Background()

	user := createTestUser(t, s)
	defer func() { _, _ = db.Exec(ctx, "DELETE FROM users WHERE id = $1", user.ID) }()

	hash := "deadbeef" + time.Now().Format("150405.000000")

	iv, err := s.CreateInterview(ctx, user.ID, "interview.wav", hash)
	if err != nil {
		t.Fatalf("CreateInterview failed: %v", err)
	}
	defer func() { _ = s.DeleteInterview(ctx, iv.ID) }()

	if iv.Status != StatusQueued {
		t.Errorf("status = %q, want %q", iv.Status, StatusQueued)
	}
	if iv.ID == "" {
		t.Error("interview ID should not be empty")
	}

	// Dedup lookup finds the same interview.
	dup, err := s.FindInterviewByAudioHash(ctx, user.ID, hash)
	if err != nil {
		t.Fatalf("FindInterviewByAudioHash failed: %v", err)
	}
	if dup == nil || dup.ID != iv.ID {
		t.Errorf("dedup lookup = %v, want interview %s", dup, iv.ID)
	}

	// Unknown hash returns nil, not an error.
	none, err := s.FindInterviewByAudioHash(ctx, user.ID, "no-such-hash")
	if err != nil {
		t.Fatalf("FindInterviewByAudioHash (miss) failed: %v", err)
	}
	if none != nil {
		t.Errorf("expected nil for unknown hash, got %v", none)
	}

	// Claim moves it to processing.
	claimed, err := s.ClaimQueuedInterview(ctx)
	if err != nil {
		t.Fatalf("ClaimQueuedInterview failed: %v", err)
	}
	if claimed == nil || claimed.ID != iv.ID {
		t.Fatalf("claimed = %v, want interview %s", claimed, iv.ID)
	}
	if claimed.Status != StatusProcessing {
		t.Errorf("claimed status = %q, want %q", claimed.Status, StatusProcessing)
	}

	transcript := json.RawMessage(`{"turns":[{"speaker":"INTERVIEWER","text":"hello"}]}`)
	if err := s.SaveTranscript(ctx, iv.ID, transcript); err != nil {
		t.Fatalf("SaveTranscript failed: %v", err)
	}
	analysis := json.RawMessage(`{"summary":"fine","technical_score":7}`)
	if err := s.SaveAnalysis(ctx, iv.ID, analysis); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}
	if err := s.MarkInterviewCompleted(ctx, iv.ID); err != nil {
		t.Fatalf("MarkInterviewCompleted failed: %v", err)
	}

	got, err := s.GetInterview(ctx, iv.ID)
	if err != nil {
		t.Fatalf("GetInterview failed: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("status = %q, want %q", got.Status, StatusCompleted)
	}
	if got.Transcript == nil {
		t.Error("transcript should be stored")
	}
	if got.Analysis == nil {
		t.Error("analysis should be stored")
	}
	if got.Error != nil {
		t.Errorf("error should be nil, got %q", *got.Error)
	}
}

func TestInterviewFailureAndRequeue(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	s := New(db)
	ctx := context.Background()

	user := createTestUser(t, s)
	defer func() { _, _ = db.Exec(ctx, "DELETE FROM users WHERE id = $1", user.ID) }()

	iv, err := s.CreateInterview(ctx, user.ID, "bad.wav", "hash-"+time.Now().Format("150405.000000"))
	if err != nil {
		t.Fatalf("CreateInterview failed: %v", err)
	}
	defer func() { _ = s.DeleteInterview(ctx, iv.ID) }()

	if err := s.MarkInterviewFailed(ctx, iv.ID, "transcription failed: timeout"); err != nil {
		t.Fatalf("MarkInterviewFailed failed: %v", err)
	}

	failed, err := s.GetInterview(ctx, iv.ID)
	if err != nil {
		t.Fatalf("GetInterview failed: %v", err)
	}
	if failed.Status != StatusFailed {
		t.Errorf("status = %q, want %q", failed.Status, StatusFailed)
	}
	if failed.Error == nil || *failed.Error != "transcription failed: timeout" {
		t.Errorf("error = %v", failed.Error)
	}

	if err := s.RequeueInterview(ctx, iv.ID); err != nil {
		t.Fatalf("RequeueInterview failed: %v", err)
	}
	requeued, _ := s.GetInterview(ctx, iv.ID)
	if requeued.Status != StatusQueued {
		t.Errorf("status after requeue = %q, want %q", requeued.Status, StatusQueued)
	}
	if requeued.Error != nil {
		t.Error("error should be cleared on requeue")
	}

	// Requeue only applies to failed interviews.
	if err := s.RequeueInterview(ctx, iv.ID); err == nil {
		t.Error("expected error requeueing a non-failed interview")
	}
}

func TestListInterviewsByUser(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	s := New(db)
	ctx := context.Background()

	user := createTestUser(t, s)
	defer func() { _, _ = db.Exec(ctx, "DELETE FROM users WHERE id = $1", user.ID) }()

	var ids []string
	for i := 0; i < 3; i++ {
		iv, err := s.CreateInterview(ctx, user.ID, "rec.wav",
			"list-hash-"+time.Now().Format("150405.000000")+string(rune('a'+i)))
		if err != nil {
			t.Fatalf("CreateInterview failed: %v", err)
		}
		ids = append(ids, iv.ID)
	}
	defer func() {
		for _, id := range ids {
			_ = s.DeleteInterview(ctx, id)
		}
	}()

	list, err := s.ListInterviewsByUser(ctx, user.ID, 100)
	if err != nil {
		t.Fatalf("ListInterviewsByUser failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d interviews, want 3", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.After(list[i-1].CreatedAt) {
			t.Error("list should be newest first")
		}
	}
}

func TestSessionOperations(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	s := New(db)
	ctx := context.Background()

	user := createTestUser(t, s)
	defer func() {
		_, _ = db.Exec(ctx, "DELETE FROM user_sessions WHERE user_id = $1", user.ID)
		_, _ = db.Exec(ctx, "DELETE FROM users WHERE id = $1", user.ID)
	}()

	tokenHash := "test-token-hash-" + time.Now().Format("150405.000000")
	expiresAt := time.Now().Add(24 * time.Hour)
	if err := s.CreateSession(ctx, user.ID, tokenHash, expiresAt); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	valid, err := s.IsSessionValid(ctx, tokenHash)
	if err != nil {
		t.Fatalf("IsSessionValid failed: %v", err)
	}
	if !valid {
		t.Error("session should be valid")
	}

	if err := s.RevokeSession(ctx, tokenHash); err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}

	valid2, err := s.IsSessionValid(ctx, tokenHash)
	if err != nil {
		t.Fatalf("IsSessionValid after revoke failed: %v", err)
	}
	if valid2 {
		t.Error("session should be invalid after revocation")
	}
}

func TestDeviceOperations(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	s := New(db)
	ctx := context.Background()

	user := createTestUser(t, s)
	defer func() {
		_, _ = db.Exec(ctx, "DELETE FROM device_push_tokens WHERE user_id = $1", user.ID)
		_, _ = db.Exec(ctx, "DELETE FROM users WHERE id = $1", user.ID)
	}()

	token := "device-token-" + time.Now().Format("150405.000000")
	if err := s.RegisterDevice(ctx, user.ID, token, "ios"); err != nil {
		t.Fatalf("RegisterDevice failed: %v", err)
	}

	// Re-registering the same token must not duplicate it.
	if err := s.RegisterDevice(ctx, user.ID, token, "ios"); err != nil {
		t.Fatalf("RegisterDevice (again) failed: %v", err)
	}

	devices, err := s.GetUserDevices(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserDevices failed: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("got %d devices, want 1", len(devices))
	}
	if devices[0].Token != token {
		t.Errorf("token = %q, want %q", devices[0].Token, token)
	}

	if err := s.UnregisterDevice(ctx, token); err != nil {
		t.Fatalf("UnregisterDevice failed: %v", err)
	}
	devices2, _ := s.GetUserDevices(ctx, user.ID)
	if len(devices2) != 0 {
		t.Errorf("got %d devices after unregister, want 0", len(devices2))
	}
}
