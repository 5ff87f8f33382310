package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetUnknownUser(t *testing.T) {
	s := openTestStore(t)
	p, err := s.Get(context.Background(), 999)
	if err != nil {
		t.Fatal(err)
	}
	if p != nil {
		t.Errorf("unknown user returned %+v", p)
	}
}

func TestSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	in := &Profile{TelegramID: 42, Username: "ana", Name: "Ana", Role: "soporte"}
	if err := s.Save(ctx, in); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Name != "Ana" || got.Role != "soporte" || got.Username != "ana" {
		t.Errorf("got %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
	if !got.Complete() {
		t.Error("full profile reported incomplete")
	}
}

func TestSaveUpserts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, &Profile{TelegramID: 42, Username: "ana", Name: "Ana"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, &Profile{TelegramID: 42, Username: "ana", Name: "Ana", Role: "ventas"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	if got.Role != "ventas" {
		t.Errorf("Role = %q after upsert", got.Role)
	}
}

func TestProfileComplete(t *testing.T) {
	var nilProfile *Profile
	if nilProfile.Complete() {
		t.Error("nil profile reported complete")
	}
	if (&Profile{Name: "Ana"}).Complete() {
		t.Error("half-onboarded profile reported complete")
	}
}
