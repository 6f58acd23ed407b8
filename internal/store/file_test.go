package store

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/mataroa-tools/matabot/internal/model"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)

	rec := model.NewUserRecord("secret-key")
	rec.DraftTitle = "WIP"
	rec.DraftParts = []string{"one", "two"}
	rec.UndoStack = []string{"one", "two"}
	rec.LastAction = model.LastAction{Kind: model.ActionDelete, Slug: "gone"}
	s.Put(model.UserID(42), rec)
	s.SetAllowlistIDs([]int64{42, 7})

	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := NewFileStore(dir)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got, ok := loaded.Get(model.UserID(42))
	if !ok {
		t.Fatal("Expected user 42 after reload")
	}
	if got.APIKey != "secret-key" || got.DraftTitle != "WIP" {
		t.Errorf("Record fields lost: %+v", got)
	}
	if len(got.DraftParts) != 2 || got.DraftParts[1] != "two" {
		t.Errorf("Draft parts lost: %v", got.DraftParts)
	}
	if got.LastAction.Kind != model.ActionDelete || got.LastAction.Slug != "gone" {
		t.Errorf("Last action lost: %+v", got.LastAction)
	}
	ids := loaded.AllowlistIDs()
	if len(ids) != 2 || ids[0] != 7 || ids[1] != 42 {
		t.Errorf("Allowlist = %v, want [7 42]", ids)
	}
}

func TestFileStorePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	dir := filepath.Join(t.TempDir(), "nested")
	s := NewFileStore(dir)
	s.Put(model.UserID(1), model.NewUserRecord("k"))
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	dirInfo, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if perm := dirInfo.Mode().Perm(); perm != 0o700 {
		t.Errorf("Directory mode = %o, want 700", perm)
	}
	fileInfo, err := os.Stat(filepath.Join(dir, "users.json"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := fileInfo.Mode().Perm(); perm != 0o600 {
		t.Errorf("File mode = %o, want 600", perm)
	}
}

func TestFileStoreLegacyEntries(t *testing.T) {
	dir := t.TempDir()
	legacy := `{"users": {"100": "plain-api-key", "200": {"api_key": "structured", "settings": {"preview_length": 999}}}}`
	if err := os.WriteFile(filepath.Join(dir, "users.json"), []byte(legacy), 0o600); err != nil {
		t.Fatal(err)
	}

	s := NewFileStore(dir)
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	t.Run("Bare string becomes a full record", func(t *testing.T) {
		rec, ok := s.Get(model.UserID(100))
		if !ok {
			t.Fatal("Expected legacy user 100")
		}
		if rec.APIKey != "plain-api-key" {
			t.Errorf("APIKey = %q", rec.APIKey)
		}
		if rec.Settings.PreviewLength != model.DefaultPreviewLength {
			t.Errorf("Expected default settings, got %+v", rec.Settings)
		}
	})

	t.Run("Invalid settings are normalized", func(t *testing.T) {
		rec, ok := s.Get(model.UserID(200))
		if !ok {
			t.Fatal("Expected user 200")
		}
		if rec.Settings.PreviewLength != model.DefaultPreviewLength {
			t.Errorf("PreviewLength = %d, want normalized default", rec.Settings.PreviewLength)
		}
	})
}

func TestFileStoreMissingAndCorruptFiles(t *testing.T) {
	t.Run("Missing file loads empty", func(t *testing.T) {
		s := NewFileStore(t.TempDir())
		if err := s.Load(); err != nil {
			t.Fatalf("Load of missing file errored: %v", err)
		}
		if len(s.All()) != 0 {
			t.Error("Expected empty store")
		}
	})

	t.Run("Corrupt file loads empty", func(t *testing.T) {
		dir := t.TempDir()
		os.WriteFile(filepath.Join(dir, "users.json"), []byte("{nope"), 0o600)
		s := NewFileStore(dir)
		if err := s.Load(); err != nil {
			t.Fatalf("Load of corrupt file errored: %v", err)
		}
		if len(s.All()) != 0 {
			t.Error("Expected empty store")
		}
	})

	t.Run("Empty file loads empty", func(t *testing.T) {
		dir := t.TempDir()
		os.WriteFile(filepath.Join(dir, "users.json"), nil, 0o600)
		s := NewFileStore(dir)
		if err := s.Load(); err != nil {
			t.Fatalf("Load of empty file errored: %v", err)
		}
	})
}

func TestFileStoreAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	s.Put(model.UserID(1), model.NewUserRecord("first"))
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	s.Put(model.UserID(1), model.NewUserRecord("second"))
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	// No temp file may be left behind.
	if _, err := os.Stat(filepath.Join(dir, "users.json.tmp")); !os.IsNotExist(err) {
		t.Error("Temp file left behind after save")
	}
	loaded := NewFileStore(dir)
	loaded.Load()
	rec, _ := loaded.Get(model.UserID(1))
	if rec == nil || rec.APIKey != "second" {
		t.Errorf("Expected the second write to win, got %+v", rec)
	}
}
