package extract

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkhv/vk-archive-extract/model"
	"github.com/dkhv/vk-archive-extract/state"
)

func newMaterializer(t *testing.T, outputDir string, dryRun bool) *Materializer {
	t.Helper()
	m, err := NewMaterializer(Options{OutputDir: outputDir, DryRun: dryRun}, state.NewPathTracker(), nil)
	if err != nil {
		t.Fatalf("NewMaterializer() error = %v", err)
	}
	return m
}

func writeSource(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir source dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
}

var conv = model.Conversation{ID: 123, Name: "Иван Петров", Dir: "123", Kind: model.KindPersonal}

func TestMaterialize_CopiesBytesAndTimestamp(t *testing.T) {
	pageDir := t.TempDir()
	out := t.TempDir()
	content := []byte("jpeg bytes here")
	sentAt := time.Date(2020, time.January, 12, 15, 4, 5, 0, time.Local)

	writeSource(t, filepath.Join(pageDir, "photos", "photo1.jpg"), content)

	m := newMaterializer(t, out, false)
	att := model.Attachment{Type: model.TypePhoto, Ref: "photos/photo1.jpg", SentAt: sentAt}

	dest, err := m.Materialize(att, conv, pageDir)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}

	want := filepath.Join(out, "personal", "Иван Петров", "photo1.jpg")
	if dest != want {
		t.Errorf("Materialize() dest = %q, want %q", dest, want)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("destination content = %q, want %q", got, content)
	}

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("stat destination: %v", err)
	}
	if !info.ModTime().Equal(sentAt) {
		t.Errorf("destination mtime = %v, want %v", info.ModTime(), sentAt)
	}
}

func TestMaterialize_RemoteRefResolvesByBasename(t *testing.T) {
	pageDir := t.TempDir()
	out := t.TempDir()
	writeSource(t, filepath.Join(pageDir, "pic.jpg"), []byte("x"))

	m := newMaterializer(t, out, false)
	att := model.Attachment{Type: model.TypePhoto, Ref: "https://vk.com/files/pic.jpg?size=large"}

	dest, err := m.Materialize(att, conv, pageDir)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if filepath.Base(dest) != "pic.jpg" {
		t.Errorf("Materialize() dest = %q, want basename pic.jpg", dest)
	}
}

func TestMaterialize_MissingSource(t *testing.T) {
	m := newMaterializer(t, t.TempDir(), false)
	att := model.Attachment{Type: model.TypePhoto, Ref: "photos/gone.jpg"}

	if _, err := m.Materialize(att, conv, t.TempDir()); err == nil {
		t.Error("Materialize() expected error for missing source")
	}
}

func TestMaterialize_CollisionSuffix(t *testing.T) {
	pageDir := t.TempDir()
	out := t.TempDir()
	writeSource(t, filepath.Join(pageDir, "a", "photo.jpg"), []byte("first"))
	writeSource(t, filepath.Join(pageDir, "b", "photo.jpg"), []byte("second"))

	m := newMaterializer(t, out, false)

	first, err := m.Materialize(model.Attachment{Type: model.TypePhoto, Ref: "a/photo.jpg"}, conv, pageDir)
	if err != nil {
		t.Fatalf("Materialize() first error = %v", err)
	}
	second, err := m.Materialize(model.Attachment{Type: model.TypePhoto, Ref: "b/photo.jpg"}, conv, pageDir)
	if err != nil {
		t.Fatalf("Materialize() second error = %v", err)
	}

	if filepath.Base(first) != "photo.jpg" {
		t.Errorf("first dest = %q, want photo.jpg", first)
	}
	if filepath.Base(second) != "photo (1).jpg" {
		t.Errorf("second dest = %q, want photo (1).jpg", second)
	}

	got, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("read second destination: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("second destination content = %q, the collision overwrote the first file", got)
	}
}

func TestMaterialize_DryRunWritesNothing(t *testing.T) {
	pageDir := t.TempDir()
	out := filepath.Join(t.TempDir(), "attachments")
	writeSource(t, filepath.Join(pageDir, "photo.jpg"), []byte("x"))

	m := newMaterializer(t, out, true)
	att := model.Attachment{Type: model.TypePhoto, Ref: "photo.jpg"}

	dest, err := m.Materialize(att, conv, pageDir)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if dest == "" {
		t.Error("Materialize() dry-run returned empty destination")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("dry-run created output directory %s", out)
	}
}

func TestNewMaterializer_Validation(t *testing.T) {
	if _, err := NewMaterializer(Options{}, state.NewPathTracker(), nil); err == nil {
		t.Error("NewMaterializer() expected error for empty output dir")
	}
	if _, err := NewMaterializer(Options{OutputDir: "out"}, nil, nil); err == nil {
		t.Error("NewMaterializer() expected error for nil tracker")
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Иван Петров", "Иван Петров"},
		{"slashes", "a/b\\c", "a_b_c"},
		{"repeated invalid runs collapse", "a***b", "a_b"},
		{"surrounding underscores trimmed", "<name>", "name"},
		{"only invalid chars", `<>:"/\|?*`, "unnamed"},
		{"empty", "", "unnamed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanName(tt.in); got != tt.want {
				t.Errorf("CleanName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
