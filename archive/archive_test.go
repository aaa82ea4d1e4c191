package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/encoding/charmap"

	"github.com/dkhv/vk-archive-extract/model"
)

// writeCP1251 writes content to path encoded as windows-1251, the way
// the export writes its pages.
func writeCP1251(t *testing.T, path, content string) {
	t.Helper()

	encoded, err := charmap.Windows1251.NewEncoder().String(content)
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir fixture dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(encoded), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<body>
  <div class="item">
    <div class="message-peer--id"><a href="123/messages0.html">Иван Петров</a></div>
  </div>
  <div class="item">
    <div class="message-peer--id"><a href="2000000001/messages0.html">Рабочий чат</a></div>
  </div>
  <div class="item">
    <div class="message-peer--id"><a href="-222/messages0.html">Новостной бот</a></div>
  </div>
  <div class="item">
    <div class="message-peer--id"><a href="unrecognized.html">Без идентификатора</a></div>
  </div>
</body>
</html>`

func TestWalk(t *testing.T) {
	root := t.TempDir()
	writeCP1251(t, filepath.Join(root, "index-messages.html"), indexHTML)

	got, err := Walk(root, nil)
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := []model.Conversation{
		{ID: 123, Name: "Иван Петров", Dir: "123", Kind: model.KindPersonal},
		{ID: 2000000001, Name: "Рабочий чат", Dir: "2000000001", Kind: model.KindGroup},
		{ID: -222, Name: "Новостной бот", Dir: "-222", Kind: model.KindBot},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Walk() mismatch (-want +got):\n%s", diff)
	}
}

func TestWalk_MissingRoot(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	if !errors.Is(err, ErrArchiveNotFound) {
		t.Errorf("Walk() error = %v, want ErrArchiveNotFound", err)
	}
}

func TestWalk_EmptyIndex(t *testing.T) {
	root := t.TempDir()
	writeCP1251(t, filepath.Join(root, "index-messages.html"), "<html><body></body></html>")

	_, err := Walk(root, nil)
	if !errors.Is(err, ErrArchiveNotFound) {
		t.Errorf("Walk() error = %v, want ErrArchiveNotFound", err)
	}
}

func TestClassifyID(t *testing.T) {
	tests := []struct {
		id   int64
		want model.ConversationKind
	}{
		{1, model.KindPersonal},
		{2_000_000_000, model.KindPersonal},
		{2_000_000_001, model.KindGroup},
		{-1, model.KindBot},
		{0, model.KindPersonal},
	}

	for _, tt := range tests {
		if got := ClassifyID(tt.id); got != tt.want {
			t.Errorf("ClassifyID(%d) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestPages_NumericOrder(t *testing.T) {
	root := t.TempDir()
	conv := model.Conversation{ID: 123, Name: "x", Dir: "123", Kind: model.KindPersonal}

	dir := filepath.Join(root, "123")
	for _, name := range []string{"messages10.html", "messages0.html", "messages2.html", "photo.jpg", "notes.txt"} {
		writeCP1251(t, filepath.Join(dir, name), "<html></html>")
	}

	got, err := Pages(root, conv)
	if err != nil {
		t.Fatalf("Pages() error = %v", err)
	}

	want := []string{
		filepath.Join(dir, "messages0.html"),
		filepath.Join(dir, "messages2.html"),
		filepath.Join(dir, "messages10.html"),
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Pages() mismatch (-want +got):\n%s", diff)
	}
}

func TestPages_MissingDir(t *testing.T) {
	conv := model.Conversation{ID: 1, Name: "x", Dir: "1", Kind: model.KindPersonal}
	if _, err := Pages(t.TempDir(), conv); err == nil {
		t.Error("Pages() expected error for missing conversation directory")
	}
}
