// Package extract materializes accepted attachments into the output
// tree: <output>/<kind>/<conversation>/<filename>.
package extract

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dkhv/vk-archive-extract/model"
	"github.com/dkhv/vk-archive-extract/state"
)

// Options configures the materializer.
type Options struct {
	OutputDir string
	DryRun    bool
}

// Materializer copies attachment files out of the archive, preserving
// the original send time as the copy's modification time.
type Materializer struct {
	opts    Options
	tracker *state.PathTracker
	logger  *slog.Logger
}

// NewMaterializer validates the options and returns a Materializer.
func NewMaterializer(opts Options, tracker *state.PathTracker, logger *slog.Logger) (*Materializer, error) {
	if strings.TrimSpace(opts.OutputDir) == "" {
		return nil, fmt.Errorf("output directory is empty")
	}
	if tracker == nil {
		return nil, fmt.Errorf("path tracker must not be nil")
	}
	return &Materializer{opts: opts, tracker: tracker, logger: logger}, nil
}

// Materialize copies one attachment. pageDir is the directory of the
// page the attachment was referenced from; relative references resolve
// against it, and absolute URLs fall back to their basename inside it.
// The destination path actually used is returned.
func (m *Materializer) Materialize(att model.Attachment, conv model.Conversation, pageDir string) (string, error) {
	source, filename, err := resolveSource(att.Ref, pageDir)
	if err != nil {
		return "", err
	}

	dest := m.tracker.Claim(filepath.Join(
		m.opts.OutputDir,
		string(conv.Kind),
		CleanName(conv.Name),
		filename,
	))

	if m.opts.DryRun {
		if m.logger != nil {
			m.logger.Debug("dry-run extract", "source", source, "dest", dest)
		}
		return dest, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	if err := copyFile(source, dest); err != nil {
		return "", err
	}

	// Best effort: a filesystem that cannot set mtime does not fail
	// the extraction.
	if !att.SentAt.IsZero() {
		if err := os.Chtimes(dest, att.SentAt, att.SentAt); err != nil && m.logger != nil {
			m.logger.Debug("could not set modification time", "dest", dest, "err", err)
		}
	}

	if m.logger != nil {
		m.logger.Debug("extracted attachment", "source", source, "dest", dest)
	}
	return dest, nil
}

// resolveSource maps an attachment reference onto a local archive file.
func resolveSource(ref, pageDir string) (source, filename string, err error) {
	u, parseErr := url.Parse(ref)
	switch {
	case parseErr == nil && u.Host != "":
		// Remote reference: the export may ship the file bytes next to
		// the page under the URL's basename.
		filename = path.Base(u.Path)
		if filename == "." || filename == "/" {
			return "", "", fmt.Errorf("reference %q has no filename", ref)
		}
		source = filepath.Join(pageDir, filename)
	default:
		rel := ref
		if parseErr == nil && u.Path != "" {
			rel = u.Path
		}
		source = filepath.Join(pageDir, filepath.FromSlash(rel))
		filename = filepath.Base(source)
	}

	if _, statErr := os.Stat(source); statErr != nil {
		return "", "", fmt.Errorf("attachment source %q: %w", ref, statErr)
	}
	return source, filename, nil
}

func copyFile(source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("copy %s: %w", source, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}
	return nil
}

var (
	invalidChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	repeatedSep  = regexp.MustCompile(`_+`)
)

// CleanName makes a conversation name safe to use as a directory name.
func CleanName(name string) string {
	cleaned := invalidChars.ReplaceAllString(name, "_")
	cleaned = repeatedSep.ReplaceAllString(cleaned, "_")
	cleaned = strings.Trim(cleaned, "_")
	if cleaned == "" {
		return "unnamed"
	}
	return cleaned
}
