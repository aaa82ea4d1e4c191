// Package archive reads the directory layout produced by the VK data
// export: an index-messages.html listing every conversation, and one
// folder per conversation holding numbered messages<N>.html pages. All
// pages are windows-1251 encoded.
package archive

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/charmap"

	"github.com/dkhv/vk-archive-extract/model"
)

// ErrArchiveNotFound indicates the archive root or its index is missing
// or holds no recognizable conversations. It is the only fatal error the
// pipeline surfaces.
var ErrArchiveNotFound = errors.New("archive not found")

const indexFile = "index-messages.html"

var (
	chatIDPattern = regexp.MustCompile(`(-?\d+)/messages`)
	pagePattern   = regexp.MustCompile(`^messages(\d+)\.html$`)
)

// Walk parses the archive index and returns the conversations it lists,
// in index order. Index entries without a parsable chat id are skipped
// with a warning.
func Walk(root string, logger *slog.Logger) ([]model.Conversation, error) {
	indexPath := filepath.Join(root, indexFile)

	file, err := os.Open(indexPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, indexPath)
		}
		return nil, fmt.Errorf("%w: open index: %v", ErrArchiveNotFound, err)
	}
	defer file.Close()

	doc, err := goquery.NewDocumentFromReader(charmap.Windows1251.NewDecoder().Reader(file))
	if err != nil {
		return nil, fmt.Errorf("%w: parse index: %v", ErrArchiveNotFound, err)
	}

	var conversations []model.Conversation
	doc.Find(".item").Each(func(_ int, item *goquery.Selection) {
		link := item.Find(".message-peer--id a").First()
		if link.Length() == 0 {
			return
		}

		name := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")

		match := chatIDPattern.FindStringSubmatch(href)
		if match == nil {
			if logger != nil {
				logger.Warn("skipping unrecognized index entry", "name", name, "href", href)
			}
			return
		}

		id, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			if logger != nil {
				logger.Warn("skipping index entry with bad chat id", "name", name, "href", href, "err", err)
			}
			return
		}

		conversations = append(conversations, model.Conversation{
			ID:   id,
			Name: name,
			Dir:  filepath.Dir(filepath.FromSlash(href)),
			Kind: ClassifyID(id),
		})
	})

	if len(conversations) == 0 {
		return nil, fmt.Errorf("%w: no conversations in %s", ErrArchiveNotFound, indexPath)
	}

	return conversations, nil
}

// ClassifyID maps a chat peer id onto a conversation kind. The export
// encodes group chats as ids above 2e9 and bots as negative ids.
func ClassifyID(id int64) model.ConversationKind {
	switch {
	case id > 2_000_000_000:
		return model.KindGroup
	case id < 0:
		return model.KindBot
	default:
		return model.KindPersonal
	}
}

// Pages returns the conversation's page files in ascending numeric
// order. Lexicographic order would put messages10.html before
// messages9.html.
func Pages(root string, conv model.Conversation) ([]string, error) {
	dir := filepath.Join(root, conv.Dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list conversation pages: %w", err)
	}

	type page struct {
		path string
		num  int
	}

	var pages []page
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := pagePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		num, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		pages = append(pages, page{path: filepath.Join(dir, entry.Name()), num: num})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].num < pages[j].num })

	paths := make([]string, 0, len(pages))
	for _, p := range pages {
		paths = append(paths, p.path)
	}
	return paths, nil
}
