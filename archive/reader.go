package archive

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/charmap"

	"github.com/dkhv/vk-archive-extract/model"
)

// Reader parses one conversation page into its messages. Messages are
// returned in page order; a malformed message is skipped, never fatal
// for the page.
type Reader interface {
	ReadPage(path string) ([]model.Message, error)
}

// NewReader returns a Reader for the windows-1251 HTML page layout.
func NewReader(logger *slog.Logger) Reader {
	return &pageReader{logger: logger}
}

type pageReader struct {
	logger *slog.Logger
}

var datePattern = regexp.MustCompile(`(\d{1,2})\s+([а-яё]+)\s+(\d{4})\s+в\s+(\d{1,2}):(\d{2}):(\d{2})`)

// Month names appear abbreviated in message headers. May is special:
// the header may carry the full genitive form.
var months = map[string]time.Month{
	"янв": time.January,
	"фев": time.February,
	"мар": time.March,
	"апр": time.April,
	"май": time.May,
	"мая": time.May,
	"июн": time.June,
	"июл": time.July,
	"авг": time.August,
	"сен": time.September,
	"окт": time.October,
	"ноя": time.November,
	"дек": time.December,
}

func (r *pageReader) ReadPage(path string) ([]model.Message, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer file.Close()

	doc, err := goquery.NewDocumentFromReader(charmap.Windows1251.NewDecoder().Reader(file))
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", path, err)
	}

	var messages []model.Message
	doc.Find(".message").Each(func(idx int, msg *goquery.Selection) {
		header := msg.Find(".message__header").First()
		if header.Length() == 0 {
			r.warn("message without header", path, idx)
			return
		}

		sentAt, err := parseHeaderTime(header.Text())
		if err != nil {
			r.warn("message with unparsable date", path, idx)
			return
		}

		var attachments []model.Attachment
		msg.Find(".attachment").Each(func(_ int, att *goquery.Selection) {
			link := att.Find(".attachment__link").First()
			href, ok := link.Attr("href")
			if !ok || href == "" {
				return
			}
			description := strings.TrimSpace(att.Find(".attachment__description").First().Text())
			attachments = append(attachments, model.Attachment{
				Type:   classifyAttachment(description, href),
				Ref:    href,
				SentAt: sentAt,
			})
		})

		messages = append(messages, model.Message{
			SentAt:      sentAt,
			Attachments: attachments,
		})
	})

	return messages, nil
}

func (r *pageReader) warn(msg, path string, idx int) {
	if r.logger != nil {
		r.logger.Warn("skipping "+msg, "page", path, "message", idx)
	}
}

// parseHeaderTime extracts the send time from a message header like
// "Иван Иванов, 12 янв 2020 в 15:04:05".
func parseHeaderTime(text string) (time.Time, error) {
	match := datePattern.FindStringSubmatch(text)
	if match == nil {
		return time.Time{}, fmt.Errorf("no date in header %q", strings.TrimSpace(text))
	}

	day, _ := strconv.Atoi(match[1])
	year, _ := strconv.Atoi(match[3])
	hour, _ := strconv.Atoi(match[4])
	minute, _ := strconv.Atoi(match[5])
	second, _ := strconv.Atoi(match[6])

	month, err := parseMonth(match[2])
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(year, month, day, hour, minute, second, 0, time.Local), nil
}

func parseMonth(word string) (time.Month, error) {
	for prefix, month := range months {
		if strings.HasPrefix(word, prefix) {
			return month, nil
		}
	}
	return 0, fmt.Errorf("unknown month %q", word)
}

func classifyAttachment(description, href string) model.AttachmentType {
	// Voice notes are exported as .ogg regardless of how the page
	// describes them.
	if strings.HasSuffix(strings.ToLower(href), ".ogg") {
		return model.TypeVoice
	}

	switch {
	case strings.HasPrefix(description, "Фотография"):
		return model.TypePhoto
	case strings.HasPrefix(description, "Голосовое сообщение"):
		return model.TypeVoice
	case strings.HasPrefix(description, "Видеозапись"), strings.HasPrefix(description, "Видео"):
		return model.TypeVideo
	case strings.HasPrefix(description, "Документ"):
		return model.TypeDocument
	default:
		return model.TypeOther
	}
}
