// Package filter decides which attachments are extracted. The decision
// is pure: type gating, the voice and bot toggles, then the host
// blocklist, applied in that order.
package filter

import (
	"net/url"
	"strings"

	"github.com/dkhv/vk-archive-extract/model"
)

// Options captures the runtime toggles affecting the decision.
type Options struct {
	DownloadBots  bool
	DownloadVoice bool
}

// Verdict explains why an attachment was accepted or rejected.
type Verdict int

const (
	VerdictExtract Verdict = iota
	VerdictUnsupportedType
	VerdictVoiceDisabled
	VerdictBotDisabled
	VerdictBlocklisted
)

func (v Verdict) String() string {
	switch v {
	case VerdictExtract:
		return "extract"
	case VerdictUnsupportedType:
		return "unsupported type"
	case VerdictVoiceDisabled:
		return "voice disabled"
	case VerdictBotDisabled:
		return "bot disabled"
	case VerdictBlocklisted:
		return "blocklisted host"
	default:
		return "unknown"
	}
}

// Blocklist is an immutable set of host patterns whose linked
// attachments are never extracted.
type Blocklist []string

// DefaultBlocklist returns the built-in table of unwanted hosts.
func DefaultBlocklist() Blocklist {
	return Blocklist{
		"youtube.com", "youtu.be",
		"avito.ru",
		"aliexpress.com", "aliexpress.ru",
		"pastebin.com",
		"coderoad.ru",
		"github.com",
		"play.google.com",
	}
}

// Matches reports whether the reference's URL host matches any
// blocklist entry. References without a host (relative archive paths)
// never match.
func (b Blocklist) Matches(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	for _, pattern := range b {
		if strings.Contains(host, pattern) {
			return true
		}
	}
	return false
}

// Filter holds the decision configuration for one run.
type Filter struct {
	opts      Options
	blocklist Blocklist
}

// New creates a Filter. A nil blocklist means the default table.
func New(opts Options, blocklist Blocklist) *Filter {
	if blocklist == nil {
		blocklist = DefaultBlocklist()
	}
	return &Filter{opts: opts, blocklist: blocklist}
}

// Decide returns the verdict for one attachment in a conversation of
// the given kind. Deterministic, no side effects.
func (f *Filter) Decide(att model.Attachment, kind model.ConversationKind) Verdict {
	if att.Type != model.TypePhoto && att.Type != model.TypeVoice {
		return VerdictUnsupportedType
	}
	if att.Type == model.TypeVoice && !f.opts.DownloadVoice {
		return VerdictVoiceDisabled
	}
	if kind == model.KindBot && !f.opts.DownloadBots {
		return VerdictBotDisabled
	}
	if f.blocklist.Matches(att.Ref) {
		return VerdictBlocklisted
	}
	return VerdictExtract
}

// Include reports whether the attachment should be extracted.
func (f *Filter) Include(att model.Attachment, kind model.ConversationKind) bool {
	return f.Decide(att, kind) == VerdictExtract
}
