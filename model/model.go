package model

import "time"

// ConversationKind classifies a chat by the peer id range used in the export.
type ConversationKind string

const (
	KindPersonal ConversationKind = "personal"
	KindGroup    ConversationKind = "group"
	KindBot      ConversationKind = "bot"
)

// AttachmentType is derived from the attachment description in the export.
type AttachmentType string

const (
	TypePhoto    AttachmentType = "photo"
	TypeVoice    AttachmentType = "voice"
	TypeVideo    AttachmentType = "video"
	TypeDocument AttachmentType = "document"
	TypeOther    AttachmentType = "other"
)

// Conversation represents one chat thread listed in the archive index.
type Conversation struct {
	ID   int64
	Name string
	Dir  string
	Kind ConversationKind
}

// Message represents a single message parsed from a conversation page.
type Message struct {
	SentAt      time.Time
	Attachments []Attachment
}

// Attachment is a file reference embedded in a message. Ref is the raw
// href from the export: either a path relative to the page or an
// absolute URL.
type Attachment struct {
	Type   AttachmentType
	Ref    string
	SentAt time.Time
}
