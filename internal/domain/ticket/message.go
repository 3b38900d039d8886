package ticket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
)

// MessageKind tags the variant stored in a MessageRecord row.
type MessageKind string

const (
	KindText       MessageKind = "text"
	KindAttachment MessageKind = "attachment"
	KindSystem     MessageKind = "system"
)

// MaxMessageLength is the default content limit for participant messages.
const MaxMessageLength = 5000

// Message is one entry of a ticket's log. The set of implementations is closed:
// TextMessage, AttachmentMessage and SystemNotice.
type Message interface {
	Sequence() int
	Timestamp() time.Time
	isMessage()
}

type TextMessage struct {
	Seq      int
	SenderID uuid.UUID
	Content  string
	SentAt   time.Time
}

type AttachmentMessage struct {
	Seq           int
	SenderID      uuid.UUID
	AttachmentRef string
	Content       string // optional caption
	SentAt        time.Time
}

// SystemNotice is emitted by the engine on every state transition.
type SystemNotice struct {
	Seq     int
	Content string
	Details map[string]any
	SentAt  time.Time
}

func (m TextMessage) Sequence() int { return m.Seq }
func (m TextMessage) Timestamp() time.Time { return m.SentAt }
func (TextMessage) isMessage() {}
func (m AttachmentMessage) Sequence() int { return m.Seq }
func (m AttachmentMessage) Timestamp() time.Time { return m.SentAt }
func (AttachmentMessage) isMessage() {}
func (m SystemNotice) Sequence() int { return m.Seq }
func (m SystemNotice) Timestamp() time.Time { return m.SentAt }
func (SystemNotice) isMessage() {}

// messageJSON is the wire shape shared by all variants, discriminated by Kind.
type messageJSON struct {
	Kind          MessageKind    `json:"kind"`
	Seq           int            `json:"seq"`
	SenderID      *uuid.UUID     `json:"sender_id,omitempty"`
	Content       string         `json:"content,omitempty"`
	AttachmentRef string         `json:"attachment_ref,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

func (m TextMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(messageJSON{Kind: KindText, Seq: m.Seq, SenderID: &m.SenderID, Content: m.Content, Timestamp: m.SentAt})
}

func (m AttachmentMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(messageJSON{
		Kind:          KindAttachment,
		Seq:           m.Seq,
		SenderID:      &m.SenderID,
		Content:       m.Content,
		AttachmentRef: m.AttachmentRef,
		Timestamp:     m.SentAt,
	})
}

func (m SystemNotice) MarshalJSON() ([]byte, error) {
	return json.Marshal(messageJSON{Kind: KindSystem, Seq: m.Seq, Content: m.Content, Details: m.Details, Timestamp: m.SentAt})
}

// DecodeMessage parses one wire-format message into its concrete variant.
func DecodeMessage(data []byte) (Message, error) {
	var raw messageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decode message")
	}
	switch raw.Kind {
	case KindText:
		if raw.SenderID == nil {
			return nil, errors.Errorf("text message %d has no sender", raw.Seq)
		}
		return TextMessage{Seq: raw.Seq, SenderID: *raw.SenderID, Content: raw.Content, SentAt: raw.Timestamp}, nil
	case KindAttachment:
		if raw.SenderID == nil {
			return nil, errors.Errorf("attachment message %d has no sender", raw.Seq)
		}
		return AttachmentMessage{
			Seq:           raw.Seq,
			SenderID:      *raw.SenderID,
			AttachmentRef: raw.AttachmentRef,
			Content:       raw.Content,
			SentAt:        raw.Timestamp,
		}, nil
	case KindSystem:
		return SystemNotice{Seq: raw.Seq, Content: raw.Content, Details: raw.Details, SentAt: raw.Timestamp}, nil
	default:
		return nil, errors.Errorf("unknown message kind %q", raw.Kind)
	}
}

// MessageRecord is the persisted row behind a Message.
type MessageRecord struct {
	ID            uint              `gorm:"primaryKey"`
	TicketID      uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_ticket_messages_seq"`
	Seq           int               `gorm:"not null;uniqueIndex:idx_ticket_messages_seq"`
	Kind          MessageKind       `gorm:"type:varchar(16);not null"`
	SenderID      *uuid.UUID        `gorm:"type:uuid"`
	Content       string            `gorm:"type:text"`
	AttachmentRef string            `gorm:"type:varchar(512)"`
	Details       datatypes.JSONMap // SystemNotice only
	CreatedAt     time.Time
}

func (MessageRecord) TableName() string {
	return "ticket_messages"
}

func (r MessageRecord) clone() MessageRecord {
	c := r
	c.SenderID = clonePtr(r.SenderID)
	if r.Details != nil {
		c.Details = make(datatypes.JSONMap, len(r.Details))
		for k, v := range r.Details {
			c.Details[k] = v
		}
	}
	return c
}

// Message converts the row to its variant.
func (r MessageRecord) Message() (Message, error) {
	switch r.Kind {
	case KindText:
		if r.SenderID == nil {
			return nil, errors.Errorf("ticket %s message %d: text without sender", r.TicketID, r.Seq)
		}
		return TextMessage{Seq: r.Seq, SenderID: *r.SenderID, Content: r.Content, SentAt: r.CreatedAt}, nil
	case KindAttachment:
		if r.SenderID == nil {
			return nil, errors.Errorf("ticket %s message %d: attachment without sender", r.TicketID, r.Seq)
		}
		return AttachmentMessage{
			Seq:           r.Seq,
			SenderID:      *r.SenderID,
			AttachmentRef: r.AttachmentRef,
			Content:       r.Content,
			SentAt:        r.CreatedAt,
		}, nil
	case KindSystem:
		return SystemNotice{Seq: r.Seq, Content: r.Content, Details: map[string]any(r.Details), SentAt: r.CreatedAt}, nil
	default:
		return nil, errors.Errorf("ticket %s message %d: unknown kind %q", r.TicketID, r.Seq, r.Kind)
	}
}

// Messages converts a slice of rows, keeping their order.
func Messages(records []MessageRecord) ([]Message, error) {
	out := make([]Message, 0, len(records))
	for _, r := range records {
		m, err := r.Message()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
