package types

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChatThread is the singleton conversation between two users. The pair is
// stored normalized (ParticipantLowID < ParticipantHighID byte-wise) under a
// unique index, so find-or-create cannot duplicate a thread no matter which
// order the participants arrive in.
type ChatThread struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ParticipantLowID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chat_thread_pair,priority:1" json:"participant_low_id"`
	ParticipantHighID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chat_thread_pair,priority:2" json:"participant_high_id"`

	// Per-thread sequencing; allocated inside the append transaction.
	NextSeq int64 `gorm:"column:next_seq;not null;default:0" json:"next_seq"`

	LastMessageAt time.Time `gorm:"column:last_message_at;not null;index" json:"last_message_at"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;index" json:"updated_at"`
}

func (ChatThread) TableName() string { return "chat_thread" }

func (t *ChatThread) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *ChatThread) HasParticipant(userID uuid.UUID) bool {
	return t.ParticipantLowID == userID || t.ParticipantHighID == userID
}

func (t *ChatThread) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if t.ParticipantLowID == userID {
		return t.ParticipantHighID
	}
	return t.ParticipantLowID
}

// NormalizePair orders an unordered participant pair for storage.
func NormalizePair(a, b uuid.UUID) (lo, hi uuid.UUID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}

type MessageKind string

const (
	MessageKindText  MessageKind = "text"
	MessageKindOffer MessageKind = "offer"
)

// ChatMessage content is a tagged variant: Kind selects between a plain text
// Body and an offer Snapshot. Resolved is the monotonic settlement marker;
// it only ever goes false -> true.
type ChatMessage struct {
	ID       uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ThreadID uuid.UUID   `gorm:"type:uuid;not null;index;uniqueIndex:idx_chat_message_thread_seq,priority:1" json:"thread_id"`
	SenderID uuid.UUID   `gorm:"type:uuid;not null;index" json:"sender_id"`
	Seq      int64       `gorm:"column:seq;not null;uniqueIndex:idx_chat_message_thread_seq,priority:2" json:"seq"`
	Kind     MessageKind `gorm:"column:kind;not null;default:'text'" json:"kind"`
	Body     string      `gorm:"column:body;type:text;not null;default:''" json:"body,omitempty"`

	Snapshot datatypes.JSONType[OfferSnapshot] `gorm:"column:snapshot" json:"snapshot,omitempty"`

	Resolved  bool      `gorm:"column:resolved;not null;default:false" json:"resolved"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ChatMessage) TableName() string { return "chat_message" }

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BundleProductSummary is the slice of a bundle a snapshot carries so the
// client can render the bundle contents without another round trip.
type BundleProductSummary struct {
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title"`
	Image     string    `json:"image,omitempty"`
	Price     float64   `json:"price"`
	SellerID  uuid.UUID `json:"seller_id"`
}

// OfferSnapshot is the structured chat payload summarizing an offer at the
// moment the message was written. Subject fields are denormalized on
// purpose; history replay re-joins the live offer separately.
type OfferSnapshot struct {
	OfferID          uuid.UUID              `json:"offer_id"`
	OfferPrice       float64                `json:"offer_price"`
	IsBundle         bool                   `json:"is_bundle,omitempty"`
	ProductName      string                 `json:"product_name,omitempty"`
	ProductImage     string                 `json:"product_image,omitempty"`
	ActualPrice      float64                `json:"actual_price"`
	SellerID         uuid.UUID              `json:"seller_id"`
	Status           OfferStatus            `json:"status"`
	OfferDescription string                 `json:"offer_description"`
	Products         []BundleProductSummary `json:"products,omitempty"`

	// Filled only on history replay from the live offer row.
	CurrentStatus OfferStatus `json:"current_status,omitempty"`
}
