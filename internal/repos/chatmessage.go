package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/toddlr/toddlr-backend/internal/logger"
	"github.com/toddlr/toddlr-backend/internal/types"
)

type ChatMessageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ChatMessage) ([]*types.ChatMessage, error)
	GetByID(ctx context.Context, tx *gorm.DB, messageID uuid.UUID) (*types.ChatMessage, error)
	ListByThread(ctx context.Context, tx *gorm.DB, threadID uuid.UUID, limit int) ([]*types.ChatMessage, error)
	// MarkResolved flips the settlement flag with a single conditional
	// update targeting the message row, so concurrent transitions can't
	// lose each other's writes. Returns false when no message in the
	// thread matches the key.
	MarkResolved(ctx context.Context, tx *gorm.DB, threadID, messageID uuid.UUID) (bool, error)
	UpdateBody(ctx context.Context, tx *gorm.DB, threadID, messageID uuid.UUID, body string) (bool, error)
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{db: db, log: baseLog.With("repo", "ChatMessageRepo")}
}

func (mr *chatMessageRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ChatMessage) ([]*types.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	if len(rows) == 0 {
		return []*types.ChatMessage{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (mr *chatMessageRepo) GetByID(ctx context.Context, tx *gorm.DB, messageID uuid.UUID) (*types.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	var msg types.ChatMessage
	if err := transaction.WithContext(ctx).
		Where("id = ?", messageID).
		First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (mr *chatMessageRepo) ListByThread(ctx context.Context, tx *gorm.DB, threadID uuid.UUID, limit int) ([]*types.ChatMessage, error) {
	if threadID == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id")
	}
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	var out []*types.ChatMessage
	if err := transaction.WithContext(ctx).
		Model(&types.ChatMessage{}).
		Where("thread_id = ?", threadID).
		Order("seq ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (mr *chatMessageRepo) MarkResolved(ctx context.Context, tx *gorm.DB, threadID, messageID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.ChatMessage{}).
		Where("id = ? AND thread_id = ?", messageID, threadID).
		Update("resolved", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (mr *chatMessageRepo) UpdateBody(ctx context.Context, tx *gorm.DB, threadID, messageID uuid.UUID, body string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.ChatMessage{}).
		Where("id = ? AND thread_id = ? AND kind = ?", messageID, threadID, types.MessageKindText).
		Update("body", body)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
