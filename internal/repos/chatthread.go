package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/toddlr/toddlr-backend/internal/logger"
	"github.com/toddlr/toddlr-backend/internal/types"
)

type ChatThreadRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, threadID uuid.UUID) (*types.ChatThread, error)
	GetByPair(ctx context.Context, tx *gorm.DB, a, b uuid.UUID) (*types.ChatThread, error)
	// FindOrCreateByPair is idempotent for the unordered pair {a, b}. A
	// concurrent insert race resolves through the unique pair index and
	// falls back to the surviving row.
	FindOrCreateByPair(ctx context.Context, tx *gorm.DB, a, b uuid.UUID) (*types.ChatThread, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.ChatThread, error)
	// AllocateSeq atomically increments the thread's sequence counter and
	// bumps its activity timestamps, returning the sequence number the
	// caller's message owns.
	AllocateSeq(ctx context.Context, tx *gorm.DB, threadID uuid.UUID) (int64, error)
}

type chatThreadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatThreadRepo(db *gorm.DB, baseLog *logger.Logger) ChatThreadRepo {
	return &chatThreadRepo{db: db, log: baseLog.With("repo", "ChatThreadRepo")}
}

func (tr *chatThreadRepo) GetByID(ctx context.Context, tx *gorm.DB, threadID uuid.UUID) (*types.ChatThread, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var thread types.ChatThread
	if err := transaction.WithContext(ctx).
		Where("id = ?", threadID).
		First(&thread).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &thread, nil
}

func (tr *chatThreadRepo) GetByPair(ctx context.Context, tx *gorm.DB, a, b uuid.UUID) (*types.ChatThread, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	lo, hi := types.NormalizePair(a, b)
	var thread types.ChatThread
	if err := transaction.WithContext(ctx).
		Where("participant_low_id = ? AND participant_high_id = ?", lo, hi).
		First(&thread).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &thread, nil
}

func (tr *chatThreadRepo) FindOrCreateByPair(ctx context.Context, tx *gorm.DB, a, b uuid.UUID) (*types.ChatThread, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	existing, err := tr.GetByPair(ctx, transaction, a, b)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	lo, hi := types.NormalizePair(a, b)
	now := time.Now().UTC()
	thread := &types.ChatThread{
		ParticipantLowID:  lo,
		ParticipantHighID: hi,
		LastMessageAt:     now,
	}
	err = transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "participant_low_id"}, {Name: "participant_high_id"}},
			DoNothing: true,
		}).
		Create(thread).Error
	if err != nil {
		return nil, err
	}
	// DoNothing on conflict leaves thread.ID from the losing insert; reload
	// the canonical row either way.
	return tr.GetByPair(ctx, transaction, a, b)
}

func (tr *chatThreadRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.ChatThread, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var results []*types.ChatThread
	if err := transaction.WithContext(ctx).
		Where("participant_low_id = ? OR participant_high_id = ?", userID, userID).
		Order("last_message_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *chatThreadRepo) AllocateSeq(ctx context.Context, tx *gorm.DB, threadID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	now := time.Now().UTC()
	res := transaction.WithContext(ctx).
		Model(&types.ChatThread{}).
		Where("id = ?", threadID).
		Updates(map[string]interface{}{
			"next_seq":        gorm.Expr("next_seq + 1"),
			"last_message_at": now,
			"updated_at":      now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	var seq int64
	if err := transaction.WithContext(ctx).
		Model(&types.ChatThread{}).
		Select("next_seq").
		Where("id = ?", threadID).
		Scan(&seq).Error; err != nil {
		return 0, err
	}
	return seq, nil
}
