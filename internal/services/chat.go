package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/toddlr/toddlr-backend/internal/apperr"
	"github.com/toddlr/toddlr-backend/internal/logger"
	"github.com/toddlr/toddlr-backend/internal/repos"
	"github.com/toddlr/toddlr-backend/internal/types"
)

// ThreadView is what a subscriber gets on join: the thread plus its full
// history with offer messages re-joined against the live offer rows.
type ThreadView struct {
	Thread   *types.ChatThread    `json:"thread"`
	Messages []*types.ChatMessage `json:"messages"`
}

type ChatService interface {
	FindOrCreateThread(ctx context.Context, a, b uuid.UUID) (*types.ChatThread, error)
	ListThreads(ctx context.Context, userID uuid.UUID) ([]*types.ChatThread, error)

	// GetThreadView verifies the thread exists (and that userID is a
	// participant), then returns the replay payload described above.
	GetThreadView(ctx context.Context, threadID, userID uuid.UUID) (*ThreadView, error)

	// ProjectTransition mirrors one negotiation transition into the pair's
	// thread: resolve the prior message (best effort), append the snapshot
	// message, notify subscribers. The two writes are a single logical
	// unit per transition.
	ProjectTransition(ctx context.Context, actingUserID, otherParticipantID uuid.UUID, snapshot types.OfferSnapshot, priorMessageKey uuid.UUID) (*types.ChatThread, *types.ChatMessage, error)

	AppendOfferMessage(ctx context.Context, thread *types.ChatThread, senderID uuid.UUID, snapshot types.OfferSnapshot) (*types.ChatMessage, error)
	SendMessage(ctx context.Context, threadID, senderID uuid.UUID, body string) (*types.ChatMessage, error)
	UpdateMessage(ctx context.Context, threadID, messageID, actingUserID uuid.UUID, body string) error
}

type chatService struct {
	db          *gorm.DB
	log         *logger.Logger
	threadRepo  repos.ChatThreadRepo
	messageRepo repos.ChatMessageRepo
	offerRepo   repos.OfferRepo
	notifier    ChatNotifier
}

func NewChatService(db *gorm.DB, log *logger.Logger, threadRepo repos.ChatThreadRepo, messageRepo repos.ChatMessageRepo, offerRepo repos.OfferRepo, notifier ChatNotifier) ChatService {
	return &chatService{
		db:          db,
		log:         log.With("service", "ChatService"),
		threadRepo:  threadRepo,
		messageRepo: messageRepo,
		offerRepo:   offerRepo,
		notifier:    notifier,
	}
}

func (cs *chatService) FindOrCreateThread(ctx context.Context, a, b uuid.UUID) (*types.ChatThread, error) {
	if a == uuid.Nil || b == uuid.Nil {
		return nil, apperr.Invalid("Both participants are required")
	}
	if a == b {
		return nil, apperr.Invalid("A chat needs two distinct participants")
	}
	thread, err := cs.threadRepo.FindOrCreateByPair(ctx, nil, a, b)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "find or create chat thread", err)
	}
	return thread, nil
}

func (cs *chatService) ListThreads(ctx context.Context, userID uuid.UUID) ([]*types.ChatThread, error) {
	threads, err := cs.threadRepo.ListByUser(ctx, nil, userID, 0)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list chat threads", err)
	}
	return threads, nil
}

func (cs *chatService) GetThreadView(ctx context.Context, threadID, userID uuid.UUID) (*ThreadView, error) {
	var (
		thread   *types.ChatThread
		messages []*types.ChatMessage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		thread, err = cs.threadRepo.GetByID(gctx, nil, threadID)
		return err
	})
	g.Go(func() error {
		var err error
		messages, err = cs.messageRepo.ListByThread(gctx, nil, threadID, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load chat thread", err)
	}
	if thread == nil {
		return nil, apperr.NotFound("Chat not found")
	}
	if userID != uuid.Nil && !thread.HasParticipant(userID) {
		return nil, apperr.NotFound("Chat not found")
	}
	if err := cs.rejoinOffers(ctx, messages); err != nil {
		// Stale snapshots are better than no history.
		cs.log.Warn("Failed to re-join live offer state for history replay", "thread_id", threadID, "error", err)
	}
	return &ThreadView{Thread: thread, Messages: messages}, nil
}

// rejoinOffers overlays the live offer status onto stored snapshots so a
// subscriber sees current negotiation state, not the state at message time.
func (cs *chatService) rejoinOffers(ctx context.Context, messages []*types.ChatMessage) error {
	var offerIDs []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, m := range messages {
		if m.Kind != types.MessageKindOffer {
			continue
		}
		id := m.Snapshot.Data().OfferID
		if id != uuid.Nil && !seen[id] {
			seen[id] = true
			offerIDs = append(offerIDs, id)
		}
	}
	if len(offerIDs) == 0 {
		return nil
	}
	offers, err := cs.offerRepo.GetByIDs(ctx, nil, offerIDs)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*types.Offer, len(offers))
	for _, o := range offers {
		byID[o.ID] = o
	}
	for _, m := range messages {
		if m.Kind != types.MessageKindOffer {
			continue
		}
		snap := m.Snapshot.Data()
		offer, ok := byID[snap.OfferID]
		if !ok {
			continue
		}
		snap.CurrentStatus = offer.Status
		m.Snapshot = datatypes.NewJSONType(snap)
	}
	return nil
}

func (cs *chatService) ProjectTransition(ctx context.Context, actingUserID, otherParticipantID uuid.UUID, snapshot types.OfferSnapshot, priorMessageKey uuid.UUID) (*types.ChatThread, *types.ChatMessage, error) {
	thread, err := cs.FindOrCreateThread(ctx, actingUserID, otherParticipantID)
	if err != nil {
		return nil, nil, err
	}

	if priorMessageKey != uuid.Nil {
		resolved, err := cs.messageRepo.MarkResolved(ctx, nil, thread.ID, priorMessageKey)
		if err != nil {
			return nil, nil, apperr.Wrap(apperr.KindInternal, "mark prior message resolved", err)
		}
		if resolved {
			cs.notifier.MessageResolved(thread.ID, priorMessageKey)
		} else {
			// Lenient on purpose: the new message still lands even when
			// the settled step can't be flagged. Keep it observable.
			cs.log.Warn("Prior message not found during resolution; skipping",
				"thread_id", thread.ID, "message_key", priorMessageKey)
		}
	}

	msg, err := cs.AppendOfferMessage(ctx, thread, actingUserID, snapshot)
	if err != nil {
		return nil, nil, err
	}
	return thread, msg, nil
}

func (cs *chatService) AppendOfferMessage(ctx context.Context, thread *types.ChatThread, senderID uuid.UUID, snapshot types.OfferSnapshot) (*types.ChatMessage, error) {
	msg := &types.ChatMessage{
		ThreadID: thread.ID,
		SenderID: senderID,
		Kind:     types.MessageKindOffer,
		Snapshot: datatypes.NewJSONType(snapshot),
	}
	if err := cs.appendMessage(ctx, msg); err != nil {
		return nil, err
	}
	cs.notifier.NewMessage(thread.ID, msg)
	return msg, nil
}

func (cs *chatService) SendMessage(ctx context.Context, threadID, senderID uuid.UUID, body string) (*types.ChatMessage, error) {
	if body == "" {
		return nil, apperr.Invalid("Message body is required")
	}
	thread, err := cs.threadRepo.GetByID(ctx, nil, threadID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load chat thread", err)
	}
	if thread == nil {
		return nil, apperr.NotFound("Chat not found")
	}
	if !thread.HasParticipant(senderID) {
		return nil, apperr.NotFound("Chat not found")
	}
	msg := &types.ChatMessage{
		ThreadID: threadID,
		SenderID: senderID,
		Kind:     types.MessageKindText,
		Body:     body,
	}
	if err := cs.appendMessage(ctx, msg); err != nil {
		return nil, err
	}
	cs.notifier.NewMessage(threadID, msg)
	return msg, nil
}

func (cs *chatService) UpdateMessage(ctx context.Context, threadID, messageID, actingUserID uuid.UUID, body string) error {
	thread, err := cs.threadRepo.GetByID(ctx, nil, threadID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "load chat thread", err)
	}
	if thread == nil || !thread.HasParticipant(actingUserID) {
		return apperr.NotFound("Chat not found")
	}
	updated, err := cs.messageRepo.UpdateBody(ctx, nil, threadID, messageID, body)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "update message", err)
	}
	if !updated {
		return apperr.NotFound("Message not found")
	}
	cs.notifier.MessageUpdated(threadID, messageID, body)
	return nil
}

// appendMessage allocates the per-thread sequence number and inserts the row
// in one transaction, so message order matches creation order even under
// concurrent appends.
func (cs *chatService) appendMessage(ctx context.Context, msg *types.ChatMessage) error {
	now := time.Now().UTC()
	msg.CreatedAt = now
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := cs.threadRepo.AllocateSeq(ctx, tx, msg.ThreadID)
		if err != nil {
			return err
		}
		msg.Seq = seq
		_, err = cs.messageRepo.Create(ctx, tx, []*types.ChatMessage{msg})
		return err
	})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "append chat message", err)
	}
	return nil
}
