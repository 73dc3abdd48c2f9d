package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/toddlr/toddlr-backend/internal/apperr"
	"github.com/toddlr/toddlr-backend/internal/db"
	"github.com/toddlr/toddlr-backend/internal/logger"
	"github.com/toddlr/toddlr-backend/internal/realtime"
	"github.com/toddlr/toddlr-backend/internal/repos"
	"github.com/toddlr/toddlr-backend/internal/types"
)

// captureEmitter records every fan-out event so tests can assert on what
// subscribers would have seen.
type captureEmitter struct {
	mu     sync.Mutex
	events []realtime.SSEMessage
}

func (e *captureEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, msg)
}

func (e *captureEmitter) byEvent(event realtime.SSEEvent) []realtime.SSEMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []realtime.SSEMessage
	for _, m := range e.events {
		if m.Event == event {
			out = append(out, m)
		}
	}
	return out
}

type testEnv struct {
	gdb         *gorm.DB
	users       repos.UserRepo
	products    repos.ProductRepo
	bundles     repos.BundleRepo
	offers      repos.OfferRepo
	threads     repos.ChatThreadRepo
	messages    repos.ChatMessageRepo
	chat        ChatService
	negotiation NegotiationService
	emitter     *captureEmitter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(db.AllModels()...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	emitter := &captureEmitter{}
	notifier := NewChatNotifier(emitter)

	userRepo := repos.NewUserRepo(gdb, log)
	productRepo := repos.NewProductRepo(gdb, log)
	bundleRepo := repos.NewBundleRepo(gdb, log)
	offerRepo := repos.NewOfferRepo(gdb, log)
	threadRepo := repos.NewChatThreadRepo(gdb, log)
	messageRepo := repos.NewChatMessageRepo(gdb, log)

	chat := NewChatService(gdb, log, threadRepo, messageRepo, offerRepo, notifier)
	negotiation := NewNegotiationService(gdb, log, offerRepo, productRepo, bundleRepo, chat, notifier)

	return &testEnv{
		gdb:         gdb,
		users:       userRepo,
		products:    productRepo,
		bundles:     bundleRepo,
		offers:      offerRepo,
		threads:     threadRepo,
		messages:    messageRepo,
		chat:        chat,
		negotiation: negotiation,
		emitter:     emitter,
	}
}

func seedUser(t *testing.T, env *testEnv, username string) *types.User {
	t.Helper()
	user := &types.User{
		Email:    username + "@example.com",
		Password: "hashed",
		Username: username,
	}
	if _, err := env.users.Create(context.Background(), nil, []*types.User{user}); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user
}

func seedProduct(t *testing.T, env *testEnv, seller *types.User, title string, price float64) *types.Product {
	t.Helper()
	product := &types.Product{
		CreatedByID: seller.ID,
		Title:       title,
		Category:    "clothing",
		Price:       price,
		Images:      []string{"https://img.example.com/" + title + ".jpg"},
		Status:      "available",
	}
	if _, err := env.products.Create(context.Background(), nil, []*types.Product{product}); err != nil {
		t.Fatalf("seed product %s: %v", title, err)
	}
	return product
}

func seedBundle(t *testing.T, env *testEnv, seller *types.User, products ...*types.Product) *types.Bundle {
	t.Helper()
	bundle := &types.Bundle{CreatedByID: seller.ID}
	for i, p := range products {
		bundle.TotalAmount += p.Price
		bundle.Items = append(bundle.Items, types.BundleItem{
			ProductID: p.ID,
			Position:  i,
			Price:     p.Price,
			Quantity:  1,
		})
	}
	if _, err := env.bundles.Create(context.Background(), nil, []*types.Bundle{bundle}); err != nil {
		t.Fatalf("seed bundle: %v", err)
	}
	return bundle
}

func TestFindOrCreateThreadPairIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := seedUser(t, env, "alice")
	bob := seedUser(t, env, "bob")

	first, err := env.chat.FindOrCreateThread(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("first find-or-create: %v", err)
	}
	// Swapped order must land on the same row.
	second, err := env.chat.FindOrCreateThread(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("swapped find-or-create: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected one thread per pair, got %s and %s", first.ID, second.ID)
	}
	if !first.HasParticipant(alice.ID) || !first.HasParticipant(bob.ID) {
		t.Fatalf("thread missing a participant: %+v", first)
	}
	if first.OtherParticipant(alice.ID) != bob.ID {
		t.Fatalf("OtherParticipant(alice) = %s, want %s", first.OtherParticipant(alice.ID), bob.ID)
	}
}

func TestFindOrCreateThreadValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := seedUser(t, env, "alice")

	if _, err := env.chat.FindOrCreateThread(ctx, alice.ID, uuid.Nil); apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("nil participant: got %v, want invalid", err)
	}
	if _, err := env.chat.FindOrCreateThread(ctx, alice.ID, alice.ID); apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("self pair: got %v, want invalid", err)
	}
}

func TestSendMessageOrdering(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := seedUser(t, env, "alice")
	bob := seedUser(t, env, "bob")
	thread, err := env.chat.FindOrCreateThread(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}

	for i, body := range []string{"hello", "is this available?", "yes it is"} {
		sender := alice.ID
		if i == 2 {
			sender = bob.ID
		}
		if _, err := env.chat.SendMessage(ctx, thread.ID, sender, body); err != nil {
			t.Fatalf("send message %d: %v", i, err)
		}
	}

	view, err := env.chat.GetThreadView(ctx, thread.ID, alice.ID)
	if err != nil {
		t.Fatalf("get thread view: %v", err)
	}
	if len(view.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(view.Messages))
	}
	for i, msg := range view.Messages {
		if msg.Seq != int64(i+1) {
			t.Fatalf("message %d has seq %d, want %d", i, msg.Seq, i+1)
		}
	}
	if view.Messages[0].Body != "hello" || view.Messages[2].Body != "yes it is" {
		t.Fatalf("messages out of order: %+v", view.Messages)
	}
}

func TestSendMessageRequiresParticipant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := seedUser(t, env, "alice")
	bob := seedUser(t, env, "bob")
	eve := seedUser(t, env, "eve")
	thread, err := env.chat.FindOrCreateThread(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}

	if _, err := env.chat.SendMessage(ctx, thread.ID, eve.ID, "let me in"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("outsider send: got %v, want not found", err)
	}
	if _, err := env.chat.GetThreadView(ctx, thread.ID, eve.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("outsider view: got %v, want not found", err)
	}
}

func TestUpdateMessageTextOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := seedUser(t, env, "alice")
	bob := seedUser(t, env, "bob")
	thread, err := env.chat.FindOrCreateThread(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}
	msg, err := env.chat.SendMessage(ctx, thread.ID, alice.ID, "helo")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}

	if err := env.chat.UpdateMessage(ctx, thread.ID, msg.ID, alice.ID, "hello"); err != nil {
		t.Fatalf("update message: %v", err)
	}
	stored, err := env.messages.GetByID(ctx, nil, msg.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload message: %v", err)
	}
	if stored.Body != "hello" {
		t.Fatalf("body = %q, want %q", stored.Body, "hello")
	}

	// Offer messages are projection output, not editable chat text.
	offerMsg, err := env.chat.AppendOfferMessage(ctx, thread, alice.ID, types.OfferSnapshot{OfferID: uuid.New()})
	if err != nil {
		t.Fatalf("append offer message: %v", err)
	}
	if err := env.chat.UpdateMessage(ctx, thread.ID, offerMsg.ID, alice.ID, "edited"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("editing offer message: got %v, want not found", err)
	}
}

func TestMarkResolvedScopedAndMonotonic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := seedUser(t, env, "alice")
	bob := seedUser(t, env, "bob")
	carol := seedUser(t, env, "carol")
	thread, err := env.chat.FindOrCreateThread(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}
	otherThread, err := env.chat.FindOrCreateThread(ctx, alice.ID, carol.ID)
	if err != nil {
		t.Fatalf("create other thread: %v", err)
	}
	msg, err := env.chat.SendMessage(ctx, thread.ID, alice.ID, "offer below")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}

	// Wrong thread never touches the row.
	ok, err := env.messages.MarkResolved(ctx, nil, otherThread.ID, msg.ID)
	if err != nil {
		t.Fatalf("cross-thread mark: %v", err)
	}
	if ok {
		t.Fatal("cross-thread mark reported success")
	}

	ok, err = env.messages.MarkResolved(ctx, nil, thread.ID, msg.ID)
	if err != nil || !ok {
		t.Fatalf("mark resolved: ok=%v err=%v", ok, err)
	}
	// Marking again is a no-op that still succeeds; the flag never unsets.
	ok, err = env.messages.MarkResolved(ctx, nil, thread.ID, msg.ID)
	if err != nil || !ok {
		t.Fatalf("re-mark resolved: ok=%v err=%v", ok, err)
	}
	stored, err := env.messages.GetByID(ctx, nil, msg.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload message: %v", err)
	}
	if !stored.Resolved {
		t.Fatal("message not resolved after MarkResolved")
	}
}

func TestListThreadsOrderedByActivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := seedUser(t, env, "alice")
	bob := seedUser(t, env, "bob")
	carol := seedUser(t, env, "carol")

	bobThread, err := env.chat.FindOrCreateThread(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("create bob thread: %v", err)
	}
	carolThread, err := env.chat.FindOrCreateThread(ctx, alice.ID, carol.ID)
	if err != nil {
		t.Fatalf("create carol thread: %v", err)
	}
	// Activity in the bob thread should float it to the top.
	if _, err := env.chat.SendMessage(ctx, bobThread.ID, alice.ID, "hey"); err != nil {
		t.Fatalf("send message: %v", err)
	}

	threads, err := env.chat.ListThreads(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list threads: %v", err)
	}
	if len(threads) != 2 {
		t.Fatalf("got %d threads, want 2", len(threads))
	}
	if threads[0].ID != bobThread.ID {
		t.Fatalf("most recent thread = %s, want %s", threads[0].ID, bobThread.ID)
	}
	if threads[1].ID != carolThread.ID {
		t.Fatalf("second thread = %s, want %s", threads[1].ID, carolThread.ID)
	}
}

func TestNewMessageEventsEmitted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := seedUser(t, env, "alice")
	bob := seedUser(t, env, "bob")
	thread, err := env.chat.FindOrCreateThread(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}
	if _, err := env.chat.SendMessage(ctx, thread.ID, alice.ID, "ping"); err != nil {
		t.Fatalf("send message: %v", err)
	}

	events := env.emitter.byEvent(realtime.SSEEventNewMessage)
	if len(events) != 1 {
		t.Fatalf("got %d newMessage events, want 1", len(events))
	}
	if events[0].Channel != thread.ID.String() {
		t.Fatalf("event channel = %q, want %q", events[0].Channel, thread.ID.String())
	}
}
