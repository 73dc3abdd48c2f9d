package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/toddlr/toddlr-backend/internal/apperr"
	"github.com/toddlr/toddlr-backend/internal/realtime"
	"github.com/toddlr/toddlr-backend/internal/types"
)

func TestParseNegotiationAction(t *testing.T) {
	for _, valid := range []string{"accept", "counter", "decline"} {
		action, err := ParseNegotiationAction(valid)
		if err != nil {
			t.Fatalf("ParseNegotiationAction(%q): %v", valid, err)
		}
		if string(action) != valid {
			t.Fatalf("ParseNegotiationAction(%q) = %q", valid, action)
		}
	}
	for _, invalid := range []string{"", "ACCEPT", "reject", "counteroffer"} {
		if _, err := ParseNegotiationAction(invalid); apperr.KindOf(err) != apperr.KindInvalid {
			t.Fatalf("ParseNegotiationAction(%q): got %v, want invalid", invalid, err)
		}
	}
}

func TestApplyAction(t *testing.T) {
	tests := []struct {
		name         string
		startStatus  types.OfferStatus
		action       NegotiationAction
		counterPrice float64
		counterDesc  string
		wantStatus   types.OfferStatus
		wantPrice    float64
		wantDesc     string
		wantErr      bool
	}{
		{name: "accept pending", startStatus: types.OfferStatusPending, action: ActionAccept, wantStatus: types.OfferStatusAccepted, wantPrice: 50, wantDesc: "original"},
		{name: "decline pending", startStatus: types.OfferStatusPending, action: ActionDecline, wantStatus: types.OfferStatusDeclined, wantPrice: 50, wantDesc: "original"},
		{name: "counter rewrites price and description", startStatus: types.OfferStatusPending, action: ActionCounter, counterPrice: 40, counterDesc: "how about 40", wantStatus: types.OfferStatusCounter, wantPrice: 40, wantDesc: "how about 40"},
		{name: "counter keeps empty description", startStatus: types.OfferStatusPending, action: ActionCounter, counterPrice: 45, wantStatus: types.OfferStatusCounter, wantPrice: 45, wantDesc: ""},
		{name: "counter rejects zero price", startStatus: types.OfferStatusPending, action: ActionCounter, counterPrice: 0, wantErr: true},
		{name: "counter rejects negative price", startStatus: types.OfferStatusPending, action: ActionCounter, counterPrice: -5, wantErr: true},
		// No gating on the current status: any action applies from any state.
		{name: "accept after decline", startStatus: types.OfferStatusDeclined, action: ActionAccept, wantStatus: types.OfferStatusAccepted, wantPrice: 50, wantDesc: "original"},
		{name: "decline after accept", startStatus: types.OfferStatusAccepted, action: ActionDecline, wantStatus: types.OfferStatusDeclined, wantPrice: 50, wantDesc: "original"},
		{name: "counter after counter", startStatus: types.OfferStatusCounter, action: ActionCounter, counterPrice: 42, counterDesc: "meet in the middle", wantStatus: types.OfferStatusCounter, wantPrice: 42, wantDesc: "meet in the middle"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			offer := &types.Offer{Price: 50, Description: "original", Status: tc.startStatus}
			err := applyAction(offer, tc.action, tc.counterPrice, tc.counterDesc)
			if tc.wantErr {
				if apperr.KindOf(err) != apperr.KindInvalid {
					t.Fatalf("got %v, want invalid", err)
				}
				// A rejected counter leaves the offer untouched.
				if offer.Status != tc.startStatus || offer.Price != 50 {
					t.Fatalf("offer mutated on error: %+v", offer)
				}
				return
			}
			if err != nil {
				t.Fatalf("applyAction: %v", err)
			}
			if offer.Status != tc.wantStatus {
				t.Fatalf("status = %s, want %s", offer.Status, tc.wantStatus)
			}
			if offer.Price != tc.wantPrice {
				t.Fatalf("price = %v, want %v", offer.Price, tc.wantPrice)
			}
			if offer.Description != tc.wantDesc {
				t.Fatalf("description = %q, want %q", offer.Description, tc.wantDesc)
			}
		})
	}
}

func TestDefaultOfferGreeting(t *testing.T) {
	got := defaultOfferGreeting("toddlr_mum")
	want := "Hi toddlr_mum! I'd like to make an offer on this item:"
	if got != want {
		t.Fatalf("greeting = %q, want %q", got, want)
	}
}

func TestBundleSellerIDFirstProduct(t *testing.T) {
	first := seedSnapshotProduct("boots", 20)
	second := seedSnapshotProduct("coat", 30)
	bundle := &types.Bundle{
		Items: []types.BundleItem{
			{Product: first, Price: first.Price},
			{Product: second, Price: second.Price},
		},
	}
	sellerID, err := bundleSellerID(bundle)
	if err != nil {
		t.Fatalf("bundleSellerID: %v", err)
	}
	if sellerID != first.CreatedByID {
		t.Fatalf("seller = %s, want first product's creator %s", sellerID, first.CreatedByID)
	}

	if _, err := bundleSellerID(&types.Bundle{}); apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("empty bundle: got %v, want invalid", err)
	}
}

func TestBuildSnapshots(t *testing.T) {
	product := seedSnapshotProduct("dungarees", 25)
	offer := &types.Offer{
		ID:          uuid.New(),
		ProductID:   &product.ID,
		Price:       18,
		Description: "would you take 18?",
		Status:      types.OfferStatusPending,
	}

	snap := buildProductSnapshot(offer, product)
	if snap.OfferID != offer.ID || snap.OfferPrice != 18 || snap.ActualPrice != 25 {
		t.Fatalf("bad product snapshot: %+v", snap)
	}
	if snap.ProductName != "dungarees" || snap.ProductImage != product.FirstImage() {
		t.Fatalf("bad product fields: %+v", snap)
	}
	if snap.SellerID != product.CreatedByID || snap.Status != types.OfferStatusPending {
		t.Fatalf("bad seller/status: %+v", snap)
	}
	if snap.IsBundle {
		t.Fatal("product snapshot flagged as bundle")
	}

	other := seedSnapshotProduct("hat", 10)
	bundle := &types.Bundle{
		ID:          uuid.New(),
		TotalAmount: 35,
		Items: []types.BundleItem{
			{Product: product, Price: 25},
			{Product: other, Price: 10},
		},
	}
	bundleOffer := &types.Offer{ID: uuid.New(), BundleID: &bundle.ID, Price: 30, Status: types.OfferStatusCounter}
	bsnap := buildBundleSnapshot(bundleOffer, bundle, product.CreatedByID)
	if !bsnap.IsBundle || bsnap.ActualPrice != 35 || len(bsnap.Products) != 2 {
		t.Fatalf("bad bundle snapshot: %+v", bsnap)
	}
	if bsnap.Products[0].Title != "dungarees" || bsnap.Products[1].Price != 10 {
		t.Fatalf("bad bundle product summaries: %+v", bsnap.Products)
	}
}

func seedSnapshotProduct(title string, price float64) *types.Product {
	return &types.Product{
		ID:          uuid.New(),
		CreatedByID: uuid.New(),
		Title:       title,
		Price:       price,
		Images:      []string{"https://img.example.com/" + title + ".jpg"},
	}
}

func TestOfferLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := seedUser(t, env, "buyer")
	seller := seedUser(t, env, "seller")
	product := seedProduct(t, env, seller, "winter-coat", 50)

	offer, thread, err := env.negotiation.CreateProductOffer(ctx, buyer.ID, product.ID, 45, "would you take 45?")
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	if offer.Status != types.OfferStatusPending {
		t.Fatalf("new offer status = %s, want pending", offer.Status)
	}
	if !thread.HasParticipant(buyer.ID) || !thread.HasParticipant(seller.ID) {
		t.Fatalf("thread participants wrong: %+v", thread)
	}

	view, err := env.chat.GetThreadView(ctx, thread.ID, seller.ID)
	if err != nil {
		t.Fatalf("seller view: %v", err)
	}
	if len(view.Messages) != 1 {
		t.Fatalf("got %d messages after offer, want 1", len(view.Messages))
	}
	firstMsg := view.Messages[0]
	if firstMsg.Kind != types.MessageKindOffer || firstMsg.Resolved {
		t.Fatalf("bad first message: %+v", firstMsg)
	}
	firstSnap := firstMsg.Snapshot.Data()
	if firstSnap.OfferID != offer.ID || firstSnap.OfferPrice != 45 || firstSnap.ActualPrice != 50 {
		t.Fatalf("bad first snapshot: %+v", firstSnap)
	}

	// Seller counters at 40: the offer row mutates, the first message
	// resolves, a new counter message lands.
	countered, err := env.negotiation.Transition(ctx, seller.ID, offer.ID, TransitionRequest{
		Action:             "counter",
		CounterPrice:       40,
		CounterDescription: "best I can do is 40",
		MessageKey:         firstMsg.ID,
		OtherParticipantID: buyer.ID,
	})
	if err != nil {
		t.Fatalf("counter transition: %v", err)
	}
	if countered.Status != types.OfferStatusCounter || countered.Price != 40 {
		t.Fatalf("countered offer = %+v", countered)
	}

	view, err = env.chat.GetThreadView(ctx, thread.ID, buyer.ID)
	if err != nil {
		t.Fatalf("buyer view: %v", err)
	}
	if len(view.Messages) != 2 {
		t.Fatalf("got %d messages after counter, want 2", len(view.Messages))
	}
	if !view.Messages[0].Resolved {
		t.Fatal("original offer message not resolved after counter")
	}
	counterSnap := view.Messages[1].Snapshot.Data()
	if counterSnap.OfferPrice != 40 || counterSnap.Status != types.OfferStatusCounter {
		t.Fatalf("bad counter snapshot: %+v", counterSnap)
	}

	// Buyer accepts the counter.
	accepted, err := env.negotiation.Transition(ctx, buyer.ID, offer.ID, TransitionRequest{
		Action:             "accept",
		MessageKey:         view.Messages[1].ID,
		OtherParticipantID: seller.ID,
	})
	if err != nil {
		t.Fatalf("accept transition: %v", err)
	}
	if accepted.Status != types.OfferStatusAccepted || accepted.Price != 40 {
		t.Fatalf("accepted offer = %+v", accepted)
	}

	view, err = env.chat.GetThreadView(ctx, thread.ID, buyer.ID)
	if err != nil {
		t.Fatalf("final view: %v", err)
	}
	if len(view.Messages) != 3 {
		t.Fatalf("got %d messages after accept, want 3", len(view.Messages))
	}
	if !view.Messages[1].Resolved {
		t.Fatal("counter message not resolved after accept")
	}
	if view.Messages[2].Resolved {
		t.Fatal("final message should stay unresolved")
	}
	// Replay overlays the live status onto every snapshot of this offer.
	for i, msg := range view.Messages {
		if msg.Snapshot.Data().CurrentStatus != types.OfferStatusAccepted {
			t.Fatalf("message %d current status = %s, want accepted", i, msg.Snapshot.Data().CurrentStatus)
		}
	}

	if got := env.emitter.byEvent(realtime.SSEEventOfferUpdated); len(got) != 2 {
		t.Fatalf("got %d offerUpdated events, want 2", len(got))
	}
}

func TestCreateProductOfferDefaultGreeting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := seedUser(t, env, "buyer")
	seller := seedUser(t, env, "seller")
	product := seedProduct(t, env, seller, "pram", 120)

	offer, _, err := env.negotiation.CreateProductOffer(ctx, buyer.ID, product.ID, 100, "   ")
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	if offer.Description != defaultOfferGreeting("seller") {
		t.Fatalf("description = %q, want default greeting", offer.Description)
	}
}

func TestCreateProductOfferValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := seedUser(t, env, "buyer")
	seller := seedUser(t, env, "seller")
	product := seedProduct(t, env, seller, "bib", 5)

	if _, _, err := env.negotiation.CreateProductOffer(ctx, buyer.ID, product.ID, 0, ""); apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("zero price: got %v, want invalid", err)
	}
	if _, _, err := env.negotiation.CreateProductOffer(ctx, buyer.ID, uuid.New(), 5, ""); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("missing product: got %v, want not found", err)
	}
}

func TestTransitionUnknownPriorMessageKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := seedUser(t, env, "buyer")
	seller := seedUser(t, env, "seller")
	product := seedProduct(t, env, seller, "romper", 15)

	offer, thread, err := env.negotiation.CreateProductOffer(ctx, buyer.ID, product.ID, 12, "")
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}

	// A stale or bogus key must not block the transition; the new message
	// still lands and nothing gets resolved.
	if _, err := env.negotiation.Transition(ctx, seller.ID, offer.ID, TransitionRequest{
		Action:             "decline",
		MessageKey:         uuid.New(),
		OtherParticipantID: buyer.ID,
	}); err != nil {
		t.Fatalf("transition with unknown key: %v", err)
	}

	view, err := env.chat.GetThreadView(ctx, thread.ID, buyer.ID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(view.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(view.Messages))
	}
	if view.Messages[0].Resolved {
		t.Fatal("no message should have been resolved")
	}
}

func TestTransitionInvalidInputLeavesOfferUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := seedUser(t, env, "buyer")
	seller := seedUser(t, env, "seller")
	product := seedProduct(t, env, seller, "onesie", 10)

	offer, _, err := env.negotiation.CreateProductOffer(ctx, buyer.ID, product.ID, 8, "")
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}

	if _, err := env.negotiation.Transition(ctx, seller.ID, offer.ID, TransitionRequest{Action: "reject"}); apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("bad action: got %v, want invalid", err)
	}
	if _, err := env.negotiation.Transition(ctx, seller.ID, offer.ID, TransitionRequest{Action: "counter", CounterPrice: -1}); apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("bad counter price: got %v, want invalid", err)
	}
	if _, err := env.negotiation.Transition(ctx, seller.ID, uuid.New(), TransitionRequest{Action: "accept"}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("missing offer: got %v, want not found", err)
	}

	stored, err := env.offers.GetByID(ctx, nil, offer.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload offer: %v", err)
	}
	if stored.Status != types.OfferStatusPending || stored.Price != 8 {
		t.Fatalf("offer mutated by failed transitions: %+v", stored)
	}
}

func TestTransitionSurvivesProjectionFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := seedUser(t, env, "buyer")
	seller := seedUser(t, env, "seller")
	product := seedProduct(t, env, seller, "snowsuit", 30)

	offer, _, err := env.negotiation.CreateProductOffer(ctx, buyer.ID, product.ID, 25, "")
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}

	// Naming yourself as the counterparty makes the projection fail; the
	// accepted state must persist anyway.
	accepted, err := env.negotiation.Transition(ctx, seller.ID, offer.ID, TransitionRequest{
		Action:             "accept",
		OtherParticipantID: seller.ID,
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if accepted.Status != types.OfferStatusAccepted {
		t.Fatalf("returned status = %s, want accepted", accepted.Status)
	}
	stored, err := env.offers.GetByID(ctx, nil, offer.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload offer: %v", err)
	}
	if stored.Status != types.OfferStatusAccepted {
		t.Fatalf("stored status = %s, want accepted", stored.Status)
	}
}

func TestTransitionInfersCounterparty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := seedUser(t, env, "buyer")
	seller := seedUser(t, env, "seller")
	product := seedProduct(t, env, seller, "sandals", 12)

	offer, thread, err := env.negotiation.CreateProductOffer(ctx, buyer.ID, product.ID, 10, "")
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}

	// No counterparty named: the seller acting on a product offer should
	// project into the existing buyer/seller thread.
	if _, err := env.negotiation.Transition(ctx, seller.ID, offer.ID, TransitionRequest{Action: "accept"}); err != nil {
		t.Fatalf("transition: %v", err)
	}
	view, err := env.chat.GetThreadView(ctx, thread.ID, buyer.ID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(view.Messages) != 2 {
		t.Fatalf("got %d messages, want 2 in the original thread", len(view.Messages))
	}
}

func TestBundleOfferLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := seedUser(t, env, "buyer")
	seller := seedUser(t, env, "seller")
	boots := seedProduct(t, env, seller, "boots", 20)
	coat := seedProduct(t, env, seller, "coat", 30)
	bundle := seedBundle(t, env, seller, boots, coat)

	offer, thread, err := env.negotiation.CreateBundleOffer(ctx, buyer.ID, bundle.ID, 40, "both for 40?")
	if err != nil {
		t.Fatalf("create bundle offer: %v", err)
	}
	if !offer.IsBundleOffer() {
		t.Fatal("offer not flagged as bundle offer")
	}
	// The thread pairs the buyer with the first product's creator.
	if !thread.HasParticipant(seller.ID) {
		t.Fatalf("thread missing bundle seller: %+v", thread)
	}

	view, err := env.chat.GetThreadView(ctx, thread.ID, seller.ID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	snap := view.Messages[0].Snapshot.Data()
	if !snap.IsBundle || snap.ActualPrice != 50 || len(snap.Products) != 2 {
		t.Fatalf("bad bundle snapshot: %+v", snap)
	}

	if _, err := env.negotiation.Transition(ctx, seller.ID, offer.ID, TransitionRequest{
		Action:       "counter",
		CounterPrice: 45,
		MessageKey:   view.Messages[0].ID,
	}); err != nil {
		t.Fatalf("bundle counter: %v", err)
	}
	stored, err := env.offers.GetByID(ctx, nil, offer.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload offer: %v", err)
	}
	if stored.Status != types.OfferStatusCounter || stored.Price != 45 {
		t.Fatalf("bundle offer after counter = %+v", stored)
	}
}
