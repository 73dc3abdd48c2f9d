package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/toddlr/toddlr-backend/internal/apperr"
	"github.com/toddlr/toddlr-backend/internal/logger"
	"github.com/toddlr/toddlr-backend/internal/repos"
	"github.com/toddlr/toddlr-backend/internal/types"
)

type NegotiationAction string

const (
	ActionAccept  NegotiationAction = "accept"
	ActionCounter NegotiationAction = "counter"
	ActionDecline NegotiationAction = "decline"
)

// ParseNegotiationAction rejects anything outside the three known actions
// before any state is touched.
func ParseNegotiationAction(s string) (NegotiationAction, error) {
	switch NegotiationAction(s) {
	case ActionAccept, ActionCounter, ActionDecline:
		return NegotiationAction(s), nil
	default:
		return "", apperr.Invalid(`Invalid action. Must be "accept", "counter", or "decline".`)
	}
}

type TransitionRequest struct {
	Action             string
	CounterPrice       float64
	CounterDescription string
	MessageKey         uuid.UUID
	OtherParticipantID uuid.UUID
}

type NegotiationService interface {
	CreateProductOffer(ctx context.Context, buyerID, productID uuid.UUID, price float64, description string) (*types.Offer, *types.ChatThread, error)
	CreateBundleOffer(ctx context.Context, buyerID, bundleID uuid.UUID, price float64, description string) (*types.Offer, *types.ChatThread, error)
	// Transition applies accept/counter/decline to the offer, then mirrors
	// the result into the buyer/seller chat thread.
	Transition(ctx context.Context, actingUserID, offerID uuid.UUID, req TransitionRequest) (*types.Offer, error)
}

type negotiationService struct {
	db          *gorm.DB
	log         *logger.Logger
	offerRepo   repos.OfferRepo
	productRepo repos.ProductRepo
	bundleRepo  repos.BundleRepo
	chatService ChatService
	notifier    ChatNotifier
}

func NewNegotiationService(db *gorm.DB, log *logger.Logger, offerRepo repos.OfferRepo, productRepo repos.ProductRepo, bundleRepo repos.BundleRepo, chatService ChatService, notifier ChatNotifier) NegotiationService {
	return &negotiationService{
		db:          db,
		log:         log.With("service", "NegotiationService"),
		offerRepo:   offerRepo,
		productRepo: productRepo,
		bundleRepo:  bundleRepo,
		chatService: chatService,
		notifier:    notifier,
	}
}

// applyAction is the transition table. It deliberately does not gate on the
// offer's current status: accepting an already-declined offer is allowed,
// matching the negotiated product behavior.
func applyAction(offer *types.Offer, action NegotiationAction, counterPrice float64, counterDescription string) error {
	switch action {
	case ActionAccept:
		offer.Status = types.OfferStatusAccepted
	case ActionDecline:
		offer.Status = types.OfferStatusDeclined
	case ActionCounter:
		if counterPrice <= 0 {
			return apperr.Invalid("Counter price must be a valid positive number.")
		}
		offer.Price = counterPrice
		offer.Description = counterDescription
		offer.Status = types.OfferStatusCounter
	default:
		return apperr.Invalid(`Invalid action. Must be "accept", "counter", or "decline".`)
	}
	return nil
}

func defaultOfferGreeting(sellerUsername string) string {
	return fmt.Sprintf("Hi %s! I'd like to make an offer on this item:", sellerUsername)
}

func (ns *negotiationService) CreateProductOffer(ctx context.Context, buyerID, productID uuid.UUID, price float64, description string) (*types.Offer, *types.ChatThread, error) {
	if price <= 0 {
		return nil, nil, apperr.Invalid("Offer price is required and must be positive")
	}
	product, err := ns.productRepo.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindInternal, "load product", err)
	}
	if product == nil {
		return nil, nil, apperr.NotFound("Product not found")
	}
	seller := product.CreatedBy
	if seller == nil {
		return nil, nil, apperr.Invalid("Seller details not found for the product")
	}

	if strings.TrimSpace(description) == "" {
		description = defaultOfferGreeting(seller.Username)
	}

	offer := &types.Offer{
		ProductID:   &product.ID,
		BuyerID:     buyerID,
		Price:       price,
		Description: description,
		Status:      types.OfferStatusPending,
	}
	if _, err := ns.offerRepo.Create(ctx, nil, []*types.Offer{offer}); err != nil {
		return nil, nil, apperr.Wrap(apperr.KindInternal, "create offer", err)
	}
	offer.Product = product

	snapshot := buildProductSnapshot(offer, product)
	thread, err := ns.chatService.FindOrCreateThread(ctx, buyerID, seller.ID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := ns.chatService.AppendOfferMessage(ctx, thread, buyerID, snapshot); err != nil {
		return nil, nil, err
	}
	return offer, thread, nil
}

func (ns *negotiationService) CreateBundleOffer(ctx context.Context, buyerID, bundleID uuid.UUID, price float64, description string) (*types.Offer, *types.ChatThread, error) {
	if price <= 0 {
		return nil, nil, apperr.Invalid("Offer price is required and must be positive")
	}
	bundle, err := ns.bundleRepo.GetByID(ctx, nil, bundleID)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindInternal, "load bundle", err)
	}
	if bundle == nil {
		return nil, nil, apperr.NotFound("Bundle not found")
	}
	if bundle.CreatedBy == nil {
		return nil, nil, apperr.Invalid("Seller details not found for the bundle")
	}
	sellerID, err := bundleSellerID(bundle)
	if err != nil {
		return nil, nil, err
	}

	if strings.TrimSpace(description) == "" {
		description = defaultOfferGreeting(bundle.CreatedBy.Username)
	}

	offer := &types.Offer{
		BundleID:    &bundle.ID,
		BuyerID:     buyerID,
		Price:       price,
		Description: description,
		Status:      types.OfferStatusPending,
	}
	if _, err := ns.offerRepo.Create(ctx, nil, []*types.Offer{offer}); err != nil {
		return nil, nil, apperr.Wrap(apperr.KindInternal, "create offer", err)
	}
	offer.Bundle = bundle

	snapshot := buildBundleSnapshot(offer, bundle, sellerID)
	thread, err := ns.chatService.FindOrCreateThread(ctx, buyerID, sellerID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := ns.chatService.AppendOfferMessage(ctx, thread, buyerID, snapshot); err != nil {
		return nil, nil, err
	}
	return offer, thread, nil
}

var negotiationTracer = otel.Tracer("negotiation")

func (ns *negotiationService) Transition(ctx context.Context, actingUserID, offerID uuid.UUID, req TransitionRequest) (*types.Offer, error) {
	ctx, span := negotiationTracer.Start(ctx, "negotiation.transition",
		trace.WithAttributes(
			attribute.String("offer.id", offerID.String()),
			attribute.String("offer.action", req.Action),
		))
	defer span.End()

	action, err := ParseNegotiationAction(req.Action)
	if err != nil {
		return nil, err
	}

	offer, err := ns.offerRepo.GetByID(ctx, nil, offerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load offer", err)
	}
	if offer == nil {
		return nil, apperr.NotFound("Offer not found.")
	}

	// Validation happens on the in-memory copy; nothing is persisted until
	// the action is known good.
	if err := applyAction(offer, action, req.CounterPrice, req.CounterDescription); err != nil {
		return nil, err
	}
	if err := ns.offerRepo.UpdateNegotiation(ctx, nil, offer.ID, offer.Status, offer.Price, offer.Description); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "persist offer transition", err)
	}

	snapshot, sellerID, err := ns.snapshotForOffer(offer)
	if err != nil {
		return nil, err
	}

	otherParticipantID := req.OtherParticipantID
	if otherParticipantID == uuid.Nil {
		// Callers normally name the counterparty; infer it when absent.
		if actingUserID == offer.BuyerID {
			otherParticipantID = sellerID
		} else {
			otherParticipantID = offer.BuyerID
		}
	}

	// The offer is already saved; a projection failure leaves the chat
	// unmirrored but must not roll the offer back or fail the caller.
	thread, _, perr := ns.chatService.ProjectTransition(ctx, actingUserID, otherParticipantID, snapshot, req.MessageKey)
	if perr != nil {
		ns.log.Error("Offer transition saved but chat projection failed",
			"offer_id", offer.ID, "action", string(action), "error", perr)
		return offer, nil
	}
	ns.notifier.OfferUpdated(thread.ID, offer)
	return offer, nil
}

func (ns *negotiationService) snapshotForOffer(offer *types.Offer) (types.OfferSnapshot, uuid.UUID, error) {
	if offer.IsBundleOffer() {
		if offer.Bundle == nil {
			return types.OfferSnapshot{}, uuid.Nil, apperr.NotFound("Bundle not found")
		}
		sellerID, err := bundleSellerID(offer.Bundle)
		if err != nil {
			return types.OfferSnapshot{}, uuid.Nil, err
		}
		return buildBundleSnapshot(offer, offer.Bundle, sellerID), sellerID, nil
	}
	if offer.Product == nil {
		return types.OfferSnapshot{}, uuid.Nil, apperr.NotFound("Product not found")
	}
	return buildProductSnapshot(offer, offer.Product), offer.Product.CreatedByID, nil
}

// bundleSellerID attributes the bundle to the creator of its first product.
// Bundles are assumed single-seller; mixed-owner bundles still route to the
// first product's owner.
func bundleSellerID(bundle *types.Bundle) (uuid.UUID, error) {
	if len(bundle.Items) == 0 || bundle.Items[0].Product == nil {
		return uuid.Nil, apperr.Invalid("Bundle has no products")
	}
	return bundle.Items[0].Product.CreatedByID, nil
}

func buildProductSnapshot(offer *types.Offer, product *types.Product) types.OfferSnapshot {
	return types.OfferSnapshot{
		OfferID:          offer.ID,
		OfferPrice:       offer.Price,
		ProductName:      product.Title,
		ProductImage:     product.FirstImage(),
		ActualPrice:      product.Price,
		SellerID:         product.CreatedByID,
		Status:           offer.Status,
		OfferDescription: offer.Description,
	}
}

func buildBundleSnapshot(offer *types.Offer, bundle *types.Bundle, sellerID uuid.UUID) types.OfferSnapshot {
	snap := types.OfferSnapshot{
		OfferID:          offer.ID,
		OfferPrice:       offer.Price,
		IsBundle:         true,
		ActualPrice:      bundle.TotalAmount,
		SellerID:         sellerID,
		Status:           offer.Status,
		OfferDescription: offer.Description,
	}
	for _, item := range bundle.Items {
		if item.Product == nil {
			continue
		}
		snap.Products = append(snap.Products, types.BundleProductSummary{
			ProductID: item.Product.ID,
			Title:     item.Product.Title,
			Image:     item.Product.FirstImage(),
			Price:     item.Price,
			SellerID:  item.Product.CreatedByID,
		})
	}
	return snap
}
