package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/toddlr/toddlr-backend/internal/apperr"
	"github.com/toddlr/toddlr-backend/internal/logger"
	"github.com/toddlr/toddlr-backend/internal/requestdata"
	"github.com/toddlr/toddlr-backend/internal/services"
)

type BundleHandler struct {
	log           *logger.Logger
	bundleService services.BundleService
	negotiation   services.NegotiationService
}

func NewBundleHandler(log *logger.Logger, bundleService services.BundleService, negotiation services.NegotiationService) *BundleHandler {
	return &BundleHandler{
		log:           log.With("handler", "BundleHandler"),
		bundleService: bundleService,
		negotiation:   negotiation,
	}
}

// POST /bundle
func (h *BundleHandler) Create(c *gin.Context) {
	var body struct {
		ProductIDs []string `json:"product_ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, apperr.Invalid("Invalid request body"))
		return
	}
	productIDs := make([]uuid.UUID, 0, len(body.ProductIDs))
	for _, raw := range body.ProductIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, apperr.Invalid("Invalid product id in bundle"))
			return
		}
		productIDs = append(productIDs, id)
	}
	sellerID := requestdata.UserID(c.Request.Context())
	bundle, err := h.bundleService.CreateBundle(c.Request.Context(), sellerID, productIDs)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondSuccess(c, http.StatusCreated, bundle, "Bundle created successfully")
}

// GET /bundle
func (h *BundleHandler) List(c *gin.Context) {
	sellerID := requestdata.UserID(c.Request.Context())
	bundles, err := h.bundleService.ListBundles(c.Request.Context(), sellerID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondSuccess(c, http.StatusOK, bundles, "")
}

// GET /bundle/:bundleId
func (h *BundleHandler) Get(c *gin.Context) {
	bundleID, err := uuid.Parse(c.Param("bundleId"))
	if err != nil {
		RespondError(c, apperr.Invalid("Invalid bundle id"))
		return
	}
	bundle, err := h.bundleService.GetBundle(c.Request.Context(), bundleID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondSuccess(c, http.StatusOK, bundle, "")
}

// POST /bundle/:bundleId/make-offer
func (h *BundleHandler) MakeOffer(c *gin.Context) {
	bundleID, err := uuid.Parse(c.Param("bundleId"))
	if err != nil {
		RespondError(c, apperr.Invalid("Invalid bundle id"))
		return
	}
	var body struct {
		OfferPrice       float64 `json:"offer_price"`
		OfferDescription string  `json:"offer_description"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, apperr.Invalid("Invalid request body"))
		return
	}
	buyerID := requestdata.UserID(c.Request.Context())
	offer, thread, err := h.negotiation.CreateBundleOffer(c.Request.Context(), buyerID, bundleID, body.OfferPrice, body.OfferDescription)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondSuccess(c, http.StatusCreated, gin.H{"offer": offer, "chat": thread}, "Offer created and chat updated/created successfully")
}

// PUT /bundle/update-offer/:offerId
func (h *BundleHandler) UpdateOffer(c *gin.Context) {
	updateOffer(c, h.negotiation)
}
