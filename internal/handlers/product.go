package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/toddlr/toddlr-backend/internal/apperr"
	"github.com/toddlr/toddlr-backend/internal/logger"
	"github.com/toddlr/toddlr-backend/internal/repos"
	"github.com/toddlr/toddlr-backend/internal/requestdata"
	"github.com/toddlr/toddlr-backend/internal/services"
	"github.com/toddlr/toddlr-backend/internal/types"
)

type ProductHandler struct {
	log            *logger.Logger
	productService services.ProductService
	negotiation    services.NegotiationService
}

func NewProductHandler(log *logger.Logger, productService services.ProductService, negotiation services.NegotiationService) *ProductHandler {
	return &ProductHandler{
		log:            log.With("handler", "ProductHandler"),
		productService: productService,
		negotiation:    negotiation,
	}
}

// POST /product
func (h *ProductHandler) Create(c *gin.Context) {
	var body struct {
		Title       string   `json:"title"`
		Category    string   `json:"category"`
		Price       float64  `json:"price"`
		Size        string   `json:"size"`
		Description string   `json:"description"`
		Age         string   `json:"age"`
		Gender      string   `json:"gender"`
		Brand       string   `json:"brand"`
		Images      []string `json:"images"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, apperr.Invalid("Invalid request body"))
		return
	}
	product := &types.Product{
		Title:       body.Title,
		Category:    body.Category,
		Price:       body.Price,
		Size:        body.Size,
		Description: body.Description,
		Age:         body.Age,
		Gender:      body.Gender,
		Brand:       body.Brand,
		Images:      datatypes.NewJSONSlice(body.Images),
	}
	created, err := h.productService.CreateProduct(c.Request.Context(), requestdata.UserID(c.Request.Context()), product)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondSuccess(c, http.StatusCreated, created, "Product created successfully")
}

// GET /product
func (h *ProductHandler) List(c *gin.Context) {
	filter := repos.ProductListFilter{
		Category: c.Query("category"),
		Gender:   c.Query("gender"),
	}
	if sellerStr := c.Query("seller_id"); sellerStr != "" {
		sellerID, err := uuid.Parse(sellerStr)
		if err != nil {
			RespondError(c, apperr.Invalid("Invalid seller id"))
			return
		}
		filter.SellerID = sellerID
	}
	products, err := h.productService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondSuccess(c, http.StatusOK, products, "")
}

// GET /product/:productId
func (h *ProductHandler) Get(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		RespondError(c, apperr.Invalid("Invalid product id"))
		return
	}
	product, err := h.productService.GetProduct(c.Request.Context(), productID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondSuccess(c, http.StatusOK, product, "")
}

// PUT /product/status?id=<productId>
func (h *ProductHandler) UpdateStatus(c *gin.Context) {
	productID, err := uuid.Parse(c.Query("id"))
	if err != nil {
		RespondError(c, apperr.Invalid("Invalid product id"))
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Status == "" {
		RespondError(c, apperr.Invalid("Status is required"))
		return
	}
	if body.Status != "reserved" {
		RespondError(c, apperr.Invalid("Unsupported status"))
		return
	}
	product, err := h.productService.ReserveProduct(c.Request.Context(), productID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondSuccess(c, http.StatusOK, product, "Product reserved successfully for two days.")
}

// POST /product/:productId/make-offer
func (h *ProductHandler) MakeOffer(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		RespondError(c, apperr.Invalid("Invalid product id"))
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
	offer, thread, err := h.negotiation.CreateProductOffer(c.Request.Context(), buyerID, productID, body.OfferPrice, body.OfferDescription)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondSuccess(c, http.StatusCreated, gin.H{"offer": offer, "chat": thread}, "Offer created and chat updated/created successfully")
}

// PUT /product/update-offer/:offerId
func (h *ProductHandler) UpdateOffer(c *gin.Context) {
	updateOffer(c, h.negotiation)
}

// updateOffer is shared by the product and bundle transition endpoints; the
// negotiation service works out the subject from the offer itself.
func updateOffer(c *gin.Context, negotiation services.NegotiationService) {
	offerID, err := uuid.Parse(c.Param("offerId"))
	if err != nil {
		RespondError(c, apperr.Invalid("Invalid offer id"))
		return
	}
	var body struct {
		Action             string  `json:"action"`
		CounterPrice       float64 `json:"counter_price"`
		CounterDescription string  `json:"counter_description"`
		MessageKey         string  `json:"messageKey"`
		OtherParticipantID string  `json:"otherParticipantId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, apperr.Invalid("Invalid request body"))
		return
	}
	req := services.TransitionRequest{
		Action:             body.Action,
		CounterPrice:       body.CounterPrice,
		CounterDescription: body.CounterDescription,
	}
	if body.MessageKey != "" {
		key, err := uuid.Parse(body.MessageKey)
		if err != nil {
			RespondError(c, apperr.Invalid("Invalid message key"))
			return
		}
		req.MessageKey = key
	}
	if body.OtherParticipantID != "" {
		other, err := uuid.Parse(body.OtherParticipantID)
		if err != nil {
			RespondError(c, apperr.Invalid("Invalid participant id"))
			return
		}
		req.OtherParticipantID = other
	}
	actingUserID := requestdata.UserID(c.Request.Context())
	offer, err := negotiation.Transition(c.Request.Context(), actingUserID, offerID, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondSuccess(c, http.StatusOK, offer, "Offer updated successfully.")
}
