package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/swapkart/tradein-backend/internal/apierr"
	"github.com/swapkart/tradein-backend/internal/assessment"
	"github.com/swapkart/tradein-backend/internal/catalog"
	"github.com/swapkart/tradein-backend/internal/logger"
	"github.com/swapkart/tradein-backend/internal/requestdata"
	"github.com/swapkart/tradein-backend/internal/services"
)

type TradeInHandler struct {
	log            *logger.Logger
	sessionService services.SessionService
	catalogService catalog.Service
	resumeStore    services.ResumeStore
}

func NewTradeInHandler(log *logger.Logger, sessionService services.SessionService, catalogService catalog.Service, resumeStore services.ResumeStore) *TradeInHandler {
	return &TradeInHandler{
		log:            log.With("handler", "TradeInHandler"),
		sessionService: sessionService,
		catalogService: catalogService,
		resumeStore:    resumeStore,
	}
}

func requireUser(c *gin.Context) (uuid.UUID, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusForbidden, "FORBIDDEN", fmt.Errorf("no user in request context"))
		return uuid.Nil, false
	}
	return rd.UserID, true
}

type createSessionRequest struct {
	Category  string `json:"category" binding:"required"`
	ProductID string `json:"product_id" binding:"required"`
	VariantID string `json:"variant_id" binding:"required"`
}

func (h *TradeInHandler) CreateSession(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	session, err := h.sessionService.Create(c.Request.Context(), userID, req.Category, req.ProductID, req.VariantID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"session": session})
}

func (h *TradeInHandler) SubmitAssessment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	var a assessment.Assessment
	if err := c.ShouldBindJSON(&a); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	session, err := h.sessionService.SubmitAssessment(c.Request.Context(), userID, sessionID, &a)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"session": session})
}

func (h *TradeInHandler) GetQuote(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	quote, err := h.sessionService.GetQuote(c.Request.Context(), userID, sessionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"quote": quote})
}

func (h *TradeInHandler) Extend(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	session, err := h.sessionService.Extend(c.Request.Context(), userID, sessionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"session": session})
}

type finalizeRequest struct {
	PickupDetails json.RawMessage `json:"pickup_details" binding:"required"`
}

func (h *TradeInHandler) Finalize(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	order, err := h.sessionService.Finalize(c.Request.Context(), userID, sessionID, req.PickupDetails)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"order": order})
}

func (h *TradeInHandler) Cancel(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	session, err := h.sessionService.Cancel(c.Request.Context(), userID, sessionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"session": session})
}

// GetCatalog hands clients the snapshot they price local estimates against.
func (h *TradeInHandler) GetCatalog(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	category := c.Param("category")
	snap, err := h.catalogService.Snapshot(c.Request.Context(), category)
	if err != nil {
		RespondError(c, http.StatusBadGateway, "CATALOG_UNAVAILABLE", err)
		return
	}
	RespondOK(c, gin.H{"catalog": snap})
}

func (h *TradeInHandler) SaveResume(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var a assessment.Assessment
	if err := c.ShouldBindJSON(&a); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	a.ProductID = c.Param("productId")
	a.VariantID = c.Param("variantId")
	a.Normalize()
	if err := h.resumeStore.Save(c.Request.Context(), userID, &a); err != nil {
		// Advisory cache: log and report success-shaped emptiness.
		h.log.Warn("Resume save failed", "user_id", userID, "error", err)
	}
	RespondOK(c, gin.H{"saved": true})
}

func (h *TradeInHandler) LoadResume(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	a, err := h.resumeStore.Load(c.Request.Context(), userID, c.Param("productId"), c.Param("variantId"))
	if err != nil {
		h.log.Warn("Resume load failed", "user_id", userID, "error", err)
		RespondOK(c, gin.H{"assessment": nil})
		return
	}
	RespondOK(c, gin.H{"assessment": a})
}

func (h *TradeInHandler) ClearResume(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.resumeStore.Clear(c.Request.Context(), userID, c.Param("productId"), c.Param("variantId")); err != nil {
		h.log.Warn("Resume clear failed", "user_id", userID, "error", err)
	}
	RespondOK(c, gin.H{"cleared": true})
}

func sessionIDParam(c *gin.Context) (uuid.UUID, bool) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("invalid session id: %w", err))
		return uuid.Nil, false
	}
	return sessionID, true
}
