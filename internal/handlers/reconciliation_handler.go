package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"soa-reconciliation-backend/internal/models"
	service "soa-reconciliation-backend/internal/services/reconciliation"
)

type ReconciliationHandler struct {
	service *service.Service
}

func NewReconciliationHandler(svc *service.Service) *ReconciliationHandler {
	return &ReconciliationHandler{service: svc}
}

func (h *ReconciliationHandler) CreateStatement(c *gin.Context) {
	var payload struct {
		StatementNo    string    `json:"statement_no" binding:"required"`
		SourceFilename string    `json:"source_filename"`
		PeriodStart    time.Time `json:"period_start"`
		PeriodEnd      time.Time `json:"period_end"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	stmt, err := h.service.CreateStatement(c.Request.Context(), getScope(c), service.CreateStatementInput{
		StatementNo:    payload.StatementNo,
		SourceFilename: payload.SourceFilename,
		PeriodStart:    payload.PeriodStart,
		PeriodEnd:      payload.PeriodEnd,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"statement": stmt})
}

type linePayload struct {
	DocumentNumber string          `json:"document_number" binding:"required,docnum"`
	DocumentType   string          `json:"document_type" binding:"required,oneof=INV CN DN"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Currency       string          `json:"currency" binding:"required,len=3"`
	DocumentDate   time.Time       `json:"document_date" binding:"required"`
	Description    string          `json:"description"`
}

func (h *ReconciliationHandler) IngestLines(c *gin.Context) {
	statementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid statement ID"})
		return
	}
	var payload struct {
		Lines []linePayload `json:"lines" binding:"required,min=1,dive"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	inputs := make([]service.LineInput, len(payload.Lines))
	for i, l := range payload.Lines {
		inputs[i] = service.LineInput{
			DocumentNumber: l.DocumentNumber,
			DocumentType:   models.DocumentType(l.DocumentType),
			Amount:         l.Amount,
			Currency:       l.Currency,
			DocumentDate:   l.DocumentDate,
			Description:    l.Description,
		}
	}

	lines, err := h.service.IngestLines(c.Request.Context(), getScope(c), statementID, inputs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"lines": lines, "count": len(lines)})
}

func (h *ReconciliationHandler) RunMatching(c *gin.Context) {
	statementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid statement ID"})
		return
	}

	summary, err := h.service.RunMatching(c.Request.Context(), getScope(c), statementID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": summary})
}

func (h *ReconciliationHandler) GetStatementStats(c *gin.Context) {
	statementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid statement ID"})
		return
	}

	stats, err := h.service.GetStatementStats(c.Request.Context(), getScope(c), statementID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *ReconciliationHandler) ListLines(c *gin.Context) {
	statementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid statement ID"})
		return
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := parsePositiveInt(raw); err == nil {
			limit = n
		}
	}

	lines, nextCursor, hasMore, err := h.service.ListLines(
		c.Request.Context(), getScope(c), statementID,
		c.Query("status"), c.Query("cursor"), limit, c.Query("search"),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"lines":       lines,
		"next_cursor": nextCursor,
		"has_more":    hasMore,
	})
}

func (h *ReconciliationHandler) GetSummary(c *gin.Context) {
	statementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid statement ID"})
		return
	}

	summary, err := h.service.GetSummary(c.Request.Context(), getScope(c), statementID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (h *ReconciliationHandler) ListIssues(c *gin.Context) {
	statementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid statement ID"})
		return
	}

	issues, err := h.service.ListIssues(c.Request.Context(), getScope(c), statementID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issues": issues})
}

func (h *ReconciliationHandler) ListMatches(c *gin.Context) {
	statementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid statement ID"})
		return
	}

	matches, err := h.service.ListMatches(c.Request.Context(), getScope(c), statementID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (h *ReconciliationHandler) BulkConfirmExact(c *gin.Context) {
	statementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid statement ID"})
		return
	}

	count, err := h.service.BulkConfirmExact(c.Request.Context(), getScope(c), statementID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"confirmed": count})
}

func (h *ReconciliationHandler) SignOff(c *gin.Context) {
	statementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid statement ID"})
		return
	}
	var payload struct {
		AckType string `json:"ack_type" binding:"required"`
		Notes   string `json:"notes"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	ack, err := h.service.SignOff(c.Request.Context(), getScope(c), statementID, service.AcknowledgementInput{
		AckType: payload.AckType,
		Notes:   payload.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "statement signed off", "acknowledgement": ack})
}

func (h *ReconciliationHandler) ConfirmMatch(c *gin.Context) {
	matchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match ID"})
		return
	}

	match, err := h.service.ConfirmMatch(c.Request.Context(), getScope(c), matchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "match confirmed", "match": match})
}

func (h *ReconciliationHandler) RejectMatch(c *gin.Context) {
	matchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match ID"})
		return
	}
	var payload struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	match, err := h.service.RejectMatch(c.Request.Context(), getScope(c), matchID, payload.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "match rejected", "match": match})
}

func (h *ReconciliationHandler) ManualMatch(c *gin.Context) {
	lineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line ID"})
		return
	}
	var payload struct {
		InvoiceID string `json:"invoice_id" binding:"required,uuid"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	invoiceID, err := uuid.Parse(payload.InvoiceID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice ID"})
		return
	}

	match, err := h.service.ManualMatch(c.Request.Context(), getScope(c), lineID, invoiceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "line manually matched", "match": match})
}

func (h *ReconciliationHandler) CreateIssue(c *gin.Context) {
	statementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid statement ID"})
		return
	}
	var payload struct {
		SOAItemID     string          `json:"soa_item_id" binding:"required,uuid"`
		IssueType     string          `json:"issue_type" binding:"required"`
		Severity      string          `json:"severity"`
		Description   string          `json:"description"`
		AmountDelta   decimal.Decimal `json:"amount_delta"`
		ExpectedValue string          `json:"expected_value"`
		ActualValue   string          `json:"actual_value"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	lineID, err := uuid.Parse(payload.SOAItemID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line ID"})
		return
	}

	issue, err := h.service.CreateIssue(c.Request.Context(), getScope(c), statementID, service.IssueInput{
		SOAItemID:     lineID,
		IssueType:     models.IssueType(payload.IssueType),
		Severity:      models.IssueSeverity(payload.Severity),
		Description:   payload.Description,
		AmountDelta:   payload.AmountDelta,
		DetectedBy:    models.DetectedByManual,
		ExpectedValue: payload.ExpectedValue,
		ActualValue:   payload.ActualValue,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"issue": issue})
}

func (h *ReconciliationHandler) ResolveIssue(c *gin.Context) {
	issueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid issue ID"})
		return
	}
	var payload struct {
		Action string `json:"action" binding:"required"`
		Notes  string `json:"notes"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	issue, err := h.service.ResolveIssue(c.Request.Context(), getScope(c), issueID, service.ResolutionInput{
		Action: payload.Action,
		Notes:  payload.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "issue resolved", "issue": issue})
}

func (h *ReconciliationHandler) CreateInvoice(c *gin.Context) {
	var payload struct {
		InvoiceNumber string          `json:"invoice_number" binding:"required,docnum"`
		DocumentType  string          `json:"document_type" binding:"required,oneof=INV CN DN"`
		TotalAmount   decimal.Decimal `json:"total_amount" binding:"required"`
		Currency      string          `json:"currency" binding:"required,len=3"`
		InvoiceDate   time.Time       `json:"invoice_date" binding:"required"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	inv, err := h.service.SeedInvoice(c.Request.Context(), getScope(c), service.InvoiceInput{
		InvoiceNumber: payload.InvoiceNumber,
		DocumentType:  models.DocumentType(payload.DocumentType),
		TotalAmount:   payload.TotalAmount,
		Currency:      payload.Currency,
		InvoiceDate:   payload.InvoiceDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invoice": inv})
}
