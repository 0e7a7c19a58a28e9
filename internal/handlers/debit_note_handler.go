package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	service "soa-reconciliation-backend/internal/services/debitnote"
)

type DebitNoteHandler struct {
	service *service.Service
}

func NewDebitNoteHandler(svc *service.Service) *DebitNoteHandler {
	return &DebitNoteHandler{service: svc}
}

func (h *DebitNoteHandler) Propose(c *gin.Context) {
	var payload struct {
		StatementID string          `json:"statement_id" binding:"required,uuid"`
		SOAIssueID  string          `json:"soa_issue_id" binding:"omitempty,uuid"`
		Amount      decimal.Decimal `json:"amount" binding:"required"`
		ReasonCode  string          `json:"reason_code" binding:"required"`
		Notes       string          `json:"notes"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	statementID, err := uuid.Parse(payload.StatementID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid statement ID"})
		return
	}
	var issueID *uuid.UUID
	if payload.SOAIssueID != "" {
		parsed, err := uuid.Parse(payload.SOAIssueID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid issue ID"})
			return
		}
		issueID = &parsed
	}

	dn, err := h.service.Propose(c.Request.Context(), getScope(c), service.ProposeInput{
		StatementID: statementID,
		SOAIssueID:  issueID,
		Amount:      payload.Amount,
		ReasonCode:  payload.ReasonCode,
		Notes:       payload.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"debit_note": dn})
}

func (h *DebitNoteHandler) Approve(c *gin.Context) {
	dnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid debit note ID"})
		return
	}

	dn, err := h.service.Approve(c.Request.Context(), getScope(c), dnID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "debit note approved", "debit_note": dn})
}

func (h *DebitNoteHandler) Post(c *gin.Context) {
	dnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid debit note ID"})
		return
	}
	var payload struct {
		LedgerEntryID string `json:"ledger_entry_id" binding:"omitempty,uuid"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	var ledgerEntryID *uuid.UUID
	if payload.LedgerEntryID != "" {
		parsed, err := uuid.Parse(payload.LedgerEntryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ledger entry ID"})
			return
		}
		ledgerEntryID = &parsed
	}

	dn, err := h.service.Post(c.Request.Context(), getScope(c), dnID, ledgerEntryID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "debit note posted", "debit_note": dn})
}

func (h *DebitNoteHandler) List(c *gin.Context) {
	statementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid statement ID"})
		return
	}

	notes, err := h.service.List(c.Request.Context(), getScope(c), statementID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debit_notes": notes})
}
