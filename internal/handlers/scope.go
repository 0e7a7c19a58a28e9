package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"soa-reconciliation-backend/internal/models"
)

const scopeKey = "reconciliation_scope"

// ScopeMiddleware builds the vendor/company/actor scope from the headers the
// authenticated calling layer supplies. Requests without a full scope are
// rejected before any handler runs.
func ScopeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		vendorID, err := uuid.Parse(c.GetHeader("X-Vendor-ID"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing or invalid X-Vendor-ID header"})
			return
		}
		companyID, err := uuid.Parse(c.GetHeader("X-Company-ID"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing or invalid X-Company-ID header"})
			return
		}
		actorID, err := uuid.Parse(c.GetHeader("X-Actor-ID"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing or invalid X-Actor-ID header"})
			return
		}

		var capabilities []string
		if raw := c.GetHeader("X-Actor-Capabilities"); raw != "" {
			for _, cap := range strings.Split(raw, ",") {
				if cap = strings.TrimSpace(cap); cap != "" {
					capabilities = append(capabilities, cap)
				}
			}
		}

		c.Set(scopeKey, models.Scope{
			VendorID:     vendorID,
			CompanyID:    companyID,
			ActorID:      actorID,
			Capabilities: capabilities,
		})
		c.Next()
	}
}

func getScope(c *gin.Context) models.Scope {
	return c.MustGet(scopeKey).(models.Scope)
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
