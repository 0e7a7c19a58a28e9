package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"soa-reconciliation-backend/internal/services/matching"
)

// docnum requires at least one alphanumeric character once normalized, so
// "---" or "  " cannot enter the matching pool as document numbers.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("docnum", func(fl validator.FieldLevel) bool {
			return matching.NormalizeDocNumber(fl.Field().String()) != ""
		})
	}
}
