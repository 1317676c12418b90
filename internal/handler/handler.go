package handler

import (
	"net/http"

	"github.com/eaglebank/eagle-bank-api/internal/middleware"
	"github.com/eaglebank/eagle-bank-api/internal/utils"
	"github.com/gin-gonic/gin"
)

// accountNumberParam returns the :accountNumber path parameter. A malformed
// number cannot name an account, so it is answered as not found.
func accountNumberParam(c *gin.Context) (string, bool) {
	accountNumber := c.Param("accountNumber")
	if !utils.ValidateAccountNumber(accountNumber) {
		middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
		return "", false
	}
	return accountNumber, true
}

// bindJSON decodes and validates the request body, writing the 400 response
// itself when either step fails.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return false
	}
	return true
}
