// README: Local token minting for development and tests.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"uride/internal/identity"
	"uride/internal/types"
)

type AuthHandler struct {
	issuer *identity.TokenIssuer
}

func NewAuthHandler(issuer *identity.TokenIssuer) *AuthHandler {
	return &AuthHandler{issuer: issuer}
}

type tokenRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required,oneof=rider driver"`
}

func (h *AuthHandler) Token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.issuer.Issue(identity.Actor{
		ID:   types.ID(req.UserID),
		Role: identity.Role(req.Role),
	}, 24*time.Hour)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "token issue failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
