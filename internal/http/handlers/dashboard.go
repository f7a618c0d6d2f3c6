package handlers

import (
	"net/http"

	"github.com/geocoder89/authhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Dashboard is the sample protected route: it only sees requests the
// route guard already verified, and echoes the id the guard attached.
func Dashboard(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "Missing identity")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Welcome to protected dashboard",
		"userId":  userID,
	})
}
