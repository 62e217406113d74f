package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/flyer-maker/internal/models"
)

// RequireMultipart rejects photo uploads that are not multipart forms.
// The image type itself is checked by the handler.
func RequireMultipart() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		contentType := ctx.GetHeader("Content-Type")

		if !strings.HasPrefix(contentType, "multipart/form-data") {
			ctx.AbortWithStatusJSON(http.StatusUnsupportedMediaType, models.APIResponse{
				Success: false,
				Error:   "Expected multipart/form-data upload",
			})
			return
		}

		ctx.Next()
	}
}
