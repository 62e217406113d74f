package middleware

import "github.com/gin-gonic/gin"

var securityHeaders = map[string]string{
	"X-Frame-Options":              "DENY",
	"X-Content-Type-Options":       "nosniff",
	"X-XSS-Protection":             "1; mode=block",
	"Strict-Transport-Security":    "max-age=31536000; includeSubDomains",
	"Referrer-Policy":              "no-referrer",
	"Cross-Origin-Resource-Policy": "same-site",
}

// SecurityHeaders adds security headers
func SecurityHeaders() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		for name, value := range securityHeaders {
			ctx.Header(name, value)
		}
		ctx.Next()
	}
}
