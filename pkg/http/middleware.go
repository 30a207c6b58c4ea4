package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"liyu1981.xyz/iot-gateway-service/pkg/apierr"
	"liyu1981.xyz/iot-gateway-service/pkg/auth"
	"liyu1981.xyz/iot-gateway-service/pkg/common"
	"liyu1981.xyz/iot-gateway-service/pkg/metrics"
)

// RequireToken accepts only bearer tokens of the wanted type and puts the
// token's identity on the request context.
func (rs *RestfulServer) RequireToken(want auth.TokenType) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			respondError(c, err)
			return
		}
		claims, err := rs.Tokens.Validate(token, want)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), claims.Username))
		c.Next()
	}
}

func tooLargeMessage(limit int64) string {
	return fmt.Sprintf("Your file is too large (>%gMB)", float64(limit)/(1024*1024))
}

// LimitBody rejects a declared Content-Length above the limit before the body
// is read, and caps bodies of unknown length while they are read.
func (rs *RestfulServer) LimitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := rs.MaxContentLength
		if limit <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			respondError(c, apierr.NewPayloadTooLargeError(tooLargeMessage(limit), nil))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

func (rs *RestfulServer) RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		took := time.Since(start)
		metrics.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), took)

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger := common.GetLoggerWith(common.LoggerNameRestfulServer)
			logger.Warn("Request failed",
				zap.String("method", c.Request.Method),
				zap.String("route", route),
				zap.Int("status", c.Writer.Status()),
				zap.Duration("took", took),
			)
		}
	}
}
