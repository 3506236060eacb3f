package middleware

import (
	"context"
	"math"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
	"github.com/noah-isme/sma-pedagogy-api/pkg/ratelimit"
	"github.com/noah-isme/sma-pedagogy-api/pkg/response"
)

type hitCounter interface {
	Allow(ctx context.Context, bucket ratelimit.Bucket, subject string) (ratelimit.Result, error)
}

type rateLimitRecorder interface {
	RecordRateLimited(bucket string)
}

// RateLimit rejects callers exceeding bucket with 429. Requests pass when the counter store is
// unavailable.
func RateLimit(limiter hitCounter, bucket ratelimit.Bucket, recorder rateLimitRecorder, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		subject := c.ClientIP()
		if claims := ClaimsFromContext(c); claims != nil {
			subject = claims.UserID
		}

		result, err := limiter.Allow(c.Request.Context(), bucket, subject)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.String("bucket", bucket.Name), zap.Error(err))
			c.Next()
			return
		}
		if !result.Allowed {
			if recorder != nil {
				recorder.RecordRateLimited(bucket.Name)
			}
			retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			appErr := appErrors.Clone(appErrors.ErrRateLimited, "too many requests, try again later")
			appErr.Details = map[string]interface{}{"retryAfter": retryAfter}
			response.Error(c, appErr)
			c.Abort()
			return
		}
		c.Next()
	}
}
