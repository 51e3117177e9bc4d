package middleware

import (
	"time"

	"github.com/Miraines/MoonyAndStarry/session-auth/internal/infra/metrics"
	"github.com/gin-gonic/gin"
)

func Metrics(rec metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		ts := time.Now()
		c.Next()
		rec.RecordRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(ts))
	}
}
