package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pombredanne/annographix/internal/payload"
)

// Fallback request-size bound, derived from what one indexing batch can
// legitimately carry: a default batch of documents, each with its text and a
// generous number of annotations at the payload length bound.
const (
	defaultBatchDocs    = 100
	defaultDocTextBytes = 256 << 10
	defaultAnnotsPerDoc = 512
)

// RequestSizeLimit caps request bodies to keep an oversized or runaway
// indexing batch from exhausting memory. A maxSize <= 0 selects the fallback
// bound above.
func RequestSizeLimit(maxSize int64) gin.HandlerFunc {
	if maxSize <= 0 {
		maxSize = defaultBatchDocs * (defaultDocTextBytes + defaultAnnotsPerDoc*payload.MaxLen)
	}
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// CORS answers cross-origin requests for the configured origin. An empty
// origin disables the headers entirely; browsers then fall back to the
// same-origin policy.
func CORS(allowOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if allowOrigin == "" {
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", allowOrigin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
