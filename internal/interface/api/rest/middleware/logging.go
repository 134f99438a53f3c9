package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	maxLogBodySize = 1 << 12 // 4 KB
	masked         = "***"
)

// sensitive query params and JSON fields are never logged
var sensitive = map[string]struct{}{
	"key":      {},
	"password": {},
}

func RequestLogGin(logger *zap.Logger, mCounter *prometheus.CounterVec) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions ||
			c.Request.URL.Path == "/favicon.ico" ||
			strings.HasSuffix(c.Request.URL.Path, "/metrics") {
			c.Next()
			return
		}

		start := time.Now()

		var body string
		if c.Request.Body != nil && c.Request.ContentLength != 0 {
			ct := c.GetHeader("Content-Type")
			if strings.HasPrefix(ct, "multipart/form-data") {
				body = "<multipart/form-data omitted>"
			} else {
				var buf bytes.Buffer
				limited := io.LimitReader(c.Request.Body, maxLogBodySize)
				_, _ = io.Copy(&buf, limited)
				// the unread remainder still reaches the handler
				c.Request.Body = struct {
					io.Reader
					io.Closer
				}{io.MultiReader(bytes.NewReader(buf.Bytes()), c.Request.Body), c.Request.Body}
				body = maskBody(buf.Bytes())
			}
		}

		c.Next()

		if mCounter != nil {
			mCounter.WithLabelValues("app_requests_total").Inc()
		}

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("url", c.FullPath()),
			zap.String("query", maskQuery(c.Request.URL.Query())),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("body", body),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		)
	}
}

func maskQuery(q url.Values) string {
	for k := range q {
		if _, ok := sensitive[strings.ToLower(k)]; ok {
			q[k] = []string{masked}
		}
	}
	return q.Encode()
}

// maskBody replaces sensitive top-level JSON fields. Bodies that are not a JSON
// object are dropped entirely.
func maskBody(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return "<unparsed body omitted>"
	}
	for k := range m {
		if _, ok := sensitive[strings.ToLower(k)]; ok {
			m[k] = masked
		}
	}
	out, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(out)
}
