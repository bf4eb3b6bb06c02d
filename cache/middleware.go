package cache

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
)

type responseWriter struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
}

func (w *responseWriter) WriteHeaderNow() {}

func (w *responseWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	return w.body.WriteString(s)
}

func (w *responseWriter) Status() int {
	return w.status
}

func (w *responseWriter) Written() bool {
	return w.body.Len() > 0
}

// ETag buffers successful GET responses, tags them with an xxhash fingerprint and
// answers 304 Not Modified when the client already holds that version.
func ETag() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		original := c.Writer
		writer := &responseWriter{
			ResponseWriter: original,
			body:           bytes.NewBuffer(nil),
			status:         http.StatusOK,
		}
		c.Writer = writer

		c.Next()

		c.Writer = original
		if writer.status != http.StatusOK {
			original.WriteHeader(writer.status)
			original.Write(writer.body.Bytes())
			return
		}

		etag := Fingerprint(writer.body.Bytes())
		original.Header().Set("ETag", etag)
		original.Header().Set("Cache-Control", "no-cache")
		if Matches(c.GetHeader("If-None-Match"), etag) {
			original.WriteHeader(http.StatusNotModified)
			return
		}
		original.WriteHeader(http.StatusOK)
		original.Write(writer.body.Bytes())
	}
}
