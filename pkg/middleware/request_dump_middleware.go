package middleware

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"mockinterview-backend/utilities"
)

// maxDumpedBody keeps uploaded recordings out of the debug log.
const maxDumpedBody = 2048

func RequestDumpMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		body := string(bodyBytes)
		if !strings.HasPrefix(c.ContentType(), "application/json") && len(body) > maxDumpedBody {
			body = fmt.Sprintf("<%d bytes of %s>", len(bodyBytes), c.ContentType())
		}

		utilities.Debug(
			"[Request]\n"+
				"\tMethod: %s\n"+
				"\tURL: %s\n"+
				"\tHeaders: %v\n"+
				"\tParams: %v\n"+
				"\tBody: %s",
			c.Request.Method,
			c.Request.URL.String(),
			c.Request.Header,
			c.Params,
			body,
		)

		c.Next()
	}
}
