package server

import (
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"issuetracker/internal/models"
)

// maxBodyBytes caps request bodies at 100kb. A larger body reads as empty.
const maxBodyBytes = 100 << 10

// readPayload decodes the request body into loosely typed fields. JSON bodies
// keep their value types; any other body is parsed as a urlencoded form where
// the first value of each key wins. An unreadable body yields no fields.
func readPayload(c *gin.Context) map[string]any {
	fields := map[string]any{}
	if c.Request.Body == nil {
		return fields
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	if c.ContentType() == binding.MIMEJSON {
		var decoded map[string]any
		if err := c.ShouldBindJSON(&decoded); err != nil || decoded == nil {
			return fields
		}
		return decoded
	}

	// Read the body directly: Request.ParseForm ignores DELETE bodies.
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return fields
	}
	// ParseQuery keeps every pair it managed to parse before an error.
	values, _ := url.ParseQuery(string(body))
	for key, vals := range values {
		if len(vals) > 0 {
			fields[key] = vals[0]
		}
	}
	return fields
}

// takeID removes the identifier key from fields and returns its value.
// "_id" takes precedence; "id" is only consumed when "_id" is absent.
func takeID(fields map[string]any) any {
	if id, ok := fields[models.FieldID]; ok {
		delete(fields, models.FieldID)
		return id
	}
	id := fields["id"]
	delete(fields, "id")
	return id
}

// queryFilters flattens the URL query, keeping the first value per key.
func queryFilters(c *gin.Context) map[string]string {
	query := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}
	return query
}
