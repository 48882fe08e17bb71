package middleware

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/coachflow/backend/internal/services"
)

const auditBodyLimit = 2000

var sensitiveField = regexp.MustCompile(`(?i)("(?:password|secret|token|access_token)"\s*:\s*)"(?:[^"\\]|\\.)*"`)

// AuditLog records write requests (POST/PUT/PATCH/DELETE) in the system log
// of the organization they acted on.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != "POST" && method != "PUT" && method != "PATCH" && method != "DELETE" {
			c.Next()
			return
		}

		var body string
		if c.Request.Body != nil {
			raw, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))
			body = maskSensitiveFields(string(raw))
			if len(body) > auditBodyLimit {
				body = body[:auditBodyLimit] + "...[truncated]"
			}
		}

		c.Next()

		status := c.Writer.Status()
		module, action := parseRouteInfo(c.FullPath(), method)

		level := "info"
		outcome := "ok"
		if status >= 400 {
			level = "warning"
			outcome = "failed"
		}

		var uid, oid *uint
		if id := GetUserID(c); id > 0 {
			uid = &id
		}
		if id := GetOrganizationID(c); id > 0 {
			oid = &id
		}

		services.LogRequest(level, module, action,
			fmt.Sprintf("[Audit] %s %s -> %d %s", method, c.Request.URL.Path, status, outcome),
			uid, oid, c.ClientIP(), c.Request.UserAgent(),
			map[string]interface{}{
				"method": method,
				"path":   c.Request.URL.Path,
				"status": status,
				"body":   body,
				"audit":  true,
			})
	}
}

// parseRouteInfo derives module and action from a route pattern, e.g.
// "/manager/invoices/:id/process" + PATCH gives ("manager/invoices", "update").
func parseRouteInfo(fullPath, method string) (module, action string) {
	var parts []string
	for _, p := range strings.Split(fullPath, "/") {
		if p != "" && !strings.HasPrefix(p, ":") {
			parts = append(parts, p)
		}
		if len(parts) == 2 {
			break
		}
	}
	module = strings.Join(parts, "/")
	if module == "" {
		module = "unknown"
	}

	switch method {
	case "POST":
		action = "create"
	case "PUT", "PATCH":
		action = "update"
	case "DELETE":
		action = "delete"
	default:
		action = strings.ToLower(method)
	}
	return module, action
}

func maskSensitiveFields(body string) string {
	return sensitiveField.ReplaceAllString(body, `$1"***"`)
}
