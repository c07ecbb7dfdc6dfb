// Package web holds the HTML templates, static assets and error pages.
package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hopyard/hops/internal/hop"
	"github.com/hopyard/hops/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var funcs = template.FuncMap{
	"alpha": FormatAlpha,
	"date":  func(t time.Time) string { return t.Local().Format("2006-01-02 15:04") },
}

// Templates parses every page template. Pages are addressed by file name,
// e.g. "index.html".
func Templates() (*template.Template, error) {
	t, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

// Static serves the embedded static directory.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// FormatAlpha renders an alpha-acid range for display.
func FormatAlpha(a hop.Alpha) string {
	switch {
	case a.Low != nil && a.High != nil:
		return hop.FormatBound(a.Low) + "-" + hop.FormatBound(a.High) + "%"
	case a.Low != nil:
		return "from " + hop.FormatBound(a.Low) + "%"
	case a.High != nil:
		return "up to " + hop.FormatBound(a.High) + "%"
	}
	return "unknown"
}

// HTTPError is an error that carries the status of the error page it produces.
type HTTPError struct {
	Status int
	Err    error
}

func (e *HTTPError) Error() string { return e.Err.Error() }
func (e *HTTPError) Unwrap() error { return e.Err }

// ErrNotFound is attached to requests that matched no route.
var ErrNotFound = &HTTPError{Status: http.StatusNotFound, Err: errors.New("Not Found")}

// StatusOf maps err to the status of its error page.
func StatusOf(err error) int {
	var he *HTTPError
	switch {
	case errors.As(err, &he):
		return he.Status
	case errors.Is(err, hop.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// RenderError writes the generic error page. Error details are only shown
// in development.
func RenderError(c *gin.Context, err error, development bool) {
	status := StatusOf(err)
	message := http.StatusText(status)
	var he *HTTPError
	if errors.As(err, &he) {
		message = he.Error()
	}
	data := gin.H{"title": "Error page", "status": status, "message": message}
	if development {
		data["detail"] = err.Error()
	}
	c.HTML(status, "error.html", data)
}

// ErrorPages renders the error page for the last error attached with
// c.Error when the handler chain wrote no response of its own.
func ErrorPages(development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		if StatusOf(err) >= http.StatusInternalServerError {
			logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		}
		RenderError(c, err, development)
	}
}

// NotFound is the NoRoute handler.
func NotFound(c *gin.Context) {
	_ = c.Error(ErrNotFound)
}

// Recovery turns panics into a 500 error page.
func Recovery(development bool) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Errorf("panic serving %s %s: %v\n%s", c.Request.Method, c.Request.URL.Path, recovered, debug.Stack())
		RenderError(c, fmt.Errorf("panic: %v", recovered), development)
		c.Abort()
	})
}
