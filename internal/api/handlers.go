package api

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pageza/recipebook/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Version is reported by the health endpoint.
const Version = "v1.0.0"

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Recipe book is running",
		"version": Version,
	})
}

// StaticFS returns the embedded front-end assets rooted at the static dir.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Views holds the parsed page templates. Each page is a named template that
// renders a fragment; "layout" wraps a fragment into a full document.
type Views struct {
	tmpl *template.Template
}

// layoutData is what the layout template receives.
type layoutData struct {
	Page string
	Body template.HTML
}

// NewViews parses the embedded templates.
func NewViews() (*Views, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"photoURL": PhotoURL,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Views{tmpl: tmpl}, nil
}

// Render writes page with data. Requests sent with
// X-Requested-With: XMLHttpRequest get the bare fragment, everything else
// gets it wrapped in the layout.
func (v *Views) Render(c *gin.Context, status int, page string, data any) {
	var body bytes.Buffer
	if err := v.tmpl.ExecuteTemplate(&body, page, data); err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "failed to render page")
		return
	}

	if IsXHR(c) {
		c.Data(status, "text/html; charset=utf-8", body.Bytes())
		return
	}

	var doc bytes.Buffer
	err := v.tmpl.ExecuteTemplate(&doc, "layout", layoutData{
		Page: page,
		// The fragment was produced by html/template and is already escaped.
		Body: template.HTML(body.String()),
	})
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "failed to render page")
		return
	}
	c.Data(status, "text/html; charset=utf-8", doc.Bytes())
}

// IsXHR reports whether the request came from the page script.
func IsXHR(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("X-Requested-With"), "XMLHttpRequest")
}

// PhotoURL turns a recipe's photo reference into something an <img> can
// load. Remote photos are already URLs; local ones live under /uploads.
func PhotoURL(r model.Recipe) string {
	ref := r.PhotoRef()
	if ref == "" || r.HasRemotePhoto() {
		return ref
	}
	return "/uploads/" + ref
}
