package web

import (
	"embed"
	"html/template"
	"log"
	"net/http"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// Render executes the named page template. Render failures are logged and
// answered with a bare 500; they indicate a programming error, not user
// input.
func Render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("[web] failed to render %s: %v", name, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
