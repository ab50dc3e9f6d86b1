package view

import (
	_ "embed"
	"html/template"
	"io"
)

//go:embed templates/dashboard.html
var dashboardHTMLTemplateStr string

var dashboardHTMLTemplate = template.Must(template.New("dashboard.html").Parse(dashboardHTMLTemplateStr))

type htmlPage struct {
	Page
	RefreshAction string
}

// RenderHTML writes page as a complete HTML document. The refresh control
// posts to refreshAction.
func RenderHTML(w io.Writer, page Page, refreshAction string) error {
	return dashboardHTMLTemplate.Execute(w, htmlPage{Page: page, RefreshAction: refreshAction})
}
