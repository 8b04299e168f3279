package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log/level"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gotendency/domain/sample"
	"gotendency/internal/errors"
)

//go:embed templates/*.html templates/*.md static/css/* static/js/*
var embeddedFiles embed.FS

// sliderView feeds the "slider" template
type sliderView struct {
	Name  string
	Label string
	Range sample.Range
	Value int
}

func parseTemplates(files fs.FS) (*template.Template, error) {
	funcMap := template.FuncMap{
		"slider": func(name, label string, r sample.Range, value int) sliderView {
			return sliderView{Name: name, Label: label, Range: r, Value: value}
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return templates, nil
}

// renderAbout turns the embedded about.md into HTML
func renderAbout(files fs.FS) (template.HTML, error) {
	md, err := fs.ReadFile(files, "templates/about.md")
	if err != nil {
		return "", fmt.Errorf("failed to read about text: %w", err)
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank | mdhtml.SkipHTML})
	return template.HTML(markdown.ToHTML(md, p, renderer)), nil
}

// renderTemplate executes a template into a buffer first so a failure never
// leaves a half-written page
func (s *Server) renderTemplate(c *gin.Context, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		level.Error(s.logger).Log("msg", "template render failed", "template", name, "err", err)
		c.AbortWithStatusJSON(500, gin.H{"error": gin.H{"code": errors.CodeInternalError, "message": "template rendering failed"}})
		return
	}
	c.Data(200, "text/html; charset=utf-8", buf.Bytes())
}
