package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
)

//go:embed templates/*
var templateFS embed.FS

var funcs = map[string]any{
	"date": func(t time.Time) string { return t.UTC().Format("02/01/2006 15:04 MST") },
}

// Renderer renders a named template into subject, HTML and text bodies.
type Renderer struct{}

// NewRenderer returns a Renderer backed by the embedded templates folder.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render executes name_subject.txt, name.html and name.txt with data.
func (r *Renderer) Render(name string, data any) (subject, html, text string, err error) {
	subject, err = renderText(name+"_subject.txt", data)
	if err != nil {
		return "", "", "", fmt.Errorf("render subject: %w", err)
	}
	html, err = renderHTML(name+".html", data)
	if err != nil {
		return "", "", "", fmt.Errorf("render html: %w", err)
	}
	text, err = renderText(name+".txt", data)
	if err != nil {
		return "", "", "", fmt.Errorf("render text: %w", err)
	}
	return strings.TrimSpace(subject), html, text, nil
}

func renderHTML(file string, data any) (string, error) {
	t, err := htmltemplate.New(file).Funcs(funcs).ParseFS(templateFS, "templates/"+file)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderText(file string, data any) (string, error) {
	t, err := texttemplate.New(file).Funcs(funcs).ParseFS(templateFS, "templates/"+file)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
