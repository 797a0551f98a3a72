// Package prompts renders the tutor persona prompts from embedded templates.
package prompts

import (
	"bytes"
	"embed"
	"text/template"

	"github.com/SaiNageswarS/vidya-core/locale"
)

//go:embed templates/*
var templatesFS embed.FS

// DetailLevel selects how thorough a spoken answer should be.
type DetailLevel string

const (
	DetailShort    DetailLevel = "short"
	DetailDetailed DetailLevel = "detailed"
)

// ParseDetailLevel maps loose request input onto a level, defaulting short.
func ParseDetailLevel(s string) DetailLevel {
	if DetailLevel(s) == DetailDetailed {
		return DetailDetailed
	}
	return DetailShort
}

// RenderSystemPrompt builds the tutor system prompt for the language and
// detail level of the answer.
func RenderSystemPrompt(lang locale.Language, level DetailLevel) (string, error) {
	return loadPrompt("templates/tutor_system.md", struct {
		Telugu   bool
		Detailed bool
	}{
		Telugu:   lang == locale.Telugu,
		Detailed: level == DetailDetailed,
	})
}

// RenderUserPrompt builds the question prompt around the retrieved content.
func RenderUserPrompt(question, contextText string) (string, error) {
	return loadPrompt("templates/tutor_user.md", struct {
		Question string
		Context  string
	}{
		Question: question,
		Context:  contextText,
	})
}

func loadPrompt(templatePath string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(templatesFS, templatePath)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}
