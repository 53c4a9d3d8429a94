package content

import (
	"fmt"
	"strings"
)

const (
	DefaultModel       = "gpt-4o-mini"
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.7
)

// CompletionParams are the model parameters sent with a prompt
type CompletionParams struct {
	Model       string
	MaxTokens   int64
	Temperature float64
}

// BuildPrompt expands a request into the instruction sent to the model
func BuildPrompt(r GenerateRequest) string {
	var b strings.Builder

	contentType := string(r.ContentType)
	if contentType == "" {
		contentType = string(TypePost)
	}
	subject := r.Topic
	if subject == "" {
		subject = r.Prompt
	}
	fmt.Fprintf(&b, "Create a professional %s about \"%s\"", contentType, subject)

	if r.Purpose != nil && r.Purpose.Type != "" {
		fmt.Fprintf(&b, " with the purpose of %s", r.Purpose.Type)
	}

	if r.Audience != nil && r.Audience.CustomDescription != "" {
		fmt.Fprintf(&b, ". Target audience: %s", r.Audience.CustomDescription)
	}

	if len(r.KeyPoints) > 0 {
		b.WriteString(". Include these key points:\n")
		for i, point := range r.KeyPoints {
			fmt.Fprintf(&b, "%d. %s\n", i+1, point)
		}
	}

	if s := r.Settings; s != nil {
		switch {
		case s.Formality < 33:
			b.WriteString(". Use a casual tone")
		case s.Formality < 66:
			b.WriteString(". Use a neutral tone")
		default:
			b.WriteString(". Use a formal tone")
		}

		switch {
		case s.Length < 33:
			b.WriteString(". Keep it short and concise")
		case s.Length < 66:
			b.WriteString(". Use a medium length")
		default:
			b.WriteString(". Make it comprehensive and detailed")
		}

		if s.IncludeHashtags {
			b.WriteString(". Include 3-5 relevant hashtags at the end")
		}
		if s.IncludeCTA {
			b.WriteString(". Include a clear call to action at the end")
		}
	}

	if r.ContentType == TypeArticle {
		b.WriteString(". Format as a professional article with markdown headings, paragraphs, and bullet points where appropriate.")
	} else {
		b.WriteString(". Format as a concise LinkedIn post with line breaks for readability.")
	}

	return b.String()
}

// ResolveParams applies the defaults: an explicit non-zero temperature wins,
// then creativity/100, then DefaultTemperature.
func ResolveParams(r GenerateRequest, defaultModel string) CompletionParams {
	p := CompletionParams{
		Model:       r.Model,
		MaxTokens:   r.MaxTokens,
		Temperature: DefaultTemperature,
	}
	if p.Model == "" {
		p.Model = defaultModel
	}
	if p.Model == "" {
		p.Model = DefaultModel
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = DefaultMaxTokens
	}

	switch {
	case r.Temperature != nil && *r.Temperature != 0:
		p.Temperature = *r.Temperature
	case r.Settings != nil && r.Settings.Creativity > 0:
		p.Temperature = float64(r.Settings.Creativity) / 100
	}
	return p
}
