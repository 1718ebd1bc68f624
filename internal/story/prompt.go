package story

import (
	"fmt"
	"strconv"
	"strings"
)

// maxContextRunes - сколько символов последнего сегмента попадает в промт.
const maxContextRunes = 500

// PromptInput - данные для промта генерации сегмента.
type PromptInput struct {
	Institution     string
	LastSegment     string
	DurationMinutes float64
	GPA             float64
	Keywords        []string
	Success         bool
}

// BuildPrompt собирает промт для генератора. GPA берется до применения исхода сессии.
func BuildPrompt(in PromptInput) string {
	outcome, tone := "fails", "humorously painful"
	if in.Success {
		outcome, tone = "succeeds", "inspiring"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a university life story segment where the student %s:\n\n", outcome)
	fmt.Fprintf(&b, "University: %s\n", in.Institution)
	fmt.Fprintf(&b, "Context: %s\n", truncateRunes(in.LastSegment, maxContextRunes))
	fmt.Fprintf(&b, "Duration: %s minutes\n", formatDuration(in.DurationMinutes))
	fmt.Fprintf(&b, "GPA: %.1f\n", in.GPA)
	fmt.Fprintf(&b, "Keywords: %s\n\n", strings.Join(in.Keywords, ", "))
	fmt.Fprintf(&b, "Make it %s and include:\n", tone)
	b.WriteString("- At least 2 keywords naturally in context\n")
	b.WriteString("- Academic consequences\n")
	b.WriteString("- Social interactions")
	return b.String()
}

// FallbackSegment - текст сегмента, когда генератор недоступен.
func FallbackSegment(success bool) string {
	if success {
		return "Session update: Completed study session."
	}
	return "Session update: Failed study session."
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// formatDuration печатает 45 как "45", 12.5 как "12.5".
func formatDuration(minutes float64) string {
	return strconv.FormatFloat(minutes, 'f', -1, 64)
}
