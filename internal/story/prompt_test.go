package story

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	t.Run("Success prompt", func(t *testing.T) {
		p := BuildPrompt(PromptInput{
			Institution:     "mcgill",
			LastSegment:     "You found the library.",
			DurationMinutes: 45,
			GPA:             3.66,
			Keywords:        []string{"poutine", "snow"},
			Success:         true,
		})
		assert.True(t, strings.HasPrefix(p, "Generate a university life story segment where the student succeeds:"))
		assert.Contains(t, p, "University: mcgill\n")
		assert.Contains(t, p, "Context: You found the library.\n")
		assert.Contains(t, p, "Duration: 45 minutes\n")
		assert.Contains(t, p, "GPA: 3.7\n")
		assert.Contains(t, p, "Keywords: poutine, snow\n")
		assert.Contains(t, p, "Make it inspiring and include:")
		assert.Contains(t, p, "- At least 2 keywords naturally in context")
		assert.Contains(t, p, "- Academic consequences")
		assert.Contains(t, p, "- Social interactions")
	})

	t.Run("Failure prompt", func(t *testing.T) {
		p := BuildPrompt(PromptInput{Institution: "UBC", DurationMinutes: 12.5, GPA: 0})
		assert.Contains(t, p, "student fails:")
		assert.Contains(t, p, "humorously painful")
		assert.Contains(t, p, "Duration: 12.5 minutes")
		assert.Contains(t, p, "Keywords: \n")

		p = BuildPrompt(PromptInput{Institution: "UBC"})
		assert.Contains(t, p, "Duration: 0 minutes\n")
	})

	t.Run("Context truncated to 500 characters", func(t *testing.T) {
		long := strings.Repeat("é", 800)
		p := BuildPrompt(PromptInput{Institution: "UBC", LastSegment: long})
		assert.Contains(t, p, "Context: "+strings.Repeat("é", 500)+"\n")
		assert.NotContains(t, p, strings.Repeat("é", 501))
	})
}

func TestSampleKeywords(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assert.Equal(t, []string{}, sampleKeywords(rng, nil))
	assert.Len(t, sampleKeywords(rng, []string{"a", "b", "c", "d", "e"}), 3)
	assert.ElementsMatch(t, []string{"x"}, sampleKeywords(rng, []string{"x"}))
}
