package story

import (
	"math/rand"
	"sort"

	"studyquest-server/internal/models"
)

// maxKeywords - сколько ключевых слов попадает в промт.
const maxKeywords = 3

// sampleKeywords выбирает min(maxKeywords, len(pool)) элементов без возвращения
// (частичный Fisher-Yates по копии пула).
func sampleKeywords(rng *rand.Rand, pool []string) []string {
	if len(pool) == 0 {
		return []string{}
	}
	n := maxKeywords
	if len(pool) < n {
		n = len(pool)
	}
	buf := make([]string, len(pool))
	copy(buf, pool)
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(buf)-i)
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf[:n]
}

// SelectKeywords возвращает случайную выборку ключевых слов университета истории для тональности.
func (m *Manager) SelectKeywords(themes models.ThemeMap, state *models.StoryState, sentiment models.Sentiment) []string {
	pool := themes.Keywords(sentiment, state.Institution)
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return sampleKeywords(m.rng, pool)
}

func (m *Manager) pickInstitution(themes models.ThemeMap, requested string) string {
	if requested != "" && themes.HasInstitution(requested) {
		return requested
	}
	known := themes.Institutions()
	if len(known) == 0 {
		return models.FallbackInstitution
	}
	// порядок обхода map случаен, но выбор должен зависеть только от rng
	sort.Strings(known)
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return known[m.rng.Intn(len(known))]
}
