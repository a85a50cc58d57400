// Package routing decides which domain handler answers a message.
package routing

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"coach-agent/internal/domain"
)

var (
	nutritionKeywords = []string{
		"dieta", "alimentación", "comida", "nutrición", "calorías",
		"macros", "proteína", "carbohidratos", "grasas", "vitaminas",
	}
	fitnessKeywords = []string{
		"ejercicio", "rutina", "entrenamiento", "gimnasio", "músculo",
		"cardio", "fuerza", "peso", "repeticiones", "series",
	}
	researchKeywords = []string{
		"estudio", "investigación", "científico", "evidencia", "pubmed",
	}

	// Short replies that continue the previous topic. Stored folded.
	affirmations = map[string]struct{}{
		"si":       {},
		"continua": {},
		"mas":      {},
	}
)

// Route returns the handler for message. recent is newest-first; when the
// message is a bare affirmation it sticks to the handler of recent[0].
//
// Research wins on any hit. Nutrition needs a strictly higher score than
// fitness, so a positive tie falls through to personalization.
func Route(message string, recent []domain.ConversationEntry) domain.HandlerTag {
	lower := strings.ToLower(message)

	if len(recent) > 0 && IsAffirmation(message) && recent[0].Agent.Valid() {
		return recent[0].Agent
	}

	nutrition := score(lower, nutritionKeywords)
	fitness := score(lower, fitnessKeywords)
	research := score(lower, researchKeywords)

	switch {
	case research > 0:
		return domain.TagResearch
	case nutrition > fitness:
		return domain.TagNutrition
	case fitness > nutrition:
		return domain.TagFitness
	default:
		return domain.TagPersonalization
	}
}

// IsAffirmation reports whether message, ignoring case, surrounding space
// and diacritics, is one of the continuation replies.
func IsAffirmation(message string) bool {
	_, ok := affirmations[Fold(strings.TrimSpace(message))]
	return ok
}

func score(lower string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}

// Fold lowercases s and strips combining marks, so "Sí" folds to "si".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
