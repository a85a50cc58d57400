package routing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coach-agent/internal/domain"
)

func history(tags ...domain.HandlerTag) []domain.ConversationEntry {
	out := make([]domain.ConversationEntry, 0, len(tags))
	for _, tag := range tags {
		out = append(out, domain.ConversationEntry{Agent: tag})
	}
	return out
}

func TestRoute_KeywordScoring(t *testing.T) {
	cases := []struct {
		name    string
		message string
		want    domain.HandlerTag
	}{
		{name: "nutrition", message: "¿Cuántas calorías tiene una manzana?", want: domain.TagNutrition},
		{name: "nutrition case insensitive", message: "Quiero una DIETA", want: domain.TagNutrition},
		{name: "fitness", message: "Dame una rutina de gimnasio", want: domain.TagFitness},
		{name: "research beats everything", message: "¿Qué evidencia hay sobre la dieta y el ejercicio?", want: domain.TagResearch},
		{name: "nutrition strictly greater", message: "dieta con proteína y ejercicio", want: domain.TagNutrition},
		{name: "fitness greater", message: "comida antes de la rutina de fuerza", want: domain.TagFitness},
		{name: "positive tie falls to personalization", message: "dieta y ejercicio", want: domain.TagPersonalization},
		{name: "no keywords", message: "hola, ¿quién eres?", want: domain.TagPersonalization},
		{name: "empty", message: "", want: domain.TagPersonalization},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Route(tc.message, nil))
		})
	}
}

func TestRoute_StickinessUsesMostRecentEntry(t *testing.T) {
	recent := history(domain.TagFitness, domain.TagNutrition)
	for _, msg := range []string{"sí", "si", "continúa", "más", "  Sí ", "SI", "mas", "Continua", "MÁS"} {
		require.Equal(t, domain.TagFitness, Route(msg, recent), "message=%q", msg)
	}
}

func TestRoute_StickinessBypassesScoring(t *testing.T) {
	recent := history(domain.TagResearch)
	require.Equal(t, domain.TagResearch, Route("más", recent))

	recent = history(domain.TagNutrition)
	require.Equal(t, domain.TagNutrition, Route("si", recent))
}

func TestRoute_NoStickinessWithoutContext(t *testing.T) {
	require.Equal(t, domain.TagPersonalization, Route("sí", nil))
	require.Equal(t, domain.TagPersonalization, Route("sí", []domain.ConversationEntry{}))
}

func TestRoute_AffirmationMustBeWholeMessage(t *testing.T) {
	recent := history(domain.TagFitness)
	require.Equal(t, domain.TagPersonalization, Route("sí, gracias", recent))
	require.Equal(t, domain.TagNutrition, Route("más comida", recent))
}

func TestRoute_UnknownLastTagDoesNotStick(t *testing.T) {
	recent := history(domain.TagError)
	require.Equal(t, domain.TagPersonalization, Route("sí", recent))
}

func TestRoute_Deterministic(t *testing.T) {
	recent := history(domain.TagNutrition)
	msg := "rutina de ejercicio y dieta"
	first := Route(msg, recent)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, Route(msg, recent))
	}
}

func TestFold(t *testing.T) {
	require.Equal(t, "si", Fold("Sí"))
	require.Equal(t, "biceps y gluteos", Fold("BÍCEPS y glúteos"))
	require.Equal(t, "nino", Fold("niño"))
}
