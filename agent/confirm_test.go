package agent

import "testing"

func TestConfirmationReplies(t *testing.T) {
	affirmative := []string{
		"sí", "si", "Sí!", "yes", "dale", "ok", "okay", "claro",
		"claro que sí", "hazlo", "adelante", "vale", "por supuesto", "  sí.  ",
	}
	negative := []string{
		"no", "No.", "nope", "nah", "cancela", "cancelar", "mejor no",
		"no gracias", "déjalo",
	}
	ambiguous := []string{
		"", "¿por qué?", "sí pero primero dime otra cosa", "quizás",
		"no sé", "cuéntame un chiste", "síguelo buscando tú",
	}

	for _, s := range affirmative {
		if !isAffirmative(s) {
			t.Errorf("isAffirmative(%q) = false", s)
		}
		if isNegative(s) {
			t.Errorf("isNegative(%q) = true", s)
		}
	}
	for _, s := range negative {
		if !isNegative(s) {
			t.Errorf("isNegative(%q) = false", s)
		}
		if isAffirmative(s) {
			t.Errorf("isAffirmative(%q) = true", s)
		}
	}
	for _, s := range ambiguous {
		if isAffirmative(s) || isNegative(s) {
			t.Errorf("%q must be ambiguous", s)
		}
	}
}
