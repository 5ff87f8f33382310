package agent

import "regexp"

// Affirmative and negative reply patterns for the confirmation handshake.
// Anything matching neither is ambiguous: the pending action is retained
// and the reply is processed as an ordinary turn.
var (
	affirmativeRe = regexp.MustCompile(`(?i)^\s*(s[ií]+|yes|yep|sip?|dale|ok(ay)?|claro( que s[ií])?|hazlo|adelante|va(le)?|por supuesto)\s*[.!]*\s*$`)
	negativeRe    = regexp.MustCompile(`(?i)^\s*(no+|nope|nah|cancelar?|mejor no|no gracias|d[ée]jalo)\s*[.!]*\s*$`)
)

func isAffirmative(text string) bool {
	return affirmativeRe.MatchString(text)
}

func isNegative(text string) bool {
	return negativeRe.MatchString(text)
}
