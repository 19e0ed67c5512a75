package db

import "strings"

// MatchExpression turns free-form search text into a full-text match expression.
// Whitespace is trimmed and collapsed, every remaining token becomes a quoted prefix term,
// and the terms are joined with spaces so that all of them must match.
//
// "conn  time" becomes `"conn"* "time"*`. An empty string is returned when the text holds no tokens.
func MatchExpression(text string) string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return ""
	}

	terms := make([]string, len(tokens))
	for i, token := range tokens {
		terms[i] = `"` + strings.ReplaceAll(token, `"`, `""`) + `"*`
	}
	return strings.Join(terms, " ")
}
