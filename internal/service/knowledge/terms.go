package knowledge

import "strings"

// stopwords are articles, verbs and chatbot phrasing that never identify a
// system topic.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "create": true, "design": true,
	"for": true, "generate": true, "make": true, "model": true, "of": true,
	"or": true, "please": true, "requirements": true, "system": true,
	"the": true, "to": true, "verification": true, "with": true,
}

// TopicTerms extracts candidate lookup terms from a prompt: lowercased,
// punctuation trimmed, stopwords removed, order preserved.
func TopicTerms(prompt string) []string {
	fields := strings.Fields(strings.ToLower(prompt))
	terms := make([]string, 0, len(fields))
	seen := make(map[string]bool)

	for _, field := range fields {
		term := strings.Trim(field, `.,:;!?"'()`)
		if term == "" || stopwords[term] || seen[term] {
			continue
		}
		seen[term] = true
		terms = append(terms, term)
	}
	return terms
}
