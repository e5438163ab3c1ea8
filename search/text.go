package search

import "strings"

// Stop words that never anchor an entity match on their own
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// Lead words that mark a query as a question when they open it
var questionLeads = map[string]bool{
	"what": true, "which": true, "who": true, "whom": true, "whose": true,
	"when": true, "where": true, "why": true, "how": true,
	"is": true, "are": true, "was": true, "were": true,
	"do": true, "does": true, "did": true,
	"can": true, "could": true, "will": true, "would": true, "should": true,
}

// wordCutset strips the punctuation that clings to words in prose.
const wordCutset = ".,!?;:'\"-()[]{}"

// tokenize splits text into lowercase words with edge punctuation trimmed.
// Stop words are kept so token positions line up across the query.
func tokenize(text string) []string {
	words := strings.Fields(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, wordCutset))
		if cleaned != "" {
			tokens = append(tokens, cleaned)
		}
	}

	return tokens
}

// allStopWords reports whether every token in the span is a stop word.
func allStopWords(tokens []string) bool {
	for _, token := range tokens {
		if !stopWords[token] {
			return false
		}
	}
	return true
}

// isQuestionLike reports whether the query reads as a question. A trailing
// question mark or an interrogative lead word counts.
func isQuestionLike(text string) bool {
	trimmed := strings.TrimSpace(text)
	if strings.HasSuffix(trimmed, "?") {
		return true
	}

	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return false
	}
	first := strings.ToLower(strings.Trim(fields[0], wordCutset))
	return questionLeads[first]
}
