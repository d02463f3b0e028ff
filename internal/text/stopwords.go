package text

// stopwords are common English function words excluded from content-token
// sets so that similarity and salience scores reflect meaning-bearing terms.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "from": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "being": true, "have": true, "has": true, "had": true,
	"do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "must": true,
	"can": true, "this": true, "that": true, "these": true, "those": true,
	"it": true, "its": true, "they": true, "them": true, "their": true,
	"we": true, "our": true, "you": true, "your": true, "he": true,
	"she": true, "his": true, "her": true, "not": true, "no": true,
	"nor": true, "so": true, "than": true, "then": true, "there": true,
	"here": true, "when": true, "where": true, "which": true, "who": true,
	"whom": true, "what": true, "how": true, "why": true, "all": true,
	"each": true, "both": true, "more": true, "most": true, "some": true,
	"such": true, "only": true, "also": true, "very": true, "just": true,
	"into": true, "over": true, "under": true, "between": true, "through": true,
	"during": true, "before": true, "after": true, "above": true, "below": true,
	"again": true, "further": true, "once": true, "any": true, "other": true,
	"same": true, "too": true, "as": true, "if": true, "while": true,
	"because": true, "until": true, "about": true, "against": true,
}

// IsStopword reports whether the lowercase token is a common function word.
func IsStopword(token string) bool {
	return stopwords[token]
}
