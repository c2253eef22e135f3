package flow

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/leadchat/leadchat-platform/internal/leads"
)

// Placeholder tokens look like #name: a hash followed by anything up
// to the next whitespace or hash. Labels embed tokens mid-sentence
// ("Call you at #name?"), so trailing punctuation captured by the
// pattern is peeled off until a configured key matches.
var placeholderPattern = regexp.MustCompile(`#([^\s#]+)`)

// ResolveLabel substitutes #key tokens in a question label with the
// value of the collected answer whose key matches. Tokens without a
// matching answer are left verbatim.
func ResolveLabel(label string, answers []leads.Answer) string {
	return placeholderPattern.ReplaceAllStringFunc(label, func(match string) string {
		key := match[1:]
		for key != "" {
			for _, a := range answers {
				if a.Key != "" && a.Key == key {
					return a.Value + match[1+len(key):]
				}
			}
			r, size := utf8.DecodeLastRuneInString(key)
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				break
			}
			key = key[:len(key)-size]
		}
		return match
	})
}
