package linkedin

import (
	"strings"
	"unicode/utf8"
)

// ValidatePostContent checks candidate post content against the locally
// enforceable subset of LinkedIn's content rules. Length is counted in
// characters, not bytes. Mentions are raw '@' occurrences, not parsed
// mentions. Returns nil when the content is acceptable and a
// *ValidationError naming the violated rule otherwise.
func ValidatePostContent(content string) error {
	if utf8.RuneCountInString(content) > MaxPostLength {
		return &ValidationError{Reason: RejectTooLong}
	}
	if strings.TrimSpace(content) == "" {
		return &ValidationError{Reason: RejectEmpty}
	}
	if n := strings.Count(content, "@"); n > MaxMentionsPerPost {
		return &ValidationError{Reason: RejectTooManyMentions, MentionCount: n}
	}
	return nil
}
