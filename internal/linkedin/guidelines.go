package linkedin

// Limits applied to member posts. Only the length, emptiness and mention
// checks are enforced locally; everything else in the guidelines is
// advisory text. LinkedIn's own server-side enforcement stays
// authoritative either way.
const (
	MaxPostLength      = 3000
	MaxPostsPerDay     = 100
	MaxMentionsPerPost = 10
)

// PostingGuidelines is the static posting policy returned to callers.
type PostingGuidelines struct {
	MaxPostLength      int      `json:"max_post_length"`
	MaxPostsPerDay     int      `json:"max_posts_per_day"`
	MaxMentionsPerPost int      `json:"max_mentions_per_post"`
	RateLimit          string   `json:"rate_limit"`
	ContentRules       []string `json:"content_rules"`
}

// Guidelines returns the posting policy. It has no dependencies and never
// fails.
func Guidelines() PostingGuidelines {
	return PostingGuidelines{
		MaxPostLength:      MaxPostLength,
		MaxPostsPerDay:     MaxPostsPerDay,
		MaxMentionsPerPost: MaxMentionsPerPost,
		RateLimit:          "1 post per minute",
		ContentRules: []string{
			"Keep content professional and authentic",
			"Avoid spam and overly promotional content",
			"Respect others' privacy and intellectual property",
			"Use relevant hashtags (3-5 recommended)",
		},
	}
}
