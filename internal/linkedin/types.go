package linkedin

// DefaultUserID is the fallback user identity for single-tenant use.
// Surfaces that accept an optional user id substitute it explicitly at
// their own boundary; nothing deeper assumes it.
const DefaultUserID = "default_user"

// TokenGrant is LinkedIn's response to a successful code exchange.
type TokenGrant struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Profile is the subset of the member profile this server consumes. ID is
// the stable member identifier and doubles as the author reference when
// creating posts.
type Profile struct {
	ID                 string `json:"id"`
	LocalizedFirstName string `json:"localizedFirstName,omitempty"`
	LocalizedLastName  string `json:"localizedLastName,omitempty"`
}

// ProfileWithGuidelines is a fetched profile augmented with the static
// posting policy. Every profile read carries the guidelines so agents see
// the rules before they draft content.
type ProfileWithGuidelines struct {
	Profile
	PostingGuidelines PostingGuidelines `json:"posting_guidelines"`
}

// PostResult describes a post LinkedIn accepted. ComplianceCheck records
// that local validation passed; LinkedIn may still moderate the post
// afterwards.
type PostResult struct {
	PostID          string `json:"post_id"`
	PostURL         string `json:"post_url"`
	Content         string `json:"content"`
	CharacterCount  int    `json:"character_count"`
	ComplianceCheck string `json:"compliance_check"`
}

// ugcPost is the fixed envelope of the post-create endpoint.
type ugcPost struct {
	Author          string          `json:"author"`
	LifecycleState  string          `json:"lifecycleState"`
	SpecificContent specificContent `json:"specificContent"`
	Visibility      postVisibility  `json:"visibility"`
}

type specificContent struct {
	ShareContent shareContent `json:"com.linkedin.ugc.ShareContent"`
}

type shareContent struct {
	ShareCommentary    shareCommentary `json:"shareCommentary"`
	ShareMediaCategory string          `json:"shareMediaCategory"`
}

type shareCommentary struct {
	Text string `json:"text"`
}

type postVisibility struct {
	MemberNetwork string `json:"com.linkedin.ugc.MemberNetworkVisibility"`
}
