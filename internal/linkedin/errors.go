package linkedin

import "fmt"

// RejectReason identifies which content rule a post failed.
type RejectReason string

const (
	RejectTooLong         RejectReason = "too_long"
	RejectEmpty           RejectReason = "empty"
	RejectTooManyMentions RejectReason = "too_many_mentions"
)

// ValidationError rejects post content before any store or network access.
// It is an expected, user-correctable outcome, not an infrastructure
// failure. MentionCount is set only for mention rejections.
type ValidationError struct {
	Reason       RejectReason
	MentionCount int
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case RejectTooLong:
		return fmt.Sprintf("Post content exceeds %d character limit", MaxPostLength)
	case RejectEmpty:
		return "Post content cannot be empty"
	case RejectTooManyMentions:
		return fmt.Sprintf("Too many mentions (%d). LinkedIn limit is %d per post.", e.MentionCount, MaxMentionsPerPost)
	}
	return "invalid post content"
}

// AuthRequiredError means no valid access token is stored for the user.
// The only recovery is re-running the authorization flow; nothing in the
// client retries on its own.
type AuthRequiredError struct {
	UserID string
}

func (e *AuthRequiredError) Error() string {
	return "No valid access token found. Please authenticate first."
}

// ProviderError is a non-success HTTP response from LinkedIn. Body carries
// the provider's response verbatim so rate-limit and content-policy
// rejections reach the caller unaltered.
type ProviderError struct {
	Operation  string // human-readable failure prefix
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s (status %d)", e.Operation, e.StatusCode)
	}
	return e.Operation + ": " + e.Body
}

// StorageError wraps a credential store failure. It is distinct from the
// "no valid credential" outcome, which is not an error at all.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return "token storage unavailable: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// TransportError means LinkedIn could not be reached at all, as opposed to
// a response LinkedIn chose to send.
type TransportError struct {
	Operation string
	Err       error
}

func (e *TransportError) Error() string {
	return e.Operation + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
