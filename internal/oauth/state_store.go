package oauth

import (
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"linkmcp/pkg/logging"
)

// State is the anti-forgery payload carried through the authorization
// round trip. It links the provider callback back to the user identity
// and scope the flow was started for.
type State struct {
	UserID    string    `json:"user_id"`
	Scope     string    `json:"scope"`
	Nonce     string    `json:"nonce"`
	CreatedAt time.Time `json:"created_at"`
}

// StateStore provides thread-safe storage for OAuth state parameters.
// State parameters link callbacks to original requests and provide CSRF
// protection.
type StateStore struct {
	mu     sync.RWMutex
	states map[string]*State

	stateExpiry time.Duration
	stopCleanup chan struct{}
}

// NewStateStore creates a new state store with default expiration.
func NewStateStore() *StateStore {
	ss := &StateStore{
		states:      make(map[string]*State),
		stateExpiry: 10 * time.Minute, // State expires after 10 minutes
		stopCleanup: make(chan struct{}),
	}

	// Start background cleanup
	go ss.cleanupLoop()

	return ss
}

// Generate creates a new OAuth state parameter for userID and stores it.
// Returns the encoded state string to include in the authorization URL.
func (ss *StateStore) Generate(userID, scope string) (string, error) {
	state := &State{
		UserID:    userID,
		Scope:     scope,
		Nonce:     uuid.NewString(),
		CreatedAt: time.Now(),
	}

	// Encode the state as JSON then base64
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	encodedState := base64.URLEncoding.EncodeToString(stateJSON)

	// Store the state indexed by the nonce
	ss.mu.Lock()
	ss.states[state.Nonce] = state
	ss.mu.Unlock()

	logging.Debug("OAuth", "Generated state for user=%s", userID)
	return encodedState, nil
}

// Validate validates an OAuth state parameter from a callback. Returns the
// original state data if valid, nil if invalid or expired. A valid state
// is consumed on first use so a replayed callback fails.
func (ss *StateStore) Validate(encodedState string) *State {
	stateJSON, err := base64.URLEncoding.DecodeString(encodedState)
	if err != nil {
		logging.Warn("OAuth", "Failed to decode state: %v", err)
		return nil
	}

	var state State
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		logging.Warn("OAuth", "Failed to unmarshal state: %v", err)
		return nil
	}

	ss.mu.RLock()
	storedState, exists := ss.states[state.Nonce]
	ss.mu.RUnlock()

	if !exists {
		logging.Warn("OAuth", "State not found in store: nonce=%s", state.Nonce)
		return nil
	}

	if time.Since(storedState.CreatedAt) > ss.stateExpiry {
		logging.Warn("OAuth", "State expired: nonce=%s age=%v", state.Nonce, time.Since(storedState.CreatedAt))
		ss.Delete(state.Nonce)
		return nil
	}

	ss.Delete(state.Nonce)
	return storedState
}

// Delete removes a state from the store.
func (ss *StateStore) Delete(nonce string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.states, nonce)
}

// Stop stops the background cleanup goroutine.
func (ss *StateStore) Stop() {
	close(ss.stopCleanup)
}

// cleanupLoop periodically removes expired states from the store.
func (ss *StateStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ss.cleanup()
		case <-ss.stopCleanup:
			return
		}
	}
}

// cleanup removes all expired states from the store.
func (ss *StateStore) cleanup() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	count := 0
	for nonce, state := range ss.states {
		if time.Since(state.CreatedAt) > ss.stateExpiry {
			delete(ss.states, nonce)
			count++
		}
	}

	if count > 0 {
		logging.Debug("OAuth", "Cleaned up %d expired states", count)
	}
}
