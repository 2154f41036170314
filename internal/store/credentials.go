package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DefaultTokenType is stored when the provider omits token_type.
const DefaultTokenType = "Bearer"

// Credential is one user's persisted OAuth token state.
type Credential struct {
	UserID       string
	AccessToken  string
	RefreshToken *string
	TokenType    string
	ExpiresAt    *time.Time
	Scope        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PutParams carries the fields of a token grant to persist. Zero values
// mean "not returned by the provider": ExpiresIn 0 stores no expiry,
// empty Scope and RefreshToken store NULL, empty TokenType stores the
// bearer default.
type PutParams struct {
	UserID       string
	AccessToken  string
	ExpiresIn    int64 // seconds until expiry
	TokenType    string
	Scope        string
	RefreshToken string
}

// Put inserts or fully replaces the credential for p.UserID. Every column
// is overwritten from p; values absent from p become NULL again even if a
// previous grant set them. created_at survives replacement, updated_at
// does not.
func (s *Store) Put(ctx context.Context, p PutParams) error {
	now := s.now()

	var expiresAt sql.NullInt64
	if p.ExpiresIn > 0 {
		expiresAt = sql.NullInt64{Int64: now.Add(time.Duration(p.ExpiresIn) * time.Second).Unix(), Valid: true}
	}

	tokenType := p.TokenType
	if tokenType == "" {
		tokenType = DefaultTokenType
	}

	query := `INSERT INTO linkedin_tokens
			(user_id, access_token, refresh_token, token_type, expires_at, scope, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				access_token = excluded.access_token,
				refresh_token = excluded.refresh_token,
				token_type = excluded.token_type,
				expires_at = excluded.expires_at,
				scope = excluded.scope,
				updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		p.UserID, p.AccessToken, nullString(p.RefreshToken), tokenType,
		expiresAt, nullString(p.Scope), now.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert credential: %w", err)
	}
	return nil
}

// Get returns the credential row for userID regardless of expiry, or nil
// when none is stored.
func (s *Store) Get(ctx context.Context, userID string) (*Credential, error) {
	query := `SELECT user_id, access_token, refresh_token, token_type, expires_at, scope, created_at, updated_at
			FROM linkedin_tokens WHERE user_id = ?`
	row := s.db.QueryRowContext(ctx, query, userID)

	cred, err := scanCredential(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credential: %w", err)
	}
	return cred, nil
}

// GetValid returns the credential for userID only while it is usable: a
// row must exist and its expires_at must be unset or strictly in the
// future. A nil result is the normal "authentication required" outcome,
// not a failure.
func (s *Store) GetValid(ctx context.Context, userID string) (*Credential, error) {
	cred, err := s.Get(ctx, userID)
	if err != nil || cred == nil {
		return nil, err
	}

	if cred.ExpiresAt != nil && !cred.ExpiresAt.After(s.now()) {
		return nil, nil
	}
	return cred, nil
}

// List returns all stored credentials ordered by user id.
func (s *Store) List(ctx context.Context) ([]Credential, error) {
	query := `SELECT user_id, access_token, refresh_token, token_type, expires_at, scope, created_at, updated_at
			FROM linkedin_tokens ORDER BY user_id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select credentials: %w", err)
	}
	defer rows.Close()

	var result []Credential
	for rows.Next() {
		cred, err := scanCredential(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *cred)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the credential for userID. It reports whether a row was
// actually removed.
func (s *Store) Delete(ctx context.Context, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM linkedin_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete credential: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteExpired removes all credentials whose expiry has passed and
// returns how many rows were removed.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM linkedin_tokens WHERE expires_at IS NOT NULL AND expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired credentials: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

// scanCredential maps one row onto a Credential. Timestamps are stored as
// unix seconds so expiry comparison never depends on driver time parsing.
func scanCredential(scan func(dest ...any) error) (*Credential, error) {
	var (
		cred         Credential
		refreshToken sql.NullString
		expiresAt    sql.NullInt64
		scope        sql.NullString
		createdAt    int64
		updatedAt    int64
	)

	err := scan(&cred.UserID, &cred.AccessToken, &refreshToken, &cred.TokenType,
		&expiresAt, &scope, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if refreshToken.Valid {
		cred.RefreshToken = &refreshToken.String
	}
	if expiresAt.Valid {
		t := time.Unix(expiresAt.Int64, 0)
		cred.ExpiresAt = &t
	}
	if scope.Valid {
		cred.Scope = &scope.String
	}
	cred.CreatedAt = time.Unix(createdAt, 0)
	cred.UpdatedAt = time.Unix(updatedAt, 0)

	return &cred, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
