package entitlement

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/smarthive/core/internal/alert"
)

// SQLiteStore resolves alert recipients from the SQLite account schema.
// It implements alert.Resolver.
//
// A user is entitled to a controller's alerts when they either own the
// controller or are a member of one of its devices, their account is
// active, and they have a registered push token. Results are computed
// fresh per call; revoking a share or deactivating an account takes
// effect on the next alert.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store over an open SQLite connection.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// recipientQuery returns the controller's owner plus all device members,
// deduplicated by UNION. Users without a push token are filtered in SQL;
// whitespace-only tokens are filtered in Go afterwards.
const recipientQuery = `
	SELECT u.id, u.fcm_token
	FROM controllers c
	JOIN users u ON u.id = c.owner_id
	WHERE c.controller_key = ?
	  AND c.is_active = 1
	  AND u.is_active = 1
	  AND u.fcm_token IS NOT NULL
	UNION
	SELECT u.id, u.fcm_token
	FROM devices d
	JOIN controllers c ON c.controller_key = d.controller_key
	JOIN device_members m ON m.device_id = d.id
	JOIN users u ON u.id = m.user_id
	WHERE d.controller_key = ?
	  AND c.is_active = 1
	  AND u.is_active = 1
	  AND u.fcm_token IS NOT NULL
	ORDER BY 1`

// Resolve returns the users currently entitled to alerts from the given
// controller. An unknown controller resolves to an empty list, not an
// error; only a store failure is an error.
func (s *SQLiteStore) Resolve(ctx context.Context, deviceID string) ([]alert.Recipient, error) {
	rows, err := s.db.QueryContext(ctx, recipientQuery, deviceID, deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying recipients: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var recipients []alert.Recipient
	for rows.Next() {
		var (
			userID string
			token  sql.NullString
		)
		if err := rows.Scan(&userID, &token); err != nil {
			return nil, fmt.Errorf("%w: scanning recipient: %v", ErrStoreUnavailable, err)
		}

		trimmed := strings.TrimSpace(token.String)
		if !token.Valid || trimmed == "" {
			continue
		}

		recipients = append(recipients, alert.Recipient{
			UserID:    userID,
			PushToken: trimmed,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading recipients: %v", ErrStoreUnavailable, err)
	}

	return recipients, nil
}
