package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
)

// encodeUser is the payload column format: the whole record as JSON.
func encodeUser(u *domain.User) (string, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeUser(id, payload string) (*domain.User, error) {
	var u domain.User
	if err := json.Unmarshal([]byte(payload), &u); err != nil {
		return nil, err
	}
	u.ID = id
	return &u, nil
}

func toNullInt64(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UTC().Unix(), Valid: true}
}

func fromNullInt64(ns sql.NullInt64) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := time.Unix(ns.Int64, 0).UTC()
	return &t
}
