package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
	"github.com/google/uuid"
)

// listClause renders the WHERE and ORDER BY clauses of a normalized query.
// Field names have been checked against the repository allow lists, so they
// are safe to interpolate. Conditions already present are ANDed in.
func listClause(q repositories.Query, conditions []string, args []interface{}) (string, []interface{}) {
	if q.Where != nil {
		conditions = append(conditions, q.Where.Field+" = ?")
		args = append(args, q.Where.Equals)
	}

	var b strings.Builder
	if len(conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}
	dir := "ASC"
	if q.Direction == repositories.Desc {
		dir = "DESC"
	}
	// rowid keeps insertion order among equal keys
	fmt.Fprintf(&b, " ORDER BY %s %s, rowid %s", q.OrderBy, dir, dir)
	return b.String(), args
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}

func now() time.Time {
	return time.Now().UTC()
}

func encodeJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode column: %w", err)
	}
	return string(data), nil
}

func decodeJSON(raw string, v interface{}) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to decode column: %w", err)
	}
	return nil
}

// notFound maps sql.ErrNoRows to repositories.ErrNotFound
func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, repositories.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// checkAffected returns ErrNotFound when an UPDATE or DELETE matched nothing
func checkAffected(result sql.Result, what, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", what, id, repositories.ErrNotFound)
	}
	return nil
}
