package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// ReferenceRepository reads known-IP texts from the reference_texts table.
type ReferenceRepository struct {
	db *sql.DB
}

func NewReferenceRepository(db *sql.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// References returns up to limit texts ordered by id.
func (r *ReferenceRepository) References(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT body
FROM reference_texts
WHERE body IS NOT NULL AND body <> ''
ORDER BY id
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		if body = strings.TrimSpace(body); body != "" {
			out = append(out, body)
		}
	}
	return out, rows.Err()
}

// Check implements middleware.HealthChecker.
func (r *ReferenceRepository) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.db.PingContext(ctx)
}
