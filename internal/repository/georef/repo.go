// Package georef reads the province / city / barangay reference hierarchy from SQL.
package georef

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/kailas-cloud/idintake/internal/domain"
	"github.com/kailas-cloud/idintake/internal/domain/geo"
)

// DefaultLimit caps a search result window.
const DefaultLimit = 20

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Repo implements address.Reference over sqlx.
type Repo struct {
	db    *sqlx.DB
	limit int
}

// New creates a reference repository.
func New(db *sqlx.DB) *Repo {
	return &Repo{db: db, limit: DefaultLimit}
}

// WithLimit overrides the result window.
func (r *Repo) WithLimit(n int) *Repo {
	if n > 0 {
		r.limit = n
	}
	return r
}

// Ping checks connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping reference db: %w", err)
	}
	return nil
}

// Search returns entries whose name contains text (case-insensitive), ordered by
// name and capped at the result window. An empty parentCode means unscoped,
// which barangays do not allow.
func (r *Repo) Search(ctx context.Context, level geo.Level, text, parentCode string) ([]geo.Entry, error) {
	lt, ok := levelTables[level]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidLevel, level)
	}
	if level == geo.LevelBarangay && parentCode == "" {
		return nil, fmt.Errorf("search barangays: %w", domain.ErrScopeRequired)
	}

	pattern := "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(text))) + "%"
	args := []any{pattern}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s WHERE LOWER(name) LIKE ? ESCAPE '\\'", lt.selectCols, lt.table)
	if parentCode != "" && lt.parentCol != "" {
		fmt.Fprintf(&sb, " AND %s = ?", lt.parentCol)
		args = append(args, parentCode)
	}
	sb.WriteString(" ORDER BY name LIMIT ?")
	args = append(args, r.limit)

	var rows []entryRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(sb.String()), args...); err != nil {
		return nil, fmt.Errorf("search %s: %w", lt.table, err)
	}

	out := make([]geo.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain(level))
	}
	return out, nil
}

// Upsert inserts or replaces reference entries in one transaction.
// Parents must be upserted before children.
func (r *Repo) Upsert(ctx context.Context, entries []geo.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range entries {
		query, args, err := upsertStatement(e)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("upsert %s %s: %w", e.Level, e.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

func upsertStatement(e geo.Entry) (string, []any, error) {
	if e.Code == "" || e.Name == "" {
		return "", nil, fmt.Errorf("reference entry requires code and name")
	}
	switch e.Level {
	case geo.LevelProvince:
		return `INSERT INTO provinces (code, name) VALUES (?, ?)
			ON CONFLICT (code) DO UPDATE SET name = excluded.name`,
			[]any{e.Code, e.Name}, nil
	case geo.LevelCity:
		if e.ParentCode == "" {
			return "", nil, fmt.Errorf("city %s: %w", e.Code, domain.ErrScopeRequired)
		}
		kind := e.Kind
		if kind == "" {
			kind = geo.KindMunicipality
		}
		return `INSERT INTO cities (code, name, province_code, zip_code, type) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (code) DO UPDATE SET name = excluded.name, province_code = excluded.province_code,
				zip_code = excluded.zip_code, type = excluded.type`,
			[]any{e.Code, e.Name, e.ParentCode, e.ZipCode, string(kind)}, nil
	case geo.LevelBarangay:
		if e.ParentCode == "" {
			return "", nil, fmt.Errorf("barangay %s: %w", e.Code, domain.ErrScopeRequired)
		}
		return `INSERT INTO barangays (code, name, city_code) VALUES (?, ?, ?)
			ON CONFLICT (code) DO UPDATE SET name = excluded.name, city_code = excluded.city_code`,
			[]any{e.Code, e.Name, e.ParentCode}, nil
	default:
		return "", nil, fmt.Errorf("%w: %q", domain.ErrInvalidLevel, e.Level)
	}
}
