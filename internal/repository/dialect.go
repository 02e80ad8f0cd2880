package repository

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// The production schema lives in Postgres; repository tests run against an
// in-memory SQLite. The few expressions that differ are isolated here.

func isPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

// dayExpr formats a timestamp column as YYYY-MM-DD.
func dayExpr(db *gorm.DB, col string) string {
	if isPostgres(db) {
		return "TO_CHAR(" + col + ", 'YYYY-MM-DD')"
	}
	return "strftime('%Y-%m-%d', " + col + ")"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive substring pattern for LIKE ... ESCAPE '\'.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// likeAny returns "(LOWER(c1) LIKE ? ESCAPE '\' OR ...)" and its arguments,
// one per column, all bound to the same pattern.
func likeAny(pattern string, cols ...string) (string, []any) {
	parts := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		parts[i] = "LOWER(" + c + `) LIKE ? ESCAPE '\'`
		args[i] = pattern
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// applyRango restricts col to the optional [desde, hasta] window.
func applyRango(q *gorm.DB, col string, desde, hasta *time.Time) *gorm.DB {
	if desde != nil {
		q = q.Where(col+" >= ?", *desde)
	}
	if hasta != nil {
		q = q.Where(col+" <= ?", *hasta)
	}
	return q
}
