package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vitorbastosbn/nutricionista/pkg/pagination"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s anywhere, with LIKE
// metacharacters in s taken literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// orderBy renders an ORDER BY clause from an allowlisted sort field, with id
// as a tie-breaker so pages are stable.
func orderBy(p pagination.Params, columns map[string]string, fallback string) string {
	col, ok := columns[p.SortBy]
	if !ok {
		col = fallback
	}
	dir := "ASC"
	if ok && p.SortDesc {
		dir = "DESC"
	}
	prefix, _, _ := strings.Cut(col, ".")
	return fmt.Sprintf(" ORDER BY %s %s, %s.id", col, dir, prefix)
}
