package sqlstore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"
)

// Dialect selects the SQL flavour used by the store.
type Dialect string

const (
	// Postgres targets PostgreSQL through github.com/lib/pq.
	Postgres Dialect = "postgres"

	// MySQL targets MySQL/MariaDB through github.com/go-sql-driver/mysql.
	MySQL Dialect = "mysql"

	// SQLite targets SQLite through github.com/mattn/go-sqlite3.
	SQLite Dialect = "sqlite3"
)

var identifierRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// ParseDialect maps a driver or dialect name to a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pq":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", name)
	}
}

// validateIdentifier ensures an identifier contains only safe characters for SQL.
func validateIdentifier(name, fieldName string) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("%s must start with a letter and contain only letters, numbers, and underscores (got: %s)", fieldName, name)
	}
	return nil
}

// quote quotes an identifier for the dialect.
func (d Dialect) quote(name string) string {
	switch d {
	case Postgres:
		return pq.QuoteIdentifier(name)
	case MySQL:
		return "`" + name + "`"
	default:
		return `"` + name + `"`
	}
}

// placeholder returns the bind parameter for the n-th argument (1-based).
func (d Dialect) placeholder(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (d Dialect) placeholders(count int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = d.placeholder(i + 1)
	}
	return strings.Join(parts, ", ")
}

// upsertClause returns the conflict clause updating the given columns.
func (d Dialect) upsertClause(columns []string) string {
	sets := make([]string, len(columns))
	for i, col := range columns {
		if d == MySQL {
			sets[i] = fmt.Sprintf("%s = VALUES(%s)", col, col)
		} else {
			sets[i] = fmt.Sprintf("%s = excluded.%s", col, col)
		}
	}

	if d == MySQL {
		return "ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}
	return "ON CONFLICT (manager_id, shard_id) DO UPDATE SET " + strings.Join(sets, ", ")
}
