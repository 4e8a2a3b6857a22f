package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Postgres holds the server-side fields of a database error.
type Postgres struct {
	SQLState   string `json:"sqlstate"`
	Message    string `json:"message,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Constraint string `json:"constraint,omitempty"`
}

// Report is the log-only breakdown of an error. It is never sent to clients.
type Report struct {
	Code     Code      `json:"code"`
	Chain    []string  `json:"chain"`
	Postgres *Postgres `json:"postgres,omitempty"`
}

// Fields flattens the report for structured logging.
func (r Report) Fields() map[string]any {
	fields := map[string]any{"error_code": r.Code, "error_chain": r.Chain}
	if pg := r.Postgres; pg != nil {
		fields["pg_sqlstate"] = pg.SQLState
		fields["pg_message"] = pg.Message
		fields["pg_detail"] = pg.Detail
		fields["pg_table"] = pg.Table
		fields["pg_column"] = pg.Column
		fields["pg_constraint"] = pg.Constraint
	}
	return fields
}

// Inspect walks err's chain and extracts driver details from either
// pgx or lib/pq errors.
func Inspect(err error) Report {
	r := Report{Code: CodeOf(err)}
	for e := err; e != nil; e = stdErrors.Unwrap(e) {
		r.Chain = append(r.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgx *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case stdErrors.As(err, &pgx):
		r.Postgres = &Postgres{
			SQLState:   pgx.Code,
			Message:    pgx.Message,
			Detail:     pgx.Detail,
			Table:      pgx.TableName,
			Column:     pgx.ColumnName,
			Constraint: pgx.ConstraintName,
		}
	case stdErrors.As(err, &pqErr):
		r.Postgres = &Postgres{
			SQLState:   string(pqErr.Code),
			Message:    pqErr.Message,
			Detail:     pqErr.Detail,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Constraint: pqErr.Constraint,
		}
	}
	return r
}
