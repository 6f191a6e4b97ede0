package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"fueldesk/internal/core/apperror"
	"fueldesk/internal/domain"
)

// PostgreSQL error codes the repositories translate.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// Builder returns a squirrel builder using $N placeholders.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// GetOne scans the single row selected by q into a new T.
// No rows becomes apperror NotFound for entity/key.
func GetOne[T any](ctx context.Context, db Querier, q squirrel.Sqlizer, entity string, key any) (*T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	out := new(T)
	if err := pgxscan.Get(ctx, db, out, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(entity, key)
		}
		return nil, fmt.Errorf("get %s: %w", entity, err)
	}
	return out, nil
}

// SelectAll scans every row selected by q.
func SelectAll[T any](ctx context.Context, db Querier, q squirrel.Sqlizer) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := make([]T, 0)
	if err := pgxscan.Select(ctx, db, &items, sql, args...); err != nil {
		return nil, err
	}
	return items, nil
}

// SelectPage counts the rows matched by q, then returns the requested page ordered by orderBy.
func SelectPage[T any](ctx context.Context, db Querier, q squirrel.SelectBuilder, f domain.ListFilter, orderBy ...string) (domain.ListResult[T], error) {
	f.Normalize()
	result := domain.ListResult[T]{Items: make([]T, 0), Limit: f.Limit, Offset: f.Offset}

	countSQL, countArgs, err := Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub").
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := db.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}
	if result.TotalCount == 0 {
		return result, nil
	}

	sql, args, err := q.
		OrderBy(orderBy...).
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset)).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, db, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list: %w", err)
	}
	return result, nil
}

// InsertReturningID runs q with RETURNING id.
func InsertReturningID(ctx context.Context, db Querier, q squirrel.InsertBuilder) (int64, error) {
	sql, args, err := q.Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	var id int64
	if err := db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// ExecAffected runs q and returns the affected row count.
func ExecAffected(ctx context.Context, db Querier, q squirrel.Sqlizer) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build statement: %w", err)
	}

	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// WithListFilter applies the shared search and time-range filters.
// timeCol is the list's primary timestamp; searchCols are matched with ILIKE.
func WithListFilter(q squirrel.SelectBuilder, f domain.ListFilter, timeCol string, searchCols ...string) squirrel.SelectBuilder {
	if f.Search != "" && len(searchCols) > 0 {
		pattern := "%" + f.Search + "%"
		or := make(squirrel.Or, 0, len(searchCols))
		for _, col := range searchCols {
			or = append(or, squirrel.ILike{col: pattern})
		}
		q = q.Where(or)
	}
	if timeCol != "" && f.From != nil {
		q = q.Where(squirrel.GtOrEq{timeCol: *f.From})
	}
	if timeCol != "" && f.To != nil {
		q = q.Where(squirrel.LtOrEq{timeCol: *f.To})
	}
	return q
}

// PgError extracts a PostgreSQL error with the given SQLSTATE.
func PgError(err error, code string) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return pgErr, true
	}
	return nil, false
}

// IsUniqueViolation reports a unique_violation, optionally on a specific constraint.
func IsUniqueViolation(err error, constraint string) bool {
	pgErr, ok := PgError(err, codeUniqueViolation)
	return ok && (constraint == "" || pgErr.ConstraintName == constraint)
}

// IsForeignKeyViolation reports a foreign_key_violation.
func IsForeignKeyViolation(err error) bool {
	_, ok := PgError(err, codeForeignKeyViolation)
	return ok
}

// IsCheckViolation reports a check_violation, optionally on a specific constraint.
func IsCheckViolation(err error, constraint string) bool {
	pgErr, ok := PgError(err, codeCheckViolation)
	return ok && (constraint == "" || pgErr.ConstraintName == constraint)
}
