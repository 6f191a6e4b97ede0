package postgres

import (
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueldesk/internal/domain"
)

func TestWithListFilter(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	tests := []struct {
		name     string
		filter   domain.ListFilter
		timeCol  string
		cols     []string
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "empty filter adds nothing",
			wantSQL: "SELECT id FROM t",
		},
		{
			name:     "search over two columns",
			filter:   domain.ListFilter{Search: "abc"},
			cols:     []string{"code", "plate"},
			wantSQL:  "SELECT id FROM t WHERE (code ILIKE $1 OR plate ILIKE $2)",
			wantArgs: []any{"%abc%", "%abc%"},
		},
		{
			name:     "time range",
			filter:   domain.ListFilter{From: &from, To: &to},
			timeCol:  "created_at",
			wantSQL:  "SELECT id FROM t WHERE created_at >= $1 AND created_at <= $2",
			wantArgs: []any{from, to},
		},
		{
			name:    "time range ignored without a column",
			filter:  domain.ListFilter{From: &from},
			wantSQL: "SELECT id FROM t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := WithListFilter(Builder().Select("id").From("t"), tt.filter, tt.timeCol, tt.cols...)
			sql, args, err := q.ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, len(tt.wantArgs), len(args))
			for i := range tt.wantArgs {
				assert.Equal(t, tt.wantArgs[i], args[i])
			}
		})
	}
}

func TestConstraintErrors(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "tickets_code_key"})
	check := &pgconn.PgError{Code: "23514", ConstraintName: "tanks_level_check"}
	fk := &pgconn.PgError{Code: "23503"}

	assert.True(t, IsUniqueViolation(unique, ""))
	assert.True(t, IsUniqueViolation(unique, "tickets_code_key"))
	assert.False(t, IsUniqueViolation(unique, "tickets_active_plate_key"))
	assert.False(t, IsUniqueViolation(check, ""))

	assert.True(t, IsCheckViolation(check, "tanks_level_check"))
	assert.False(t, IsCheckViolation(check, "dispensing_points_level_check"))

	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(fmt.Errorf("plain")))
}
