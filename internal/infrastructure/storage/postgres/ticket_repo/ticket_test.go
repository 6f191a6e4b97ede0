package ticket_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueldesk/internal/domain"
	"fueldesk/internal/domain/ticket"
)

func TestSelectColumns_PendingPeriodReadsAsZero(t *testing.T) {
	assert.Equal(t, "id", selectColumns[0])
	assert.Len(t, selectColumns, len(writeColumns)+1)
	assert.Contains(t, selectColumns, "COALESCE(quota_period_id, 0) AS quota_period_id")
	assert.NotContains(t, selectColumns, "quota_period_id")
}

func TestValuesMatchColumns(t *testing.T) {
	tk := &ticket.Ticket{Code: "A-1", Plate: "SPMB0001"}
	vals := values(tk)
	require.Len(t, vals, len(writeColumns))

	for i, col := range writeColumns {
		switch col {
		case "code":
			assert.Equal(t, "A-1", vals[i])
		case "plate":
			assert.Equal(t, "SPMB0001", vals[i])
		case "quota_period_id":
			assert.Nil(t, vals[i])
		}
	}
}

func TestFiltered(t *testing.T) {
	r := &Repo{}
	unit := int64(4)

	sql, args, err := r.filtered(ticket.Filter{
		ListFilter: domain.ListFilter{Search: "spmb"},
		Statuses:   []ticket.Status{ticket.StatusPending, ticket.StatusApproved},
		UnitID:     &unit,
		Plate:      "SPMB0001",
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM tickets WHERE status IN ($1,$2) AND unit_id = $3 AND plate = $4")
	assert.Contains(t, sql, "(code ILIKE $5 OR plate ILIKE $6)")
	assert.Equal(t, []any{ticket.StatusPending, ticket.StatusApproved, int64(4), "SPMB0001", "%spmb%", "%spmb%"}, args)
}
