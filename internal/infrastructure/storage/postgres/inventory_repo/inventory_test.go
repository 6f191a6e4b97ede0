package inventory_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueldesk/internal/domain/inventory"
)

func TestMovementQuery(t *testing.T) {
	owner := int64(9)

	tests := []struct {
		name      string
		filter    inventory.MovementFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name: "no filter",
		},
		{
			name:      "owner",
			filter:    inventory.MovementFilter{OwnerKind: inventory.OwnerTank, OwnerID: &owner},
			wantWhere: " WHERE owner_kind = $1 AND owner_id = $2",
			wantArgs:  []any{inventory.OwnerTank, int64(9)},
		},
		{
			name:      "kind",
			filter:    inventory.MovementFilter{Kind: inventory.MovementEvaporation},
			wantWhere: " WHERE kind = $1",
			wantArgs:  []any{inventory.MovementEvaporation},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := movementQuery(tt.filter).ToSql()
			require.NoError(t, err)
			assert.True(t, len(sql) > 0)
			if tt.wantWhere == "" {
				assert.NotContains(t, sql, "WHERE")
				assert.Empty(t, args)
				return
			}
			assert.Contains(t, sql, "FROM inventory_movements"+tt.wantWhere)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
