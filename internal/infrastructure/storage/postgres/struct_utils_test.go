package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type scopeRow struct {
	UnitID int64  `db:"unit_id"`
	Sub    *int64 `db:"subunit_id"`
}

type baseRow struct {
	ID int64 `db:"id"`
	scopeRow
	Amount   int64  `db:"monthly_amount"`
	Computed string `db:"-"`
	Note     string
}

func TestExtractDBColumns(t *testing.T) {
	assert.Equal(t,
		[]string{"id", "unit_id", "subunit_id", "monthly_amount"},
		ExtractDBColumns[baseRow]())
	assert.Equal(t, ExtractDBColumns[baseRow](), ExtractDBColumns[*baseRow]())
	assert.Nil(t, ExtractDBColumns[int]())
}
