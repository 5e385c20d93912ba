package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryNormalize(t *testing.T) {
	orderable := []string{"created_at", "name"}
	filterable := []string{"floor_id"}

	q, err := Query{}.Normalize(orderable, filterable)
	require.NoError(t, err)
	assert.Equal(t, "created_at", q.OrderBy)
	assert.Equal(t, Asc, q.Direction)

	q, err = Query{OrderBy: "name", Direction: "DESC", Where: &Filter{Field: "floor_id", Equals: "f1"}}.Normalize(orderable, filterable)
	require.NoError(t, err)
	assert.Equal(t, Desc, q.Direction)

	tests := []Query{
		{OrderBy: "price"},
		{Direction: "sideways"},
		{Where: &Filter{Field: "name", Equals: "x"}},
	}
	for _, bad := range tests {
		_, err := bad.Normalize(orderable, filterable)
		assert.ErrorIs(t, err, ErrInvalidQuery)
	}
}
