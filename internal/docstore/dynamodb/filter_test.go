package dynamodb

import (
	"testing"
	"time"

	"ancillary-api/internal/docstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nameSet(names map[string]string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}

func TestBuildQueryExpression_Scan(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	expr, err := buildQueryExpression(docstore.Query{
		Predicates: []docstore.Predicate{
			docstore.Eq("status", "Active"),
			docstore.Eq("id", "o1"),
			docstore.Gt("price", decimal.RequireFromString("10")),
			docstore.Lt("createdAt", now),
		},
	}, now)
	require.NoError(t, err)

	assert.Nil(t, expr.KeyCondition())
	require.NotNil(t, expr.Filter())

	names := nameSet(expr.Names())
	assert.True(t, names["status"])
	assert.True(t, names["id"])
	assert.True(t, names[attrExpiresAt])
	assert.False(t, names["price"], "decimal comparisons stay client-side")
	assert.False(t, names["createdAt"], "time comparisons stay client-side")
}

func TestBuildQueryExpression_Partition(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	expr, err := buildQueryExpression(docstore.Query{
		PartitionKey: "FL1",
		Predicates: []docstore.Predicate{
			docstore.Eq("id", "o1"),
			docstore.Eq("customerInfo.email", "a@b.c"),
			docstore.Ne("refundable", true),
		},
	}, now)
	require.NoError(t, err)

	require.NotNil(t, expr.KeyCondition())
	require.NotNil(t, expr.Filter())

	names := nameSet(expr.Names())
	assert.True(t, names[attrPK])
	assert.True(t, names[attrID])
	assert.True(t, names["customerInfo"])
	assert.True(t, names["email"])
	assert.True(t, names["refundable"])
}

func TestPushdown(t *testing.T) {
	_, ok := pushdown(docstore.Eq("status", "Active"))
	assert.True(t, ok)

	_, ok = pushdown(docstore.Ge("title", "A"))
	assert.True(t, ok)

	_, ok = pushdown(docstore.Eq("refundable", false))
	assert.True(t, ok)

	_, ok = pushdown(docstore.Eq("ttl", 2400))
	assert.False(t, ok)

	_, ok = pushdown(docstore.Le("price", decimal.NewFromInt(5)))
	assert.False(t, ok)
}
