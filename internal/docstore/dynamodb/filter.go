package dynamodb

import (
	"time"

	"ancillary-api/internal/docstore"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
)

// buildQueryExpression translates the parts of q DynamoDB can evaluate
// server-side. Every predicate is still re-checked client-side, so pushdown
// only has to return a superset of the matching items.
func buildQueryExpression(q docstore.Query, now time.Time) (expression.Expression, error) {
	filter := liveCondition(now)
	partitioned := q.PartitionKey != ""

	var key expression.KeyConditionBuilder
	if partitioned {
		key = expression.Key(attrPK).Equal(expression.Value(q.PartitionKey))
	}

	for _, p := range q.Predicates {
		// Key attributes cannot appear in a Query filter.
		if partitioned && (p.Field == attrID || p.Field == attrPK) {
			if id, ok := p.Value.(string); ok && p.Field == attrID && p.Op == docstore.OpEq {
				key = key.And(expression.Key(attrID).Equal(expression.Value(id)))
			}
			continue
		}
		if cond, ok := pushdown(p); ok {
			filter = filter.And(cond)
		}
	}

	b := expression.NewBuilder().WithFilter(filter)
	if partitioned {
		b = b.WithKeyCondition(key)
	}
	return b.Build()
}

// liveCondition hides items whose TTL has passed but which DynamoDB has not
// deleted yet.
func liveCondition(now time.Time) expression.ConditionBuilder {
	return expression.Or(
		expression.AttributeNotExists(expression.Name(attrExpiresAt)),
		expression.Name(attrExpiresAt).GreaterThan(expression.Value(now.Unix())),
	)
}

// pushdown handles string comparisons and boolean equality. Numbers, decimals
// and timestamps are stored in formats DynamoDB cannot order the way the
// domain does, so they are left to the client.
func pushdown(p docstore.Predicate) (expression.ConditionBuilder, bool) {
	name := expression.Name(p.Field)

	switch v := p.Value.(type) {
	case string:
		val := expression.Value(v)
		switch p.Op {
		case docstore.OpEq:
			return name.Equal(val), true
		case docstore.OpNe:
			return name.NotEqual(val), true
		case docstore.OpLt:
			return name.LessThan(val), true
		case docstore.OpLe:
			return name.LessThanEqual(val), true
		case docstore.OpGt:
			return name.GreaterThan(val), true
		case docstore.OpGe:
			return name.GreaterThanEqual(val), true
		}
	case bool:
		val := expression.Value(v)
		switch p.Op {
		case docstore.OpEq:
			return name.Equal(val), true
		case docstore.OpNe:
			return name.NotEqual(val), true
		}
	}
	return expression.ConditionBuilder{}, false
}
