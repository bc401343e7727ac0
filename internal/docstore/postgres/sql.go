package postgres

import (
	"fmt"
	"strings"
	"time"

	"ancillary-api/internal/docstore"

	"github.com/shopspring/decimal"
)

const schema = `
	CREATE TABLE IF NOT EXISTS documents (
		collection    TEXT        NOT NULL,
		partition_key TEXT        NOT NULL,
		id            TEXT        NOT NULL,
		body          JSONB       NOT NULL,
		version       BIGINT      NOT NULL,
		expires_at    TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (collection, partition_key, id)
	);

	CREATE INDEX IF NOT EXISTS idx_documents_collection_id ON documents (collection, id);
	CREATE INDEX IF NOT EXISTS idx_documents_body ON documents USING GIN (body jsonb_path_ops);
`

const (
	getSQL = `
		SELECT body, version
		FROM documents
		WHERE collection = $1 AND partition_key = $2 AND id = $3
		  AND (expires_at IS NULL OR expires_at > $4)`

	// An existing row only blocks the insert while it is live.
	createSQL = `
		INSERT INTO documents (collection, partition_key, id, body, version, expires_at)
		VALUES ($1, $2, $3, $4, 1, $5)
		ON CONFLICT (collection, partition_key, id) DO UPDATE
		SET body = EXCLUDED.body, version = 1, expires_at = EXCLUDED.expires_at,
		    created_at = NOW(), updated_at = NOW()
		WHERE documents.expires_at IS NOT NULL AND documents.expires_at <= $6
		RETURNING version`

	upsertSQL = `
		INSERT INTO documents (collection, partition_key, id, body, version, expires_at)
		VALUES ($1, $2, $3, $4, 1, $5)
		ON CONFLICT (collection, partition_key, id) DO UPDATE
		SET body = EXCLUDED.body,
		    version = CASE
		        WHEN documents.expires_at IS NOT NULL AND documents.expires_at <= $6 THEN 1
		        ELSE documents.version + 1
		    END,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = NOW()
		RETURNING version`

	replaceSQL = `
		UPDATE documents
		SET body = $4, version = version + 1, expires_at = $5, updated_at = NOW()
		WHERE collection = $1 AND partition_key = $2 AND id = $3
		  AND version = $6
		  AND (expires_at IS NULL OR expires_at > $7)
		RETURNING version`

	deleteSQL = `DELETE FROM documents WHERE collection = $1 AND partition_key = $2 AND id = $3`
)

// numericPattern accepts the plain decimal strings money amounts are stored as.
const numericPattern = `'^-?[0-9]+(\.[0-9]+)?$'`

// timePattern guards timestamptz casts against arbitrary strings.
const timePattern = `'^[0-9]{4}-[0-9]{2}-[0-9]{2}T'`

type queryBuilder struct {
	args []any
}

func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *queryBuilder) path(field string) string {
	return b.arg(strings.Split(field, ".")) + "::text[]"
}

// textExpr compares by byte order, matching the other backends.
func textExpr(path string) string {
	return fmt.Sprintf("((body #>> %s) COLLATE \"C\")", path)
}

func boolExpr(path string) string {
	return fmt.Sprintf("(CASE WHEN jsonb_typeof(body #> %[1]s) = 'boolean' THEN (body #>> %[1]s)::boolean END)", path)
}

// numericExpr reads JSON numbers and decimal strings alike.
func numericExpr(path string) string {
	return fmt.Sprintf(
		"(CASE WHEN jsonb_typeof(body #> %[1]s) = 'number' THEN (body #>> %[1]s)::numeric "+
			"WHEN jsonb_typeof(body #> %[1]s) = 'string' AND (body #>> %[1]s) ~ %[2]s THEN (body #>> %[1]s)::numeric END)",
		path, numericPattern)
}

func timeExpr(path string) string {
	return fmt.Sprintf(
		"(CASE WHEN jsonb_typeof(body #> %[1]s) = 'string' AND (body #>> %[1]s) ~ %[2]s THEN (body #>> %[1]s)::timestamptz END)",
		path, timePattern)
}

func (b *queryBuilder) predicate(p docstore.Predicate) (string, error) {
	path := b.path(p.Field)

	switch v := p.Value.(type) {
	case string:
		return fmt.Sprintf("%s %s %s", textExpr(path), p.Op, b.arg(v)), nil
	case bool:
		return fmt.Sprintf("%s %s %s", boolExpr(path), p.Op, b.arg(v)), nil
	case int:
		return fmt.Sprintf("%s %s %s::numeric", numericExpr(path), p.Op, b.arg(decimal.NewFromInt(int64(v)).String())), nil
	case float64:
		return fmt.Sprintf("%s %s %s::numeric", numericExpr(path), p.Op, b.arg(decimal.NewFromFloat(v).String())), nil
	case decimal.Decimal:
		return fmt.Sprintf("%s %s %s::numeric", numericExpr(path), p.Op, b.arg(v.String())), nil
	case time.Time:
		return fmt.Sprintf("%s %s %s::timestamptz", timeExpr(path), p.Op, b.arg(v)), nil
	}
	return "", fmt.Errorf("unsupported parameter type %T for field %s", p.Value, p.Field)
}

func (b *queryBuilder) orderBy(s docstore.Sort) string {
	path := b.path(s.Field)

	var expr string
	switch s.Kind {
	case docstore.SortNumber:
		expr = numericExpr(path)
	case docstore.SortTime:
		expr = timeExpr(path)
	default:
		expr = textExpr(path)
	}

	dir := "ASC"
	if s.Descending {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s NULLS LAST, id", expr, dir)
}

// buildQuery renders q as a SELECT over the documents table.
func buildQuery(collection string, q docstore.Query, now time.Time) (string, []any, error) {
	b := &queryBuilder{}

	var sb strings.Builder
	sb.WriteString("SELECT partition_key, id, body, version FROM documents WHERE collection = ")
	sb.WriteString(b.arg(collection))
	sb.WriteString(" AND (expires_at IS NULL OR expires_at > ")
	sb.WriteString(b.arg(now))
	sb.WriteString(")")

	if q.PartitionKey != "" {
		sb.WriteString(" AND partition_key = ")
		sb.WriteString(b.arg(q.PartitionKey))
	}

	for _, p := range q.Predicates {
		cond, err := b.predicate(p)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" AND ")
		sb.WriteString(cond)
	}

	if q.Sort != nil {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(b.orderBy(*q.Sort))
	}

	if q.Limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(b.arg(q.Limit))
	}

	return sb.String(), b.args, nil
}
