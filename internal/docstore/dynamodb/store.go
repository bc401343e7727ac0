// Package dynamodb implements docstore.Store on Amazon DynamoDB. Each
// collection maps to one table with hash key pk and range key id.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ancillary-api/internal/clock"
	"ancillary-api/internal/docstore"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

const maxUpsertAttempts = 5

// API is the subset of the DynamoDB client the store uses.
type API interface {
	GetItem(ctx context.Context, params *ddb.GetItemInput, optFns ...func(*ddb.Options)) (*ddb.GetItemOutput, error)
	PutItem(ctx context.Context, params *ddb.PutItemInput, optFns ...func(*ddb.Options)) (*ddb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *ddb.DeleteItemInput, optFns ...func(*ddb.Options)) (*ddb.DeleteItemOutput, error)
	Query(ctx context.Context, params *ddb.QueryInput, optFns ...func(*ddb.Options)) (*ddb.QueryOutput, error)
	Scan(ctx context.Context, params *ddb.ScanInput, optFns ...func(*ddb.Options)) (*ddb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *ddb.DescribeTableInput, optFns ...func(*ddb.Options)) (*ddb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *ddb.CreateTableInput, optFns ...func(*ddb.Options)) (*ddb.CreateTableOutput, error)
	DescribeTimeToLive(ctx context.Context, params *ddb.DescribeTimeToLiveInput, optFns ...func(*ddb.Options)) (*ddb.DescribeTimeToLiveOutput, error)
	UpdateTimeToLive(ctx context.Context, params *ddb.UpdateTimeToLiveInput, optFns ...func(*ddb.Options)) (*ddb.UpdateTimeToLiveOutput, error)
	ListTables(ctx context.Context, params *ddb.ListTablesInput, optFns ...func(*ddb.Options)) (*ddb.ListTablesOutput, error)
}

// Options configures a Store.
type Options struct {
	TablePrefix string
	Clock       clock.Clock
}

// Store is a DynamoDB-backed docstore.Store.
type Store struct {
	client API
	prefix string
	clock  clock.Clock
	logger zerolog.Logger
}

// New creates a store over client.
func New(client API, opts Options, logger zerolog.Logger) *Store {
	clk := opts.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Store{
		client: client,
		prefix: opts.TablePrefix,
		clock:  clk,
		logger: logger.With().Str("component", "dynamodb").Logger(),
	}
}

// TableName returns the table backing collection.
func (s *Store) TableName(collection string) string {
	return s.prefix + collection
}

func itemKey(id, partitionKey string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: partitionKey},
		attrID: &types.AttributeValueMemberS{Value: id},
	}
}

func (s *Store) expiresAt(item docstore.Item) time.Time {
	if item.TTL <= 0 {
		return time.Time{}
	}
	return s.clock.Now().Add(item.TTL)
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func (s *Store) getRaw(ctx context.Context, collection, id, partitionKey string) (map[string]types.AttributeValue, error) {
	out, err := s.client.GetItem(ctx, &ddb.GetItemInput{
		TableName:      aws.String(s.TableName(collection)),
		Key:            itemKey(id, partitionKey),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return out.Item, nil
}

func (s *Store) Get(ctx context.Context, collection, id, partitionKey string) (*docstore.Item, error) {
	av, err := s.getRaw(ctx, collection, id, partitionKey)
	if err != nil {
		return nil, docstore.WrapError("get", collection, err)
	}
	if av == nil || expiredAt(av, s.clock.Now()) {
		return nil, nil
	}

	item, err := decodeItem(av)
	if err != nil {
		return nil, docstore.WrapError("get", collection, err)
	}
	return &item, nil
}

func (s *Store) Create(ctx context.Context, collection string, item docstore.Item) (*docstore.Item, error) {
	av, err := encodeItem(item, 1, s.expiresAt(item))
	if err != nil {
		return nil, docstore.WrapError("create", collection, err)
	}

	// An item past its TTL that DynamoDB has not removed yet may be overwritten.
	cond := expression.Or(
		expression.AttributeNotExists(expression.Name(attrID)),
		expression.Name(attrExpiresAt).LessThanEqual(expression.Value(s.clock.Now().Unix())),
	)
	if err := s.putConditional(ctx, collection, av, cond); err != nil {
		if isConditionFailed(err) {
			return nil, docstore.ErrConflict
		}
		return nil, docstore.WrapError("create", collection, err)
	}

	item.Version = 1
	return &item, nil
}

// Upsert replaces the whole item and bumps its version. The version read and
// the write are tied together with a condition so concurrent upserts never
// produce the same version twice.
func (s *Store) Upsert(ctx context.Context, collection string, item docstore.Item) (*docstore.Item, error) {
	for attempt := 0; attempt < maxUpsertAttempts; attempt++ {
		current, err := s.getRaw(ctx, collection, item.ID, item.PartitionKey)
		if err != nil {
			return nil, docstore.WrapError("upsert", collection, err)
		}

		var (
			cond expression.ConditionBuilder
			next int64 = 1
		)
		if current == nil {
			cond = expression.AttributeNotExists(expression.Name(attrID))
		} else {
			prev, err := intAttr(current, attrVersion)
			if err != nil {
				return nil, docstore.WrapError("upsert", collection, err)
			}
			cond = expression.Name(attrVersion).Equal(expression.Value(prev))
			if !expiredAt(current, s.clock.Now()) {
				next = prev + 1
			}
		}

		av, err := encodeItem(item, next, s.expiresAt(item))
		if err != nil {
			return nil, docstore.WrapError("upsert", collection, err)
		}

		err = s.putConditional(ctx, collection, av, cond)
		if err == nil {
			item.Version = next
			return &item, nil
		}
		if !isConditionFailed(err) {
			return nil, docstore.WrapError("upsert", collection, err)
		}

		s.logger.Debug().
			Str("collection", collection).
			Str("id", item.ID).
			Int("attempt", attempt+1).
			Msg("upsert raced with another writer, retrying")
	}

	return nil, docstore.WrapError("upsert", collection,
		fmt.Errorf("item %s still contended after %d attempts", item.ID, maxUpsertAttempts))
}

func (s *Store) Replace(ctx context.Context, collection string, item docstore.Item, expectedVersion int64) (*docstore.Item, error) {
	next := expectedVersion + 1
	av, err := encodeItem(item, next, s.expiresAt(item))
	if err != nil {
		return nil, docstore.WrapError("replace", collection, err)
	}

	cond := expression.Name(attrVersion).Equal(expression.Value(expectedVersion)).
		And(liveCondition(s.clock.Now()))
	if err := s.putConditional(ctx, collection, av, cond); err != nil {
		if isConditionFailed(err) {
			return nil, docstore.ErrPreconditionFailed
		}
		return nil, docstore.WrapError("replace", collection, err)
	}

	item.Version = next
	return &item, nil
}

func (s *Store) putConditional(ctx context.Context, collection string, av map[string]types.AttributeValue, cond expression.ConditionBuilder) error {
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = s.client.PutItem(ctx, &ddb.PutItemInput{
		TableName:                 aws.String(s.TableName(collection)),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return err
}

func (s *Store) Delete(ctx context.Context, collection, id, partitionKey string) error {
	_, err := s.client.DeleteItem(ctx, &ddb.DeleteItemInput{
		TableName: aws.String(s.TableName(collection)),
		Key:       itemKey(id, partitionKey),
	})
	if err != nil {
		return docstore.WrapError("delete", collection, err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Item, error) {
	if err := q.Validate(); err != nil {
		return nil, docstore.WrapError("query", collection, err)
	}

	now := s.clock.Now()
	expr, err := buildQueryExpression(q, now)
	if err != nil {
		return nil, docstore.WrapError("query", collection, fmt.Errorf("failed to build expression: %w", err))
	}

	var matched []docstore.Item
	// Without a sort the first Limit matches are final, so paging can stop early.
	collect := func(page []map[string]types.AttributeValue) (bool, error) {
		for _, av := range page {
			if expiredAt(av, now) {
				continue
			}
			item, err := decodeItem(av)
			if err != nil {
				return false, err
			}
			doc, err := docstore.DecodeDocument(item.Body)
			if err != nil {
				return false, err
			}
			if docstore.Match(doc, q.Predicates) {
				matched = append(matched, item)
			}
		}
		return q.Sort == nil && q.Limit > 0 && len(matched) >= q.Limit, nil
	}

	table := aws.String(s.TableName(collection))
	if q.PartitionKey != "" {
		p := ddb.NewQueryPaginator(s.client, &ddb.QueryInput{
			TableName:                 table,
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ConsistentRead:            aws.Bool(true),
		})
		for p.HasMorePages() {
			out, err := p.NextPage(ctx)
			if err != nil {
				return nil, docstore.WrapError("query", collection, err)
			}
			done, err := collect(out.Items)
			if err != nil {
				return nil, docstore.WrapError("query", collection, err)
			}
			if done {
				break
			}
		}
	} else {
		p := ddb.NewScanPaginator(s.client, &ddb.ScanInput{
			TableName:                 table,
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ConsistentRead:            aws.Bool(true),
		})
		for p.HasMorePages() {
			out, err := p.NextPage(ctx)
			if err != nil {
				return nil, docstore.WrapError("query", collection, err)
			}
			done, err := collect(out.Items)
			if err != nil {
				return nil, docstore.WrapError("query", collection, err)
			}
			if done {
				break
			}
		}
	}

	items, err := docstore.Evaluate(matched, docstore.Query{Sort: q.Sort, Limit: q.Limit})
	if err != nil {
		return nil, docstore.WrapError("query", collection, err)
	}
	return items, nil
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.ListTables(ctx, &ddb.ListTablesInput{Limit: aws.Int32(1)})
	if err != nil {
		return fmt.Errorf("failed to reach dynamodb: %w", err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *Store) Close() {}

// EnsureTables creates the tables for collections when missing and, when
// enableTTL is set, turns on the table TTL attribute.
func (s *Store) EnsureTables(ctx context.Context, enableTTL bool, collections ...string) error {
	for _, collection := range collections {
		table := s.TableName(collection)

		if err := s.ensureTable(ctx, table); err != nil {
			return fmt.Errorf("failed to ensure table %s: %w", table, err)
		}
		if enableTTL {
			if err := s.ensureTTL(ctx, table); err != nil {
				return fmt.Errorf("failed to enable ttl on %s: %w", table, err)
			}
		}
	}
	return nil
}

func (s *Store) ensureTable(ctx context.Context, table string) error {
	_, err := s.client.DescribeTable(ctx, &ddb.DescribeTableInput{TableName: aws.String(table)})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return err
	}

	s.logger.Info().Str("table", table).Msg("creating table")

	_, err = s.client.CreateTable(ctx, &ddb.CreateTableInput{
		TableName: aws.String(table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrPK), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrID), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrPK), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(attrID), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return nil
		}
		return err
	}

	waiter := ddb.NewTableExistsWaiter(s.client)
	return waiter.Wait(ctx, &ddb.DescribeTableInput{TableName: aws.String(table)}, 2*time.Minute)
}

func (s *Store) ensureTTL(ctx context.Context, table string) error {
	out, err := s.client.DescribeTimeToLive(ctx, &ddb.DescribeTimeToLiveInput{TableName: aws.String(table)})
	if err != nil {
		return err
	}
	if d := out.TimeToLiveDescription; d != nil {
		switch d.TimeToLiveStatus {
		case types.TimeToLiveStatusEnabled, types.TimeToLiveStatusEnabling:
			return nil
		}
	}

	_, err = s.client.UpdateTimeToLive(ctx, &ddb.UpdateTimeToLiveInput{
		TableName: aws.String(table),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: aws.String(attrExpiresAt),
			Enabled:       aws.Bool(true),
		},
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("table", table).Str("attribute", attrExpiresAt).Msg("enabled table ttl")
	return nil
}

var _ docstore.Store = (*Store)(nil)
