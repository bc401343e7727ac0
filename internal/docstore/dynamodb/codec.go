package dynamodb

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"ancillary-api/internal/docstore"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	attrPK        = "pk"
	attrID        = "id"
	attrVersion   = "_version"
	attrExpiresAt = "_expiresAt"
)

// encodeItem flattens a JSON body into top-level attributes and adds the key,
// version and expiry attributes. A body field named id is overwritten with the
// item id.
func encodeItem(item docstore.Item, version int64, expiresAt time.Time) (map[string]types.AttributeValue, error) {
	doc, err := docstore.DecodeDocument(item.Body)
	if err != nil {
		return nil, err
	}

	out := make(map[string]types.AttributeValue, len(doc)+4)
	for k, v := range doc {
		if k == attrPK || k == attrVersion || k == attrExpiresAt {
			return nil, fmt.Errorf("body field %q is reserved", k)
		}
		av, err := toAttributeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = av
	}

	out[attrPK] = &types.AttributeValueMemberS{Value: item.PartitionKey}
	out[attrID] = &types.AttributeValueMemberS{Value: item.ID}
	out[attrVersion] = numberAttr(version)
	if !expiresAt.IsZero() {
		out[attrExpiresAt] = numberAttr(expiryEpoch(expiresAt))
	}
	return out, nil
}

// decodeItem is the inverse of encodeItem.
func decodeItem(av map[string]types.AttributeValue) (docstore.Item, error) {
	pk, ok := av[attrPK].(*types.AttributeValueMemberS)
	if !ok {
		return docstore.Item{}, fmt.Errorf("item has no %s attribute", attrPK)
	}
	id, ok := av[attrID].(*types.AttributeValueMemberS)
	if !ok {
		return docstore.Item{}, fmt.Errorf("item has no %s attribute", attrID)
	}
	version, err := intAttr(av, attrVersion)
	if err != nil {
		return docstore.Item{}, err
	}

	doc := make(map[string]any, len(av))
	for k, v := range av {
		if k == attrPK || k == attrVersion || k == attrExpiresAt {
			continue
		}
		decoded, err := fromAttributeValue(v)
		if err != nil {
			return docstore.Item{}, fmt.Errorf("field %s: %w", k, err)
		}
		doc[k] = decoded
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return docstore.Item{}, fmt.Errorf("failed to encode body: %w", err)
	}

	return docstore.Item{
		ID:           id.Value,
		PartitionKey: pk.Value,
		Body:         body,
		Version:      version,
	}, nil
}

func toAttributeValue(v any) (types.AttributeValue, error) {
	switch t := v.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case string:
		return &types.AttributeValueMemberS{Value: t}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: t}, nil
	case json.Number:
		return &types.AttributeValueMemberN{Value: t.String()}, nil
	case map[string]any:
		m := make(map[string]types.AttributeValue, len(t))
		for k, e := range t {
			av, err := toAttributeValue(e)
			if err != nil {
				return nil, err
			}
			m[k] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case []any:
		l := make([]types.AttributeValue, len(t))
		for i, e := range t {
			av, err := toAttributeValue(e)
			if err != nil {
				return nil, err
			}
			l[i] = av
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	}
	return nil, fmt.Errorf("unsupported JSON value %T", v)
}

func fromAttributeValue(av types.AttributeValue) (any, error) {
	switch t := av.(type) {
	case *types.AttributeValueMemberNULL:
		return nil, nil
	case *types.AttributeValueMemberS:
		return t.Value, nil
	case *types.AttributeValueMemberBOOL:
		return t.Value, nil
	case *types.AttributeValueMemberN:
		return json.Number(t.Value), nil
	case *types.AttributeValueMemberM:
		m := make(map[string]any, len(t.Value))
		for k, e := range t.Value {
			v, err := fromAttributeValue(e)
			if err != nil {
				return nil, err
			}
			m[k] = v
		}
		return m, nil
	case *types.AttributeValueMemberL:
		l := make([]any, len(t.Value))
		for i, e := range t.Value {
			v, err := fromAttributeValue(e)
			if err != nil {
				return nil, err
			}
			l[i] = v
		}
		return l, nil
	case *types.AttributeValueMemberSS:
		l := make([]any, len(t.Value))
		for i, s := range t.Value {
			l[i] = s
		}
		return l, nil
	case *types.AttributeValueMemberNS:
		l := make([]any, len(t.Value))
		for i, s := range t.Value {
			l[i] = json.Number(s)
		}
		return l, nil
	}
	return nil, fmt.Errorf("unsupported attribute type %T", av)
}

func numberAttr(n int64) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}

func intAttr(av map[string]types.AttributeValue, name string) (int64, error) {
	n, ok := av[name].(*types.AttributeValueMemberN)
	if !ok {
		return 0, nil
	}
	v, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("attribute %s: %w", name, err)
	}
	return v, nil
}

// expiryEpoch converts t to the epoch seconds DynamoDB TTL expects, rounded
// up so an item never disappears before t.
func expiryEpoch(t time.Time) int64 {
	exp := t.Unix()
	if t.Nanosecond() > 0 {
		exp++
	}
	return exp
}

// expiredAt reports whether the item's expiry attribute is at or before now.
// DynamoDB deletes expired items lazily, so reads filter them out.
func expiredAt(av map[string]types.AttributeValue, now time.Time) bool {
	exp, err := intAttr(av, attrExpiresAt)
	if err != nil || exp == 0 {
		return false
	}
	return now.Unix() >= exp
}
