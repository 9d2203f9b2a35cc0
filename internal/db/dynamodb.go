package db

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoStore keeps each collection in a table named prefix+collection with
// a string partition key "id". Queries scan and sort in memory, which is
// fine for the browse page's 50-item window.
type DynamoStore struct {
	client DynamoAPI
	prefix string
}

// NewDynamoStore creates a DynamoStore.
func NewDynamoStore(client DynamoAPI, tablePrefix string) *DynamoStore {
	return &DynamoStore{client: client, prefix: tablePrefix}
}

func (s *DynamoStore) table(collection string) *string {
	return aws.String(s.prefix + collection)
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}}
}

func (s *DynamoStore) Upsert(ctx context.Context, collection, id string, doc interface{}) error {
	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", id, err)
	}
	item["id"] = &types.AttributeValueMemberS{Value: id}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: s.table(collection),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *DynamoStore) Get(ctx context.Context, collection, id string, out interface{}) (bool, error) {
	res, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      s.table(collection),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	if res.Item == nil {
		return false, nil
	}
	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return false, fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}
	return true, nil
}

func (s *DynamoStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: s.table(collection),
		Key:       idKey(id),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *DynamoStore) Query(ctx context.Context, collection string, q Query, out interface{}) error {
	in := &dynamodb.ScanInput{TableName: s.table(collection)}
	if expr, names, values := scanFilter(q); expr != "" {
		in.FilterExpression = aws.String(expr)
		in.ExpressionAttributeNames = names
		in.ExpressionAttributeValues = values
	}

	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewScanPaginator(s.client, in)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", collection, err)
		}
		items = append(items, page.Items...)
	}

	if q.OrderBy != "" {
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i][q.OrderBy], items[j][q.OrderBy]
			if q.Descending {
				return lessAttr(b, a)
			}
			return lessAttr(a, b)
		})
	}
	if q.Limit > 0 && len(items) > q.Limit {
		items = items[:q.Limit]
	}
	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("failed to decode %s scan result: %w", collection, err)
	}
	return nil
}

// scanFilter renders q's equality filters as a DynamoDB filter expression.
func scanFilter(q Query) (string, map[string]string, map[string]types.AttributeValue) {
	names := make(map[string]string)
	values := make(map[string]types.AttributeValue)
	n := 0
	clause := func(f Filter) string {
		n++
		nk, vk := fmt.Sprintf("#f%d", n), fmt.Sprintf(":v%d", n)
		names[nk] = f.Field
		values[vk] = &types.AttributeValueMemberS{Value: f.Value}
		return nk + " = " + vk
	}

	var and []string
	for _, f := range q.Where {
		and = append(and, clause(f))
	}
	if len(q.AnyOf) > 0 {
		or := make([]string, len(q.AnyOf))
		for i, f := range q.AnyOf {
			or[i] = clause(f)
		}
		and = append(and, "("+strings.Join(or, " OR ")+")")
	}
	if len(and) == 0 {
		return "", nil, nil
	}
	return strings.Join(and, " AND "), names, values
}

// lessAttr orders numbers numerically and RFC 3339 timestamps
// chronologically. attributevalue trims trailing zeros from fractional
// seconds, so stored timestamps do not sort as text.
func lessAttr(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberN:
		if bv, ok := b.(*types.AttributeValueMemberN); ok {
			fa, errA := strconv.ParseFloat(av.Value, 64)
			fb, errB := strconv.ParseFloat(bv.Value, 64)
			if errA == nil && errB == nil {
				return fa < fb
			}
			return av.Value < bv.Value
		}
	case *types.AttributeValueMemberS:
		if bv, ok := b.(*types.AttributeValueMemberS); ok {
			ta, errA := time.Parse(time.RFC3339Nano, av.Value)
			tb, errB := time.Parse(time.RFC3339Nano, bv.Value)
			if errA == nil && errB == nil {
				return ta.Before(tb)
			}
			return av.Value < bv.Value
		}
	}
	// Missing or mismatched attributes sort first.
	return a == nil && b != nil
}
