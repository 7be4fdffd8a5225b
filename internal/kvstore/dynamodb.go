package kvstore

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hallimar/bookvault/internal/config"
	"github.com/hallimar/bookvault/internal/core"
)

// DynamoDBStore implements core.KVStore using AWS DynamoDB. Items carry
// an epoch-seconds ttl attribute; expired items are treated as misses
// even before DynamoDB reaps them.
type DynamoDBStore struct {
	client    *dynamodb.Client
	tableName string
	closed    atomic.Bool
}

// NewDynamoDBStore creates a DynamoDB-backed store and verifies the
// table exists. An endpoint override allows pointing at LocalStack.
func NewDynamoDBStore(region, tableName, endpoint, accessKeyID, secretAccessKey string) (*DynamoDBStore, error) {
	if region == "" {
		return nil, fmt.Errorf("region is required")
	}
	if tableName == "" {
		return nil, fmt.Errorf("table name is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if accessKeyID != "" && secretAccessKey != "" {
		cfg.Credentials = credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")
	}

	clientOptions := []func(*dynamodb.Options){}
	if endpoint != "" {
		clientOptions = append(clientOptions, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	client := dynamodb.NewFromConfig(cfg, clientOptions...)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	}); err != nil {
		return nil, fmt.Errorf("failed to connect to DynamoDB table %s: %w", tableName, err)
	}

	return &DynamoDBStore{client: client, tableName: tableName}, nil
}

// Get retrieves a value by key. Missing and expired items both return
// ErrCacheMiss.
func (d *DynamoDBStore) Get(ctx context.Context, key string) ([]byte, error) {
	if d.closed.Load() {
		return nil, core.ErrClosed
	}

	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	if result.Item == nil || itemExpired(result.Item) {
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, key)
	}

	valueAttr, ok := result.Item["value"]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, key)
	}
	valueMember, ok := valueAttr.(*types.AttributeValueMemberB)
	if !ok {
		return nil, fmt.Errorf("invalid value format for key %s", key)
	}
	return valueMember.Value, nil
}

// Set stores a key-value pair with an optional TTL.
func (d *DynamoDBStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if d.closed.Load() {
		return core.ErrClosed
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      buildItem(key, value, ttl),
	}
	if _, err := d.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (d *DynamoDBStore) Delete(ctx context.Context, key string) error {
	if d.closed.Load() {
		return core.ErrClosed
	}

	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Exists checks whether a key exists and has not expired.
func (d *DynamoDBStore) Exists(ctx context.Context, key string) (bool, error) {
	if d.closed.Load() {
		return false, core.ErrClosed
	}

	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to check existence of key %s: %w", key, err)
	}
	return result.Item != nil && !itemExpired(result.Item), nil
}

// BatchSet stores multiple key-value pairs with a shared TTL. DynamoDB
// limits BatchWriteItem to 25 items per request, so larger maps are
// written in chunks.
func (d *DynamoDBStore) BatchSet(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	if d.closed.Load() {
		return core.ErrClosed
	}
	if len(items) == 0 {
		return nil
	}

	const maxBatchSize = 25
	allItems := make([]map[string]types.AttributeValue, 0, len(items))
	for key, value := range items {
		allItems = append(allItems, buildItem(key, value, ttl))
	}

	for i := 0; i < len(allItems); i += maxBatchSize {
		end := i + maxBatchSize
		if end > len(allItems) {
			end = len(allItems)
		}

		batch := allItems[i:end]
		writeRequests := make([]types.WriteRequest, 0, len(batch))
		for _, item := range batch {
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		input := &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				d.tableName: writeRequests,
			},
		}
		if _, err := d.client.BatchWriteItem(ctx, input); err != nil {
			return fmt.Errorf("failed to batch set keys: %w", err)
		}
	}
	return nil
}

// Close marks the store closed. The DynamoDB client holds no
// connections that need explicit release.
func (d *DynamoDBStore) Close() error {
	d.closed.Store(true)
	return nil
}

func buildItem(key string, value []byte, ttl time.Duration) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"key":        &types.AttributeValueMemberS{Value: key},
		"value":      &types.AttributeValueMemberB{Value: value},
		"created_at": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
	}
	if ttl > 0 {
		item["ttl"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", time.Now().Add(ttl).Unix())}
	}
	return item
}

func itemExpired(item map[string]types.AttributeValue) bool {
	ttlAttr, ok := item["ttl"]
	if !ok {
		return false
	}
	ttlMember, ok := ttlAttr.(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	var ttl int64
	if _, err := fmt.Sscanf(ttlMember.Value, "%d", &ttl); err != nil {
		return false
	}
	return time.Now().Unix() > ttl
}

// dynamoDBFactory implements Factory for DynamoDB.
type dynamoDBFactory struct{}

func (f *dynamoDBFactory) Type() string {
	return "dynamodb"
}

func (f *dynamoDBFactory) Validate(cfg Config) error {
	if cfg.Type != "dynamodb" {
		return fmt.Errorf("invalid type for dynamodb factory: %s", cfg.Type)
	}
	if cfg.Region == "" {
		return fmt.Errorf("region is required for dynamodb")
	}
	if cfg.TableName == "" {
		return fmt.Errorf("table_name is required for dynamodb")
	}
	return nil
}

func (f *dynamoDBFactory) Create(cfg Config) (core.KVStore, error) {
	store, err := NewDynamoDBStore(cfg.Region, cfg.TableName, cfg.Endpoint, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamodb store: %w", err)
	}
	return store, nil
}

// dynamoDBConfigValidator validates the dynamodb section of the client
// configuration.
type dynamoDBConfigValidator struct{}

func (v *dynamoDBConfigValidator) Type() string {
	return "dynamodb"
}

func (v *dynamoDBConfigValidator) Validate(cfg *config.Internal) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	cache := cfg.Cache
	if cache.Type != "dynamodb" {
		return fmt.Errorf("invalid type for dynamodb validator: %s", cache.Type)
	}
	if cache.DynamoDB.Region == "" {
		return fmt.Errorf("region is required for dynamodb")
	}
	if cache.DynamoDB.TableName == "" {
		return fmt.Errorf("table_name is required for dynamodb")
	}
	if cache.DialTimeout <= 0 || cache.ReadTimeout <= 0 || cache.WriteTimeout <= 0 {
		return fmt.Errorf("dial, read, and write timeouts must be greater than 0")
	}
	return nil
}

func init() {
	RegisterFactory(&dynamoDBFactory{})
	config.RegisterValidator(&dynamoDBConfigValidator{})
}
