package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/payroll/backend/internal/domain/insurance"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultKeyPrefix = "payroll:summary:"
	defaultChannel   = "payroll:contribution:invalidated"
)

// RedisSummaryInvalidator implements insurance.CacheInvalidator on Redis.
// It deletes the cached summary keys for a period and publishes a refresh
// message so other instances drop their local copies too.
type RedisSummaryInvalidator struct {
	client     *redis.Client
	ownsClient bool
	keyPrefix  string
	channel    string
	logger     *zap.Logger
}

// RedisSummaryInvalidatorOption is a functional option for the invalidator
type RedisSummaryInvalidatorOption func(*RedisSummaryInvalidator)

// WithInvalidatorChannel sets the Pub/Sub channel name
func WithInvalidatorChannel(channel string) RedisSummaryInvalidatorOption {
	return func(i *RedisSummaryInvalidator) {
		i.channel = channel
	}
}

// WithInvalidatorKeyPrefix sets the summary key prefix
func WithInvalidatorKeyPrefix(prefix string) RedisSummaryInvalidatorOption {
	return func(i *RedisSummaryInvalidator) {
		i.keyPrefix = prefix
	}
}

// WithInvalidatorLogger sets the logger for the invalidator
func WithInvalidatorLogger(logger *zap.Logger) RedisSummaryInvalidatorOption {
	return func(i *RedisSummaryInvalidator) {
		i.logger = logger
	}
}

// NewRedisSummaryInvalidator creates an invalidator with its own Redis client
func NewRedisSummaryInvalidator(addr, password string, db int, opts ...RedisSummaryInvalidatorOption) (*RedisSummaryInvalidator, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	invalidator := newRedisSummaryInvalidator(client, true, opts...)
	return invalidator, nil
}

// NewRedisSummaryInvalidatorWithClient creates an invalidator with an existing
// client. The caller retains ownership of the client.
func NewRedisSummaryInvalidatorWithClient(client *redis.Client, opts ...RedisSummaryInvalidatorOption) *RedisSummaryInvalidator {
	return newRedisSummaryInvalidator(client, false, opts...)
}

func newRedisSummaryInvalidator(client *redis.Client, ownsClient bool, opts ...RedisSummaryInvalidatorOption) *RedisSummaryInvalidator {
	invalidator := &RedisSummaryInvalidator{
		client:     client,
		ownsClient: ownsClient,
		keyPrefix:  defaultKeyPrefix,
		channel:    defaultChannel,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(invalidator)
	}
	return invalidator
}

// InvalidatePeriod deletes the cached summary keys for the period and
// publishes the refresh message. Key deletion and publish are best effort
// as a pair: a publish failure is returned even when deletion succeeded.
func (i *RedisSummaryInvalidator) InvalidatePeriod(ctx context.Context, msg insurance.CacheRefreshMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixNano()
	}

	keys := i.summaryKeys(msg)
	if err := i.client.Del(ctx, keys...).Err(); err != nil {
		i.logger.Error("Failed to delete summary cache keys",
			zap.String("period_id", msg.PeriodID.String()),
			zap.Int("key_count", len(keys)),
			zap.Error(err))
		return fmt.Errorf("failed to delete summary keys: %w", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal refresh message: %w", err)
	}
	if err := i.client.Publish(ctx, i.channel, data).Err(); err != nil {
		i.logger.Error("Failed to publish cache refresh message",
			zap.String("channel", i.channel),
			zap.Error(err))
		return fmt.Errorf("failed to publish refresh message: %w", err)
	}

	i.logger.Debug("Invalidated contribution summary cache",
		zap.String("period_id", msg.PeriodID.String()),
		zap.Int("employee_count", len(msg.EmployeeIDs)))
	return nil
}

// summaryKeys expands a refresh message into the concrete cache keys to drop.
// The period-level key is always included because per-employee writes change
// the period totals.
func (i *RedisSummaryInvalidator) summaryKeys(msg insurance.CacheRefreshMessage) []string {
	keys := make([]string, 0, len(msg.EmployeeIDs)+1)
	keys = append(keys, i.keyPrefix+"period:"+msg.PeriodID.String())
	for _, employeeID := range msg.EmployeeIDs {
		keys = append(keys, i.keyPrefix+"period:"+msg.PeriodID.String()+":employee:"+employeeID.String())
	}
	return keys
}

// Close releases the Redis client if this invalidator owns it
func (i *RedisSummaryInvalidator) Close() error {
	if i.ownsClient {
		return i.client.Close()
	}
	return nil
}

// Ensure RedisSummaryInvalidator implements CacheInvalidator
var _ insurance.CacheInvalidator = (*RedisSummaryInvalidator)(nil)
