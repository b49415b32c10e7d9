package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client represents a Redis client used to publish deliveries and drain a
// submit-request list
type Client struct {
	client *redis.Client
	ctx    context.Context
}

// New creates a new Redis client
func New(addr string, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return &Client{
		client: client,
		ctx:    ctx,
	}, nil
}

// Publish publishes a message to a Redis channel
func (c *Client) Publish(channel string, message string) error {
	return c.client.Publish(c.ctx, channel, message).Err()
}

// Close closes the Redis client connection
func (c *Client) Close() error {
	return c.client.Close()
}

// LPush performs an LPUSH command on the specified list key.
func (c *Client) LPush(key string, value string) error {
	_, err := c.client.LPush(c.ctx, key, value).Result()
	if err != nil {
		log.Printf("Failed to LPUSH %s to key %s: %v", value, key, err)
		return err
	}
	return nil
}

// BRPop performs a blocking right pop (BRPOP) on a Redis list.
// It waits up to timeout. If timeout is 0, it blocks indefinitely.
func (c *Client) BRPop(timeout time.Duration, key string) ([]string, error) {
	result, err := c.client.BRPop(c.ctx, timeout, key).Result()
	if err != nil {
		// redis.Nil indicates a timeout occurred, which is not necessarily an error in blocking operations
		if err == redis.Nil {
			return nil, nil // Return nil slice and nil error for timeout
		}
		log.Printf("Error during BRPOP on key %s: %v", key, err)
		return nil, err
	}
	// result is []string{key, value}
	if len(result) != 2 {
		log.Printf("Unexpected result length from BRPOP on key %s: %d", key, len(result))
		return nil, fmt.Errorf("unexpected result from BRPOP: %v", result)
	}
	return result, nil
}
