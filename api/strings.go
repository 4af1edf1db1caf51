package api

import (
	"context"
	"strconv"
	"time"
)

// Get returns the value of key, or ok=false if it does not exist,
// collapsing the null-bulk-string/Null distinction the wire carries into
// one caller-facing shape (§9 Open Questions resolution).
func (c *Client) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	v, err := c.do(ctx, "GET", []string{key}, []byte(key))
	if err != nil {
		return "", false, err
	}
	if v.IsNullish() {
		return "", false, nil
	}
	return v.String(), true, nil
}

// Set stores key=value unconditionally. It returns the error of the round
// trip (including a server error reply); a successful reply is not
// inspected further.
func (c *Client) Set(ctx context.Context, key, value string) error {
	_, err := c.do(ctx, "SET", []string{key}, []byte(key), []byte(value))
	return err
}

// SetEX stores key=value with an expiry.
func (c *Client) SetEX(ctx context.Context, key, value string, ttl time.Duration) error {
	_, err := c.do(ctx, "SET", []string{key},
		[]byte(key), []byte(value), []byte("PX"), []byte(strconv.FormatInt(ttl.Milliseconds(), 10)))
	return err
}

// Del removes the given keys and returns how many actually existed.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	args := make([][]byte, len(keys))
	for i, k := range keys {
		args[i] = []byte(k)
	}
	v, err := c.do(ctx, "DEL", keys, args...)
	if err != nil {
		return 0, err
	}
	return v.Int, nil
}

// Expire sets a TTL on key and reports whether the key existed.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	secs := strconv.FormatInt(int64(ttl.Seconds()), 10)
	v, err := c.do(ctx, "EXPIRE", []string{key}, []byte(key), []byte(secs))
	if err != nil {
		return false, err
	}
	return v.Int == 1, nil
}

// Incr atomically increments key by one and returns its new value.
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	v, err := c.do(ctx, "INCR", []string{key}, []byte(key))
	if err != nil {
		return 0, err
	}
	return v.Int, nil
}

// IncrBy atomically increments key by delta and returns its new value.
func (c *Client) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	v, err := c.do(ctx, "INCRBY", []string{key}, []byte(key), []byte(strconv.FormatInt(delta, 10)))
	if err != nil {
		return 0, err
	}
	return v.Int, nil
}
