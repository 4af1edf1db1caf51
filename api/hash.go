package api

import (
	"context"

	"github.com/aistorehq/vkclient/resp"
)

// HGetAll returns every field/value pair in the hash at key. It accepts
// both wire shapes a server may use for the reply: a RESP2-style flat
// Array alternating field, value, field, value, ... and a RESP3 Map
// (§9 Open Questions: hash-reply shape).
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	v, err := c.do(ctx, "HGETALL", []string{key}, []byte(key))
	if err != nil {
		return nil, err
	}
	return hashFromValue(v), nil
}

func hashFromValue(v resp.Value) map[string]string {
	out := map[string]string{}
	switch v.Kind {
	case resp.KindMap:
		for _, pair := range v.Map {
			out[pair.Field.String()] = pair.Val.String()
		}
	case resp.KindArray:
		for i := 0; i+1 < len(v.Arr); i += 2 {
			out[v.Arr[i].String()] = v.Arr[i+1].String()
		}
	}
	return out
}

// HGet returns one field of the hash at key.
func (c *Client) HGet(ctx context.Context, key, field string) (value string, ok bool, err error) {
	v, err := c.do(ctx, "HGET", []string{key}, []byte(key), []byte(field))
	if err != nil {
		return "", false, err
	}
	if v.IsNullish() {
		return "", false, nil
	}
	return v.String(), true, nil
}

// HSet sets one field of the hash at key and returns how many fields
// were newly created (as opposed to overwritten).
func (c *Client) HSet(ctx context.Context, key, field, value string) (int64, error) {
	v, err := c.do(ctx, "HSET", []string{key}, []byte(key), []byte(field), []byte(value))
	if err != nil {
		return 0, err
	}
	return v.Int, nil
}
