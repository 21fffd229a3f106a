package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"pinpool/internal/pin/models"
	"pinpool/pkg/platform/sentinel"
)

// DefaultKeyPrefix keeps every key in one cluster hash slot so the Lua
// scripts may touch all of them.
const DefaultKeyPrefix = "{pinpool}"

const duplicateReply = "DUPLICATE"

// Key layout:
//
//	<prefix>:ids       hash  code -> record id
//	<prefix>:state:0   set   Unallocated codes
//	<prefix>:state:1   set   Allocated codes
//	<prefix>:state:2   set   NotAllowed codes
//
// KEYS passed to every script: ids, state:0, state:1, state:2.

// ARGV is a flat list of code, id, state triples.
var insertScript = redis.NewScript(`
local seen = {}
for i = 1, #ARGV, 3 do
  if seen[ARGV[i]] or redis.call('HEXISTS', KEYS[1], ARGV[i]) == 1 then
    return redis.error_reply('DUPLICATE ' .. ARGV[i])
  end
  seen[ARGV[i]] = true
end
for i = 1, #ARGV, 3 do
  redis.call('HSET', KEYS[1], ARGV[i], ARGV[i + 1])
  redis.call('SADD', KEYS[2 + tonumber(ARGV[i + 2])], ARGV[i])
end
return #ARGV / 3
`)

// Returns the stored id of every written code, in ARGV order.
var upsertScript = redis.NewScript(`
local ids = {}
for i = 1, #ARGV, 3 do
  local code = ARGV[i]
  local id = redis.call('HGET', KEYS[1], code)
  if not id then
    id = ARGV[i + 1]
    redis.call('HSET', KEYS[1], code, id)
  end
  redis.call('SREM', KEYS[2], code)
  redis.call('SREM', KEYS[3], code)
  redis.call('SREM', KEYS[4], code)
  redis.call('SADD', KEYS[2 + tonumber(ARGV[i + 2])], code)
  ids[#ids + 1] = id
end
return ids
`)

// ARGV[1] is the quantity. Returns a flat list of code, id pairs.
var selectScript = redis.NewScript(`
local codes = redis.call('SPOP', KEYS[2], tonumber(ARGV[1]))
local out = {}
for _, code in ipairs(codes) do
  redis.call('SADD', KEYS[3], code)
  out[#out + 1] = code
  out[#out + 1] = redis.call('HGET', KEYS[1], code)
end
return out
`)

var resetScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[3]) == 1 then
  redis.call('SUNIONSTORE', KEYS[2], KEYS[2], KEYS[3])
  redis.call('DEL', KEYS[3])
end
return 1
`)

// RedisStore keeps allocation state in Redis sets, one per state.
// Each mutation runs as a single Lua script, so concurrent sessions against
// the same server never receive the same code.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// Option configures a RedisStore.
type Option func(*RedisStore)

func WithKeyPrefix(prefix string) Option {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedis constructs a Redis-backed PIN store.
func NewRedis(client redis.UniversalClient, opts ...Option) *RedisStore {
	s := &RedisStore{client: client, prefix: DefaultKeyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisStore) idsKey() string {
	return s.prefix + ":ids"
}

func (s *RedisStore) stateKey(state models.State) string {
	return fmt.Sprintf("%s:state:%d", s.prefix, int(state))
}

func (s *RedisStore) keys() []string {
	return []string{
		s.idsKey(),
		s.stateKey(models.StateUnallocated),
		s.stateKey(models.StateAllocated),
		s.stateKey(models.StateNotAllowed),
	}
}

func (s *RedisStore) SelectAll(ctx context.Context) ([]*models.PIN, int, error) {
	var (
		ids        *redis.MapStringStringCmd
		allocated  *redis.StringSliceCmd
		notAllowed *redis.StringSliceCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		ids = pipe.HGetAll(ctx, s.idsKey())
		allocated = pipe.SMembers(ctx, s.stateKey(models.StateAllocated))
		notAllowed = pipe.SMembers(ctx, s.stateKey(models.StateNotAllowed))
		return nil
	})
	if err != nil {
		return nil, 0, storeError("select pins", err)
	}

	states := make(map[string]models.State)
	for _, code := range allocated.Val() {
		states[code] = models.StateAllocated
	}
	for _, code := range notAllowed.Val() {
		states[code] = models.StateNotAllowed
	}

	pins := make([]*models.PIN, 0, len(ids.Val()))
	for code, id := range ids.Val() {
		pins = append(pins, &models.PIN{ID: id, Code: models.Code(code), State: states[code]})
	}
	sortByCode(pins)
	return pins, len(pins), nil
}

func (s *RedisStore) BulkInsert(ctx context.Context, pins []*models.PIN) ([]*models.PIN, error) {
	if len(pins) == 0 {
		return []*models.PIN{}, nil
	}
	out, args, err := prepare(pins)
	if err != nil {
		return nil, err
	}
	if err := insertScript.Run(ctx, s.client, s.keys(), args...).Err(); err != nil {
		return nil, storeError("insert pins", err)
	}
	sortByCode(out)
	return out, nil
}

func (s *RedisStore) BulkUpsert(ctx context.Context, pins []*models.PIN) ([]*models.PIN, error) {
	if len(pins) == 0 {
		return []*models.PIN{}, nil
	}
	out, args, err := prepare(pins)
	if err != nil {
		return nil, err
	}
	ids, err := upsertScript.Run(ctx, s.client, s.keys(), args...).StringSlice()
	if err != nil {
		return nil, storeError("upsert pins", err)
	}
	if len(ids) != len(out) {
		return nil, &models.StoreError{Message: fmt.Sprintf("upsert pins: expected %d ids, got %d", len(out), len(ids))}
	}
	for i, id := range ids {
		out[i].ID = id
	}
	sortByCode(out)
	return out, nil
}

func (s *RedisStore) SelectRandomUnallocated(ctx context.Context, quantity int) ([]*models.PIN, error) {
	if quantity <= 0 {
		return []*models.PIN{}, nil
	}
	flat, err := selectScript.Run(ctx, s.client, s.keys(), quantity).StringSlice()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, storeError("select random unallocated pins", err)
	}
	pins := make([]*models.PIN, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		pins = append(pins, &models.PIN{ID: flat[i+1], Code: models.Code(flat[i]), State: models.StateAllocated})
	}
	return pins, nil
}

func (s *RedisStore) ResetAllocation(ctx context.Context) error {
	if err := resetScript.Run(ctx, s.client, s.keys()).Err(); err != nil {
		return storeError("reset pin allocation", err)
	}
	return nil
}

// prepare validates pins and flattens them into script arguments.
func prepare(pins []*models.PIN) ([]*models.PIN, []any, error) {
	out := make([]*models.PIN, 0, len(pins))
	args := make([]any, 0, len(pins)*3)
	for _, p := range pins {
		if _, err := models.ParseCode(p.Code.String()); err != nil {
			return nil, nil, &models.StoreError{Message: err.Error(), Err: sentinel.ErrInvalidState}
		}
		if !p.State.IsValid() {
			return nil, nil, &models.StoreError{
				Message: fmt.Sprintf("invalid state %d for code %q", int(p.State), p.Code),
				Err:     sentinel.ErrInvalidState,
			}
		}
		stored := p.Clone()
		if stored.ID == "" {
			stored.ID = uuid.NewString()
		}
		out = append(out, stored)
		args = append(args, stored.Code.String(), stored.ID, int(stored.State))
	}
	return out, args, nil
}

func sortByCode(pins []*models.PIN) {
	sort.Slice(pins, func(i, j int) bool { return pins[i].Code < pins[j].Code })
}

func storeError(op string, err error) error {
	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		msg := redisErr.Error()
		se := &models.StoreError{Message: msg, Details: op, Err: err}
		if strings.Contains(msg, duplicateReply) {
			se.Code = duplicateReply
			se.Err = errors.Join(sentinel.ErrConflict, err)
		}
		return se
	}
	return &models.StoreError{
		Message: fmt.Sprintf("%s: %v", op, err),
		Err:     errors.Join(sentinel.ErrUnavailable, err),
	}
}
