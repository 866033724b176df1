package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis key layout for live seat state. The prefixes below are baked
// into the Lua scripts as literals and must stay in sync with them.
//
//	seating:state:seat:<seatID>   HASH   full live state of one seat
//	seating:state:chart:<chartID> SET    seat ids belonging to a chart
//	seating:state:hold:<holdID>   SET    seat ids held under a hold
//	seating:state:charts          SET    registered chart ids
//	seating:state:version         STRING store-wide change counter
const (
	redisSeatKeyPrefix  = "seating:state:seat:"
	redisChartKeyPrefix = "seating:state:chart:"
	redisHoldKeyPrefix  = "seating:state:hold:"
	redisChartsKey      = "seating:state:charts"
	redisVersionKey     = "seating:state:version"
)

// luaSeatDoc is shared by the read scripts: it folds one seat hash into
// a table that cjson encodes into the wire document parsed on the Go
// side.
const luaSeatDoc = `
local function seat_doc(id, key)
	local h = redis.call("HGETALL", key)
	local f = {}
	for i = 1, #h, 2 do f[h[i]] = h[i + 1] end
	return {
		seat_id = id,
		chart_id = f["chart_id"] or "",
		label = f["label"] or "",
		section = f["section"] or "",
		row = f["row"] or "",
		number = tonumber(f["number"]) or 0,
		x = tonumber(f["x"]) or 0,
		y = tonumber(f["y"]) or 0,
		category = f["category"] or "",
		price = tonumber(f["price"]) or 0,
		view_quality = f["view_quality"] or "",
		accessible = f["accessible"] or "0",
		status = f["status"] or "",
		hold_id = f["hold_id"] or "",
		order_id = f["order_id"] or "",
		version = tonumber(f["version"]) or 0,
		updated_at = tonumber(f["updated_at"]) or 0,
	}
end
`

// Atomic AVAILABLE -> HELD transition over the full seat set.
// Returns {1} on success, {0, unavailable...} on contention and
// {-1, seat_id} for an unknown seat.
var luaAcquireSeats = redis.NewScript(`
-- ARGV[1] = hold_id
-- ARGV[2] = now (unix seconds)
-- ARGV[3..N] = seat ids
local hold_id = ARGV[1]
local now = ARGV[2]

for i = 3, #ARGV do
	if redis.call("EXISTS", "seating:state:seat:" .. ARGV[i]) == 0 then
		return {-1, ARGV[i]}
	end
end

local unavailable = {}
for i = 3, #ARGV do
	local status = redis.call("HGET", "seating:state:seat:" .. ARGV[i], "status")
	if status ~= "AVAILABLE" then
		table.insert(unavailable, ARGV[i])
	end
end
if #unavailable > 0 then
	local out = {0}
	for i = 1, #unavailable do table.insert(out, unavailable[i]) end
	return out
end

local v = redis.call("INCR", "seating:state:version")
for i = 3, #ARGV do
	redis.call("HSET", "seating:state:seat:" .. ARGV[i],
		"status", "HELD", "hold_id", hold_id, "version", v, "updated_at", now)
	redis.call("SADD", "seating:state:hold:" .. hold_id, ARGV[i])
end
return {1}
`)

// Idempotent HELD -> AVAILABLE transition for every seat of a hold.
// Returns the released seat ids, possibly empty.
var luaReleaseHold = redis.NewScript(`
-- ARGV[1] = hold_id
-- ARGV[2] = now (unix seconds)
local hold_key = "seating:state:hold:" .. ARGV[1]
local ids = redis.call("SMEMBERS", hold_key)
local released = {}
for i = 1, #ids do
	local key = "seating:state:seat:" .. ids[i]
	if redis.call("HGET", key, "status") == "HELD" and redis.call("HGET", key, "hold_id") == ARGV[1] then
		table.insert(released, ids[i])
	end
end
if #released > 0 then
	local v = redis.call("INCR", "seating:state:version")
	for i = 1, #released do
		redis.call("HSET", "seating:state:seat:" .. released[i],
			"status", "AVAILABLE", "hold_id", "", "version", v, "updated_at", ARGV[2])
	end
end
redis.call("DEL", hold_key)
return released
`)

// HELD -> SOLD transition for every seat of a hold. All-or-nothing:
// any seat no longer covered by the hold aborts the whole commit.
// Returns {1, ids...} on success and {0} when the hold is stale.
var luaCommitHold = redis.NewScript(`
-- ARGV[1] = hold_id
-- ARGV[2] = order_id
-- ARGV[3] = now (unix seconds)
local hold_key = "seating:state:hold:" .. ARGV[1]
local ids = redis.call("SMEMBERS", hold_key)
if #ids == 0 then
	return {0}
end
for i = 1, #ids do
	local key = "seating:state:seat:" .. ids[i]
	if redis.call("HGET", key, "status") ~= "HELD" or redis.call("HGET", key, "hold_id") ~= ARGV[1] then
		return {0}
	end
end
local v = redis.call("INCR", "seating:state:version")
for i = 1, #ids do
	redis.call("HSET", "seating:state:seat:" .. ids[i],
		"status", "SOLD", "hold_id", "", "order_id", ARGV[2], "version", v, "updated_at", ARGV[3])
end
redis.call("DEL", hold_key)
local out = {1}
for i = 1, #ids do table.insert(out, ids[i]) end
return out
`)

// Block or unblock seats. Blocking evicts held seats from their hold.
// Returns {1} on success, {0, seat_id} for a sold seat and
// {-1, seat_id} for an unknown one.
var luaSetBlocked = redis.NewScript(`
-- ARGV[1] = "1" to block, "0" to unblock
-- ARGV[2] = now (unix seconds)
-- ARGV[3..N] = seat ids
for i = 3, #ARGV do
	local key = "seating:state:seat:" .. ARGV[i]
	if redis.call("EXISTS", key) == 0 then
		return {-1, ARGV[i]}
	end
	if redis.call("HGET", key, "status") == "SOLD" then
		return {0, ARGV[i]}
	end
end
local v = redis.call("INCR", "seating:state:version")
for i = 3, #ARGV do
	local key = "seating:state:seat:" .. ARGV[i]
	local status = redis.call("HGET", key, "status")
	if ARGV[1] == "1" then
		if status == "HELD" then
			local hold_id = redis.call("HGET", key, "hold_id")
			redis.call("SREM", "seating:state:hold:" .. hold_id, ARGV[i])
			redis.call("HSET", key, "hold_id", "")
		end
		redis.call("HSET", key, "status", "BLOCKED", "version", v, "updated_at", ARGV[2])
	elseif status == "BLOCKED" then
		redis.call("HSET", key, "status", "AVAILABLE", "version", v, "updated_at", ARGV[2])
	end
end
return {1}
`)

// Register one seat. A seat that already exists keeps its live status
// unless the incoming catalog status is terminal (SOLD, BLOCKED).
var luaRegisterSeat = redis.NewScript(`
-- ARGV: seat_id, chart_id, label, section, row, number, x, y,
--       category, price, view_quality, accessible, status, order_id,
--       now (unix seconds)
local key = "seating:state:seat:" .. ARGV[1]
local status = ARGV[13]
local hold_id = ""
local order_id = ARGV[14]
if redis.call("EXISTS", key) == 1 and status ~= "SOLD" and status ~= "BLOCKED" then
	status = redis.call("HGET", key, "status") or status
	hold_id = redis.call("HGET", key, "hold_id") or ""
	order_id = redis.call("HGET", key, "order_id") or ""
end
local v = redis.call("INCR", "seating:state:version")
redis.call("HSET", key,
	"chart_id", ARGV[2], "label", ARGV[3], "section", ARGV[4],
	"row", ARGV[5], "number", ARGV[6], "x", ARGV[7], "y", ARGV[8],
	"category", ARGV[9], "price", ARGV[10], "view_quality", ARGV[11],
	"accessible", ARGV[12], "status", status, "hold_id", hold_id,
	"order_id", order_id, "version", v, "updated_at", ARGV[15])
redis.call("SADD", "seating:state:chart:" .. ARGV[2], ARGV[1])
redis.call("SADD", "seating:state:charts", ARGV[2])
return 1
`)

// Consistent snapshot of one chart (or every chart) as a JSON array.
// Running inside a single script gives the point-in-time guarantee.
var luaSnapshotSeats = redis.NewScript(luaSeatDoc + `
-- ARGV[1] = chart_id, "" for all charts
local ids = {}
if ARGV[1] ~= "" then
	ids = redis.call("SMEMBERS", "seating:state:chart:" .. ARGV[1])
else
	local charts = redis.call("SMEMBERS", "seating:state:charts")
	for i = 1, #charts do
		local members = redis.call("SMEMBERS", "seating:state:chart:" .. charts[i])
		for j = 1, #members do table.insert(ids, members[j]) end
	end
end
local out = {}
for i = 1, #ids do
	local key = "seating:state:seat:" .. ids[i]
	if redis.call("EXISTS", key) == 1 then
		table.insert(out, seat_doc(ids[i], key))
	end
end
if #out == 0 then return "[]" end
return cjson.encode(out)
`)

// Consistent read of specific seats as a JSON array. An unknown id
// returns "!<id>" instead.
var luaSeatStates = redis.NewScript(luaSeatDoc + `
-- ARGV[1..N] = seat ids
local out = {}
for i = 1, #ARGV do
	local key = "seating:state:seat:" .. ARGV[i]
	if redis.call("EXISTS", key) == 0 then
		return "!" .. ARGV[i]
	end
	table.insert(out, seat_doc(ARGV[i], key))
end
if #out == 0 then return "[]" end
return cjson.encode(out)
`)

// redisSeatDoc mirrors the cjson document built by luaSeatDoc.
type redisSeatDoc struct {
	SeatID      string  `json:"seat_id"`
	ChartID     string  `json:"chart_id"`
	Label       string  `json:"label"`
	Section     string  `json:"section"`
	Row         string  `json:"row"`
	Number      int     `json:"number"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	ViewQuality string  `json:"view_quality"`
	Accessible  string  `json:"accessible"`
	Status      string  `json:"status"`
	HoldID      string  `json:"hold_id"`
	OrderID     string  `json:"order_id"`
	Version     uint64  `json:"version"`
	UpdatedAt   int64   `json:"updated_at"`
}

// RedisSeatStore is the shared Store implementation for multi-instance
// deployments. Every transition runs as one Lua script, which Redis
// executes atomically, giving the same all-or-nothing guarantees as
// MemoryStore across processes.
type RedisSeatStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisSeatStore creates a Redis-backed seat store
func NewRedisSeatStore(client *redis.Client) *RedisSeatStore {
	return &RedisSeatStore{
		client: client,
		now:    time.Now,
	}
}

// SetNowFunc overrides the clock, for tests.
func (r *RedisSeatStore) SetNowFunc(now func() time.Time) {
	r.now = now
}

// PreloadScripts loads every Lua script into the Redis script cache so
// the first live request does not pay the load round trip. Run falls
// back to EVAL on NOSCRIPT anyway, so failures here are not fatal.
func (r *RedisSeatStore) PreloadScripts(ctx context.Context) error {
	scripts := []*redis.Script{
		luaAcquireSeats, luaReleaseHold, luaCommitHold,
		luaSetBlocked, luaRegisterSeat, luaSnapshotSeats, luaSeatStates,
	}
	for _, script := range scripts {
		if err := script.Load(ctx, r.client).Err(); err != nil {
			return fmt.Errorf("failed to load seat state script: %w", err)
		}
	}
	return nil
}

// Register seeds or refreshes live state from catalog rows
func (r *RedisSeatStore) Register(ctx context.Context, states []SeatState) error {
	now := strconv.FormatInt(r.now().Unix(), 10)
	for i := range states {
		st := &states[i]
		accessible := "0"
		if st.Accessible {
			accessible = "1"
		}
		status := st.Status
		if !status.IsValid() {
			status = StatusAvailable
		}
		args := []interface{}{
			st.SeatID.String(),
			st.ChartID.String(),
			st.Label,
			st.Section,
			st.Row,
			strconv.Itoa(st.Number),
			strconv.FormatFloat(st.Position.X, 'f', -1, 64),
			strconv.FormatFloat(st.Position.Y, 'f', -1, 64),
			st.Category,
			strconv.FormatFloat(st.Price, 'f', -1, 64),
			string(st.ViewQuality),
			accessible,
			string(status),
			st.OrderID,
			now,
		}
		if err := luaRegisterSeat.Run(ctx, r.client, []string{}, args...).Err(); err != nil {
			return fmt.Errorf("failed to register seat %s: %w", st.SeatID, err)
		}
	}
	return nil
}

// TryAcquire attempts the atomic AVAILABLE -> HELD transition for every
// requested seat
func (r *RedisSeatStore) TryAcquire(ctx context.Context, holdID string, seatIDs []uuid.UUID) (*AcquireResult, error) {
	if holdID == "" {
		return nil, fmt.Errorf("hold id is required")
	}
	if len(seatIDs) == 0 {
		return nil, ErrNoSeats
	}

	args := make([]interface{}, 0, len(seatIDs)+2)
	args = append(args, holdID, strconv.FormatInt(r.now().Unix(), 10))
	for _, id := range seatIDs {
		args = append(args, id.String())
	}

	result, err := luaAcquireSeats.Run(ctx, r.client, []string{}, args...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to execute atomic seat acquire: %w", err)
	}

	resultArray, ok := result.([]interface{})
	if !ok || len(resultArray) == 0 {
		return nil, fmt.Errorf("unexpected acquire script result")
	}
	code, ok := resultArray[0].(int64)
	if !ok {
		return nil, fmt.Errorf("unexpected acquire script result")
	}

	switch code {
	case 1:
		return &AcquireResult{OK: true}, nil
	case 0:
		unavailable, err := parseSeatIDs(resultArray[1:])
		if err != nil {
			return nil, err
		}
		return &AcquireResult{OK: false, Unavailable: unavailable}, nil
	default:
		if len(resultArray) > 1 {
			if id, ok := resultArray[1].(string); ok {
				return nil, fmt.Errorf("%w: %s", ErrSeatNotFound, id)
			}
		}
		return nil, ErrSeatNotFound
	}
}

// Release returns every seat held under holdID to AVAILABLE
func (r *RedisSeatStore) Release(ctx context.Context, holdID string) ([]uuid.UUID, error) {
	if holdID == "" {
		return nil, fmt.Errorf("hold id is required")
	}

	now := strconv.FormatInt(r.now().Unix(), 10)
	result, err := luaReleaseHold.Run(ctx, r.client, []string{}, holdID, now).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to execute atomic seat release: %w", err)
	}

	resultArray, ok := result.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected release script result")
	}
	return parseSeatIDs(resultArray)
}

// Commit finalizes every seat held under holdID as SOLD
func (r *RedisSeatStore) Commit(ctx context.Context, holdID string, orderID string) ([]uuid.UUID, error) {
	if holdID == "" {
		return nil, fmt.Errorf("hold id is required")
	}

	now := strconv.FormatInt(r.now().Unix(), 10)
	result, err := luaCommitHold.Run(ctx, r.client, []string{}, holdID, orderID, now).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to execute atomic seat commit: %w", err)
	}

	resultArray, ok := result.([]interface{})
	if !ok || len(resultArray) == 0 {
		return nil, fmt.Errorf("unexpected commit script result")
	}
	code, ok := resultArray[0].(int64)
	if !ok {
		return nil, fmt.Errorf("unexpected commit script result")
	}
	if code == 0 {
		return nil, ErrHoldMismatch
	}
	return parseSeatIDs(resultArray[1:])
}

// SetBlocked flips seats between AVAILABLE and BLOCKED
func (r *RedisSeatStore) SetBlocked(ctx context.Context, seatIDs []uuid.UUID, blocked bool) error {
	if len(seatIDs) == 0 {
		return ErrNoSeats
	}

	flag := "0"
	if blocked {
		flag = "1"
	}
	args := make([]interface{}, 0, len(seatIDs)+2)
	args = append(args, flag, strconv.FormatInt(r.now().Unix(), 10))
	for _, id := range seatIDs {
		args = append(args, id.String())
	}

	result, err := luaSetBlocked.Run(ctx, r.client, []string{}, args...).Result()
	if err != nil {
		return fmt.Errorf("failed to execute seat block: %w", err)
	}

	resultArray, ok := result.([]interface{})
	if !ok || len(resultArray) == 0 {
		return fmt.Errorf("unexpected block script result")
	}
	code, ok := resultArray[0].(int64)
	if !ok {
		return fmt.Errorf("unexpected block script result")
	}
	switch code {
	case 1:
		return nil
	case 0:
		if len(resultArray) > 1 {
			if id, ok := resultArray[1].(string); ok {
				return fmt.Errorf("%w: %s", ErrSeatNotBlockable, id)
			}
		}
		return ErrSeatNotBlockable
	default:
		if len(resultArray) > 1 {
			if id, ok := resultArray[1].(string); ok {
				return fmt.Errorf("%w: %s", ErrSeatNotFound, id)
			}
		}
		return ErrSeatNotFound
	}
}

// Snapshot returns a consistent filtered view of all seat states
func (r *RedisSeatStore) Snapshot(ctx context.Context, filter SnapshotFilter) ([]SeatState, error) {
	chartArg := ""
	if filter.ChartID != uuid.Nil {
		chartArg = filter.ChartID.String()
	}

	raw, err := luaSnapshotSeats.Run(ctx, r.client, []string{}, chartArg).Text()
	if err != nil {
		return nil, fmt.Errorf("failed to execute seat snapshot: %w", err)
	}

	docs, err := parseSeatDocs(raw)
	if err != nil {
		return nil, err
	}

	out := make([]SeatState, 0, len(docs))
	for i := range docs {
		st, err := docs[i].toState()
		if err != nil {
			return nil, err
		}
		if filter.Matches(&st) {
			out = append(out, st)
		}
	}
	sortSeatStates(out)
	return out, nil
}

// States fetches specific seats by id, in request order
func (r *RedisSeatStore) States(ctx context.Context, seatIDs []uuid.UUID) ([]SeatState, error) {
	if len(seatIDs) == 0 {
		return nil, ErrNoSeats
	}

	args := make([]interface{}, 0, len(seatIDs))
	for _, id := range seatIDs {
		args = append(args, id.String())
	}

	raw, err := luaSeatStates.Run(ctx, r.client, []string{}, args...).Text()
	if err != nil {
		return nil, fmt.Errorf("failed to execute seat states read: %w", err)
	}
	if strings.HasPrefix(raw, "!") {
		return nil, fmt.Errorf("%w: %s", ErrSeatNotFound, strings.TrimPrefix(raw, "!"))
	}

	docs, err := parseSeatDocs(raw)
	if err != nil {
		return nil, err
	}
	out := make([]SeatState, 0, len(docs))
	for i := range docs {
		st, err := docs[i].toState()
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// HoldSeats lists the seats currently held under holdID
func (r *RedisSeatStore) HoldSeats(ctx context.Context, holdID string) ([]uuid.UUID, error) {
	members, err := r.client.SMembers(ctx, redisHoldKeyPrefix+holdID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read hold seats: %w", err)
	}
	out := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			return nil, fmt.Errorf("corrupt seat id in hold set: %w", err)
		}
		out = append(out, id)
	}
	return out, nil
}

// Version returns the store-wide change counter
func (r *RedisSeatStore) Version(ctx context.Context) (uint64, error) {
	val, err := r.client.Get(ctx, redisVersionKey).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read store version: %w", err)
	}
	v, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt store version: %w", err)
	}
	return v, nil
}

func (d *redisSeatDoc) toState() (SeatState, error) {
	seatID, err := uuid.Parse(d.SeatID)
	if err != nil {
		return SeatState{}, fmt.Errorf("corrupt seat id %q: %w", d.SeatID, err)
	}
	chartID, err := uuid.Parse(d.ChartID)
	if err != nil {
		return SeatState{}, fmt.Errorf("corrupt chart id %q: %w", d.ChartID, err)
	}
	return SeatState{
		SeatID:      seatID,
		ChartID:     chartID,
		Label:       d.Label,
		Section:     d.Section,
		Row:         d.Row,
		Number:      d.Number,
		Position:    Position{X: d.X, Y: d.Y},
		Category:    d.Category,
		Price:       d.Price,
		ViewQuality: ViewQuality(d.ViewQuality),
		Accessible:  d.Accessible == "1",
		Status:      Status(d.Status),
		HoldID:      d.HoldID,
		OrderID:     d.OrderID,
		Version:     d.Version,
		UpdatedAt:   time.Unix(d.UpdatedAt, 0).UTC(),
	}, nil
}

func parseSeatDocs(raw string) ([]redisSeatDoc, error) {
	var docs []redisSeatDoc
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		return nil, fmt.Errorf("failed to decode seat documents: %w", err)
	}
	return docs, nil
}

func parseSeatIDs(values []interface{}) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected seat id type %T in script result", v)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("corrupt seat id in script result: %w", err)
		}
		out = append(out, id)
	}
	return out, nil
}

// sortSeatStates orders snapshots by section, row, number, label so
// both Store implementations return identical orderings.
func sortSeatStates(states []SeatState) {
	sort.Slice(states, func(i, j int) bool {
		return seatStateLess(&states[i], &states[j])
	})
}

func seatStateLess(a, b *SeatState) bool {
	if a.Section != b.Section {
		return a.Section < b.Section
	}
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	if a.Number != b.Number {
		return a.Number < b.Number
	}
	return a.Label < b.Label
}
