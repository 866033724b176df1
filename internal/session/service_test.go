package session

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/holds"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/inventory"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/seatmap"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/shared/config"
)

// fakeClock lets tests step time across expiry and idle boundaries.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// stubInventory serves the one chart the fixture owns and reads live
// seat state straight from the store.
type stubInventory struct {
	inventory.Service
	chart *inventory.Chart
	store inventory.Store
}

func (s *stubInventory) GetChart(ctx context.Context, chartID string) (*inventory.Chart, error) {
	if chartID != s.chart.ID.String() {
		return nil, inventory.ErrChartNotFound
	}
	return s.chart, nil
}

func (s *stubInventory) GetSeats(ctx context.Context, chartID string, filter inventory.SeatFilter) ([]inventory.SeatState, error) {
	id, err := uuid.Parse(chartID)
	if err != nil {
		return nil, err
	}
	return s.store.Snapshot(ctx, inventory.SnapshotFilter{ChartID: id})
}

// stubHolds drives the real store so session views and seat statuses
// stay honest, while keeping the lifecycle bookkeeping trivial.
type stubHolds struct {
	holds.Service
	store inventory.Store
	clock *fakeClock

	mu         sync.Mutex
	responses  map[string]*holds.HoldResponse
	releases   []string
	failCreate error
	extendErr  error
}

func newStubHolds(store inventory.Store, clock *fakeClock) *stubHolds {
	return &stubHolds{
		store:     store,
		clock:     clock,
		responses: make(map[string]*holds.HoldResponse),
	}
}

func (h *stubHolds) CreateHold(ctx context.Context, req holds.CreateHoldRequest) (*holds.HoldResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failCreate != nil {
		return nil, h.failCreate
	}

	seatIDs := make([]uuid.UUID, 0, len(req.SeatIDs))
	for _, raw := range req.SeatIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		seatIDs = append(seatIDs, id)
	}

	holdID := uuid.NewString()
	result, err := h.store.TryAcquire(ctx, holdID, seatIDs)
	if err != nil {
		return nil, err
	}
	if !result.OK {
		unavailable := make([]string, len(result.Unavailable))
		for i, id := range result.Unavailable {
			unavailable[i] = id.String()
		}
		return &holds.HoldResult{Success: false, UnavailableSeats: unavailable}, nil
	}

	now := h.clock.Now()
	resp := &holds.HoldResponse{
		HoldID:    holdID,
		SessionID: req.SessionID,
		SeatIDs:   req.SeatIDs,
		Status:    string(holds.StatusActive),
		CreatedAt: now,
		ExpiresAt: now.Add(10 * time.Minute),
	}
	h.responses[holdID] = resp
	return &holds.HoldResult{Success: true, Hold: resp}, nil
}

func (h *stubHolds) GetHold(ctx context.Context, holdID string) (*holds.HoldResponse, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	resp, ok := h.responses[holdID]
	if !ok {
		return nil, holds.ErrHoldNotFound
	}
	cp := *resp
	return &cp, nil
}

func (h *stubHolds) ExtendHold(ctx context.Context, holdID string, req holds.ExtendHoldRequest) (*holds.HoldResponse, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.extendErr != nil {
		return nil, h.extendErr
	}
	resp, ok := h.responses[holdID]
	if !ok {
		return nil, holds.ErrHoldNotFound
	}
	resp.ExpiresAt = resp.ExpiresAt.Add(5 * time.Minute)
	cp := *resp
	return &cp, nil
}

func (h *stubHolds) ReleaseHold(ctx context.Context, holdID string, reason string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.releases = append(h.releases, holdID)
	if _, err := h.store.Release(ctx, holdID); err != nil {
		return err
	}
	if resp, ok := h.responses[holdID]; ok {
		resp.Status = string(holds.StatusReleased)
	}
	return nil
}

// expire mimics the sweep: seats freed, lifecycle verdict EXPIRED.
func (h *stubHolds) expire(ctx context.Context, t *testing.T, holdID string) {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.store.Release(ctx, holdID)
	require.NoError(t, err)
	if resp, ok := h.responses[holdID]; ok {
		resp.Status = string(holds.StatusExpired)
	}
}

type sessionFixture struct {
	service Service
	store   inventory.Store
	clock   *fakeClock
	holds   *stubHolds
	chartID uuid.UUID
	seats   []inventory.SeatState
}

// newSessionFixture wires the manager against a real memory store with
// six seats in one row, 4% apart, on a 1600x900 chart.
func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	clock := newFakeClock()
	store := inventory.NewMemoryStore()
	chartID := uuid.New()

	seats := make([]inventory.SeatState, 6)
	for i := range seats {
		seats[i] = inventory.SeatState{
			SeatID:   uuid.New(),
			ChartID:  chartID,
			Label:    fmt.Sprintf("A-1-%d", i+1),
			Section:  "A",
			Row:      "1",
			Number:   i + 1,
			Position: inventory.Position{X: float64(10 + i*4), Y: 20},
			Category: "ga",
			Price:    50,
			Status:   inventory.StatusAvailable,
		}
	}
	require.NoError(t, store.Register(context.Background(), seats))

	chart := &inventory.Chart{
		ID:          chartID,
		Name:        "Main Hall",
		ImageWidth:  1600,
		ImageHeight: 900,
		Categories: []inventory.SeatCategory{
			{ChartID: chartID, Key: "ga", Name: "General", Color: "#C0362C"},
		},
	}

	holdStub := newStubHolds(store, clock)
	cfg := &config.Config{
		Session: config.SessionConfig{
			TokenSecret:       "test-secret",
			TokenTTL:          2 * time.Hour,
			MaxSelection:      3,
			ReconcileInterval: 2 * time.Second,
			IdleTimeout:       30 * time.Minute,
		},
	}

	service := NewService(holdStub, &stubInventory{chart: chart, store: store}, store, cfg)
	service.SetNowFunc(clock.Now)

	return &sessionFixture{
		service: service,
		store:   store,
		clock:   clock,
		holds:   holdStub,
		chartID: chartID,
		seats:   seats,
	}
}

func (fx *sessionFixture) createSession(t *testing.T) string {
	t.Helper()
	resp, err := fx.service.CreateSession(context.Background(), CreateSessionRequest{ChartID: fx.chartID.String()})
	require.NoError(t, err)
	return resp.Session.SessionID
}

func (fx *sessionFixture) selectSeats(t *testing.T, sessionID string, indexes ...int) {
	t.Helper()
	for _, i := range indexes {
		_, err := fx.service.SelectSeat(context.Background(), sessionID, fx.seats[i].SeatID.String())
		require.NoError(t, err)
	}
}

func (fx *sessionFixture) seatStatus(t *testing.T, index int) inventory.Status {
	t.Helper()
	states, err := fx.store.States(context.Background(), []uuid.UUID{fx.seats[index].SeatID})
	require.NoError(t, err)
	return states[0].Status
}

func marksOf(resp SessionResponse) map[string]SeatMark {
	marks := make(map[string]SeatMark, len(resp.Selection))
	for _, entry := range resp.Selection {
		marks[entry.SeatID] = entry.Mark
	}
	return marks
}

func TestCreateSession(t *testing.T) {
	fx := newSessionFixture(t)
	ctx := context.Background()

	t.Run("mints a verifiable session token", func(t *testing.T) {
		resp, err := fx.service.CreateSession(ctx, CreateSessionRequest{ChartID: fx.chartID.String()})
		require.NoError(t, err)

		assert.NotEmpty(t, resp.Session.SessionID)
		assert.Equal(t, fx.chartID.String(), resp.Session.ChartID)
		assert.Equal(t, 3, resp.Session.MaxSelection)
		require.NotEmpty(t, resp.Token)

		claims := &SessionClaims{}
		token, err := jwt.ParseWithClaims(resp.Token, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte("test-secret"), nil
		})
		require.NoError(t, err)
		assert.True(t, token.Valid)
		assert.Equal(t, resp.Session.SessionID, claims.SessionID)
		assert.Equal(t, fx.chartID.String(), claims.ChartID)
		assert.Equal(t, "session", claims.Type)
	})

	t.Run("unknown chart is rejected", func(t *testing.T) {
		_, err := fx.service.CreateSession(ctx, CreateSessionRequest{ChartID: uuid.NewString()})
		assert.ErrorIs(t, err, inventory.ErrChartNotFound)
	})
}

func TestSelectSeat(t *testing.T) {
	ctx := context.Background()

	t.Run("marks an available seat as selected", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)

		resp, err := fx.service.SelectSeat(ctx, sessionID, fx.seats[0].SeatID.String())
		require.NoError(t, err)

		require.Len(t, resp.Selection, 1)
		assert.Equal(t, MarkSelected, resp.Selection[0].Mark)
		// Selection is local intent; the store still shows the seat
		// free for everyone else.
		assert.Equal(t, inventory.StatusAvailable, fx.seatStatus(t, 0))
	})

	t.Run("re-selecting is a no-op", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)
		fx.selectSeats(t, sessionID, 0)

		resp, err := fx.service.SelectSeat(ctx, sessionID, fx.seats[0].SeatID.String())
		require.NoError(t, err)
		assert.Len(t, resp.Selection, 1)
	})

	t.Run("enforces the selection cap", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)
		fx.selectSeats(t, sessionID, 0, 1, 2)

		_, err := fx.service.SelectSeat(ctx, sessionID, fx.seats[3].SeatID.String())
		assert.ErrorIs(t, err, ErrSelectionLimit)
	})

	t.Run("seat taken by another buyer is not selectable", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)

		_, err := fx.store.TryAcquire(ctx, "rival-hold", []uuid.UUID{fx.seats[3].SeatID})
		require.NoError(t, err)

		_, err = fx.service.SelectSeat(ctx, sessionID, fx.seats[3].SeatID.String())
		assert.ErrorIs(t, err, ErrSeatNotSelectable)
	})

	t.Run("seat from another chart is rejected", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)

		foreign := inventory.SeatState{
			SeatID:   uuid.New(),
			ChartID:  uuid.New(),
			Label:    "Z-1-1",
			Section:  "Z",
			Row:      "1",
			Number:   1,
			Position: inventory.Position{X: 50, Y: 80},
			Status:   inventory.StatusAvailable,
		}
		require.NoError(t, fx.store.Register(ctx, []inventory.SeatState{foreign}))

		_, err := fx.service.SelectSeat(ctx, sessionID, foreign.SeatID.String())
		assert.ErrorIs(t, err, ErrChartMismatch)
	})

	t.Run("unknown seat is a lookup failure", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)

		_, err := fx.service.SelectSeat(ctx, sessionID, uuid.NewString())
		assert.ErrorIs(t, err, inventory.ErrSeatNotFound)
	})
}

func TestDeselectSeat(t *testing.T) {
	ctx := context.Background()

	t.Run("removes a selected seat", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)
		fx.selectSeats(t, sessionID, 0, 1)

		resp, err := fx.service.DeselectSeat(ctx, sessionID, fx.seats[0].SeatID.String())
		require.NoError(t, err)

		require.Len(t, resp.Selection, 1)
		assert.Equal(t, fx.seats[1].SeatID.String(), resp.Selection[0].SeatID)
	})

	t.Run("seat not in the selection", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)

		_, err := fx.service.DeselectSeat(ctx, sessionID, fx.seats[0].SeatID.String())
		assert.ErrorIs(t, err, ErrSeatNotSelected)
	})

	t.Run("held seats only leave through the hold", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)
		fx.selectSeats(t, sessionID, 0)

		_, err := fx.service.HoldSelection(ctx, sessionID, HoldSelectionRequest{})
		require.NoError(t, err)

		_, err = fx.service.DeselectSeat(ctx, sessionID, fx.seats[0].SeatID.String())
		assert.ErrorIs(t, err, ErrSeatHeld)
	})
}

func TestResolvePointer(t *testing.T) {
	ctx := context.Background()

	// Container 800x450 over a 1600x900 image: the draw rect fills the
	// container, so seat (10%, 20%) renders at (80, 90).
	container := seatmap.Size{Width: 800, Height: 450}

	t.Run("tap near a seat selects it", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)

		resp, err := fx.service.ResolvePointer(ctx, sessionID, PointerRequest{
			Container: container,
			Transform: seatmap.IdentityTransform(),
			Pointer:   seatmap.Point{X: 80.5, Y: 90},
		})
		require.NoError(t, err)

		assert.Equal(t, PointerActionSelected, resp.Action)
		require.NotNil(t, resp.Seat)
		assert.Equal(t, fx.seats[0].SeatID, resp.Seat.SeatID)
		require.Len(t, resp.Session.Selection, 1)
	})

	t.Run("second tap on the same seat deselects", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)

		req := PointerRequest{
			Container: container,
			Transform: seatmap.IdentityTransform(),
			Pointer:   seatmap.Point{X: 80.5, Y: 90},
		}
		_, err := fx.service.ResolvePointer(ctx, sessionID, req)
		require.NoError(t, err)

		resp, err := fx.service.ResolvePointer(ctx, sessionID, req)
		require.NoError(t, err)
		assert.Equal(t, PointerActionDeselected, resp.Action)
		assert.Empty(t, resp.Session.Selection)
	})

	t.Run("zoom and pan land on the same seat", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)

		// Seat (10%, 20%) at zoom 2 with pan (10, -20) renders at
		// (80*2+10, 90*2-20) = (170, 160).
		resp, err := fx.service.ResolvePointer(ctx, sessionID, PointerRequest{
			Container: container,
			Transform: seatmap.ViewTransform{Zoom: 2, PanX: 10, PanY: -20},
			Pointer:   seatmap.Point{X: 170, Y: 160},
		})
		require.NoError(t, err)

		assert.Equal(t, PointerActionSelected, resp.Action)
		require.NotNil(t, resp.Seat)
		assert.Equal(t, fx.seats[0].SeatID, resp.Seat.SeatID)
	})

	t.Run("tap on empty space is a miss", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)

		resp, err := fx.service.ResolvePointer(ctx, sessionID, PointerRequest{
			Container: container,
			Transform: seatmap.IdentityTransform(),
			Pointer:   seatmap.Point{X: 400, Y: 30},
		})
		require.NoError(t, err)

		assert.Equal(t, PointerActionMiss, resp.Action)
		assert.Nil(t, resp.Seat)
	})

	t.Run("tap on a held seat is ignored", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)
		fx.selectSeats(t, sessionID, 0)
		_, err := fx.service.HoldSelection(ctx, sessionID, HoldSelectionRequest{})
		require.NoError(t, err)

		resp, err := fx.service.ResolvePointer(ctx, sessionID, PointerRequest{
			Container: container,
			Transform: seatmap.IdentityTransform(),
			Pointer:   seatmap.Point{X: 80.5, Y: 90},
		})
		require.NoError(t, err)

		assert.Equal(t, PointerActionIgnored, resp.Action)
		require.Len(t, resp.Session.Selection, 1)
		assert.Equal(t, MarkHeld, resp.Session.Selection[0].Mark)
	})

	t.Run("garbage transform still resolves", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)

		// Non-finite zoom sanitizes to identity, so the same pointer
		// hits the same seat instead of propagating NaN.
		resp, err := fx.service.ResolvePointer(ctx, sessionID, PointerRequest{
			Container: container,
			Transform: seatmap.ViewTransform{Zoom: math.Inf(1), PanX: 0, PanY: 0},
			Pointer:   seatmap.Point{X: 80.5, Y: 90},
		})
		require.NoError(t, err)
		assert.Equal(t, PointerActionSelected, resp.Action)
	})
}

func TestHoldSelection(t *testing.T) {
	ctx := context.Background()

	t.Run("acquires the pending selection", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)
		fx.selectSeats(t, sessionID, 0, 1)

		resp, err := fx.service.HoldSelection(ctx, sessionID, HoldSelectionRequest{})
		require.NoError(t, err)

		assert.True(t, resp.Success)
		require.NotNil(t, resp.Hold)
		assert.Equal(t, 600, resp.Hold.CountdownSeconds)

		marks := marksOf(resp.Session)
		assert.Equal(t, MarkHeld, marks[fx.seats[0].SeatID.String()])
		assert.Equal(t, MarkHeld, marks[fx.seats[1].SeatID.String()])
		assert.Equal(t, inventory.StatusHeld, fx.seatStatus(t, 0))
		assert.Equal(t, inventory.StatusHeld, fx.seatStatus(t, 1))
	})

	t.Run("empty selection has nothing to hold", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)

		_, err := fx.service.HoldSelection(ctx, sessionID, HoldSelectionRequest{})
		assert.ErrorIs(t, err, ErrNoSelection)
	})

	t.Run("rejected seats are dropped, the rest roll back", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)
		fx.selectSeats(t, sessionID, 0, 1, 2)

		_, err := fx.store.TryAcquire(ctx, "rival-hold", []uuid.UUID{fx.seats[1].SeatID})
		require.NoError(t, err)

		resp, err := fx.service.HoldSelection(ctx, sessionID, HoldSelectionRequest{})
		require.NoError(t, err)

		assert.False(t, resp.Success)
		assert.Equal(t, []string{fx.seats[1].SeatID.String()}, resp.UnavailableSeats)

		marks := marksOf(resp.Session)
		assert.Equal(t, MarkSelected, marks[fx.seats[0].SeatID.String()])
		assert.Equal(t, MarkSelected, marks[fx.seats[2].SeatID.String()])
		assert.NotContains(t, marks, fx.seats[1].SeatID.String())

		// The failed acquire mutated nothing.
		assert.Equal(t, inventory.StatusAvailable, fx.seatStatus(t, 0))
		assert.Equal(t, inventory.StatusAvailable, fx.seatStatus(t, 2))
	})

	t.Run("one live hold per session", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)
		fx.selectSeats(t, sessionID, 0)
		_, err := fx.service.HoldSelection(ctx, sessionID, HoldSelectionRequest{})
		require.NoError(t, err)

		fx.selectSeats(t, sessionID, 1)
		_, err = fx.service.HoldSelection(ctx, sessionID, HoldSelectionRequest{})
		assert.ErrorIs(t, err, ErrHoldActive)
	})

	t.Run("lifecycle failure rolls the whole selection back", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)
		fx.selectSeats(t, sessionID, 0, 1)
		fx.holds.failCreate = assert.AnError

		_, err := fx.service.HoldSelection(ctx, sessionID, HoldSelectionRequest{})
		assert.Error(t, err)

		state, err := fx.service.GetSession(ctx, sessionID)
		require.NoError(t, err)
		marks := marksOf(*state)
		assert.Equal(t, MarkSelected, marks[fx.seats[0].SeatID.String()])
		assert.Equal(t, MarkSelected, marks[fx.seats[1].SeatID.String()])
		assert.Nil(t, state.Hold)
	})
}

func TestExtendHold(t *testing.T) {
	ctx := context.Background()

	t.Run("adopts the new expiry", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)
		fx.selectSeats(t, sessionID, 0)
		_, err := fx.service.HoldSelection(ctx, sessionID, HoldSelectionRequest{})
		require.NoError(t, err)

		resp, err := fx.service.ExtendHold(ctx, sessionID, ExtendSelectionRequest{})
		require.NoError(t, err)

		require.NotNil(t, resp.Hold)
		assert.Equal(t, 900, resp.Hold.CountdownSeconds)
	})

	t.Run("no hold to extend", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)

		_, err := fx.service.ExtendHold(ctx, sessionID, ExtendSelectionRequest{})
		assert.ErrorIs(t, err, ErrNoActiveHold)
	})

	t.Run("dead hold folds into the view on the spot", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)
		fx.selectSeats(t, sessionID, 0)
		_, err := fx.service.HoldSelection(ctx, sessionID, HoldSelectionRequest{})
		require.NoError(t, err)
		fx.holds.extendErr = holds.ErrHoldNotActive

		_, err = fx.service.ExtendHold(ctx, sessionID, ExtendSelectionRequest{})
		assert.ErrorIs(t, err, holds.ErrHoldNotActive)

		state, err := fx.service.GetSession(ctx, sessionID)
		require.NoError(t, err)
		assert.Nil(t, state.Hold)
		marks := marksOf(*state)
		assert.Equal(t, MarkSelected, marks[fx.seats[0].SeatID.String()])
	})
}

func TestEndSession(t *testing.T) {
	ctx := context.Background()

	t.Run("releases the live hold on the way out", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)
		fx.selectSeats(t, sessionID, 0)
		_, err := fx.service.HoldSelection(ctx, sessionID, HoldSelectionRequest{})
		require.NoError(t, err)
		require.Equal(t, inventory.StatusHeld, fx.seatStatus(t, 0))

		require.NoError(t, fx.service.EndSession(ctx, sessionID))

		assert.Equal(t, inventory.StatusAvailable, fx.seatStatus(t, 0))
		assert.Len(t, fx.holds.releases, 1)

		_, err = fx.service.GetSession(ctx, sessionID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("ending twice reports the session gone", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)

		require.NoError(t, fx.service.EndSession(ctx, sessionID))
		assert.ErrorIs(t, fx.service.EndSession(ctx, sessionID), ErrSessionNotFound)
	})
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("expired hold reverts held seats to intent", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)
		fx.selectSeats(t, sessionID, 0, 1)
		holdResp, err := fx.service.HoldSelection(ctx, sessionID, HoldSelectionRequest{})
		require.NoError(t, err)

		fx.clock.Advance(11 * time.Minute)
		fx.holds.expire(ctx, t, holdResp.Hold.HoldID)

		touched, err := fx.service.Reconcile(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, touched)

		state, err := fx.service.GetSession(ctx, sessionID)
		require.NoError(t, err)
		assert.Nil(t, state.Hold)
		marks := marksOf(*state)
		assert.Equal(t, MarkSelected, marks[fx.seats[0].SeatID.String()])
		assert.Equal(t, MarkSelected, marks[fx.seats[1].SeatID.String()])
	})

	t.Run("committed hold leaves the selection entirely", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)
		fx.selectSeats(t, sessionID, 0, 1)
		holdResp, err := fx.service.HoldSelection(ctx, sessionID, HoldSelectionRequest{})
		require.NoError(t, err)

		_, err = fx.store.Commit(ctx, holdResp.Hold.HoldID, "order-1")
		require.NoError(t, err)

		touched, err := fx.service.Reconcile(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, touched)

		state, err := fx.service.GetSession(ctx, sessionID)
		require.NoError(t, err)
		assert.Nil(t, state.Hold)
		assert.Empty(t, state.Selection)
	})

	t.Run("seats sold elsewhere drop out of the selection", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)
		fx.selectSeats(t, sessionID, 0, 1)

		_, err := fx.store.TryAcquire(ctx, "rival-hold", []uuid.UUID{fx.seats[1].SeatID})
		require.NoError(t, err)
		_, err = fx.store.Commit(ctx, "rival-hold", "order-9")
		require.NoError(t, err)

		touched, err := fx.service.Reconcile(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, touched)

		state, err := fx.service.GetSession(ctx, sessionID)
		require.NoError(t, err)
		marks := marksOf(*state)
		assert.Contains(t, marks, fx.seats[0].SeatID.String())
		assert.NotContains(t, marks, fx.seats[1].SeatID.String())
	})

	t.Run("quiet store touches nothing", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)
		fx.selectSeats(t, sessionID, 0)

		_, err := fx.service.Reconcile(ctx)
		require.NoError(t, err)

		second, err := fx.service.Reconcile(ctx)
		require.NoError(t, err)
		assert.Zero(t, second)

		state, err := fx.service.GetSession(ctx, sessionID)
		require.NoError(t, err)
		assert.Len(t, state.Selection, 1)
	})
}

func TestEvictIdle(t *testing.T) {
	ctx := context.Background()

	t.Run("drops stale sessions and frees their seats", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)
		fx.selectSeats(t, sessionID, 0)
		_, err := fx.service.HoldSelection(ctx, sessionID, HoldSelectionRequest{})
		require.NoError(t, err)

		fx.clock.Advance(31 * time.Minute)

		evicted := fx.service.EvictIdle(ctx)
		assert.Equal(t, 1, evicted)
		assert.Equal(t, inventory.StatusAvailable, fx.seatStatus(t, 0))

		_, err = fx.service.GetSession(ctx, sessionID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("active sessions stay", func(t *testing.T) {
		fx := newSessionFixture(t)
		sessionID := fx.createSession(t)

		fx.clock.Advance(10 * time.Minute)
		_, err := fx.service.GetSession(ctx, sessionID)
		require.NoError(t, err)

		fx.clock.Advance(25 * time.Minute)

		evicted := fx.service.EvictIdle(ctx)
		assert.Zero(t, evicted)
	})
}
