package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/holds"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/inventory"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/seatmap"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/shared/config"
	"github.com/iradwatkins/stepper-ui-forge-sub003/pkg/logger"
)

const (
	tokenIssuer = "seating-engine"
	tokenType   = "session"

	reasonSessionEnded = "session_ended"
	reasonSessionIdle  = "session_idle"

	defaultHitTolerancePercent = 1.5
)

// Service is the per-viewer façade over the chart, the selector and
// the hold lifecycle. It owns the local selection state machine; the
// seat store stays the only authority on who actually has a seat.
type Service interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (*CreateSessionResponse, error)
	GetSession(ctx context.Context, sessionID string) (*SessionResponse, error)
	ResolvePointer(ctx context.Context, sessionID string, req PointerRequest) (*PointerResponse, error)
	SelectSeat(ctx context.Context, sessionID string, seatID string) (*SessionResponse, error)
	DeselectSeat(ctx context.Context, sessionID string, seatID string) (*SessionResponse, error)
	HoldSelection(ctx context.Context, sessionID string, req HoldSelectionRequest) (*HoldSelectionResponse, error)
	ExtendHold(ctx context.Context, sessionID string, req ExtendSelectionRequest) (*SessionResponse, error)
	EndSession(ctx context.Context, sessionID string) error

	// Reconcile folds server truth back into every session's local
	// view: expired or committed holds, and selected seats taken by
	// other buyers since the last store version this session saw.
	Reconcile(ctx context.Context) (int, error)

	// EvictIdle drops sessions past the idle timeout and best-effort
	// releases their live holds.
	EvictIdle(ctx context.Context) int

	SetNowFunc(now func() time.Time)
}

type service struct {
	holds     holds.Service
	inventory inventory.Service
	store     inventory.Store
	cfg       *config.Config
	logger    *logger.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	now func() time.Time
}

func NewService(holdService holds.Service, inventoryService inventory.Service, store inventory.Store, cfg *config.Config) Service {
	return &service{
		holds:     holdService,
		inventory: inventoryService,
		store:     store,
		cfg:       cfg,
		logger:    logger.GetDefault(),
		sessions:  make(map[string]*Session),
		now:       time.Now,
	}
}

func (s *service) SetNowFunc(now func() time.Time) {
	s.now = now
}

func (s *service) CreateSession(ctx context.Context, req CreateSessionRequest) (*CreateSessionResponse, error) {
	chartID, err := uuid.Parse(req.ChartID)
	if err != nil {
		return nil, fmt.Errorf("invalid chart ID: %w", err)
	}
	eventID := uuid.Nil
	if req.EventID != "" {
		eventID, err = uuid.Parse(req.EventID)
		if err != nil {
			return nil, fmt.Errorf("invalid event ID: %w", err)
		}
	}

	// The chart must exist before a viewer starts browsing it.
	if _, err := s.inventory.GetChart(ctx, req.ChartID); err != nil {
		return nil, err
	}

	now := s.now()
	sess := &Session{
		ID:         uuid.NewString(),
		ChartID:    chartID,
		EventID:    eventID,
		CreatedAt:  now,
		LastSeenAt: now,
		Marks:      make(map[uuid.UUID]SeatMark),
	}
	if version, verr := s.store.Version(ctx); verr == nil {
		sess.StoreVersion = version
	}

	token, tokenExpiresAt, err := s.mintToken(sess, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mint session token: %w", err)
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	snapshot := s.snapshotLocked(sess, now)
	s.mu.Unlock()

	s.logger.LogSessionStarted(ctx, sess.ID, req.ChartID)

	return &CreateSessionResponse{
		Session:        snapshot,
		Token:          token,
		TokenExpiresAt: tokenExpiresAt,
	}, nil
}

func (s *service) GetSession(ctx context.Context, sessionID string) (*SessionResponse, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getLocked(sessionID)
	if err != nil {
		return nil, err
	}
	sess.LastSeenAt = now

	// A past-due hold must never render as a live countdown, even if
	// the reconcile loop has not caught up yet.
	if sess.HoldID != "" && !sess.HoldExpiresAt.After(now) {
		s.foldHoldLossLocked(sess, false)
	}

	snapshot := s.snapshotLocked(sess, now)
	return &snapshot, nil
}

func (s *service) SelectSeat(ctx context.Context, sessionID string, seatID string) (*SessionResponse, error) {
	id, err := uuid.Parse(seatID)
	if err != nil {
		return nil, fmt.Errorf("invalid seat ID: %w", err)
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getLocked(sessionID)
	if err != nil {
		return nil, err
	}
	sess.LastSeenAt = now

	// Selecting something already in the selection is a no-op, not an
	// error. Double taps and retried requests land here.
	if _, marked := sess.Marks[id]; marked {
		snapshot := s.snapshotLocked(sess, now)
		return &snapshot, nil
	}

	if len(sess.Marks) >= s.cfg.Session.MaxSelection {
		return nil, ErrSelectionLimit
	}

	states, err := s.store.States(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, inventory.ErrSeatNotFound
	}
	state := states[0]
	if state.ChartID != sess.ChartID {
		return nil, ErrChartMismatch
	}
	if state.Status != inventory.StatusAvailable {
		return nil, fmt.Errorf("%w: seat is %s", ErrSeatNotSelectable, state.Status)
	}

	sess.mark(id, MarkSelected)
	snapshot := s.snapshotLocked(sess, now)
	return &snapshot, nil
}

func (s *service) DeselectSeat(ctx context.Context, sessionID string, seatID string) (*SessionResponse, error) {
	id, err := uuid.Parse(seatID)
	if err != nil {
		return nil, fmt.Errorf("invalid seat ID: %w", err)
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getLocked(sessionID)
	if err != nil {
		return nil, err
	}
	sess.LastSeenAt = now

	mark, marked := sess.Marks[id]
	if !marked {
		return nil, ErrSeatNotSelected
	}
	switch mark {
	case MarkHeld:
		return nil, ErrSeatHeld
	case MarkPendingHold:
		return nil, ErrHoldInFlight
	}

	sess.unmark(id)
	snapshot := s.snapshotLocked(sess, now)
	return &snapshot, nil
}

func (s *service) ResolvePointer(ctx context.Context, sessionID string, req PointerRequest) (*PointerResponse, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.RUnlock()
		return nil, ErrSessionNotFound
	}
	chartID := sess.ChartID
	s.mu.RUnlock()

	chart, err := s.inventory.GetChart(ctx, chartID.String())
	if err != nil {
		return nil, err
	}

	natural := seatmap.Size{Width: chart.ImageWidth, Height: chart.ImageHeight}
	if req.Natural.Width > 0 && req.Natural.Height > 0 {
		natural = req.Natural
	}
	drawRect := seatmap.ImageDrawRect(req.Container, natural)
	transform := seatmap.SanitizeTransform(req.Transform)
	pointer := seatmap.ToPercentSpace(req.Pointer, drawRect, transform)

	seats, err := s.inventory.GetSeats(ctx, chartID.String(), inventory.SeatFilter{})
	if err != nil {
		return nil, err
	}

	tolerance := req.TolerancePercent
	if tolerance <= 0 {
		tolerance = defaultHitTolerancePercent
	}
	hit := seatmap.HitTest(pointer, seats, tolerance)

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err = s.getLocked(sessionID)
	if err != nil {
		return nil, err
	}
	sess.LastSeenAt = now

	action := PointerActionMiss
	if hit != nil {
		switch sess.Marks[hit.SeatID] {
		case MarkSelected:
			sess.unmark(hit.SeatID)
			action = PointerActionDeselected
		case MarkPendingHold, MarkHeld:
			// Held seats toggle through the hold lifecycle, never a
			// stray tap.
			action = PointerActionIgnored
		default:
			switch {
			case hit.Status != inventory.StatusAvailable:
				action = PointerActionIgnored
			case len(sess.Marks) >= s.cfg.Session.MaxSelection:
				action = PointerActionIgnored
			default:
				sess.mark(hit.SeatID, MarkSelected)
				action = PointerActionSelected
			}
		}
	}

	return &PointerResponse{
		Pointer: newPercentPointView(pointer),
		Action:  action,
		Seat:    hit,
		Session: s.snapshotLocked(sess, now),
	}, nil
}

func (s *service) HoldSelection(ctx context.Context, sessionID string, req HoldSelectionRequest) (*HoldSelectionResponse, error) {
	now := s.now()

	s.mu.Lock()
	sess, err := s.getLocked(sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	sess.LastSeenAt = now

	if sess.holdInFlight {
		s.mu.Unlock()
		return nil, ErrHoldInFlight
	}
	if sess.HoldID != "" {
		if sess.HoldExpiresAt.After(now) {
			s.mu.Unlock()
			return nil, ErrHoldActive
		}
		// The previous hold lapsed; its seats return to intent so this
		// attempt covers them again.
		s.foldHoldLossLocked(sess, false)
	}

	pending := sess.seatsMarked(MarkSelected)
	if len(pending) == 0 {
		s.mu.Unlock()
		return nil, ErrNoSelection
	}
	for _, id := range pending {
		sess.Marks[id] = MarkPendingHold
	}
	sess.holdInFlight = true
	eventID := sess.EventID
	s.mu.Unlock()

	holdReq := holds.CreateHoldRequest{
		SessionID:  sessionID,
		SeatIDs:    uuidStrings(pending),
		TTLMinutes: req.TTLMinutes,
	}
	if eventID != uuid.Nil {
		holdReq.EventID = eventID.String()
	}

	// The session lock is not held across the hold attempt; other
	// requests on this session keep flowing while the store decides.
	result, holdErr := s.holds.CreateHold(ctx, holdReq)

	now = s.now()
	s.mu.Lock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		// The session ended mid-flight. Don't leak a hold nothing
		// owns; the sweep would catch it, but not for minutes.
		if holdErr == nil && result != nil && result.Success && result.Hold != nil {
			if err := s.holds.ReleaseHold(ctx, result.Hold.HoldID, reasonSessionEnded); err != nil {
				s.logger.ErrorWithContext(ctx, "Failed to release orphaned hold", err, map[string]interface{}{
					"session_id": sessionID,
					"hold_id":    result.Hold.HoldID,
				})
			}
		}
		return nil, ErrSessionNotFound
	}
	sess.holdInFlight = false

	if holdErr != nil {
		for _, id := range pending {
			if sess.Marks[id] == MarkPendingHold {
				sess.Marks[id] = MarkSelected
			}
		}
		s.mu.Unlock()
		return nil, holdErr
	}

	if !result.Success {
		// Roll back exactly the rejected seats: they are gone to
		// another buyer, the rest of the selection stands.
		rejected := make(map[string]bool, len(result.UnavailableSeats))
		for _, seatID := range result.UnavailableSeats {
			rejected[seatID] = true
		}
		for _, id := range pending {
			if sess.Marks[id] != MarkPendingHold {
				continue
			}
			if rejected[id.String()] {
				sess.unmark(id)
			} else {
				sess.Marks[id] = MarkSelected
			}
		}
		resp := &HoldSelectionResponse{
			Success:          false,
			UnavailableSeats: result.UnavailableSeats,
			Session:          s.snapshotLocked(sess, now),
		}
		s.mu.Unlock()
		return resp, nil
	}

	for _, id := range pending {
		if sess.Marks[id] == MarkPendingHold {
			sess.Marks[id] = MarkHeld
		}
	}
	sess.HoldID = result.Hold.HoldID
	sess.HoldExpiresAt = result.Hold.ExpiresAt

	resp := &HoldSelectionResponse{
		Success: true,
		Hold:    s.holdViewLocked(sess, now),
		Session: s.snapshotLocked(sess, now),
	}
	s.mu.Unlock()
	return resp, nil
}

func (s *service) ExtendHold(ctx context.Context, sessionID string, req ExtendSelectionRequest) (*SessionResponse, error) {
	now := s.now()

	s.mu.Lock()
	sess, err := s.getLocked(sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	sess.LastSeenAt = now
	holdID := sess.HoldID
	s.mu.Unlock()

	if holdID == "" {
		return nil, ErrNoActiveHold
	}

	hold, extendErr := s.holds.ExtendHold(ctx, holdID, holds.ExtendHoldRequest{
		AdditionalMinutes: req.AdditionalMinutes,
	})

	now = s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err = s.getLocked(sessionID)
	if err != nil {
		return nil, err
	}

	if extendErr != nil {
		// A dead hold surfaces here before the reconcile tick; fold the
		// loss in now so the next render is honest.
		if errors.Is(extendErr, holds.ErrHoldNotActive) || errors.Is(extendErr, holds.ErrHoldNotFound) {
			s.foldHoldLossLocked(sess, false)
		}
		return nil, extendErr
	}

	if sess.HoldID == holdID {
		sess.HoldExpiresAt = hold.ExpiresAt
	}
	snapshot := s.snapshotLocked(sess, now)
	return &snapshot, nil
}

func (s *service) EndSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	holdID := sess.HoldID
	s.mu.Unlock()

	// Best effort: if the release fails the sweep reclaims the seats
	// at TTL expiry.
	if holdID != "" {
		if err := s.holds.ReleaseHold(ctx, holdID, reasonSessionEnded); err != nil {
			s.logger.ErrorWithContext(ctx, "Failed to release hold for ended session", err, map[string]interface{}{
				"session_id": sessionID,
				"hold_id":    holdID,
			})
		}
	}
	return nil
}

func (s *service) Reconcile(ctx context.Context) (int, error) {
	version, err := s.store.Version(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read store version: %w", err)
	}
	now := s.now()

	// Pass 1: under a read lock, find which charts and holds need
	// fresh server truth.
	s.mu.RLock()
	chartIDs := make(map[uuid.UUID]bool)
	var dueHolds []string
	for _, sess := range s.sessions {
		if sess.StoreVersion != version {
			chartIDs[sess.ChartID] = true
		}
		if sess.HoldID != "" && !sess.HoldExpiresAt.After(now) {
			dueHolds = append(dueHolds, sess.HoldID)
		}
	}
	s.mu.RUnlock()

	if len(chartIDs) == 0 && len(dueHolds) == 0 {
		return 0, nil
	}

	// Pass 2: fetch without holding the session lock; store and hold
	// reads may touch Redis or the database.
	seatTruth := make(map[uuid.UUID]inventory.SeatState)
	for chartID := range chartIDs {
		states, serr := s.store.Snapshot(ctx, inventory.SnapshotFilter{ChartID: chartID})
		if serr != nil {
			s.logger.ErrorWithContext(ctx, "Failed to snapshot chart during session reconcile", serr, map[string]interface{}{
				"chart_id": chartID.String(),
			})
			continue
		}
		for _, state := range states {
			seatTruth[state.SeatID] = state
		}
	}
	holdViews := make(map[string]*holds.HoldResponse, len(dueHolds))
	for _, holdID := range dueHolds {
		if hold, herr := s.holds.GetHold(ctx, holdID); herr == nil {
			holdViews[hold.HoldID] = hold
		}
	}

	// Pass 3: fold the fetched truth into each session's local view.
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := 0
	for _, sess := range s.sessions {
		changed := false

		if sess.HoldID != "" && !sess.HoldExpiresAt.After(now) {
			hold, known := holdViews[sess.HoldID]
			switch {
			case known && hold.Status == string(holds.StatusActive):
				// Extended elsewhere; adopt the authoritative expiry.
				if !hold.ExpiresAt.Equal(sess.HoldExpiresAt) {
					sess.HoldExpiresAt = hold.ExpiresAt
					changed = true
				}
			case known && hold.Status == string(holds.StatusCommitted):
				// Checkout finished; the seats are sold, the local
				// selection has nothing left to say about them.
				s.foldHoldLossLocked(sess, true)
				changed = true
			default:
				s.foldHoldLossLocked(sess, false)
				changed = true
			}
		}

		if sess.StoreVersion != version {
			// A hold can end without its expiry passing: checkout
			// commits it, or an admin block evicts the seats. The
			// store's verdict on the held seats says which.
			if sess.HoldID != "" {
				sold, lost := false, false
				for _, id := range sess.seatsMarked(MarkHeld) {
					truth, ok := seatTruth[id]
					if !ok {
						continue
					}
					switch {
					case truth.Status == inventory.StatusSold:
						sold = true
					case truth.Status == inventory.StatusHeld && truth.HoldID == sess.HoldID:
						// Still ours.
					default:
						lost = true
					}
				}
				if sold {
					s.foldHoldLossLocked(sess, true)
					changed = true
				} else if lost {
					s.foldHoldLossLocked(sess, false)
					changed = true
				}
			}

			// Prune intents the store says are gone, including any the
			// fold above just reverted.
			for _, id := range sess.seatsMarked(MarkSelected) {
				if truth, ok := seatTruth[id]; ok && truth.Status != inventory.StatusAvailable {
					sess.unmark(id)
					changed = true
				}
			}
			sess.StoreVersion = version
		}

		if changed {
			touched++
		}
	}
	return touched, nil
}

func (s *service) EvictIdle(ctx context.Context) int {
	now := s.now()
	idle := s.cfg.Session.IdleTimeout

	s.mu.Lock()
	var evicted []*Session
	for id, sess := range s.sessions {
		if sess.holdInFlight {
			continue
		}
		if now.Sub(sess.LastSeenAt) > idle {
			delete(s.sessions, id)
			evicted = append(evicted, sess)
		}
	}
	s.mu.Unlock()

	for _, sess := range evicted {
		s.logger.LogSessionEvicted(ctx, sess.ID, now.Sub(sess.LastSeenAt))
		if sess.HoldID != "" {
			if err := s.holds.ReleaseHold(ctx, sess.HoldID, reasonSessionIdle); err != nil {
				s.logger.ErrorWithContext(ctx, "Failed to release hold for idle session", err, map[string]interface{}{
					"session_id": sess.ID,
					"hold_id":    sess.HoldID,
				})
			}
		}
	}
	return len(evicted)
}

// getLocked looks a session up; the caller holds the mutex.
func (s *service) getLocked(sessionID string) (*Session, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// foldHoldLossLocked clears a dead hold out of the local view. When
// the hold committed the seats are sold and leave the selection; any
// other exit returns them to plain intent so the buyer can retry.
func (s *service) foldHoldLossLocked(sess *Session, committed bool) {
	for _, id := range append([]uuid.UUID(nil), sess.Order...) {
		if sess.Marks[id] != MarkHeld {
			continue
		}
		if committed {
			sess.unmark(id)
		} else {
			sess.Marks[id] = MarkSelected
		}
	}
	sess.HoldID = ""
	sess.HoldExpiresAt = time.Time{}
}

func (s *service) snapshotLocked(sess *Session, now time.Time) SessionResponse {
	selection := make([]SeatMarkView, 0, len(sess.Order))
	for _, id := range sess.Order {
		selection = append(selection, SeatMarkView{SeatID: id.String(), Mark: sess.Marks[id]})
	}

	resp := SessionResponse{
		SessionID:      sess.ID,
		ChartID:        sess.ChartID.String(),
		CreatedAt:      sess.CreatedAt,
		LastSeenAt:     sess.LastSeenAt,
		Selection:      selection,
		SelectionCount: len(selection),
		MaxSelection:   s.cfg.Session.MaxSelection,
		StoreVersion:   sess.StoreVersion,
		Hold:           s.holdViewLocked(sess, now),
	}
	if sess.EventID != uuid.Nil {
		resp.EventID = sess.EventID.String()
	}
	return resp
}

func (s *service) holdViewLocked(sess *Session, now time.Time) *SessionHoldView {
	if sess.HoldID == "" {
		return nil
	}
	countdown := 0
	if remaining := sess.HoldExpiresAt.Sub(now); remaining > 0 {
		countdown = int(remaining.Round(time.Second) / time.Second)
	}
	return &SessionHoldView{
		HoldID:           sess.HoldID,
		ExpiresAt:        sess.HoldExpiresAt,
		CountdownSeconds: countdown,
	}
}

func (s *service) mintToken(sess *Session, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.cfg.Session.TokenTTL)
	claims := SessionClaims{
		SessionID: sess.ID,
		ChartID:   sess.ChartID.String(),
		Type:      tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    tokenIssuer,
			Subject:   sess.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Session.TokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
