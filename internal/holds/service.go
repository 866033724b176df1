package holds

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/events"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/inventory"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/shared/config"
	"github.com/iradwatkins/stepper-ui-forge-sub003/pkg/logger"
)

// Terminal holds stay in the registry for a short window so recent
// lookups stay cheap, then the sweep purges them. The audit rows remain
// in Postgres forever.
const resolvedRetention = 5 * time.Minute

// Audit rows unknown to the registry must be this far past due before
// the reconciler expires them, so it never races a live resolution.
const auditGraceWindow = 1 * time.Minute

// Release reasons recorded on the audit row.
const (
	ReasonUserReleased = "user_released"
	ReasonTTLExpired   = "ttl_expired"
	ReasonSeatsEvicted = "seats_evicted"
)

// Service owns the hold lifecycle: acquisition, TTL accounting,
// extension, release, expiration and commit. It is the only component
// that resolves holds, and every hold resolves exactly once.
type Service interface {
	CreateHold(ctx context.Context, req CreateHoldRequest) (*HoldResult, error)
	GetHold(ctx context.Context, holdID string) (*HoldResponse, error)
	GetSessionHolds(ctx context.Context, sessionID string) (*SessionHoldsResponse, error)
	ExtendHold(ctx context.Context, holdID string, req ExtendHoldRequest) (*HoldResponse, error)
	ReleaseHold(ctx context.Context, holdID string, reason string) error
	CommitHold(ctx context.Context, holdID string, req CommitHoldRequest) (*HoldResponse, error)
	SweepExpired(ctx context.Context) (int, error)
	ReconcileAuditTrail(ctx context.Context) (int, error)
	RehydrateActiveHolds(ctx context.Context) (int, error)
	SetEventPublisher(publisher events.Publisher)
	SetNowFunc(now func() time.Time)
}

type service struct {
	repo      Repository
	store     inventory.Store
	inventory inventory.Service
	cfg       *config.Config
	publisher events.Publisher
	logger    *logger.Logger

	mu    sync.RWMutex
	holds map[string]*Hold
	now   func() time.Time
}

func NewService(repo Repository, store inventory.Store, inventoryService inventory.Service, cfg *config.Config) Service {
	return &service{
		repo:      repo,
		store:     store,
		inventory: inventoryService,
		cfg:       cfg,
		publisher: events.NewNoopPublisher(),
		logger:    logger.GetDefault(),
		holds:     make(map[string]*Hold),
		now:       time.Now,
	}
}

// SetEventPublisher wires the Kafka publisher after construction. The
// default is a no-op publisher, so wiring is optional.
func (s *service) SetEventPublisher(publisher events.Publisher) {
	if publisher != nil {
		s.publisher = publisher
	}
}

// SetNowFunc overrides the clock. Tests use it to step time across the
// expiry boundary deterministically.
func (s *service) SetNowFunc(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateHold attempts to acquire every requested seat under one new
// hold. Contention is a normal outcome: the result reports the seats
// that could not be acquired and nothing is held. On contention the
// service first expires any conflicting hold that is already past due,
// then retries once, so a stale hold never blocks a buyer for longer
// than one request.
func (s *service) CreateHold(ctx context.Context, req CreateHoldRequest) (*HoldResult, error) {
	seatIDs, err := parseSeatIDs(req.SeatIDs)
	if err != nil {
		return nil, err
	}
	if len(seatIDs) == 0 {
		return nil, inventory.ErrNoSeats
	}
	ttl := s.clampTTL(req.TTLMinutes)

	// Resolve the chart up front; unknown seats fail here, before
	// anything is acquired.
	states, err := s.store.States(ctx, seatIDs)
	if err != nil {
		return nil, err
	}
	chartID := states[0].ChartID
	for _, st := range states[1:] {
		if st.ChartID != chartID {
			return nil, ErrSeatsSpanCharts
		}
	}

	var eventID uuid.UUID
	if req.EventID != "" {
		eventID, _ = uuid.Parse(req.EventID)
	}

	holdID := uuid.New()
	result, err := s.store.TryAcquire(ctx, holdID.String(), seatIDs)
	if err != nil {
		return nil, err
	}
	if !result.OK && s.expireDueOwners(ctx, result.Unavailable) {
		result, err = s.store.TryAcquire(ctx, holdID.String(), seatIDs)
		if err != nil {
			return nil, err
		}
	}
	if !result.OK {
		for _, id := range result.Unavailable {
			s.logger.LogSeatConflict(ctx, id.String(), req.SessionID)
		}
		return &HoldResult{
			Success:          false,
			UnavailableSeats: uuidStrings(result.Unavailable),
		}, nil
	}

	now := s.now()
	hold := &Hold{
		ID:        holdID,
		SessionID: req.SessionID,
		EventID:   eventID,
		ChartID:   chartID,
		SeatIDs:   seatIDs,
		Status:    StatusActive,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	s.mu.Lock()
	s.holds[holdID.String()] = hold
	s.mu.Unlock()

	if err := s.repo.CreateHold(ctx, recordFromHold(hold)); err != nil {
		// No seat may stay held without an audit row behind it.
		s.mu.Lock()
		delete(s.holds, holdID.String())
		s.mu.Unlock()
		if _, relErr := s.store.Release(ctx, holdID.String()); relErr != nil {
			s.logger.ErrorWithContext(ctx, "failed to release seats after audit write failure", relErr, map[string]interface{}{
				"hold_id": holdID.String(),
			})
		}
		return nil, fmt.Errorf("failed to persist hold: %w", err)
	}

	s.logger.LogHoldCreated(ctx, holdID.String(), req.SessionID, len(seatIDs), hold.ExpiresAt)
	s.publish(ctx, events.TypeHoldCreated, hold)
	s.inventory.InvalidateChartCaches(ctx, chartID.String())

	return &HoldResult{Success: true, Hold: newHoldResponse(hold.Clone(), now)}, nil
}

// GetHold answers from the live registry first and falls back to the
// audit trail for holds the sweep has already purged.
func (s *service) GetHold(ctx context.Context, holdID string) (*HoldResponse, error) {
	s.mu.RLock()
	h, ok := s.holds[holdID]
	var clone *Hold
	if ok {
		clone = h.Clone()
	}
	s.mu.RUnlock()

	if clone != nil {
		return newHoldResponse(clone, s.now()), nil
	}

	record, err := s.lookupRecord(ctx, holdID)
	if err != nil {
		return nil, err
	}
	return newHoldResponse(record.ToHold(), s.now()), nil
}

func (s *service) GetSessionHolds(ctx context.Context, sessionID string) (*SessionHoldsResponse, error) {
	records, err := s.repo.GetHoldsBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session holds: %w", err)
	}

	now := s.now()
	holds := make([]HoldResponse, 0, len(records))
	for i := range records {
		hold := records[i].ToHold()
		// Prefer the live registry entry; the audit row can trail an
		// in-flight extension by a beat.
		s.mu.RLock()
		if live, ok := s.holds[hold.ID.String()]; ok {
			hold = live.Clone()
		}
		s.mu.RUnlock()
		holds = append(holds, *newHoldResponse(hold, now))
	}

	return &SessionHoldsResponse{
		SessionID: sessionID,
		Holds:     holds,
		Count:     len(holds),
	}, nil
}

// ExtendHold pushes the expiry out by the grant, clamped so the hold
// never lives past CreatedAt+MaxLifetime. A hold already at the ceiling
// gets ErrExtendLimit; a hold already past due expires on the spot.
func (s *service) ExtendHold(ctx context.Context, holdID string, req ExtendHoldRequest) (*HoldResponse, error) {
	grant := s.cfg.Holds.ExtendGrant
	if req.AdditionalMinutes > 0 {
		grant = time.Duration(req.AdditionalMinutes) * time.Minute
	}

	s.mu.Lock()
	h, ok := s.holds[holdID]
	if !ok {
		s.mu.Unlock()
		return nil, s.missingHoldErr(ctx, holdID)
	}
	if h.Status != StatusActive {
		s.mu.Unlock()
		return nil, ErrHoldNotActive
	}

	now := s.now()
	if !h.ExpiresAt.After(now) {
		clone, err := s.expireLocked(ctx, h, now)
		s.mu.Unlock()
		if err == nil {
			s.finalizeExpiry(ctx, clone)
		}
		return nil, ErrHoldNotActive
	}

	ceiling := h.CreatedAt.Add(s.cfg.Holds.MaxLifetime)
	newExpiry := h.ExpiresAt.Add(grant)
	if newExpiry.After(ceiling) {
		newExpiry = ceiling
	}
	if !newExpiry.After(h.ExpiresAt) {
		s.mu.Unlock()
		return nil, ErrExtendLimit
	}
	h.ExpiresAt = newExpiry
	clone := h.Clone()
	s.mu.Unlock()

	if err := s.repo.UpdateExpiry(ctx, clone.ID, clone.ExpiresAt); err != nil {
		s.logger.ErrorWithContext(ctx, "failed to persist hold extension", err, map[string]interface{}{
			"hold_id": holdID,
		})
	}
	s.logger.LogHoldExtended(ctx, holdID, clone.ExpiresAt)
	s.publish(ctx, events.TypeHoldExtended, clone)

	return newHoldResponse(clone, now), nil
}

// ReleaseHold returns the hold's seats to the pool. Releasing a hold
// that already resolved is a no-op, so retries and double-clicks are
// harmless. A hold past its expiry resolves as EXPIRED, not RELEASED.
func (s *service) ReleaseHold(ctx context.Context, holdID string, reason string) error {
	if reason == "" {
		reason = ReasonUserReleased
	}

	s.mu.Lock()
	h, ok := s.holds[holdID]
	if !ok {
		s.mu.Unlock()
		record, err := s.lookupRecord(ctx, holdID)
		if err != nil {
			return err
		}
		if record.Status.IsTerminal() {
			return nil
		}
		return ErrHoldNotFound
	}
	if h.Status != StatusActive {
		s.mu.Unlock()
		return nil
	}

	now := s.now()
	if !h.ExpiresAt.After(now) {
		clone, err := s.expireLocked(ctx, h, now)
		s.mu.Unlock()
		if err != nil {
			return err
		}
		s.finalizeExpiry(ctx, clone)
		return nil
	}

	if _, err := s.store.Release(ctx, holdID); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to release seats: %w", err)
	}
	h.Status = StatusReleased
	h.Reason = reason
	h.ResolvedAt = &now
	clone := h.Clone()
	s.mu.Unlock()

	if err := s.repo.ResolveHold(ctx, clone.ID, StatusReleased, now, reason, ""); err != nil {
		s.logger.ErrorWithContext(ctx, "failed to persist hold release", err, map[string]interface{}{
			"hold_id": holdID,
		})
	}
	s.logger.LogHoldReleased(ctx, holdID, reason)
	s.publish(ctx, events.TypeHoldReleased, clone)
	s.inventory.InvalidateChartCaches(ctx, clone.ChartID.String())
	return nil
}

// CommitHold finalizes a hold into a sale. The store transition is the
// arbiter: it only succeeds while every seat is still held under this
// hold, so an expired or evicted hold can never produce a sale.
func (s *service) CommitHold(ctx context.Context, holdID string, req CommitHoldRequest) (*HoldResponse, error) {
	s.mu.Lock()
	h, ok := s.holds[holdID]
	if !ok {
		s.mu.Unlock()
		record, err := s.lookupRecord(ctx, holdID)
		if err != nil {
			return nil, err
		}
		if record.Status.IsTerminal() {
			return nil, ErrHoldNotActive
		}
		return nil, ErrHoldNotFound
	}
	if h.Status != StatusActive {
		s.mu.Unlock()
		return nil, ErrHoldNotActive
	}

	now := s.now()
	if !h.ExpiresAt.After(now) {
		clone, err := s.expireLocked(ctx, h, now)
		s.mu.Unlock()
		if err == nil {
			s.finalizeExpiry(ctx, clone)
		}
		return nil, ErrHoldNotActive
	}

	committed, err := s.store.Commit(ctx, holdID, req.OrderID)
	if err != nil {
		if errors.Is(err, inventory.ErrHoldMismatch) {
			// A seat was blocked out from under the hold. Resolve the
			// remainder now instead of waiting for the sweep.
			h.Reason = ReasonSeatsEvicted
			clone, expErr := s.expireLocked(ctx, h, now)
			s.mu.Unlock()
			if expErr == nil {
				s.finalizeExpiry(ctx, clone)
			}
			return nil, ErrHoldNotActive
		}
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to commit hold: %w", err)
	}
	h.Status = StatusCommitted
	h.OrderID = req.OrderID
	h.ResolvedAt = &now
	clone := h.Clone()
	s.mu.Unlock()

	if err := s.repo.ResolveHold(ctx, clone.ID, StatusCommitted, now, "", req.OrderID); err != nil {
		s.logger.ErrorWithContext(ctx, "failed to persist hold commit", err, map[string]interface{}{
			"hold_id": holdID, "order_id": req.OrderID,
		})
	}
	if err := s.inventory.RecordSold(ctx, committed, req.OrderID); err != nil {
		s.logger.ErrorWithContext(ctx, "failed to persist sold seats", err, map[string]interface{}{
			"hold_id": holdID, "order_id": req.OrderID,
		})
	}
	s.logger.LogHoldCommitted(ctx, holdID, req.OrderID, len(committed))
	s.publish(ctx, events.TypeHoldCommitted, clone)

	return newHoldResponse(clone, now), nil
}

// SweepExpired expires every active hold past its deadline and purges
// terminal holds old enough that nobody asks for them anymore. The
// sweeper calls this on an interval; callers racing it observe exactly
// one terminal outcome per hold.
func (s *service) SweepExpired(ctx context.Context) (int, error) {
	now := s.now()

	var due, purge []string
	s.mu.RLock()
	for id, h := range s.holds {
		switch {
		case h.Status == StatusActive && !h.ExpiresAt.After(now):
			due = append(due, id)
		case h.Status.IsTerminal() && h.ResolvedAt != nil && now.Sub(*h.ResolvedAt) > resolvedRetention:
			purge = append(purge, id)
		}
	}
	s.mu.RUnlock()

	expired := 0
	for _, id := range due {
		if s.expireIfDue(ctx, id, now) {
			expired++
		}
	}

	if len(purge) > 0 {
		s.mu.Lock()
		for _, id := range purge {
			if h, ok := s.holds[id]; ok && h.Status.IsTerminal() {
				delete(s.holds, id)
			}
		}
		s.mu.Unlock()
	}

	return expired, nil
}

// ReconcileAuditTrail repairs audit rows stuck in ACTIVE after their
// hold resolved, which happens when a resolve-time database write
// failed. Rows unknown to the registry are only judged once they are
// clearly past due.
func (s *service) ReconcileAuditTrail(ctx context.Context) (int, error) {
	records, err := s.repo.GetActiveHolds(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load active holds: %w", err)
	}

	now := s.now()
	repaired := 0
	for i := range records {
		record := &records[i]
		holdID := record.ID.String()

		s.mu.RLock()
		h, ok := s.holds[holdID]
		var clone *Hold
		if ok {
			clone = h.Clone()
		}
		s.mu.RUnlock()

		if clone != nil {
			if clone.Status == StatusActive {
				continue
			}
			resolvedAt := now
			if clone.ResolvedAt != nil {
				resolvedAt = *clone.ResolvedAt
			}
			if err := s.repo.ResolveHold(ctx, record.ID, clone.Status, resolvedAt, clone.Reason, clone.OrderID); err != nil {
				s.logger.ErrorWithContext(ctx, "failed to repair hold audit row", err, map[string]interface{}{
					"hold_id": holdID,
				})
				continue
			}
			repaired++
			continue
		}

		if record.ExpiresAt.After(now.Add(-auditGraceWindow)) {
			continue
		}
		if _, err := s.store.Release(ctx, holdID); err != nil {
			s.logger.ErrorWithContext(ctx, "failed to release seats for orphaned hold", err, map[string]interface{}{
				"hold_id": holdID,
			})
			continue
		}
		if err := s.repo.ResolveHold(ctx, record.ID, StatusExpired, now, ReasonTTLExpired, ""); err != nil {
			s.logger.ErrorWithContext(ctx, "failed to expire orphaned hold record", err, map[string]interface{}{
				"hold_id": holdID,
			})
			continue
		}
		repaired++
	}

	return repaired, nil
}

// RehydrateActiveHolds rebuilds the registry from the audit trail after
// a restart. Holds whose deadline passed while the engine was down are
// expired; the rest re-acquire their seats (or adopt them, when the
// store still has them).
func (s *service) RehydrateActiveHolds(ctx context.Context) (int, error) {
	records, err := s.repo.GetActiveHolds(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load active holds: %w", err)
	}

	now := s.now()
	adopted := 0
	for i := range records {
		hold := records[i].ToHold()
		holdID := hold.ID.String()

		if !hold.ExpiresAt.After(now) {
			if _, err := s.store.Release(ctx, holdID); err != nil {
				s.logger.ErrorWithContext(ctx, "failed to release expired hold during rehydration", err, map[string]interface{}{
					"hold_id": holdID,
				})
			}
			if err := s.repo.ResolveHold(ctx, hold.ID, StatusExpired, now, ReasonTTLExpired, ""); err != nil {
				s.logger.ErrorWithContext(ctx, "failed to resolve expired hold during rehydration", err, map[string]interface{}{
					"hold_id": holdID,
				})
			}
			continue
		}

		held, err := s.store.HoldSeats(ctx, holdID)
		if err != nil {
			return adopted, err
		}
		if len(held) == 0 {
			// Seats were rebuilt from the catalog, so re-acquire them.
			result, err := s.store.TryAcquire(ctx, holdID, hold.SeatIDs)
			if err != nil || !result.OK {
				if err := s.repo.ResolveHold(ctx, hold.ID, StatusExpired, now, ReasonSeatsEvicted, ""); err != nil {
					s.logger.ErrorWithContext(ctx, "failed to resolve unrecoverable hold", err, map[string]interface{}{
						"hold_id": holdID,
					})
				}
				continue
			}
		}

		s.mu.Lock()
		s.holds[holdID] = hold
		s.mu.Unlock()
		adopted++
	}

	return adopted, nil
}

// expireLocked resolves an active hold as expired. The caller must hold
// s.mu and have verified the hold is active; on a store failure the
// hold stays active for the next sweep pass.
func (s *service) expireLocked(ctx context.Context, h *Hold, now time.Time) (*Hold, error) {
	if _, err := s.store.Release(ctx, h.ID.String()); err != nil {
		s.logger.ErrorWithContext(ctx, "failed to release seats for expired hold", err, map[string]interface{}{
			"hold_id": h.ID.String(),
		})
		return nil, err
	}
	h.Status = StatusExpired
	if h.Reason == "" {
		h.Reason = ReasonTTLExpired
	}
	resolvedAt := now
	h.ResolvedAt = &resolvedAt
	return h.Clone(), nil
}

// expireIfDue expires holdID when it is active and past due. Returns
// false when another path already resolved it.
func (s *service) expireIfDue(ctx context.Context, holdID string, now time.Time) bool {
	s.mu.Lock()
	h, ok := s.holds[holdID]
	if !ok || h.Status != StatusActive || h.ExpiresAt.After(now) {
		s.mu.Unlock()
		return false
	}
	clone, err := s.expireLocked(ctx, h, now)
	s.mu.Unlock()
	if err != nil {
		return false
	}
	s.finalizeExpiry(ctx, clone)
	return true
}

// finalizeExpiry persists and announces an expiry decided under the
// lock. Runs outside it; the in-memory transition already happened.
func (s *service) finalizeExpiry(ctx context.Context, h *Hold) {
	if err := s.repo.ResolveHold(ctx, h.ID, StatusExpired, *h.ResolvedAt, h.Reason, ""); err != nil {
		s.logger.ErrorWithContext(ctx, "failed to persist hold expiry", err, map[string]interface{}{
			"hold_id": h.ID.String(),
		})
	}
	s.logger.LogHoldExpired(ctx, h.ID.String(), len(h.SeatIDs))
	s.publish(ctx, events.TypeHoldExpired, h)
	s.inventory.InvalidateChartCaches(ctx, h.ChartID.String())
}

// expireDueOwners finds the holds owning the given contested seats and
// expires the ones already past due. Returns true when at least one
// hold was expired, meaning an immediate retry may succeed.
func (s *service) expireDueOwners(ctx context.Context, seatIDs []uuid.UUID) bool {
	if len(seatIDs) == 0 {
		return false
	}
	states, err := s.store.States(ctx, seatIDs)
	if err != nil {
		return false
	}
	owners := make(map[string]struct{})
	for _, st := range states {
		if st.HoldID != "" {
			owners[st.HoldID] = struct{}{}
		}
	}

	now := s.now()
	expired := false
	for holdID := range owners {
		if s.expireIfDue(ctx, holdID, now) {
			expired = true
		}
	}
	return expired
}

// lookupRecord resolves a hold id against the audit trail.
func (s *service) lookupRecord(ctx context.Context, holdID string) (*HoldRecord, error) {
	id, err := uuid.Parse(holdID)
	if err != nil {
		return nil, ErrHoldNotFound
	}
	record, err := s.repo.GetHoldByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHoldNotFound
		}
		return nil, fmt.Errorf("failed to load hold: %w", err)
	}
	return record, nil
}

// missingHoldErr classifies a hold id that is not in the registry.
func (s *service) missingHoldErr(ctx context.Context, holdID string) error {
	record, err := s.lookupRecord(ctx, holdID)
	if err != nil {
		return err
	}
	if record.Status.IsTerminal() {
		return ErrHoldNotActive
	}
	return ErrHoldNotFound
}

func (s *service) clampTTL(minutes int) time.Duration {
	ttl := s.cfg.Holds.DefaultTTL
	if minutes > 0 {
		ttl = time.Duration(minutes) * time.Minute
	}
	if ttl < s.cfg.Holds.MinTTL {
		ttl = s.cfg.Holds.MinTTL
	}
	if ttl > s.cfg.Holds.MaxTTL {
		ttl = s.cfg.Holds.MaxTTL
	}
	return ttl
}

func (s *service) publish(ctx context.Context, eventType string, h *Hold) {
	event := &events.SeatEvent{
		Type:       eventType,
		HoldID:     h.ID.String(),
		SessionID:  h.SessionID,
		ChartID:    h.ChartID.String(),
		SeatIDs:    h.SeatIDStrings(),
		OrderID:    h.OrderID,
		Reason:     h.Reason,
		OccurredAt: s.now().UTC(),
	}
	if h.EventID != uuid.Nil {
		event.EventID = h.EventID.String()
	}
	if h.Status == StatusActive {
		expiresAt := h.ExpiresAt
		event.ExpiresAt = &expiresAt
	}
	if err := s.publisher.PublishSeatEvent(ctx, event); err != nil {
		s.logger.ErrorWithContext(ctx, "failed to publish seat event", err, map[string]interface{}{
			"type":    eventType,
			"hold_id": h.ID.String(),
		})
	}
}

func parseSeatIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSeatID, r)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
