package constants

import (
	"fmt"
	"time"
)

// Redis Cache Configuration
// This file centralizes all Redis cache keys and TTL values for the seating engine
// Pattern: seating:{module}:{operation}:{identifier}:{params?}

// ================== CACHE TTL DURATIONS ==================

// Static Data (Long TTL: rarely changes)
const (
	TTL_STATIC_LONG   = 24 * time.Hour // 24 hours - for chart geometry
	TTL_STATIC_MEDIUM = 12 * time.Hour // 12 hours - for category definitions
)

// Semi-Static Data (Medium TTL: changes occasionally)
const (
	TTL_SEMI_STATIC_LONG  = 4 * time.Hour // 4 hours - for rendered chart layouts
	TTL_SEMI_STATIC_SHORT = 1 * time.Hour // 1 hour - for chart listings
)

// Dynamic Data (Short TTL: changes frequently)
const (
	TTL_DYNAMIC_MEDIUM = 10 * time.Minute // 10 minutes - for availability summaries
	TTL_DYNAMIC_SHORT  = 5 * time.Minute  // 5 minutes - for per-category counts
)

// Highly Dynamic (Micro TTL: real-time sensitive)
const (
	TTL_REALTIME_SHORT = 30 * time.Second // 30 seconds - for live seat availability
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "seating"
)

// ================== CHARTS MODULE ==================

// Chart Cache Keys
const (
	CACHE_KEY_CHARTS_LIST   = CACHE_PREFIX + ":charts:list"         // + :page:X:limit:Y
	CACHE_KEY_CHART_DETAIL  = CACHE_PREFIX + ":charts:detail:uuid:" // + chart-id
	CACHE_KEY_CHART_RENDER  = CACHE_PREFIX + ":charts:render:uuid:" // + chart-id (draw commands)
	CACHE_KEY_CHART_CATMAP  = CACHE_PREFIX + ":charts:categories:"  // + chart-id
	CACHE_KEY_CHART_PRICING = CACHE_PREFIX + ":charts:pricing:"     // + chart-id
)

// Chart Cache TTLs
const (
	TTL_CHART_LIST    = TTL_SEMI_STATIC_SHORT // 1 hour
	TTL_CHART_DETAIL  = TTL_STATIC_LONG       // 24 hours
	TTL_CHART_RENDER  = TTL_SEMI_STATIC_LONG  // 4 hours
	TTL_CHART_CATMAP  = TTL_STATIC_MEDIUM     // 12 hours
	TTL_CHART_PRICING = TTL_STATIC_MEDIUM     // 12 hours
)

// ================== INVENTORY MODULE ==================

// Inventory Cache Keys
const (
	// Availability snapshots (short-lived, invalidated on every transition)
	CACHE_KEY_AVAILABILITY       = CACHE_PREFIX + ":inventory:availability:chart:" // + chart-id
	CACHE_KEY_AVAILABILITY_COUNT = CACHE_PREFIX + ":inventory:counts:chart:"       // + chart-id
	CACHE_KEY_SECTION_AVAILABLE  = CACHE_PREFIX + ":inventory:section:"            // + chart-id:section:section-name

	// Seat details
	CACHE_KEY_SEAT_DETAIL = CACHE_PREFIX + ":inventory:seat:uuid:" // + seat-id
)

// Inventory Cache TTLs
const (
	TTL_AVAILABILITY       = TTL_REALTIME_SHORT // 30 seconds
	TTL_AVAILABILITY_COUNT = TTL_DYNAMIC_SHORT  // 5 minutes
	TTL_SEAT_DETAIL        = TTL_DYNAMIC_MEDIUM // 10 minutes
)

// ================== HOLDS MODULE ==================

// Hold Cache Keys
const (
	CACHE_KEY_HOLD_DETAIL = CACHE_PREFIX + ":holds:detail:uuid:" // + hold-id
	CACHE_KEY_OWNER_HOLDS = CACHE_PREFIX + ":holds:owner:"       // + owner-id
)

// Hold Cache TTLs
const (
	TTL_HOLD_DETAIL = TTL_REALTIME_SHORT // 30 seconds
	TTL_OWNER_HOLDS = TTL_REALTIME_SHORT // 30 seconds
)

// ================== CACHE INVALIDATION PATTERNS ==================

// Patterns for cache invalidation (used with DeletePattern)
const (
	// Chart-related invalidation patterns
	PATTERN_INVALIDATE_CHARTS_ALL = CACHE_PREFIX + ":charts:*"

	// Availability invalidation patterns (applied on every seat transition)
	PATTERN_INVALIDATE_AVAILABILITY = CACHE_PREFIX + ":inventory:*"

	// Hold invalidation patterns
	PATTERN_INVALIDATE_HOLDS_ALL = CACHE_PREFIX + ":holds:*"
)

// ================== HELPER FUNCTIONS ==================

func BuildChartDetailKey(chartID string) string {
	return CACHE_KEY_CHART_DETAIL + chartID
}

func BuildChartRenderKey(chartID string) string {
	return CACHE_KEY_CHART_RENDER + chartID
}

func BuildChartListKey(page, limit int) string {
	return CACHE_KEY_CHARTS_LIST + ":page:" + fmt.Sprintf("%d", page) + ":limit:" + fmt.Sprintf("%d", limit)
}

func BuildAvailabilityKey(chartID string) string {
	return CACHE_KEY_AVAILABILITY + chartID
}

func BuildAvailabilityCountKey(chartID string) string {
	return CACHE_KEY_AVAILABILITY_COUNT + chartID
}

func BuildSectionAvailableKey(chartID, section string) string {
	return CACHE_KEY_SECTION_AVAILABLE + chartID + ":section:" + section
}

func BuildHoldDetailKey(holdID string) string {
	return CACHE_KEY_HOLD_DETAIL + holdID
}

func BuildOwnerHoldsKey(ownerID string) string {
	return CACHE_KEY_OWNER_HOLDS + ownerID
}

// BuildChartInvalidationPattern matches every cached read model for one chart.
func BuildChartInvalidationPattern(chartID string) string {
	return CACHE_PREFIX + ":*:" + chartID + "*"
}
