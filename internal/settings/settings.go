// Package settings exposes DB-backed console settings through an in-memory
// snapshot that handlers read without touching the database.
package settings

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Setting keys and defaults.
const (
	// SiteNameKey is the config key for the console site name.
	SiteNameKey = "SITE_NAME"
	// DefaultSiteName is the fallback console site name.
	DefaultSiteName = "DataRound Link"
	// SchedulerPoolSizeKey controls the scheduler worker pool size.
	SchedulerPoolSizeKey = "SCHEDULER_POOL_SIZE"
	// DefaultSchedulerPoolSize is the fallback worker pool size.
	DefaultSchedulerPoolSize = 10
	// InstancePollIntervalSecondsKey controls how often running instances are polled.
	InstancePollIntervalSecondsKey = "INSTANCE_POLL_INTERVAL_SECONDS"
	// DefaultInstancePollIntervalSeconds is the fallback poll interval.
	DefaultInstancePollIntervalSeconds = 5
)

// snapshot holds the in-memory settings values.
type snapshot struct {
	updatedAt time.Time
	values    map[string]json.RawMessage
}

var global atomic.Value // stores snapshot

func init() {
	global.Store(snapshot{values: map[string]json.RawMessage{}})
}

// Store replaces the in-memory snapshot.
func Store(updatedAt time.Time, values map[string]json.RawMessage) {
	next := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		copied := make([]byte, len(v))
		copy(copied, v)
		next[key] = copied
	}
	global.Store(snapshot{updatedAt: updatedAt.UTC(), values: next})
}

// UpdatedAt returns the last snapshot refresh time.
func UpdatedAt() time.Time {
	return current().updatedAt
}

// Value returns the raw JSON value for a key.
func Value(key string) (json.RawMessage, bool) {
	snap := current()
	val, ok := snap.values[strings.TrimSpace(key)]
	if !ok {
		return nil, false
	}
	copied := make([]byte, len(val))
	copy(copied, val)
	return copied, true
}

// StringValue returns a string setting, falling back when absent or invalid.
func StringValue(key, fallback string) string {
	raw, ok := Value(key)
	if !ok {
		return fallback
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

// IntValue returns an integer setting, falling back when absent or invalid.
// Both JSON numbers and numeric strings are accepted.
func IntValue(key string, fallback int) int {
	raw, ok := Value(key)
	if !ok {
		return fallback
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, errParse := strconv.Atoi(strings.TrimSpace(s)); errParse == nil {
			return parsed
		}
	}
	return fallback
}

func current() snapshot {
	v := global.Load()
	snap, ok := v.(snapshot)
	if !ok || snap.values == nil {
		return snapshot{values: map[string]json.RawMessage{}}
	}
	return snap
}
