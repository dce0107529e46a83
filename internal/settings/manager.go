package settings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/albapepper/notify-engine/internal/notifications"
	"github.com/albapepper/notify-engine/internal/timewindow"
)

// --------------------------------------------------------------------------
// Keys, one per persisted field
// --------------------------------------------------------------------------

const (
	KeyQuietHoursEnabled = "schedule.quiet_hours_enabled"
	KeyQuietStart        = "schedule.quiet_start"
	KeyQuietEnd          = "schedule.quiet_end"
	KeyWeekendQuietHours = "schedule.weekend_quiet_hours"
	KeyPriorityThreshold = "schedule.priority_threshold"
	KeyActiveDays        = "schedule.active_days"
	KeyPeakStart         = "schedule.peak_start"
	KeyPeakEnd           = "schedule.peak_end"

	KeyBatchingEnabled = "batch.enabled"
	KeyMinBatchSize    = "batch.min_size"
	KeyMaxBatchSize    = "batch.max_size"
	KeyBatchDelay      = "batch.delay_seconds"
	KeyMaxBatchAge     = "batch.max_age_seconds"
)

// ErrUnknownKey is returned by SetField for a key outside the tables above.
var ErrUnknownKey = errors.New("unknown setting key")

// Manager owns the live configuration. Reads return copies; writes clamp,
// update memory, then persist only the keys whose encoded value changed.
type Manager struct {
	mu       sync.RWMutex
	store    Store
	schedule ScheduleConfig
	batch    BatchConfig
}

// NewManager creates a manager holding defaults. Call Load to pull
// persisted values.
func NewManager(store Store) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Manager{
		store:    store,
		schedule: DefaultScheduleConfig(),
		batch:    DefaultBatchConfig(),
	}
}

// Load replaces the live configuration with persisted values. Missing or
// unparsable keys keep their defaults.
func (m *Manager) Load(ctx context.Context) error {
	values := make(map[string]string)
	for _, key := range Keys() {
		v, err := m.store.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load %s: %w", key, err)
		}
		values[key] = v
	}

	sched := DefaultScheduleConfig()
	batch := DefaultBatchConfig()
	for key, v := range values {
		s, b := sched, batch
		if err := decodeField(&s, &b, key, v); err != nil {
			continue
		}
		sched, batch = s, b
	}

	m.mu.Lock()
	m.schedule = sched.Normalize()
	m.batch = batch.Normalize()
	m.mu.Unlock()
	return nil
}

// Schedule returns a copy of the schedule configuration.
func (m *Manager) Schedule() ScheduleConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.schedule
}

// Batch returns a copy of the batch configuration.
func (m *Manager) Batch() BatchConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.batch
}

// Values returns every setting in its persisted string form.
func (m *Manager) Values() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return encode(m.schedule, m.batch)
}

// --------------------------------------------------------------------------
// Schedule setters
// --------------------------------------------------------------------------

func (m *Manager) SetQuietHoursEnabled(ctx context.Context, enabled bool) error {
	return m.updateSchedule(ctx, func(c *ScheduleConfig) { c.QuietHoursEnabled = enabled })
}

func (m *Manager) SetQuietHours(ctx context.Context, start, end int) error {
	return m.updateSchedule(ctx, func(c *ScheduleConfig) { c.QuietStart, c.QuietEnd = start, end })
}

func (m *Manager) SetWeekendQuietHours(ctx context.Context, enabled bool) error {
	return m.updateSchedule(ctx, func(c *ScheduleConfig) { c.WeekendQuietHours = enabled })
}

func (m *Manager) SetPriorityThreshold(ctx context.Context, p notifications.Priority) error {
	return m.updateSchedule(ctx, func(c *ScheduleConfig) { c.PriorityThreshold = p })
}

func (m *Manager) SetActiveDays(ctx context.Context, days timewindow.Days) error {
	return m.updateSchedule(ctx, func(c *ScheduleConfig) { c.ActiveDays = days })
}

func (m *Manager) SetPeakHours(ctx context.Context, start, end int) error {
	return m.updateSchedule(ctx, func(c *ScheduleConfig) { c.PeakStart, c.PeakEnd = start, end })
}

// ApplySchedule replaces the whole schedule configuration.
func (m *Manager) ApplySchedule(ctx context.Context, cfg ScheduleConfig) error {
	return m.updateSchedule(ctx, func(c *ScheduleConfig) { *c = cfg })
}

// UpdateSchedule applies fn to a copy of the live schedule configuration,
// then normalizes and persists the result atomically with respect to other
// writers.
func (m *Manager) UpdateSchedule(ctx context.Context, fn func(*ScheduleConfig)) error {
	return m.updateSchedule(ctx, fn)
}

// ResetScheduleDefaults restores the default schedule configuration.
func (m *Manager) ResetScheduleDefaults(ctx context.Context) error {
	return m.ApplySchedule(ctx, DefaultScheduleConfig())
}

// --------------------------------------------------------------------------
// Batch setters
// --------------------------------------------------------------------------

func (m *Manager) SetBatchingEnabled(ctx context.Context, enabled bool) error {
	return m.updateBatch(ctx, func(c *BatchConfig) { c.Enabled = enabled })
}

// SetMinBatchSize clamps n into [2, current max].
func (m *Manager) SetMinBatchSize(ctx context.Context, n int) error {
	return m.updateBatch(ctx, func(c *BatchConfig) { c.MinBatchSize = n })
}

// SetMaxBatchSize raises n to at least 2 and lowers min if it now exceeds max.
func (m *Manager) SetMaxBatchSize(ctx context.Context, n int) error {
	return m.updateBatch(ctx, func(c *BatchConfig) { c.MaxBatchSize = n })
}

func (m *Manager) SetBatchDelay(ctx context.Context, d time.Duration) error {
	return m.updateBatch(ctx, func(c *BatchConfig) { c.BatchDelay = d })
}

func (m *Manager) SetMaxBatchAge(ctx context.Context, d time.Duration) error {
	return m.updateBatch(ctx, func(c *BatchConfig) { c.MaxBatchAge = d })
}

// ApplyBatch replaces the whole batch configuration.
func (m *Manager) ApplyBatch(ctx context.Context, cfg BatchConfig) error {
	return m.updateBatch(ctx, func(c *BatchConfig) { *c = cfg })
}

// UpdateBatch is the batch counterpart of UpdateSchedule.
func (m *Manager) UpdateBatch(ctx context.Context, fn func(*BatchConfig)) error {
	return m.updateBatch(ctx, fn)
}

// ResetBatchDefaults restores the default batch configuration.
func (m *Manager) ResetBatchDefaults(ctx context.Context) error {
	return m.ApplyBatch(ctx, DefaultBatchConfig())
}

// SetField parses value for a single key and applies it.
func (m *Manager) SetField(ctx context.Context, key, value string) error {
	if !isKnownKey(key) {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	m.mu.Lock()
	sched, batch := m.schedule, m.batch
	if err := decodeField(&sched, &batch, key, value); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("parse %s: %w", key, err)
	}
	return m.commitLocked(ctx, sched.Normalize(), batch.Normalize())
}

// --------------------------------------------------------------------------
// Internals
// --------------------------------------------------------------------------

func (m *Manager) updateSchedule(ctx context.Context, fn func(*ScheduleConfig)) error {
	m.mu.Lock()
	next := m.schedule
	fn(&next)
	return m.commitLocked(ctx, next.Normalize(), m.batch)
}

func (m *Manager) updateBatch(ctx context.Context, fn func(*BatchConfig)) error {
	m.mu.Lock()
	next := m.batch
	fn(&next)
	return m.commitLocked(ctx, m.schedule, next.Normalize())
}

// commitLocked must be called with m.mu held; it releases the lock before
// touching the store.
func (m *Manager) commitLocked(ctx context.Context, sched ScheduleConfig, batch BatchConfig) error {
	before := encode(m.schedule, m.batch)
	m.schedule, m.batch = sched, batch
	after := encode(sched, batch)
	m.mu.Unlock()

	changed := make([]string, 0, len(after))
	for key, v := range after {
		if before[key] != v {
			changed = append(changed, key)
		}
	}
	sort.Strings(changed)

	var errs []error
	for _, key := range changed {
		if err := m.store.Set(ctx, key, after[key]); err != nil {
			errs = append(errs, fmt.Errorf("persist %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Keys lists every persisted key in a stable order.
func Keys() []string {
	return []string{
		KeyQuietHoursEnabled, KeyQuietStart, KeyQuietEnd, KeyWeekendQuietHours,
		KeyPriorityThreshold, KeyActiveDays, KeyPeakStart, KeyPeakEnd,
		KeyBatchingEnabled, KeyMinBatchSize, KeyMaxBatchSize, KeyBatchDelay, KeyMaxBatchAge,
	}
}

func isKnownKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

func encode(s ScheduleConfig, b BatchConfig) map[string]string {
	return map[string]string{
		KeyQuietHoursEnabled: strconv.FormatBool(s.QuietHoursEnabled),
		KeyQuietStart:        strconv.Itoa(s.QuietStart),
		KeyQuietEnd:          strconv.Itoa(s.QuietEnd),
		KeyWeekendQuietHours: strconv.FormatBool(s.WeekendQuietHours),
		KeyPriorityThreshold: s.PriorityThreshold.String(),
		KeyActiveDays:        FormatDays(s.ActiveDays),
		KeyPeakStart:         strconv.Itoa(s.PeakStart),
		KeyPeakEnd:           strconv.Itoa(s.PeakEnd),

		KeyBatchingEnabled: strconv.FormatBool(b.Enabled),
		KeyMinBatchSize:    strconv.Itoa(b.MinBatchSize),
		KeyMaxBatchSize:    strconv.Itoa(b.MaxBatchSize),
		KeyBatchDelay:      strconv.Itoa(int(b.BatchDelay / time.Second)),
		KeyMaxBatchAge:     strconv.Itoa(int(b.MaxBatchAge / time.Second)),
	}
}

func decodeField(s *ScheduleConfig, b *BatchConfig, key, v string) error {
	var err error
	switch key {
	case KeyQuietHoursEnabled:
		s.QuietHoursEnabled, err = strconv.ParseBool(v)
	case KeyQuietStart:
		s.QuietStart, err = strconv.Atoi(v)
	case KeyQuietEnd:
		s.QuietEnd, err = strconv.Atoi(v)
	case KeyWeekendQuietHours:
		s.WeekendQuietHours, err = strconv.ParseBool(v)
	case KeyPriorityThreshold:
		s.PriorityThreshold, err = notifications.ParsePriority(v)
	case KeyActiveDays:
		s.ActiveDays, err = ParseDays(v)
	case KeyPeakStart:
		s.PeakStart, err = strconv.Atoi(v)
	case KeyPeakEnd:
		s.PeakEnd, err = strconv.Atoi(v)
	case KeyBatchingEnabled:
		b.Enabled, err = strconv.ParseBool(v)
	case KeyMinBatchSize:
		b.MinBatchSize, err = strconv.Atoi(v)
	case KeyMaxBatchSize:
		b.MaxBatchSize, err = strconv.Atoi(v)
	case KeyBatchDelay:
		b.BatchDelay, err = parseSeconds(v)
	case KeyMaxBatchAge:
		b.MaxBatchAge, err = parseSeconds(v)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return err
}

func parseSeconds(v string) (time.Duration, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, err
	}
	return Seconds(n), nil
}
