// Package notifications defines the engagement-notification domain: the fixed
// category table, priorities with their hourly quotas and minimum intervals,
// the batching groups, and the request/delivery values that flow through the
// scheduler.
//
// Pipeline: request → rate limiter or batch accumulator → delivery sink.
package notifications

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	ErrUnknownCategory = errors.New("unknown notification category")
	ErrUnknownGroup    = errors.New("unknown notification group")
	ErrUnknownPriority = errors.New("unknown notification priority")
)

// --------------------------------------------------------------------------
// Priority
// --------------------------------------------------------------------------

// Priority is ordered: a larger value is more important.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// Unlimited marks a priority with no hourly quota.
const Unlimited = math.MaxInt

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

var priorityNames = map[Priority]string{
	PriorityLow:      "low",
	PriorityMedium:   "medium",
	PriorityHigh:     "high",
	PriorityCritical: "critical",
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// Valid reports whether p is one of the defined priorities.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

// AllowedPerHour is the number of immediate fires admitted per rolling hour.
func (p Priority) AllowedPerHour() int {
	switch p {
	case PriorityLow:
		return 2
	case PriorityMedium:
		return 5
	case PriorityHigh:
		return 10
	default:
		return Unlimited
	}
}

// ThrottleInterval is the minimum gap between two fires of the same category.
func (p Priority) ThrottleInterval() time.Duration {
	switch p {
	case PriorityLow:
		return time.Hour
	case PriorityMedium:
		return 30 * time.Minute
	case PriorityHigh:
		return 5 * time.Minute
	default:
		return 0
	}
}

// ParsePriority accepts the lowercase name of a priority.
func ParsePriority(s string) (Priority, error) {
	for p, name := range priorityNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPriority, s)
}

func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(b []byte) error {
	parsed, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// --------------------------------------------------------------------------
// Group
// --------------------------------------------------------------------------

// Group partitions batching and UI grouping.
type Group string

const (
	GroupGameplay Group = "gameplay"
	GroupSocial   Group = "social"
	GroupEvents   Group = "events"
	GroupRewards  Group = "rewards"
)

// Groups lists every group in a stable order.
var Groups = []Group{GroupGameplay, GroupSocial, GroupEvents, GroupRewards}

var groupTitles = map[Group]string{
	GroupGameplay: "Gameplay",
	GroupSocial:   "Social",
	GroupEvents:   "Events",
	GroupRewards:  "Rewards",
}

// Valid reports whether g is one of the defined groups.
func (g Group) Valid() bool {
	_, ok := groupTitles[g]
	return ok
}

// DisplayName is the human-readable group name used in digest titles.
func (g Group) DisplayName() string {
	if t, ok := groupTitles[g]; ok {
		return t
	}
	return string(g)
}

// ParseGroup validates a group name.
func ParseGroup(s string) (Group, error) {
	g := Group(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownGroup, s)
	}
	return g, nil
}

// --------------------------------------------------------------------------
// Category
// --------------------------------------------------------------------------

// Category is the fine-grained notification type. Its priority and group are
// fixed by the category table and never supplied by callers.
type Category string

const (
	CategoryDailyReward    Category = "daily_reward"
	CategoryChallenge      Category = "challenge"
	CategoryInactivity     Category = "inactivity"
	CategoryRankChange     Category = "rank_change"
	CategoryAchievement    Category = "achievement"
	CategoryTournament     Category = "tournament"
	CategoryFriendActivity Category = "friend_activity"
	CategoryClanEvent      Category = "clan_event"
	CategoryBattlePass     Category = "battle_pass"
)

type categoryInfo struct {
	priority Priority
	group    Group
}

var categoryTable = map[Category]categoryInfo{
	CategoryDailyReward:    {PriorityLow, GroupRewards},
	CategoryChallenge:      {PriorityMedium, GroupGameplay},
	CategoryInactivity:     {PriorityLow, GroupGameplay},
	CategoryRankChange:     {PriorityMedium, GroupGameplay},
	CategoryAchievement:    {PriorityHigh, GroupRewards},
	CategoryTournament:     {PriorityCritical, GroupEvents},
	CategoryFriendActivity: {PriorityLow, GroupSocial},
	CategoryClanEvent:      {PriorityMedium, GroupSocial},
	CategoryBattlePass:     {PriorityMedium, GroupEvents},
}

// Categories lists every category in a stable order.
var Categories = []Category{
	CategoryDailyReward,
	CategoryChallenge,
	CategoryInactivity,
	CategoryRankChange,
	CategoryAchievement,
	CategoryTournament,
	CategoryFriendActivity,
	CategoryClanEvent,
	CategoryBattlePass,
}

// Valid reports whether c is in the category table.
func (c Category) Valid() bool {
	_, ok := categoryTable[c]
	return ok
}

// Priority returns the fixed priority of c. Unknown categories are low.
func (c Category) Priority() Priority {
	return categoryTable[c].priority
}

// Group returns the fixed group of c.
func (c Category) Group() Group {
	return categoryTable[c].group
}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}
