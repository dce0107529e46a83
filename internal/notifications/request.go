package notifications

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Payload is the opaque content of a notification.
type Payload struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Request is an immutable ask to show a notification.
type Request struct {
	category  Category
	payload   Payload
	createdAt time.Time
}

// NewRequest builds a request for a known category. A missing payload ID is
// filled with a random UUID.
func NewRequest(category Category, payload Payload, createdAt time.Time) (Request, error) {
	if !category.Valid() {
		return Request{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if payload.ID == "" {
		payload.ID = uuid.NewString()
	}
	payload.Metadata = maps.Clone(payload.Metadata)
	return Request{category: category, payload: payload, createdAt: createdAt}, nil
}

func (r Request) Category() Category   { return r.category }
func (r Request) Priority() Priority   { return r.category.Priority() }
func (r Request) Group() Group         { return r.category.Group() }
func (r Request) CreatedAt() time.Time { return r.createdAt }
func (r Request) ID() string           { return r.payload.ID }

// Payload returns a copy of the request payload.
func (r Request) Payload() Payload {
	p := r.payload
	p.Metadata = maps.Clone(r.payload.Metadata)
	return p
}

// --------------------------------------------------------------------------
// Delivery
// --------------------------------------------------------------------------

// DeliveryKind distinguishes a single notification from a merged digest.
type DeliveryKind string

const (
	KindSingle DeliveryKind = "single"
	KindDigest DeliveryKind = "digest"
)

// Trigger records what caused a delivery.
type Trigger string

const (
	TriggerImmediate Trigger = "immediate"
	TriggerSize      Trigger = "size"
	TriggerTimer     Trigger = "timer"
	TriggerForce     Trigger = "force"
)

// Delivery is what the engine hands to the delivery sink.
type Delivery struct {
	ID       string            `json:"id"`
	Kind     DeliveryKind      `json:"kind"`
	Trigger  Trigger           `json:"trigger"`
	Group    Group             `json:"group"`
	Category Category          `json:"category,omitempty"`
	Priority Priority          `json:"priority"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Items    []Payload         `json:"items,omitempty"`
	At       time.Time         `json:"at"`
}

// Size is the number of source notifications in the delivery.
func (d Delivery) Size() int {
	if d.Kind == KindDigest {
		return len(d.Items)
	}
	return 1
}

// SingleDelivery wraps one request as an individual delivery.
func SingleDelivery(r Request, trigger Trigger, at time.Time) Delivery {
	p := r.Payload()
	data := maps.Clone(p.Metadata)
	if data == nil {
		data = make(map[string]string)
	}
	data["notification_id"] = p.ID
	data["category"] = string(r.Category())
	return Delivery{
		ID:       p.ID,
		Kind:     KindSingle,
		Trigger:  trigger,
		Group:    r.Group(),
		Category: r.Category(),
		Priority: r.Priority(),
		Title:    p.Title,
		Body:     p.Body,
		Data:     data,
		Items:    []Payload{p},
		At:       at,
	}
}

// DigestTitle is the fixed digest title for a group.
func DigestTitle(g Group) string {
	return g.DisplayName() + " Updates"
}

// DigestDelivery merges requests, oldest first, into one digest. The body
// lists at most maxItems entries and ends with "and N more" when truncated.
// Data maps every source ID to its category so a tap can be routed.
func DigestDelivery(g Group, reqs []Request, maxItems int, trigger Trigger, at time.Time) Delivery {
	if maxItems < 1 {
		maxItems = 1
	}
	lines := make([]string, 0, min(len(reqs), maxItems)+1)
	items := make([]Payload, 0, len(reqs))
	data := make(map[string]string, len(reqs))
	top := PriorityLow
	for i, r := range reqs {
		p := r.Payload()
		items = append(items, p)
		data[p.ID] = string(r.Category())
		if r.Priority() > top {
			top = r.Priority()
		}
		if i < maxItems {
			lines = append(lines, "• "+p.Body)
		}
	}
	if extra := len(reqs) - maxItems; extra > 0 {
		lines = append(lines, fmt.Sprintf("and %d more", extra))
	}
	return Delivery{
		ID:       uuid.NewString(),
		Kind:     KindDigest,
		Trigger:  trigger,
		Group:    g,
		Priority: top,
		Title:    DigestTitle(g),
		Body:     strings.Join(lines, "\n"),
		Data:     data,
		Items:    items,
		At:       at,
	}
}
