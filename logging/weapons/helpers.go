package weapons

import (
	"context"

	"arena-shooter/core/logging"
)

const (
	EventJam             logging.EventType = "weapons.jam"
	EventUnjam           logging.EventType = "weapons.unjam"
	EventReloadStarted   logging.EventType = "weapons.reload_started"
	EventReloadCompleted logging.EventType = "weapons.reload_completed"
	EventActiveReload    logging.EventType = "weapons.active_reload"
	EventPickup          logging.EventType = "weapons.pickup"
	EventDrop            logging.EventType = "weapons.drop"
	EventItemUsed        logging.EventType = "weapons.item_used"
)

// Outcomes reported by EventActiveReload.
const (
	ActiveReloadSuccess     = "success"
	ActiveReloadFailed      = "failed"
	ActiveReloadAfterFailed = "tried_after_failed"
)

type WeaponPayload struct {
	Weapon   string `json:"weapon"`
	Magazine int    `json:"magazine"`
	Reserve  int    `json:"reserve"`
}

type ReloadPayload struct {
	Weapon      string  `json:"weapon"`
	WindowStart float64 `json:"windowStart,omitempty"`
	WindowEnd   float64 `json:"windowEnd,omitempty"`
	Progress    float64 `json:"progress,omitempty"`
	Outcome     string  `json:"outcome,omitempty"`
	Magazine    int     `json:"magazine"`
	Reserve     int     `json:"reserve"`
}

type UnjamPayload struct {
	Weapon    string `json:"weapon"`
	OutOfAmmo bool   `json:"outOfAmmo"`
}

type TransferPayload struct {
	Kind string  `json:"kind"`
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type ItemUsedPayload struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, tick uint64, actor logging.EntityRef, payload any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryWeapons,
		Payload:  payload,
	})
}

func Jam(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload WeaponPayload) {
	publish(ctx, pub, EventJam, tick, actor, payload)
}

func Unjam(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload UnjamPayload) {
	publish(ctx, pub, EventUnjam, tick, actor, payload)
}

func ReloadStarted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ReloadPayload) {
	publish(ctx, pub, EventReloadStarted, tick, actor, payload)
}

func ReloadCompleted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ReloadPayload) {
	publish(ctx, pub, EventReloadCompleted, tick, actor, payload)
}

func ActiveReload(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ReloadPayload) {
	publish(ctx, pub, EventActiveReload, tick, actor, payload)
}

func Pickup(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload TransferPayload) {
	publish(ctx, pub, EventPickup, tick, actor, payload)
}

func Drop(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload TransferPayload) {
	publish(ctx, pub, EventDrop, tick, actor, payload)
}

func ItemUsed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ItemUsedPayload) {
	publish(ctx, pub, EventItemUsed, tick, actor, payload)
}
