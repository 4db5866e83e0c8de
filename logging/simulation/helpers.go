package simulation

import (
	"context"

	"arena-shooter/core/logging"
)

const (
	// EventTickBacklogDropped is emitted when the driver discards ticks past its catch-up cap.
	EventTickBacklogDropped logging.EventType = "simulation.tick_backlog_dropped"
	// EventHookFailure is emitted when a scripted callback panics or returns an error.
	EventHookFailure logging.EventType = "simulation.hook_failure"
	// EventHookCapReached is emitted when scripted tick loops exhaust the per-tick budget.
	EventHookCapReached logging.EventType = "simulation.hook_cap_reached"
	// EventStageTransition is emitted once when the stage exit becomes reachable and used.
	EventStageTransition logging.EventType = "simulation.stage_transition"
	// EventPoolExhausted is emitted when a spawn request finds no free slot.
	EventPoolExhausted logging.EventType = "simulation.pool_exhausted"
)

type TickBacklogPayload struct {
	Ran     int `json:"ran"`
	Dropped int `json:"dropped"`
}

type HookFailurePayload struct {
	Kind  string `json:"kind"`
	Type  string `json:"type"`
	Hook  string `json:"hook"`
	Error string `json:"error"`
}

type HookCapPayload struct {
	Cap   int    `json:"cap"`
	Owner string `json:"owner"`
}

type StageTransitionPayload struct {
	TileX int `json:"tileX"`
	TileY int `json:"tileY"`
}

type PoolExhaustedPayload struct {
	Pool string `json:"pool"`
}

func TickBacklogDropped(ctx context.Context, pub logging.Publisher, tick uint64, payload TickBacklogPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickBacklogDropped,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

func HookFailure(ctx context.Context, pub logging.Publisher, tick uint64, payload HookFailurePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventHookFailure,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityError,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

func HookCapReached(ctx context.Context, pub logging.Publisher, tick uint64, payload HookCapPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventHookCapReached,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

func StageTransition(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload StageTransitionPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventStageTransition,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

func PoolExhausted(ctx context.Context, pub logging.Publisher, tick uint64, payload PoolExhaustedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPoolExhausted,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}
