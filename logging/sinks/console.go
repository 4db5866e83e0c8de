package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"arena-shooter/core/logging"
)

// Console renders events as human-readable lines through zerolog.
type Console struct {
	logger zerolog.Logger
}

func NewConsole(w io.Writer, useColor bool) *Console {
	if w == nil {
		w = io.Discard
	}
	writer := zerolog.ConsoleWriter{Out: w, NoColor: !useColor, TimeFormat: time.TimeOnly}
	return &Console{logger: zerolog.New(writer).With().Timestamp().Logger()}
}

func (s *Console) Write(event logging.Event) error {
	entry := s.logger.WithLevel(zerologLevel(event.Severity)).
		Str("type", string(event.Type)).
		Uint64("tick", event.Tick).
		Str("actor", formatEntity(event.Actor))
	if len(event.Targets) > 0 {
		targets := make([]string, 0, len(event.Targets))
		for _, target := range event.Targets {
			targets = append(targets, formatEntity(target))
		}
		entry = entry.Strs("targets", targets)
	}
	if event.Payload != nil {
		data, err := json.Marshal(event.Payload)
		if err != nil {
			entry = entry.Str("payload", fmt.Sprintf("%v", event.Payload))
		} else {
			entry = entry.RawJSON("payload", data)
		}
	}
	if len(event.Extra) > 0 {
		entry = entry.Fields(event.Extra)
	}
	entry.Msg(event.Category)
	return nil
}

func (s *Console) Close(context.Context) error {
	return nil
}

func zerologLevel(sev logging.Severity) zerolog.Level {
	switch sev {
	case logging.SeverityDebug:
		return zerolog.DebugLevel
	case logging.SeverityWarn:
		return zerolog.WarnLevel
	case logging.SeverityError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func formatEntity(ref logging.EntityRef) string {
	if ref.ID == "" {
		return string(ref.Kind)
	}
	if ref.Kind == "" {
		return ref.ID
	}
	return fmt.Sprintf("%s:%s", ref.Kind, ref.ID)
}
