package events

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// Manager emits events onto the bus and logs them.
type Manager struct {
	bus *Bus
	log zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{
		bus: bus,
		log: log.With().Str("service", "events").Logger(),
	}
}

// Bus returns the underlying bus for subscribers.
func (m *Manager) Bus() *Bus {
	return m.bus
}

// Emit emits an event with untyped data
func (m *Manager) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := m.bus.Emit(eventType, module, data)

	eventJSON, _ := json.Marshal(event)
	m.log.Debug().
		Str("event_type", string(eventType)).
		Str("module", module).
		RawJSON("event", eventJSON).
		Msg("Event emitted")
}

// EmitTyped emits an event using its typed payload
func (m *Manager) EmitTyped(module string, data EventData) {
	m.Emit(data.EventType(), module, convertToMap(data))
}

// EmitError emits an error event
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	m.EmitTyped(module, &ErrorEventData{
		Error:   err.Error(),
		Context: context,
	})
}

// WorkEmitter adapts the manager to the work processor's emitter interface.
type WorkEmitter struct {
	manager *Manager
}

// NewWorkEmitter wraps a manager for the work processor.
func NewWorkEmitter(manager *Manager) *WorkEmitter {
	return &WorkEmitter{manager: manager}
}

// Emit publishes a work lifecycle event.
func (w *WorkEmitter) Emit(event string, data any) {
	w.manager.Emit(EventType(event), "work", convertToMap(data))
}

func convertToMap(data any) map[string]interface{} {
	if data == nil {
		return nil
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil
	}

	var result map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return nil
	}

	return result
}
