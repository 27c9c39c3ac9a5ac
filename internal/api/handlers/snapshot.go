package handlers

import (
	"net/http"

	"github.com/rs/zerolog"
)

// EmulatorSnapshot is the subset of Emulator state the component budget
// table tracks that is safe to expose read-only.
type EmulatorSnapshot interface {
	CommandCount() uint64
	EventCount() uint64
	CoreCount() int
}

// SnapshotHandler exposes a read-only view of the running emulator.
type SnapshotHandler struct {
	emulator EmulatorSnapshot
	logger   zerolog.Logger
}

func NewSnapshotHandler(e EmulatorSnapshot, logger zerolog.Logger) *SnapshotHandler {
	return &SnapshotHandler{emulator: e, logger: logger}
}

// Handle returns current command/event counters and active matching core
// count. GET /api/v1/snapshot
func (h *SnapshotHandler) Handle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"commands_processed": h.emulator.CommandCount(),
		"events_emitted":     h.emulator.EventCount(),
		"matching_cores":     h.emulator.CoreCount(),
	})
}
