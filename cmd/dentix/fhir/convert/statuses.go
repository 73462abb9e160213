package convert

// Intervention states map onto the FHIR event status vocabulary on export
// and back on import. The four mapped states round-trip exactly; anything
// else exports as "unknown" and is skipped on import.
var exportStatuses = map[string]string{
	"completed":   "completed",
	"canceled":    "stopped",
	"scheduled":   "not-done",
	"in-progress": "in-progress",
}

var importStatuses = map[string]string{
	"completed":   "completed",
	"stopped":     "canceled",
	"not-done":    "scheduled",
	"in-progress": "in-progress",
}

// ExportStatus maps an internal intervention state to its FHIR event status.
func ExportStatus(state string) string {
	if status, ok := exportStatuses[state]; ok {
		return status
	}
	return "unknown"
}

// ImportStatus maps a FHIR event status back to the internal intervention
// state. The second return is false for statuses that have no internal
// counterpart.
func ImportStatus(status string) (string, bool) {
	state, ok := importStatuses[status]
	return state, ok
}
