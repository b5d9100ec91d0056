package quarantine

import "github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"

// Events converts the moved and failed items of a batch into log events.
// Skipped items are not logged.
func (m *Manifest) Events() []types.QuarantineEvent {
	var out []types.QuarantineEvent
	for _, it := range m.Items {
		if it.Status != StatusMoved && it.Status != StatusFailed {
			continue
		}
		out = append(out, types.QuarantineEvent{
			BatchID:         m.BatchID,
			Operation:       types.OpQuarantine,
			OriginalPath:    it.OriginalPath,
			QuarantinedPath: it.QuarantinedPath,
			RuleID:          it.RuleID,
			Error:           it.Error,
		})
	}
	return out
}

// Events converts restored and failed items into log events.
func (r *RestoreResult) Events() []types.QuarantineEvent {
	var out []types.QuarantineEvent
	for _, it := range r.Items {
		if it.Status != StatusRestored && it.Status != StatusFailed {
			continue
		}
		out = append(out, types.QuarantineEvent{
			BatchID:         r.BatchID,
			Operation:       types.OpRestore,
			OriginalPath:    it.OriginalPath,
			QuarantinedPath: it.QuarantinedPath,
			RuleID:          it.RuleID,
			Error:           it.Error,
		})
	}
	return out
}

// EventLog receives quarantine events.
type EventLog interface {
	AppendQuarantineEvent(ev types.QuarantineEvent) (string, error)
}

// LogEvents appends events to log, stopping at the first error.
func LogEvents(log EventLog, events []types.QuarantineEvent) error {
	for _, ev := range events {
		if _, err := log.AppendQuarantineEvent(ev); err != nil {
			return err
		}
	}
	return nil
}
