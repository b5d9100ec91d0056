package quarantine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

type recordingLog struct {
	events []types.QuarantineEvent
}

func (r *recordingLog) AppendQuarantineEvent(ev types.QuarantineEvent) (string, error) {
	r.events = append(r.events, ev)
	return "id", nil
}

func TestManifestEvents(t *testing.T) {
	m, _ := setup(t, "a.bak", "notes copy.md")

	man, err := m.Quarantine(context.Background(), []types.Violation{
		violation("a.bak", types.ActionQuarantine),
		violation("gone.bak", types.ActionQuarantine),
		violation("notes copy.md", types.ActionReport),
	})
	require.NoError(t, err)

	log := &recordingLog{}
	require.NoError(t, LogEvents(log, man.Events()))
	require.Len(t, log.events, 2)
	assert.Equal(t, "a.bak", log.events[0].OriginalPath)
	assert.Empty(t, log.events[0].Error)
	assert.Equal(t, "gone.bak", log.events[1].OriginalPath)
	assert.NotEmpty(t, log.events[1].Error)
	for _, ev := range log.events {
		assert.Equal(t, man.BatchID, ev.BatchID)
		assert.Equal(t, types.OpQuarantine, ev.Operation)
	}

	res, err := m.Restore(man.Folder, false)
	require.NoError(t, err)
	restored := res.Events()
	require.Len(t, restored, 1)
	assert.Equal(t, types.OpRestore, restored[0].Operation)
	assert.Equal(t, man.BatchID, restored[0].BatchID)
}
