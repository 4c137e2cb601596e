package observability

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/siege"
)

func TestEventLog_RoundNarrative(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sub := EventLog(zap.New(core))
	h := siege.Handle(uuid.New())

	sub(siege.RoundResolved{Handle: h, Result: siege.RoundResult{
		Round: 3, Actor: force.SideAttacker, Action: siege.ActionCharge,
		Narrative: []string{"The besiegers charge.", "The wall holds."},
	}})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "The besiegers charge.", entries[0].Message)
	fields := entries[1].ContextMap()
	assert.Equal(t, int64(3), fields["round"])
	assert.Equal(t, "charge", fields["action"])
	assert.Equal(t, h.String(), fields["handle"])
}

func TestEventLog_SessionEnded(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sub := EventLog(zap.New(core))

	sub(siege.SessionEnded{Outcome: siege.Outcome{Kind: siege.DrawTimeout, Rounds: 30, Casualties: [2]int{120, 80}}})

	entries := logs.FilterMessage("siege resolved").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, siege.DrawTimeout.String(), fields["outcome"])
	assert.Equal(t, int64(120), fields["attacker_casualties"])
	assert.Equal(t, int64(80), fields["defender_casualties"])
}

func TestEventLog_PanicsOnNilLogger(t *testing.T) {
	assert.Panics(t, func() { EventLog(nil) })
}
