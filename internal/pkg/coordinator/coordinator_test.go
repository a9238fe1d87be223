package coordinator

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infraglow/glowctl/internal/pkg/entities"
	"github.com/infraglow/glowctl/internal/pkg/model"
	"github.com/infraglow/glowctl/internal/pkg/publisher"
	"github.com/infraglow/glowctl/internal/pkg/vizsync"
)

// The publisher registry is process-global, so one capture sink serves
// every test and each test filters by its own entry id.
var sink = &captureSink{}

func TestMain(m *testing.M) {
	if err := publisher.Register("capture", sink); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type captureSink struct {
	mu         sync.Mutex
	pushed     []publisher.SegmentUpdate
	registered []string
}

func (c *captureSink) Write(_ context.Context, updates []publisher.SegmentUpdate) error {
	c.mu.Lock()
	c.pushed = append(c.pushed, updates...)
	c.mu.Unlock()
	return nil
}

func (c *captureSink) RegisterSegment(update publisher.SegmentUpdate) error {
	c.mu.Lock()
	c.registered = append(c.registered, update.RecordID)
	c.mu.Unlock()
	return nil
}

func (c *captureSink) recordsFor(entryID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []string
	for _, u := range c.pushed {
		if u.EntryID == entryID {
			ids = append(ids, u.RecordID)
		}
	}
	return ids
}

func effectRecord(id, entity string) model.Visualization {
	return model.Visualization{
		ID:             id,
		Renderer:       model.RendererEffect,
		EntityID:       entity,
		Enabled:        true,
		NumLEDs:        30,
		Ceiling:        100,
		ColorLow:       model.RGB{0, 255, 0},
		ColorHigh:      model.RGB{255, 0, 0},
		SpeedMin:       60,
		SpeedMax:       240,
		IntensityMin:   80,
		IntensityMax:   255,
		UpdateInterval: 100 * time.Millisecond,
	}
}

func alertRecord(id, entity string) model.Visualization {
	return model.Visualization{
		ID:             id,
		Renderer:       model.RendererAlert,
		EntityID:       entity,
		Enabled:        true,
		NumLEDs:        30,
		Ceiling:        1,
		FlashColor:     model.RGB{255, 0, 0},
		FlashSpeed:     2,
		FlashStyle:     model.FlashSolid,
		UpdateInterval: time.Second,
	}
}

func TestTick_PushesEnabledRecords(t *testing.T) {
	store := vizsync.NewStore()
	disabled := effectRecord("viz_off", "sensor.load")
	disabled.Enabled = false
	store.Replace([]model.Visualization{effectRecord("viz_fx", "sensor.load"), disabled})

	snap := entities.NewSnapshot()
	snap.Set("sensor.load", entities.State{State: "50"})

	c := New("entry_push", store, snap)
	c.Tick(context.Background(), time.Now())

	ids := sink.recordsFor("entry_push")
	assert.Equal(t, []string{"viz_fx"}, ids, "disabled records never reach the sink")
	assert.Contains(t, sink.registered, "viz_fx")
}

func TestTick_ThrottlesByUpdateInterval(t *testing.T) {
	store := vizsync.NewStore()
	store.Replace([]model.Visualization{effectRecord("viz_throttle", "sensor.t")})

	snap := entities.NewSnapshot()
	snap.Set("sensor.t", entities.State{State: "10"})

	c := New("entry_throttle", store, snap)
	now := time.Now()
	c.Tick(context.Background(), now)

	// big move 10ms later: inside the record's update interval, held back
	snap.Set("sensor.t", entities.State{State: "90"})
	c.Tick(context.Background(), now.Add(10*time.Millisecond))
	require.Len(t, sink.recordsFor("entry_throttle"), 1)

	// past the interval it goes out
	c.Tick(context.Background(), now.Add(200*time.Millisecond))
	assert.Len(t, sink.recordsFor("entry_throttle"), 2)
}

func TestTick_EffectHysteresisHoldsTinyMoves(t *testing.T) {
	store := vizsync.NewStore()
	store.Replace([]model.Visualization{effectRecord("viz_hyst", "sensor.h")})

	snap := entities.NewSnapshot()
	snap.Set("sensor.h", entities.State{State: "50.0"})

	c := New("entry_hyst", store, snap)
	now := time.Now()
	c.Tick(context.Background(), now)
	require.Len(t, sink.recordsFor("entry_hyst"), 1)

	// 0.5% move: below every parameter delta, stays unpushed
	snap.Set("sensor.h", entities.State{State: "50.5"})
	c.Tick(context.Background(), now.Add(time.Second))
	assert.Len(t, sink.recordsFor("entry_hyst"), 1)

	// 20% move pushes
	snap.Set("sensor.h", entities.State{State: "70"})
	c.Tick(context.Background(), now.Add(2*time.Second))
	assert.Len(t, sink.recordsFor("entry_hyst"), 2)
}

func TestTick_AlertOverridesTheStrip(t *testing.T) {
	store := vizsync.NewStore()
	store.Replace([]model.Visualization{
		effectRecord("viz_fx", "sensor.load"),
		alertRecord("viz_alarm", "binary_sensor.smoke"),
	})

	snap := entities.NewSnapshot()
	snap.Set("sensor.load", entities.State{State: "50"})
	snap.Set("binary_sensor.smoke", entities.State{State: "off"})

	c := New("entry_alert", store, snap)
	now := time.Now()
	c.Tick(context.Background(), now)
	require.Equal(t, []string{"viz_fx"}, sink.recordsFor("entry_alert"))

	// alarm fires: only the alert segment goes out, normal records are held
	snap.Set("binary_sensor.smoke", entities.State{State: "on"})
	snap.Set("sensor.load", entities.State{State: "90"})
	c.Tick(context.Background(), now.Add(time.Second))
	require.Equal(t, []string{"viz_fx", "viz_alarm"}, sink.recordsFor("entry_alert"))
	assert.True(t, c.alertActive)

	// alarm clears: normal rendering resumes with the pending reading
	snap.Set("binary_sensor.smoke", entities.State{State: "off"})
	c.Tick(context.Background(), now.Add(2*time.Second))
	assert.Equal(t, []string{"viz_fx", "viz_alarm", "viz_fx"}, sink.recordsFor("entry_alert"))
	assert.False(t, c.alertActive)
}

func TestTick_FirstFiringAlertWins(t *testing.T) {
	store := vizsync.NewStore()
	store.Replace([]model.Visualization{
		alertRecord("viz_a1", "binary_sensor.one"),
		alertRecord("viz_a2", "binary_sensor.two"),
	})

	snap := entities.NewSnapshot()
	snap.Set("binary_sensor.one", entities.State{State: "on"})
	snap.Set("binary_sensor.two", entities.State{State: "on"})

	c := New("entry_two_alerts", store, snap)
	c.Tick(context.Background(), time.Now())

	assert.Equal(t, []string{"viz_a1"}, sink.recordsFor("entry_two_alerts"))
}

func TestRun_StopsWithTheContext(t *testing.T) {
	c := New("entry_run", vizsync.NewStore(), entities.NewSnapshot())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
