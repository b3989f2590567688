package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/wake-simulator/core"
	"github.com/signalsfoundry/wake-simulator/model"
)

func runServer(t *testing.T) *server.Server {
	t.Helper()
	ns, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: -1, NoLog: true, NoSigs: true})
	require.NoError(t, err)
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatal("NATS server not ready for connections")
	}
	t.Cleanup(ns.Shutdown)
	return ns
}

func f64(v float64) *float64 { return &v }

func newFarm(t *testing.T) *core.Farm {
	t.Helper()
	desc := "event farm"
	farm, err := core.NewFarm(
		core.FarmInput{
			Description: &desc,
			Properties: &core.FarmProperties{
				WindSpeed:           f64(9),
				WindDirection:       f64(270),
				WindShear:           f64(0.14),
				WindVeer:            f64(0),
				TurbulenceIntensity: f64(0.08),
				AirDensity:          f64(1.225),
				LayoutX:             []float64{0, 500},
				LayoutY:             []float64{0, 0},
			},
		},
		&model.Turbine{Name: "t", RotorDiameter: 100, HubHeight: 80},
		core.WakeConfig{
			VelocityModel: "gauss",
			Resolutions: map[string]model.Resolution{
				"gauss": {X: 4, Y: 3, Z: 2},
				"curl":  {X: 6, Y: 4, Z: 3},
			},
		},
		core.WithID("farm-a"),
	)
	require.NoError(t, err)
	return farm
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "wakesim.farms.f1.wake_model", Subject("", "f1", core.EventWakeModelChanged))
	assert.Equal(t, "site.f1.yaw", Subject("site", "f1", core.EventYawAnglesSet))
	assert.Equal(t, "wakesim.farms.f1.flow_field", Subject(DefaultSubjectPrefix, "f1", core.EventFlowFieldReinitialized))
}

func TestPublisher_ForwardsFarmEvents(t *testing.T) {
	ns := runServer(t)

	sub, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	t.Cleanup(sub.Close)
	msgs, err := sub.SubscribeSync("wakesim.farms.farm-a.>")
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	pub, err := Connect(ns.ClientURL(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })

	farm := newFarm(t)
	unsubscribe := farm.Subscribe(pub.Handle)

	require.NoError(t, farm.SetWakeModel("curl"))
	require.NoError(t, farm.SetYawAngles([]float64{10, -5}))
	require.NoError(t, pub.Close())

	first, err := msgs.NextMsg(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "wakesim.farms.farm-a.wake_model", first.Subject)

	var m Message
	require.NoError(t, json.Unmarshal(first.Data, &m))
	assert.Equal(t, "wake_model", m.Event)
	assert.Equal(t, "farm-a", m.FarmID)
	assert.Equal(t, "curl", m.WakeModel)
	assert.Equal(t, "curl", m.VelocityModel)
	assert.Equal(t, "curl", m.DeflectionModel)
	assert.Equal(t, [3]int{6, 4, 3}, m.Resolution)
	assert.Equal(t, 9.0, m.WindSpeed)
	assert.Empty(t, m.YawAngles)

	second, err := msgs.NextMsg(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "wakesim.farms.farm-a.yaw", second.Subject)
	require.NoError(t, json.Unmarshal(second.Data, &m))
	assert.Equal(t, []float64{10, -5}, m.YawAngles)

	unsubscribe()
	farm.SetYawAngle(3)
	_, err = msgs.NextMsg(200 * time.Millisecond)
	assert.ErrorIs(t, err, nats.ErrTimeout)
}

func TestPublisher_SharedConnectionStaysOpen(t *testing.T) {
	ns := runServer(t)

	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	pub := NewPublisher(nc, nil, WithSubjectPrefix("site"))
	require.NoError(t, pub.Close())
	assert.False(t, nc.IsClosed())
}

func TestPublisher_ClosedConnectionLogsAndDrops(t *testing.T) {
	ns := runServer(t)

	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	nc.Close()

	pub := NewPublisher(nc, nil)
	err = pub.Publish(core.Event{Type: core.EventYawAnglesSet, FarmID: "x"})
	assert.ErrorIs(t, err, nats.ErrConnectionClosed)
	pub.Handle(core.Event{Type: core.EventYawAnglesSet, FarmID: "x"})
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", nil)
	assert.Error(t, err)
}
