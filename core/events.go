package core

import "github.com/signalsfoundry/wake-simulator/model"

// EventType indicates what changed on a farm.
type EventType int

const (
	EventWakeModelChanged EventType = iota + 1
	EventYawAnglesSet
	EventFlowFieldReinitialized
)

func (t EventType) String() string {
	switch t {
	case EventWakeModelChanged:
		return "wake_model"
	case EventYawAnglesSet:
		return "yaw"
	case EventFlowFieldReinitialized:
		return "flow_field"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after a farm mutation has completed.
type Event struct {
	Type   EventType
	FarmID string

	Wake    model.WakePair
	Ambient model.AmbientConditions

	// YawAngles is set for EventYawAnglesSet, in turbine-map order.
	YawAngles []float64
}

type subscriber struct {
	id int
	fn func(Event)
}

// Subscribe registers fn for farm events. It returns an unsubscribe function.
// Like every other Farm method it must not race with farm mutations.
func (f *Farm) Subscribe(fn func(Event)) (unsubscribe func()) {
	f.nextSubID++
	id := f.nextSubID
	f.subs = append(f.subs, subscriber{id: id, fn: fn})

	return func() {
		for i, s := range f.subs {
			if s.id == id {
				f.subs = append(f.subs[:i], f.subs[i+1:]...)
				return
			}
		}
	}
}

func (f *Farm) emit(t EventType) {
	if len(f.subs) == 0 {
		return
	}
	ev := Event{
		Type:    t,
		FarmID:  f.id,
		Wake:    f.flowField.wake.Pair(),
		Ambient: f.flowField.ambient,
	}
	if t == EventYawAnglesSet {
		ev.YawAngles = f.YawAngles()
	}
	subs := append([]subscriber(nil), f.subs...)
	for _, s := range subs {
		s.fn(ev)
	}
}
