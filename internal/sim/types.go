package sim

import "github.com/san-kum/rdsim/internal/dynamo"

// State is the lifecycle of a Controller.
type State int

const (
	StateUninitialized State = iota
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Observer is notified after every completed tick.
type Observer interface {
	OnTick(f *dynamo.Field, tick int)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(f *dynamo.Field, tick int)

func (fn ObserverFunc) OnTick(f *dynamo.Field, tick int) { fn(f, tick) }
