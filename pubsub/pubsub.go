// Package pubsub is the change-feed fabric: queue mutations and new messages
// are broadcast as topic events. Payloads are triggers, not truth; consumers
// re-query authoritative state.
package pubsub

// PubSub delivers fire-and-forget topic events. Sub returns an unsubscribe
// func that must be called on teardown so callbacks stop firing.
type PubSub interface {
	Pub(topic string, data []byte) error
	Sub(topic string, cb func(data []byte)) (unsub func() error, err error)
}
