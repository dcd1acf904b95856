package pubsub

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

type Nats struct {
	conn *nats.Conn
}

// ConnectNats dials the NATS server with unbounded reconnects so a broker
// restart does not strand subscribers.
func ConnectNats(url string) (*Nats, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &Nats{conn: conn}, nil
}

func (n *Nats) Pub(topic string, data []byte) error {
	if err := n.conn.Publish(topic, data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}

	return nil
}

func (n *Nats) Sub(topic string, cb func(data []byte)) (func() error, error) {
	sub, err := n.conn.Subscribe(topic, func(msg *nats.Msg) {
		cb(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe: %w", err)
	}

	return func() error {
		if err := sub.Unsubscribe(); err != nil {
			return fmt.Errorf("nats unsubscribe: %w", err)
		}
		return nil
	}, nil
}

func (n *Nats) Close() {
	n.conn.Close()
}
