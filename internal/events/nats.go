package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// connect dials url with reconnect defaults shared by publisher and watcher.
func connect(url, name string, opts ...nats.Option) (*nats.Conn, error) {
	defaults := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// NATSPublisher publishes JSON-encoded events to NATS subjects.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the bus at url (FLAGS_NATS_URL).
func NewNATSPublisher(url string, opts ...nats.Option) (*NATSPublisher, error) {
	nc, err := connect(url, "flags-events", opts...)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	return p.conn.Publish(topic, data)
}

// Close flushes buffered events and closes the connection.
func (p *NATSPublisher) Close() error {
	_ = p.conn.FlushTimeout(time.Second)
	p.conn.Close()
	return nil
}

// Watcher receives flag change events from the bus.
type Watcher struct {
	conn *nats.Conn
}

// NewWatcher connects to the bus at url. Extra options (for example
// disconnect handlers) are appended to the reconnect defaults.
func NewWatcher(url string, opts ...nats.Option) (*Watcher, error) {
	nc, err := connect(url, "flags-watch", opts...)
	if err != nil {
		return nil, err
	}
	return &Watcher{conn: nc}, nil
}

// Watch delivers decoded events published on topic (wildcards allowed) until
// ctx is done, then closes the channel. Payloads that do not decode are
// dropped, as are events that arrive while the channel is full.
func (w *Watcher) Watch(ctx context.Context, topic string) (<-chan FlagChanged, error) {
	raw := make(chan *nats.Msg, 64)
	sub, err := w.conn.ChanSubscribe(topic, raw)
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	// The subscription must be registered server-side before Watch returns,
	// or events published right after would be missed.
	if err := w.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("flushing subscription: %w", err)
	}

	out := make(chan FlagChanged, 64)
	go func() {
		defer close(out)
		defer sub.Unsubscribe() //nolint:errcheck
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-raw:
				var ev FlagChanged
				if err := json.Unmarshal(msg.Data, &ev); err != nil {
					continue
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()
	return out, nil
}

func (w *Watcher) Close() error {
	w.conn.Close()
	return nil
}
