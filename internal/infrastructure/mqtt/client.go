package mqtt

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// State is the client's connection lifecycle state.
type State int32

const (
	Disconnected State = iota
	Connecting
	Open
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	default:
		return "disconnected"
	}
}

// Options configure a single broker session.
type Options struct {
	URL          string
	ClientID     string
	Username     string
	Password     string
	KeepAliveSec int // default 30
	CleanSession bool
	// Version selects the MQTT protocol version; 4 (default) is 3.1.1.
	Version uint
}

const defaultKeepAliveSec = 30

// MessageHandler is the single delivery callback installed on a Client.
// It is invoked on paho's delivery goroutine for every inbound message.
type MessageHandler func(topic string, payload []byte)

type pendingSubscription struct {
	topic string
	qos   byte
}

// Client is a single-session MQTT client wrapping paho.mqtt.golang. A
// previous connection, if any, is orphaned by a new Connect call —
// callers are expected to construct one Client per run.
type Client struct {
	paho pahomqtt.Client

	state atomic.Int32

	mu      sync.Mutex
	pending *pendingSubscription

	handlerMu sync.RWMutex
	handler   MessageHandler
}

// Connect opens a TCP connection and issues CONNECT asynchronously. It
// returns once the attempt has been started, not once the session is
// open — session state transitions to Open only after the broker's
// CONNACK arrives, observed via the state machine's own callbacks.
func Connect(opts Options) (*Client, error) {
	keepAlive := opts.KeepAliveSec
	if keepAlive <= 0 {
		keepAlive = defaultKeepAliveSec
	}

	c := &Client{}
	c.state.Store(int32(Connecting))

	pahoOpts := pahomqtt.NewClientOptions().
		AddBroker(opts.URL).
		SetClientID(opts.ClientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetKeepAlive(time.Duration(keepAlive) * time.Second).
		SetCleanSession(opts.CleanSession).
		SetAutoReconnect(true).
		SetConnectRetry(false)

	if opts.Version != 0 {
		pahoOpts.SetProtocolVersion(opts.Version)
	}

	pahoOpts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleOpen()
	})
	pahoOpts.SetConnectionLostHandler(func(_ pahomqtt.Client, _ error) {
		c.state.Store(int32(Disconnected))
	})
	pahoOpts.SetDefaultPublishHandler(func(_ pahomqtt.Client, msg pahomqtt.Message) {
		c.deliver(msg.Topic(), msg.Payload())
	})

	c.paho = pahomqtt.NewClient(pahoOpts)
	token := c.paho.Connect()
	if token.Error() != nil {
		c.state.Store(int32(Disconnected))
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, token.Error())
	}

	return c, nil
}

// handleOpen runs when CONNACK arrives. It marks the session Open and, if
// a subscription is pending, issues it.
func (c *Client) handleOpen() {
	c.state.Store(int32(Open))

	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()
	if pending != nil {
		c.paho.Subscribe(pending.topic, pending.qos, nil)
	}
}

func (c *Client) deliver(topic string, payload []byte) {
	c.handlerMu.RLock()
	h := c.handler
	c.handlerMu.RUnlock()
	if h != nil {
		h(topic, payload)
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// IsOpen reports whether the session is currently Open.
func (c *Client) IsOpen() bool {
	return c.State() == Open
}

// Subscribe requests delivery of messages on topic. If the session is
// Open, SUBSCRIBE is sent immediately; otherwise the request is stored as
// a single pending subscription and issued on the next transition to
// Open. Only the most recently requested subscription is retained —
// calling Subscribe again replaces any earlier pending request.
func (c *Client) Subscribe(topic string, qos byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}

	c.mu.Lock()
	c.pending = &pendingSubscription{topic: topic, qos: qos}
	c.mu.Unlock()

	if c.IsOpen() {
		c.paho.Subscribe(topic, qos, nil)
	}
	return nil
}

// Publish sends payload to topic. It fails unless the session is Open;
// there is no in-process publish queue.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if !c.IsOpen() {
		return ErrNotOpen
	}
	token := c.paho.Publish(topic, qos, retained, payload)
	token.Wait()
	return token.Error()
}

// SetMessageHandler installs the single delivery callback, replacing any
// previous one.
func (c *Client) SetMessageHandler(fn MessageHandler) {
	c.handlerMu.Lock()
	c.handler = fn
	c.handlerMu.Unlock()
}

// Close disconnects from the broker, if connected.
func (c *Client) Close() error {
	if c.paho == nil {
		return nil
	}
	c.paho.Disconnect(250)
	c.state.Store(int32(Disconnected))
	return nil
}
