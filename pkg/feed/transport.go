package feed

import (
	"context"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"
	"go.nanomsg.org/mangos/v3/protocol/sub"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/dd0wney/trellis/pkg/logging"
	"github.com/dd0wney/trellis/pkg/metrics"
)

// Publisher forwards bus events to a mangos PUB socket so processes other
// than the engine can follow the feed.
type Publisher struct {
	sock mangos.Socket
	bus  *Bus
	reg  *metrics.Registry
	log  logging.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPublisher opens a PUB socket listening on addr. The registry may be
// nil; publish counts are then skipped.
func NewPublisher(addr string, bus *Bus, reg *metrics.Registry) (*Publisher, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, err
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, err
	}
	return &Publisher{
		sock: sock,
		bus:  bus,
		reg:  reg,
		log:  logging.With(logging.Component("feed"), logging.Address(addr)),
	}, nil
}

// Start subscribes to the bus and forwards events in the background until
// ctx is cancelled, the bus shuts down, or Close is called.
func (p *Publisher) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s, err := p.bus.Subscribe(runCtx)
	if err != nil {
		cancel()
		return err
	}
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.forward(s)
	p.log.Info("feed publisher started")
	return nil
}

func (p *Publisher) forward(s *Subscription) {
	defer close(p.done)

	for ev := range s.Events() {
		data, err := ev.Encode()
		if err != nil {
			p.log.Error("failed to encode event",
				logging.Error(err),
				logging.Uint64("seq", ev.Seq))
			continue
		}
		if err := p.sock.Send(data); err != nil {
			p.log.Error("failed to publish event",
				logging.Error(err),
				logging.Uint64("seq", ev.Seq))
			continue
		}
		if p.reg != nil {
			p.reg.RecordFeedPublish()
		}
	}
}

// Close stops forwarding and closes the socket.
func (p *Publisher) Close() error {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
	return p.sock.Close()
}

// Subscriber receives wire events published by a Publisher.
type Subscriber struct {
	sock mangos.Socket
}

// NewSubscriber dials addr and subscribes to the full feed.
func NewSubscriber(addr string) (*Subscriber, error) {
	sock, err := sub.NewSocket()
	if err != nil {
		return nil, err
	}
	if err := sock.SetOption(mangos.OptionSubscribe, []byte("")); err != nil {
		sock.Close()
		return nil, err
	}
	if err := sock.Dial(addr); err != nil {
		sock.Close()
		return nil, err
	}
	return &Subscriber{sock: sock}, nil
}

// Recv blocks until the next event arrives.
func (s *Subscriber) Recv() (*Event, error) {
	data, err := s.sock.Recv()
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// RecvTimeout waits up to d for the next event.
func (s *Subscriber) RecvTimeout(d time.Duration) (*Event, error) {
	if err := s.sock.SetOption(mangos.OptionRecvDeadline, d); err != nil {
		return nil, err
	}
	return s.Recv()
}

// Close closes the socket.
func (s *Subscriber) Close() error {
	return s.sock.Close()
}
