// Package heartbeat logs node liveness: a periodic line with the cycle
// count and the send/failure tallies seen on the bus.
package heartbeat

import (
	"context"
	"time"

	"kw9010-node/bus"
	"kw9010-node/types"
	"kw9010-node/x/logx"
)

var (
	topicNodeTx    = bus.T("node", "tx", "+")
	topicNodeSleep = bus.T("node", "sleep")
)

// Stats is the running tally.
type Stats struct {
	Cycle  uint32
	Sent   uint32
	Failed uint32
}

type Service struct {
	Interval time.Duration // default 1 minute
	stats    Stats
	log      logx.Logger
}

func (s *Service) observe(msg *bus.Message) {
	switch v := msg.Payload.(type) {
	case types.TxReport:
		if v.Sent {
			s.stats.Sent++
		} else {
			s.stats.Failed++
		}
	case types.SleepReport:
		s.stats.Cycle = v.Cycle
	}
}

func (s *Service) beat() {
	s.log.Info("heartbeat",
		logx.Uint("cycle", uint64(s.stats.Cycle)),
		logx.Uint("sent", uint64(s.stats.Sent)),
		logx.Uint("failed", uint64(s.stats.Failed)),
	)
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	txSub := conn.Subscribe(topicNodeTx)
	defer conn.Unsubscribe(txSub)
	sleepSub := conn.Subscribe(topicNodeSleep)
	defer conn.Unsubscribe(sleepSub)

	iv := s.Interval
	if iv <= 0 {
		iv = time.Minute
	}
	tick := time.NewTicker(iv)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("stopping")
			return
		case <-tick.C:
			s.beat()
		case msg := <-txSub.Channel():
			s.observe(msg)
		case msg := <-sleepSub.Channel():
			s.observe(msg)
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	s.log = logx.New("heartbeat")
	go s.serviceLoop(ctx, conn)
	return nil
}
