package heartbeat

import (
	"context"
	"testing"
	"time"

	"kw9010-node/bus"
	"kw9010-node/types"
	"kw9010-node/x/logx"
)

func TestHeartbeatTallies(t *testing.T) {
	lines := make(chan []logx.Field, 8)
	logx.SetSink(func(_ logx.Level, tag, msg string, f []logx.Field) {
		if tag == "heartbeat" && msg == "heartbeat" {
			lines <- f
		}
	})
	t.Cleanup(func() { logx.SetSink(nil) })

	b := bus.NewBus(8)
	conn := b.NewConnection("test")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &Service{Interval: 40 * time.Millisecond}
	_ = s.Start(ctx, conn)
	time.Sleep(10 * time.Millisecond) // let it subscribe

	conn.Publish(conn.NewMessage(bus.T("node", "tx", "a"), types.TxReport{Sent: true}, false))
	conn.Publish(conn.NewMessage(bus.T("node", "tx", "b"), types.TxReport{Error: "timeout"}, false))
	conn.Publish(conn.NewMessage(bus.T("node", "sleep"), types.SleepReport{Cycle: 7}, false))

	deadline := time.After(time.Second)
	for {
		select {
		case f := <-lines:
			if f[0].Value() == uint64(7) && f[1].Value() == uint64(1) && f[2].Value() == uint64(1) {
				return
			}
		case <-deadline:
			t.Fatal("no heartbeat with the expected tally")
		}
	}
}
