package harness

import (
	"fmt"
	"net"
	"time"
)

// sendDatagram fires the network stimulus for fixtures that listen on a
// UDP socket: sleep long enough for the child's listener to come up,
// then send one datagram to the shared local port.
//
// The task is detached on purpose. It is not awaited, not cancelled, and
// its send error is discarded: the datagram is an advisory stimulus, not
// part of the correctness check. A slow-starting child can miss it; the
// fixture then times out and is classified accordingly.
func (r *Runner) sendDatagram(payload string) {
	addr := fmt.Sprintf("127.0.0.1:%d", r.Port)
	delay := r.DatagramDelay
	go func() {
		time.Sleep(delay)
		conn, err := net.Dial("udp", addr)
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte(payload))
	}()
}
