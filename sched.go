package lldpd

import (
	"net"
	"time"

	"github.com/mdlayher/ethernet"
	"github.com/mdlayher/lldp"
	"github.com/pkg/errors"
)

// lldpMulticast is the nearest-bridge group address LLDP frames are
// sent to.
var lldpMulticast = net.HardwareAddr{0x01, 0x80, 0xc2, 0x00, 0x00, 0x0e}

// txLoop is the per-instance transmission timer. It runs until Close
// and serializes periodic sends with TxRestart requests.
func (l *LLDPD) txLoop() {
	timer := time.NewTimer(l.interval)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			l.sendAll()
			timer.Reset(l.interval)
		case send := <-l.txRestartC:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			if send {
				l.sendAll()
			}
			timer.Reset(l.interval)
		case <-l.done:
			return
		}
	}
}

// TxRestart rearms the transmission timer. With send set, one frame per
// port is transmitted immediately; without, only the cadence is
// resynchronized (used after link-state changes to avoid a burst).
func (l *LLDPD) TxRestart(send bool) {
	select {
	case l.txRestartC <- send:
	case <-l.done:
	}
}

// sendAll encodes and transmits one LLDP frame for every registered
// port. Transmission is best effort: failures are logged and reported
// to the caller of Send, never retried.
func (l *LLDPD) sendAll() {
	local := l.store.localIdentity()
	for it := l.registry.Iterator(); ; {
		port := it.Next()
		if port == 0 {
			break
		}
		frame, err := l.buildFrame(local, port)
		if err != nil {
			l.log.Error("msg", "error building lldp frame", "port", port, "error", err)
			continue
		}
		if err := l.sendFn(port, frame); err != nil {
			l.log.Error("msg", "error sending lldp frame", "port", port, "error", err)
		}
	}
}

// buildFrame produces the complete Ethernet frame for one port.
func (l *LLDPD) buildFrame(local localIdentity, locPort int) ([]byte, error) {
	rec, err := l.store.portRecord(locPort)
	if err != nil {
		return nil, err
	}
	payload, err := buildLLDPDU(local, rec, l.ttl)
	if err != nil {
		return nil, err
	}
	f := &ethernet.Frame{
		Destination: lldpMulticast,
		Source:      l.sourceAddress,
		EtherType:   lldp.EtherType,
		Payload:     payload,
	}
	b, err := f.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "marshal ethernet frame")
	}
	return b, nil
}

// ticks10ms is the monotonic reception clock: 10 ms ticks since engine
// start, as in SNMP sysUpTime.
func (l *LLDPD) ticks10ms() uint32 {
	return uint32(l.now().Sub(l.started) / (10 * time.Millisecond))
}
