package lldpd

import (
	"github.com/mdlayher/ethernet"
	"github.com/mdlayher/lldp"
)

// Recv consumes an inbound Ethernet frame received on a local port.
//
// It returns false, leaving the frame with the caller, when the frame
// does not carry the LLDP EtherType or the port number cannot be
// resolved. It returns true otherwise, also for frames that fail to
// decode: those are dropped after logging, with no store mutation and
// no alarm.
//
// On decode success the attribute set is committed to the topology
// store. If any field differs from the stored peer snapshot, the
// reception timestamp is taken and the alarm collaborator is notified
// with the port number. A bit-identical frame leaves the record,
// including its timestamp, untouched.
func (l *LLDPD) Recv(locPort int, frame []byte) bool {
	var ef ethernet.Frame
	if err := ef.UnmarshalBinary(frame); err != nil {
		return false
	}
	if ef.EtherType != lldp.EtherType {
		return false
	}
	if _, err := l.store.index(locPort); err != nil {
		return false
	}

	rec, err := decodeLLDPDU(ef.Payload)
	if err != nil {
		l.log.Info("msg", "dropping malformed lldp frame", "port", locPort, "error", err)
		return true
	}

	changed, err := l.store.commitPeer(locPort, rec, l.ticks10ms())
	if err != nil {
		l.log.Error("msg", "error storing peer info", "port", locPort, "error", err)
		return true
	}
	if !changed {
		return true
	}

	alias, err := GenerateAliasName(rec.PortID.String(), rec.ChassisID.String(), maxStationNameLen)
	if err != nil {
		alias = ""
	}
	l.log.Info("msg", "peer topology changed", "port", locPort, "peer", rec.String(), "alias", alias)
	if l.alarmFn != nil {
		l.alarmFn(locPort)
	}
	return true
}
