package lldpd

import (
	"fmt"
	"math/bits"

	"github.com/gosnmp/gosnmp"
)

// TruthValue is the RFC 2579 boolean encoding: true(1), false(2).
type TruthValue uint8

const (
	TruthValueTrue  TruthValue = 1
	TruthValueFalse TruthValue = 2
)

func truthValue(b bool) TruthValue {
	if b {
		return TruthValueTrue
	}
	return TruthValueFalse
}

// SNMPManagementAddress is the MIB representation of a management
// address: the raw address bytes prefixed with a length octet, per the
// OCTET STRING convention of RFC 2578 §7.7.
type SNMPManagementAddress struct {
	Subtype uint8
	Value   []byte
}

// SNMPLinkStatus is the MIB representation of a port's link status.
// The advertised-capability bytes follow the RFC 1906 BITS convention:
// most significant bit first within each byte.
type SNMPLinkStatus struct {
	AutoNegSupported     TruthValue
	AutoNegEnabled       TruthValue
	AutoNegAdvertisedCap [2]byte
	OperMAUType          uint16
}

// encodeOctetString prefixes the value with its length octet.
func encodeOctetString(v []byte) []byte {
	out := make([]byte, 0, 1+len(v))
	out = append(out, byte(len(v)))
	return append(out, v...)
}

// encodeBits16 maps the 16-bit capability bitmap onto the two BITS
// bytes: low byte carries capability bits 0-7, high byte bits 8-15,
// each with the bit order reversed so that capability bit i lands on
// wire bit 7-i of its byte.
func encodeBits16(capability uint16) [2]byte {
	return [2]byte{
		bits.Reverse8(uint8(capability)),
		bits.Reverse8(uint8(capability >> 8)),
	}
}

func snmpManagementAddress(m ManagementAddress) SNMPManagementAddress {
	return SNMPManagementAddress{
		Subtype: m.Subtype,
		Value:   encodeOctetString(m.Value),
	}
}

func snmpLinkStatus(ls LinkStatus) SNMPLinkStatus {
	return SNMPLinkStatus{
		AutoNegSupported:     truthValue(ls.AutoNegSupported),
		AutoNegEnabled:       truthValue(ls.AutoNegEnabled),
		AutoNegAdvertisedCap: encodeBits16(ls.AutoNegAdvertisedCap),
		OperMAUType:          ls.OperMAUType,
	}
}

// SNMP is the read-only projection of the topology store into the wire
// conventions of the management protocol. It wraps the store accessors
// 1:1 and propagates their error contract; it never writes the store.
type SNMP struct {
	l *LLDPD
}

// SNMP returns the management-protocol view of the engine's topology
// data.
func (l *LLDPD) SNMP() *SNMP {
	return &SNMP{l: l}
}

// ---- local projections ----

func (s *SNMP) ChassisID() ChassisID {
	return s.l.store.chassisID()
}

func (s *SNMP) StationName() string {
	return s.l.store.stationName()
}

func (s *SNMP) ManagementAddress() SNMPManagementAddress {
	return snmpManagementAddress(s.l.store.managementAddress())
}

func (s *SNMP) ManagementPortIndex() ManagementPortIndex {
	return s.l.store.managementPortIndex()
}

func (s *SNMP) PortID(locPort int) (PortID, error) {
	return s.l.store.portID(locPort)
}

func (s *SNMP) PortDescription(locPort int) (string, error) {
	return s.l.store.portDescription(locPort)
}

func (s *SNMP) SignalDelays(locPort int) (SignalDelays, error) {
	return s.l.store.signalDelays(locPort)
}

func (s *SNMP) LinkStatus(locPort int) (SNMPLinkStatus, error) {
	ls, err := s.l.store.linkStatus(locPort)
	if err != nil {
		return SNMPLinkStatus{}, err
	}
	return snmpLinkStatus(ls), nil
}

// ---- peer projections ----

func (s *SNMP) PeerChassisID(locPort int) (ChassisID, error) {
	return s.l.store.peerChassisID(locPort)
}

func (s *SNMP) PeerPortID(locPort int) (PortID, error) {
	return s.l.store.peerPortID(locPort)
}

func (s *SNMP) PeerPortDescription(locPort int) (string, error) {
	return s.l.store.peerPortDescription(locPort)
}

func (s *SNMP) PeerStationName(locPort int) (string, error) {
	return s.l.store.peerStationName(locPort)
}

func (s *SNMP) PeerSignalDelays(locPort int) (SignalDelays, error) {
	return s.l.store.peerSignalDelays(locPort)
}

func (s *SNMP) PeerManagementAddress(locPort int) (SNMPManagementAddress, error) {
	m, err := s.l.store.peerManagementAddress(locPort)
	if err != nil {
		return SNMPManagementAddress{}, err
	}
	return snmpManagementAddress(m), nil
}

func (s *SNMP) PeerManagementPortIndex(locPort int) (ManagementPortIndex, error) {
	return s.l.store.peerManagementPortIndex(locPort)
}

func (s *SNMP) PeerLinkStatus(locPort int) (SNMPLinkStatus, error) {
	ls, err := s.l.store.peerLinkStatus(locPort)
	if err != nil {
		return SNMPLinkStatus{}, err
	}
	return snmpLinkStatus(ls), nil
}

// PeerTimestamp returns the reception time of the current peer
// information in 10 ms ticks since engine start (sysUpTime units).
func (s *SNMP) PeerTimestamp(locPort int) (uint32, error) {
	return s.l.store.peerTimestamp(locPort)
}

// ---- PDU rendering ----

// LocalPDUs renders the lldpLoc objects for a port as ready-to-serve
// SNMP variable bindings. The agent owning transport and dispatch is an
// external collaborator.
func (s *SNMP) LocalPDUs(locPort int) ([]gosnmp.SnmpPDU, error) {
	portID, err := s.l.store.portID(locPort)
	if err != nil {
		return nil, err
	}
	descr, err := s.l.store.portDescription(locPort)
	if err != nil {
		return nil, err
	}
	chassis := s.l.store.chassisID()

	return []gosnmp.SnmpPDU{
		{Name: oidLldpLocChassisIDSubtype, Type: gosnmp.Integer, Value: int(chassis.Subtype)},
		{Name: oidLldpLocChassisID, Type: gosnmp.OctetString, Value: chassis.Value},
		{Name: oidLldpLocSysName, Type: gosnmp.OctetString, Value: []byte(s.l.store.stationName())},
		{Name: fmt.Sprintf("%s.%d", oidLldpLocPortIDSubtype, locPort), Type: gosnmp.Integer, Value: int(portID.Subtype)},
		{Name: fmt.Sprintf("%s.%d", oidLldpLocPortID, locPort), Type: gosnmp.OctetString, Value: portID.Value},
		{Name: fmt.Sprintf("%s.%d", oidLldpLocPortDesc, locPort), Type: gosnmp.OctetString, Value: []byte(descr)},
	}, nil
}

// RemotePDUs renders the lldpRem objects for the peer on a port.
// Returns the store's no-peer-information error unchanged when nothing
// has been received yet.
func (s *SNMP) RemotePDUs(locPort int) ([]gosnmp.SnmpPDU, error) {
	peer, err := s.l.store.peer(locPort)
	if err != nil {
		return nil, err
	}
	ts, err := s.l.store.peerTimestamp(locPort)
	if err != nil {
		return nil, err
	}

	// lldpRemTimeMark.lldpRemLocalPortNum.lldpRemIndex; one peer per
	// port, so the remote index is always 1.
	idx := fmt.Sprintf("%d.%d.1", ts, locPort)
	manAddr := snmpManagementAddress(peer.ManagementAddress)

	return []gosnmp.SnmpPDU{
		{Name: fmt.Sprintf("%s.%s", oidLldpRemChassisIDSubtype, idx), Type: gosnmp.Integer, Value: int(peer.ChassisID.Subtype)},
		{Name: fmt.Sprintf("%s.%s", oidLldpRemChassisID, idx), Type: gosnmp.OctetString, Value: peer.ChassisID.Value},
		{Name: fmt.Sprintf("%s.%s", oidLldpRemPortIDSubtype, idx), Type: gosnmp.Integer, Value: int(peer.PortID.Subtype)},
		{Name: fmt.Sprintf("%s.%s", oidLldpRemPortID, idx), Type: gosnmp.OctetString, Value: peer.PortID.Value},
		{Name: fmt.Sprintf("%s.%s", oidLldpRemPortDesc, idx), Type: gosnmp.OctetString, Value: []byte(peer.PortDescription)},
		{Name: fmt.Sprintf("%s.%s", oidLldpRemSysName, idx), Type: gosnmp.OctetString, Value: []byte(peer.StationName)},
		{Name: fmt.Sprintf("%s.%s", oidLldpRemManAddrSubtype, idx), Type: gosnmp.Integer, Value: int(manAddr.Subtype)},
		{Name: fmt.Sprintf("%s.%s", oidLldpRemManAddr, idx), Type: gosnmp.OctetString, Value: manAddr.Value},
	}, nil
}
