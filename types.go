package lldpd

import (
	"bytes"
	"fmt"
	"net"
	"time"
)

// Chassis ID and Port ID subtypes used by this stack.
// See IEEE 802.1AB-2005 (LLDPv1) ch. 9.5.2 and 9.5.3.
const (
	IDSubtypeMACAddress      uint8 = 4
	IDSubtypeLocallyAssigned uint8 = 7
)

// Management address family subtypes (IANA AddressFamilyNumbers).
const (
	ManAddrFamilyIPv4 uint8 = 1
	ManAddrFamily802  uint8 = 6
)

// Interface numbering subtypes for the Management Address TLV.
const (
	ManAddrIfSubtypeUnknown uint8 = 1
	ManAddrIfSubtypeIfIndex uint8 = 2
	ManAddrIfSubtypeSysPort uint8 = 3
)

// Operational MAU type codes (IANA MAU-MIB dot3MauType) carried in the
// MAC/PHY Configuration/Status TLV.
const (
	MAUTypeUnknown             uint16 = 0
	MAUType10BaseTHalfDuplex   uint16 = 10
	MAUType10BaseTFullDuplex   uint16 = 11
	MAUType100BaseTXHalfDuplex uint16 = 15
	MAUType100BaseTXFullDuplex uint16 = 16
	MAUType1000BaseTHalfDuplex uint16 = 29
	MAUType1000BaseTFullDuplex uint16 = 30
)

// Value bounds enforced by the codec and the store.
const (
	maxIDLen          = 255
	maxPortDescrLen   = 255
	maxStationNameLen = 240
	maxManAddrLen     = 31
)

// ChassisID identifies a device uniquely on the LAN.
type ChassisID struct {
	Subtype uint8
	Value   []byte
}

func (c ChassisID) clone() ChassisID {
	return ChassisID{Subtype: c.Subtype, Value: append([]byte(nil), c.Value...)}
}

func (c ChassisID) equal(o ChassisID) bool {
	return c.Subtype == o.Subtype && bytes.Equal(c.Value, o.Value)
}

// String renders the identifier the way it is used in alias names:
// locally assigned values verbatim, MAC addresses in colon notation.
func (c ChassisID) String() string {
	if c.Subtype == IDSubtypeMACAddress && len(c.Value) == 6 {
		return net.HardwareAddr(c.Value).String()
	}
	return string(c.Value)
}

// PortID identifies one port on a device. Distinct from the chassis ID.
type PortID struct {
	Subtype uint8
	Value   []byte
}

func (p PortID) clone() PortID {
	return PortID{Subtype: p.Subtype, Value: append([]byte(nil), p.Value...)}
}

func (p PortID) equal(o PortID) bool {
	return p.Subtype == o.Subtype && bytes.Equal(p.Value, o.Value)
}

func (p PortID) String() string {
	if p.Subtype == IDSubtypeMACAddress && len(p.Value) == 6 {
		return net.HardwareAddr(p.Value).String()
	}
	return string(p.Value)
}

// ManagementAddress is the address of the interface the ports belong to,
// usually an IP address, or the interface MAC when no IP is assigned.
type ManagementAddress struct {
	Subtype uint8
	Value   []byte
}

func (m ManagementAddress) clone() ManagementAddress {
	return ManagementAddress{Subtype: m.Subtype, Value: append([]byte(nil), m.Value...)}
}

func (m ManagementAddress) equal(o ManagementAddress) bool {
	return m.Subtype == o.Subtype && bytes.Equal(m.Value, o.Value)
}

// ManagementPortIndex is the ManAddrIfId part of the Management Address
// TLV: which local interface the management address belongs to.
type ManagementPortIndex struct {
	Subtype uint8
	Index   uint32
}

// SignalDelays holds the measured signal delays of a port in nanoseconds.
// A delay of zero means "not measured".
type SignalDelays struct {
	RxDelayNS    uint32
	TxDelayNS    uint32
	LineDelayNS  uint32
	CableDelayNS uint32
}

// LinkStatus mirrors the MAC/PHY Configuration/Status TLV of a port.
// See IEEE 802.1AB-2005 Annex G.2.
type LinkStatus struct {
	AutoNegSupported     bool
	AutoNegEnabled       bool
	AutoNegAdvertisedCap uint16
	OperMAUType          uint16
}

// PortRecord holds the local attributes of one physical port. Immutable
// after engine initialization except for LinkStatus, which tracks live
// PHY state through SetLinkStatus.
type PortRecord struct {
	PortNum         int
	PortID          PortID
	PortDescription string
	SignalDelays    SignalDelays
	LinkStatus      LinkStatus
}

// PeerRecord is the most recently received attribute set of the device
// connected to a local port.
type PeerRecord struct {
	ChassisID           ChassisID
	PortID              PortID
	PortDescription     string
	ManagementAddress   ManagementAddress
	ManagementPortIndex ManagementPortIndex
	StationName         string
	SignalDelays        SignalDelays
	LinkStatus          LinkStatus
	TTL                 time.Duration
}

func (p PeerRecord) clone() PeerRecord {
	c := p
	c.ChassisID = p.ChassisID.clone()
	c.PortID = p.PortID.clone()
	c.ManagementAddress = p.ManagementAddress.clone()
	return c
}

// equal compares every field carried on the wire. The reception handler
// uses it to decide whether a frame constitutes a topology change.
func (p PeerRecord) equal(o PeerRecord) bool {
	return p.ChassisID.equal(o.ChassisID) &&
		p.PortID.equal(o.PortID) &&
		p.PortDescription == o.PortDescription &&
		p.ManagementAddress.equal(o.ManagementAddress) &&
		p.ManagementPortIndex == o.ManagementPortIndex &&
		p.StationName == o.StationName &&
		p.SignalDelays == o.SignalDelays &&
		p.LinkStatus == o.LinkStatus &&
		p.TTL == o.TTL
}

func (p PeerRecord) String() string {
	return fmt.Sprintf("peer %s port %s (%s)", p.ChassisID, p.PortID, p.StationName)
}
