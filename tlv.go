package lldpd

import (
	"encoding/binary"
	"time"

	"github.com/mdlayher/lldp"
	"github.com/pkg/errors"
)

// ErrTooLong is returned by the encoder when an attribute exceeds its
// bounded wire representation. Nothing partial is ever emitted.
var ErrTooLong = errors.New("lldpd: attribute exceeds TLV bounds")

// ErrMalformedFrame wraps all decode failures. A malformed frame is
// dropped by the caller; it is never fatal to the stack.
var ErrMalformedFrame = errors.New("lldpd: malformed LLDP frame")

// Organizationally specific TLV identities carried by this stack.
var (
	oui8023     = [3]byte{0x00, 0x12, 0x0f} // IEEE 802.3
	ouiProfibus = [3]byte{0x00, 0x0e, 0xcf} // PROFIBUS/PROFINET
)

const (
	subtypeMACPhyConfig = 1 // 802.3 MAC/PHY Configuration/Status
	subtypeSignalDelay  = 1 // PROFINET LLDP_PNIO_DELAY
)

const (
	macPhyPayloadLen = 5  // autoneg flags + 2B PMD cap + 2B MAU type
	delayPayloadLen  = 16 // four uint32 delay fields
)

// buildLLDPDU serializes the local attributes of one port into an
// LLDPDU: Chassis ID, Port ID, TTL, Port Description, System Name,
// Management Address, MAC/PHY Configuration/Status and the signal-delay
// extension, terminated by End-Of-LLDPDU.
func buildLLDPDU(local localIdentity, rec PortRecord, ttl time.Duration) ([]byte, error) {
	if len(local.chassisID.Value) == 0 || len(local.chassisID.Value) > maxIDLen {
		return nil, errors.Wrap(ErrTooLong, "chassis ID")
	}
	if len(rec.PortID.Value) == 0 || len(rec.PortID.Value) > maxIDLen {
		return nil, errors.Wrap(ErrTooLong, "port ID")
	}
	if len(rec.PortDescription) > maxPortDescrLen {
		return nil, errors.Wrap(ErrTooLong, "port description")
	}
	if len(local.stationName) > maxStationNameLen {
		return nil, errors.Wrap(ErrTooLong, "station name")
	}

	manAddr, err := managementAddressValue(local.manAddress, local.manPortIndex)
	if err != nil {
		return nil, err
	}

	f := lldp.Frame{
		ChassisID: &lldp.ChassisID{
			Subtype: lldp.ChassisIDSubtype(local.chassisID.Subtype),
			ID:      local.chassisID.Value,
		},
		PortID: &lldp.PortID{
			Subtype: lldp.PortIDSubtype(rec.PortID.Subtype),
			ID:      rec.PortID.Value,
		},
		TTL: ttl,
		Optional: []*lldp.TLV{
			{
				Type:   lldp.TLVTypePortDescription,
				Value:  []byte(rec.PortDescription),
				Length: uint16(len(rec.PortDescription)),
			},
			{
				Type:   lldp.TLVTypeSystemName,
				Value:  []byte(local.stationName),
				Length: uint16(len(local.stationName)),
			},
			{
				Type:   lldp.TLVTypeManagementAddress,
				Value:  manAddr,
				Length: uint16(len(manAddr)),
			},
			orgTLV(oui8023, subtypeMACPhyConfig, macPhyValue(rec.LinkStatus)),
			orgTLV(ouiProfibus, subtypeSignalDelay, delayValue(rec.SignalDelays)),
		},
	}

	b, err := f.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "marshal lldpdu")
	}
	return b, nil
}

func orgTLV(oui [3]byte, subtype byte, payload []byte) *lldp.TLV {
	v := make([]byte, 0, 4+len(payload))
	v = append(v, oui[:]...)
	v = append(v, subtype)
	v = append(v, payload...)
	return &lldp.TLV{
		Type:   lldp.TLVTypeOrganizationSpecific,
		Value:  v,
		Length: uint16(len(v)),
	}
}

// managementAddressValue builds the Management Address TLV value:
// address string length, address family subtype, address octets,
// interface numbering subtype, interface number, empty OID.
// See IEEE 802.1AB-2005 ch. 9.5.9.
func managementAddressValue(m ManagementAddress, idx ManagementPortIndex) ([]byte, error) {
	if len(m.Value) == 0 || len(m.Value) > maxManAddrLen {
		return nil, errors.Wrap(ErrTooLong, "management address")
	}
	v := make([]byte, 0, 2+len(m.Value)+5+1)
	v = append(v, byte(1+len(m.Value)), m.Subtype)
	v = append(v, m.Value...)
	v = append(v, idx.Subtype)
	v = binary.BigEndian.AppendUint32(v, idx.Index)
	v = append(v, 0) // OID string length
	return v, nil
}

func parseManagementAddress(v []byte) (ManagementAddress, ManagementPortIndex, error) {
	var m ManagementAddress
	var idx ManagementPortIndex
	if len(v) < 2 {
		return m, idx, errors.Wrap(ErrMalformedFrame, "management address TLV truncated")
	}
	addrLen := int(v[0])
	if addrLen < 1 || addrLen-1 > maxManAddrLen || len(v) < 1+addrLen+5 {
		return m, idx, errors.Wrap(ErrMalformedFrame, "management address length")
	}
	m.Subtype = v[1]
	m.Value = append([]byte(nil), v[2:1+addrLen]...)
	rest := v[1+addrLen:]
	idx.Subtype = rest[0]
	idx.Index = binary.BigEndian.Uint32(rest[1:5])
	return m, idx, nil
}

// macPhyValue encodes LinkStatus as the 802.3 MAC/PHY payload:
// autonegotiation flags, PMD advertised capabilities, operational MAU.
func macPhyValue(ls LinkStatus) []byte {
	var flags byte
	if ls.AutoNegSupported {
		flags |= 0x01
	}
	if ls.AutoNegEnabled {
		flags |= 0x02
	}
	v := make([]byte, macPhyPayloadLen)
	v[0] = flags
	binary.BigEndian.PutUint16(v[1:3], ls.AutoNegAdvertisedCap)
	binary.BigEndian.PutUint16(v[3:5], ls.OperMAUType)
	return v
}

func parseMACPhy(v []byte) (LinkStatus, error) {
	if len(v) != macPhyPayloadLen {
		return LinkStatus{}, errors.Wrap(ErrMalformedFrame, "MAC/PHY TLV length")
	}
	return LinkStatus{
		AutoNegSupported:     v[0]&0x01 != 0,
		AutoNegEnabled:       v[0]&0x02 != 0,
		AutoNegAdvertisedCap: binary.BigEndian.Uint16(v[1:3]),
		OperMAUType:          binary.BigEndian.Uint16(v[3:5]),
	}, nil
}

// delayValue encodes the four signal-delay fields in nanoseconds.
// Zero means "not measured".
func delayValue(d SignalDelays) []byte {
	v := make([]byte, 0, delayPayloadLen)
	v = binary.BigEndian.AppendUint32(v, d.RxDelayNS)
	v = binary.BigEndian.AppendUint32(v, d.TxDelayNS)
	v = binary.BigEndian.AppendUint32(v, d.LineDelayNS)
	v = binary.BigEndian.AppendUint32(v, d.CableDelayNS)
	return v
}

func parseDelays(v []byte) (SignalDelays, error) {
	if len(v) != delayPayloadLen {
		return SignalDelays{}, errors.Wrap(ErrMalformedFrame, "signal delay TLV length")
	}
	return SignalDelays{
		RxDelayNS:    binary.BigEndian.Uint32(v[0:4]),
		TxDelayNS:    binary.BigEndian.Uint32(v[4:8]),
		LineDelayNS:  binary.BigEndian.Uint32(v[8:12]),
		CableDelayNS: binary.BigEndian.Uint32(v[12:16]),
	}, nil
}

// decodeLLDPDU parses a received LLDPDU into a transient attribute set.
// The mandatory Chassis ID, Port ID and TTL TLVs are enforced by the
// frame parser; optional TLVs are bounds-checked individually and
// unrecognized types or OUIs are skipped. Decode never mutates the
// store; committing is the reception handler's job.
func decodeLLDPDU(payload []byte) (PeerRecord, error) {
	var f lldp.Frame
	if err := f.UnmarshalBinary(payload); err != nil {
		return PeerRecord{}, errors.Wrapf(ErrMalformedFrame, "parse lldpdu: %v", err)
	}
	if f.ChassisID == nil || len(f.ChassisID.ID) == 0 || len(f.ChassisID.ID) > maxIDLen {
		return PeerRecord{}, errors.Wrap(ErrMalformedFrame, "chassis ID")
	}
	if f.PortID == nil || len(f.PortID.ID) == 0 || len(f.PortID.ID) > maxIDLen {
		return PeerRecord{}, errors.Wrap(ErrMalformedFrame, "port ID")
	}

	rec := PeerRecord{
		ChassisID: ChassisID{
			Subtype: uint8(f.ChassisID.Subtype),
			Value:   append([]byte(nil), f.ChassisID.ID...),
		},
		PortID: PortID{
			Subtype: uint8(f.PortID.Subtype),
			Value:   append([]byte(nil), f.PortID.ID...),
		},
		TTL: f.TTL,
	}

	for _, t := range f.Optional {
		switch t.Type {
		case lldp.TLVTypePortDescription:
			if len(t.Value) > maxPortDescrLen {
				return PeerRecord{}, errors.Wrap(ErrMalformedFrame, "port description length")
			}
			rec.PortDescription = string(t.Value)
		case lldp.TLVTypeSystemName:
			if len(t.Value) > maxStationNameLen {
				return PeerRecord{}, errors.Wrap(ErrMalformedFrame, "system name length")
			}
			rec.StationName = string(t.Value)
		case lldp.TLVTypeManagementAddress:
			m, idx, err := parseManagementAddress(t.Value)
			if err != nil {
				return PeerRecord{}, err
			}
			rec.ManagementAddress = m
			rec.ManagementPortIndex = idx
		case lldp.TLVTypeOrganizationSpecific:
			if err := parseOrgSpecific(t.Value, &rec); err != nil {
				return PeerRecord{}, err
			}
		default:
			// Unknown TLV types are skipped, not fatal.
		}
	}
	return rec, nil
}

func parseOrgSpecific(v []byte, rec *PeerRecord) error {
	if len(v) < 4 {
		return errors.Wrap(ErrMalformedFrame, "organizationally specific TLV truncated")
	}
	var oui [3]byte
	copy(oui[:], v[:3])
	subtype := v[3]
	payload := v[4:]

	switch {
	case oui == oui8023 && subtype == subtypeMACPhyConfig:
		ls, err := parseMACPhy(payload)
		if err != nil {
			return err
		}
		rec.LinkStatus = ls
	case oui == ouiProfibus && subtype == subtypeSignalDelay:
		d, err := parseDelays(payload)
		if err != nil {
			return err
		}
		rec.SignalDelays = d
	default:
		// Unknown OUI or subtype: skip.
	}
	return nil
}
