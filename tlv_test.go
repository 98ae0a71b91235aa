package lldpd

import (
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIdentity() localIdentity {
	return localIdentity{
		chassisID:    ChassisID{Subtype: IDSubtypeLocallyAssigned, Value: []byte("dut")},
		stationName:  "dut",
		manAddress:   ManagementAddress{Subtype: ManAddrFamilyIPv4, Value: []byte{192, 168, 1, 100}},
		manPortIndex: ManagementPortIndex{Subtype: ManAddrIfSubtypeIfIndex, Index: 1},
	}
}

func testRecord() PortRecord {
	return PortRecord{
		PortNum:         1,
		PortID:          PortID{Subtype: IDSubtypeLocallyAssigned, Value: []byte("port-001")},
		PortDescription: "physical port 1",
		SignalDelays: SignalDelays{
			RxDelayNS:    144,
			TxDelayNS:    144,
			LineDelayNS:  10,
			CableDelayNS: 0,
		},
		LinkStatus: LinkStatus{
			AutoNegSupported:     true,
			AutoNegEnabled:       true,
			AutoNegAdvertisedCap: 0x0d01,
			OperMAUType:          MAUType100BaseTXFullDuplex,
		},
	}
}

// rawTLV builds one TLV with the 7-bit type / 9-bit length header.
func rawTLV(typ uint8, value []byte) []byte {
	h := uint16(typ)<<9 | uint16(len(value))
	return append([]byte{byte(h >> 8), byte(h)}, value...)
}

func TestLLDPDURoundTrip(t *testing.T) {
	local := testIdentity()
	rec := testRecord()

	b, err := buildLLDPDU(local, rec, 20*time.Second)
	require.NoError(t, err)

	peer, err := decodeLLDPDU(b)
	require.NoError(t, err)

	assert.Equal(t, local.chassisID, peer.ChassisID)
	assert.Equal(t, PortID{Subtype: IDSubtypeLocallyAssigned, Value: []byte("port-001")}, peer.PortID)
	assert.Equal(t, rec.PortDescription, peer.PortDescription)
	assert.Equal(t, local.stationName, peer.StationName)
	assert.Equal(t, local.manAddress, peer.ManagementAddress)
	assert.Equal(t, local.manPortIndex, peer.ManagementPortIndex)
	assert.Equal(t, rec.SignalDelays, peer.SignalDelays)
	assert.Equal(t, rec.LinkStatus, peer.LinkStatus)
	assert.Equal(t, 20*time.Second, peer.TTL)
}

func TestDecodeZeroTTL(t *testing.T) {
	b, err := buildLLDPDU(testIdentity(), testRecord(), 0)
	require.NoError(t, err)

	peer, err := decodeLLDPDU(b)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), peer.TTL)
}

func TestDecodeRejectsMissingMandatoryTLV(t *testing.T) {
	chassis := rawTLV(1, append([]byte{IDSubtypeMACAddress}, testPeerMAC...))
	port := rawTLV(2, []byte{IDSubtypeLocallyAssigned, 'p', '1'})
	end := rawTLV(0, nil)

	// No TTL TLV at all.
	var b []byte
	b = append(b, chassis...)
	b = append(b, port...)
	b = append(b, end...)

	_, err := decodeLLDPDU(b)
	require.Error(t, err)
}

func TestDecodeRejectsLengthBeyondBuffer(t *testing.T) {
	// Chassis ID TLV declaring 32 value bytes but carrying 3.
	h := uint16(1)<<9 | 32
	b := []byte{byte(h >> 8), byte(h), IDSubtypeMACAddress, 0x01, 0x02}

	_, err := decodeLLDPDU(b)
	require.Error(t, err)
}

func TestDecodeRejectsBadTTLLength(t *testing.T) {
	var b []byte
	b = append(b, rawTLV(1, append([]byte{IDSubtypeMACAddress}, testPeerMAC...))...)
	b = append(b, rawTLV(2, []byte{IDSubtypeLocallyAssigned, 'p', '1'})...)
	b = append(b, rawTLV(3, []byte{20})...) // TTL with length 1
	b = append(b, rawTLV(0, nil)...)

	_, err := decodeLLDPDU(b)
	require.Error(t, err)
}

func TestDecodeSkipsUnknownTLVsAndOUIs(t *testing.T) {
	var b []byte
	b = append(b, rawTLV(1, append([]byte{IDSubtypeMACAddress}, testPeerMAC...))...)
	b = append(b, rawTLV(2, []byte{IDSubtypeLocallyAssigned, 'p', '1'})...)
	b = append(b, rawTLV(3, []byte{0, 20})...)
	// System capabilities TLV: recognized by the standard, ignored here.
	b = append(b, rawTLV(7, []byte{0x00, 0x80, 0x00, 0x80})...)
	// Organizationally specific TLV from an unknown OUI.
	b = append(b, rawTLV(127, []byte{0xaa, 0xbb, 0xcc, 0x01, 0xff})...)
	b = append(b, rawTLV(0, nil)...)

	peer, err := decodeLLDPDU(b)
	require.NoError(t, err)
	assert.Equal(t, []byte(testPeerMAC), peer.ChassisID.Value)
	assert.Equal(t, 20*time.Second, peer.TTL)
	assert.Equal(t, SignalDelays{}, peer.SignalDelays)
	assert.Equal(t, LinkStatus{}, peer.LinkStatus)
}

func TestDecodeRejectsTruncatedManagementAddress(t *testing.T) {
	var b []byte
	b = append(b, rawTLV(1, append([]byte{IDSubtypeMACAddress}, testPeerMAC...))...)
	b = append(b, rawTLV(2, []byte{IDSubtypeLocallyAssigned, 'p', '1'})...)
	b = append(b, rawTLV(3, []byte{0, 20})...)
	// Address string length claims 4 octets, but the TLV ends early.
	b = append(b, rawTLV(8, []byte{5, 1, 192, 168})...)
	b = append(b, rawTLV(0, nil)...)

	_, err := decodeLLDPDU(b)
	require.Error(t, err)
}

func TestEncoderRejectsOversizedAttributes(t *testing.T) {
	local := testIdentity()
	rec := testRecord()

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}

	rec.PortDescription = string(long)
	_, err := buildLLDPDU(local, rec, 20*time.Second)
	require.ErrorIs(t, err, ErrTooLong)

	rec = testRecord()
	local.manAddress.Value = long[:maxManAddrLen+1]
	_, err = buildLLDPDU(local, rec, 20*time.Second)
	require.ErrorIs(t, err, ErrTooLong)

	local = testIdentity()
	local.chassisID.Value = long
	_, err = buildLLDPDU(local, rec, 20*time.Second)
	require.ErrorIs(t, err, ErrTooLong)
}

func TestManagementAddressValueRoundTrip(t *testing.T) {
	m := ManagementAddress{Subtype: ManAddrFamilyIPv4, Value: []byte{10, 0, 0, 7}}
	idx := ManagementPortIndex{Subtype: ManAddrIfSubtypeIfIndex, Index: 42}

	v, err := managementAddressValue(m, idx)
	require.NoError(t, err)

	// Address string length octet counts subtype plus address bytes.
	assert.Equal(t, byte(5), v[0])

	gotM, gotIdx, err := parseManagementAddress(v)
	require.NoError(t, err)
	assert.Equal(t, m, gotM)
	assert.Equal(t, idx, gotIdx)
}

// The encoder output is decoded with an independent LLDP implementation
// to guard against header arithmetic drift.
func TestEncodedFrameCrossDecodesWithGopacket(t *testing.T) {
	local := testIdentity()
	rec := testRecord()

	b, err := buildLLDPDU(local, rec, 20*time.Second)
	require.NoError(t, err)

	pkt := gopacket.NewPacket(b, layers.LayerTypeLinkLayerDiscovery, gopacket.Default)
	require.Nil(t, pkt.ErrorLayer(), "gopacket failed to decode encoder output")

	lldpLayer := pkt.Layer(layers.LayerTypeLinkLayerDiscovery)
	require.NotNil(t, lldpLayer)
	disc := lldpLayer.(*layers.LinkLayerDiscovery)

	assert.Equal(t, layers.LLDPChassisIDSubTypeLocal, disc.ChassisID.Subtype)
	assert.Equal(t, []byte("dut"), disc.ChassisID.ID)
	assert.Equal(t, layers.LLDPPortIDSubtypeLocal, disc.PortID.Subtype)
	assert.Equal(t, []byte("port-001"), disc.PortID.ID)
	assert.Equal(t, uint16(20), disc.TTL)

	infoLayer := pkt.Layer(layers.LayerTypeLinkLayerDiscoveryInfo)
	require.NotNil(t, infoLayer)
	info := infoLayer.(*layers.LinkLayerDiscoveryInfo)

	assert.Equal(t, "physical port 1", info.PortDescription)
	assert.Equal(t, "dut", info.SysName)
	assert.Equal(t, layers.IANAAddressFamilyIPV4, info.MgmtAddress.Subtype)
	assert.Equal(t, []byte{192, 168, 1, 100}, info.MgmtAddress.Address)
	assert.Equal(t, layers.LLDPInterfaceSubtypeifIndex, info.MgmtAddress.InterfaceSubtype)
	assert.Equal(t, uint32(1), info.MgmtAddress.InterfaceNumber)

	ouis := make(map[layers.IEEEOUI][]byte)
	for _, org := range info.OrgTLVs {
		ouis[org.OUI] = append([]byte{org.SubType}, org.Info...)
	}
	require.Contains(t, ouis, layers.IEEEOUI8023)
	require.Contains(t, ouis, layers.IEEEOUIProfinet)
	assert.Equal(t, append([]byte{subtypeMACPhyConfig}, macPhyValue(rec.LinkStatus)...), ouis[layers.IEEEOUI8023])
	assert.Equal(t, append([]byte{subtypeSignalDelay}, delayValue(rec.SignalDelays)...), ouis[layers.IEEEOUIProfinet])
}
