package lldpd

// LLDP-MIB object identifiers (IEEE 802.1AB-2005 Annex F) served from
// the SNMP projection. Remote-table objects are indexed by
// lldpRemTimeMark.lldpRemLocalPortNum.lldpRemIndex.
const (
	oidLldpLocChassisIDSubtype = ".1.0.8802.1.1.2.1.3.1.0"
	oidLldpLocChassisID        = ".1.0.8802.1.1.2.1.3.2.0"
	oidLldpLocSysName          = ".1.0.8802.1.1.2.1.3.3.0"
	oidLldpLocPortIDSubtype    = ".1.0.8802.1.1.2.1.3.7.1.2"
	oidLldpLocPortID           = ".1.0.8802.1.1.2.1.3.7.1.3"
	oidLldpLocPortDesc         = ".1.0.8802.1.1.2.1.3.7.1.4"

	oidLldpRemChassisIDSubtype = ".1.0.8802.1.1.2.1.4.1.1.4"
	oidLldpRemChassisID        = ".1.0.8802.1.1.2.1.4.1.1.5"
	oidLldpRemPortIDSubtype    = ".1.0.8802.1.1.2.1.4.1.1.6"
	oidLldpRemPortID           = ".1.0.8802.1.1.2.1.4.1.1.7"
	oidLldpRemPortDesc         = ".1.0.8802.1.1.2.1.4.1.1.8"
	oidLldpRemSysName          = ".1.0.8802.1.1.2.1.4.1.1.9"
	oidLldpRemManAddrSubtype   = ".1.0.8802.1.1.2.1.4.2.1.1"
	oidLldpRemManAddr          = ".1.0.8802.1.1.2.1.4.2.1.2"
)
