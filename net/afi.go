package net

import (
	"fmt"
	"strings"

	"github.com/osrg/gobgp/v4/pkg/packet/bgp"
)

// AFI is an IANA address family identifier
type AFI uint16

// SAFI is an IANA subsequent address family identifier
type SAFI uint8

const (
	AFIIPv4  AFI = AFI(bgp.AFI_IP)
	AFIIPv6  AFI = AFI(bgp.AFI_IP6)
	AFIL2VPN AFI = AFI(bgp.AFI_L2VPN)

	SAFIUnicast      SAFI = SAFI(bgp.SAFI_UNICAST)
	SAFIMulticast    SAFI = SAFI(bgp.SAFI_MULTICAST)
	SAFIMPLSLabel    SAFI = SAFI(bgp.SAFI_MPLS_LABEL)
	SAFIMPLSVPN      SAFI = SAFI(bgp.SAFI_MPLS_VPN)
	SAFIMPLSVPNMcast SAFI = SAFI(bgp.SAFI_MPLS_VPN_MULTICAST)
)

// Family is an <AFI, SAFI> pair
type Family struct {
	AFI  AFI
	SAFI SAFI
}

// String returns "<afi>/<safi>" using the default resolver
func (f Family) String() string {
	return fmt.Sprintf("%s/%s", DefaultResolver.AFIString(f.AFI), DefaultResolver.SAFIString(f.SAFI))
}

// MaxBits returns the address width of the family in bits.
// It returns 0 for families without a fixed width address.
func (a AFI) MaxBits() uint8 {
	switch a {
	case AFIIPv4:
		return 32
	case AFIIPv6:
		return 128
	}
	return 0
}

// Labeled reports whether NLRI of this SAFI carry a label stack
func (s SAFI) Labeled() bool {
	return s == SAFIMPLSLabel || s.VPN()
}

// VPN reports whether NLRI of this SAFI carry a route distinguisher
func (s SAFI) VPN() bool {
	return s == SAFIMPLSVPN || s == SAFIMPLSVPNMcast
}

// FamilyResolver maps numeric AFI/SAFI codes to names and back
type FamilyResolver interface {
	AFIName(afi AFI) (string, bool)
	SAFIName(safi SAFI) (string, bool)
	LookupAFI(name string) (AFI, bool)
	LookupSAFI(name string) (SAFI, bool)
}

// NameTable is a FamilyResolver backed by two static maps.
// It must not be modified once in use.
type NameTable struct {
	afis  map[AFI]string
	safis map[SAFI]string
}

// DefaultResolver knows the families this module can encode
var DefaultResolver = NewNameTable(
	map[AFI]string{
		AFIIPv4:  "ipv4",
		AFIIPv6:  "ipv6",
		AFIL2VPN: "l2vpn",
	},
	map[SAFI]string{
		SAFIUnicast:      "unicast",
		SAFIMulticast:    "multicast",
		SAFIMPLSLabel:    "mpls_label",
		SAFIMPLSVPN:      "mpls_vpn",
		SAFIMPLSVPNMcast: "mpls_vpn_multicast",
	},
)

// NewNameTable creates a resolver from copies of afis and safis
func NewNameTable(afis map[AFI]string, safis map[SAFI]string) *NameTable {
	t := &NameTable{
		afis:  make(map[AFI]string, len(afis)),
		safis: make(map[SAFI]string, len(safis)),
	}
	for k, v := range afis {
		t.afis[k] = v
	}
	for k, v := range safis {
		t.safis[k] = v
	}
	return t
}

// AFIName returns the name registered for afi
func (t *NameTable) AFIName(afi AFI) (string, bool) {
	n, ok := t.afis[afi]
	return n, ok
}

// SAFIName returns the name registered for safi
func (t *NameTable) SAFIName(safi SAFI) (string, bool) {
	n, ok := t.safis[safi]
	return n, ok
}

// LookupAFI finds an AFI by name, ignoring case
func (t *NameTable) LookupAFI(name string) (AFI, bool) {
	for k, v := range t.afis {
		if strings.EqualFold(v, name) {
			return k, true
		}
	}
	return 0, false
}

// LookupSAFI finds a SAFI by name, ignoring case
func (t *NameTable) LookupSAFI(name string) (SAFI, bool) {
	for k, v := range t.safis {
		if strings.EqualFold(v, name) {
			return k, true
		}
	}
	return 0, false
}

// AFIString returns the name of afi or "afi(<n>)" when unknown
func (t *NameTable) AFIString(afi AFI) string {
	if n, ok := t.AFIName(afi); ok {
		return n
	}
	return fmt.Sprintf("afi(%d)", afi)
}

// SAFIString returns the name of safi or "safi(<n>)" when unknown
func (t *NameTable) SAFIString(safi SAFI) string {
	if n, ok := t.SAFIName(safi); ok {
		return n
	}
	return fmt.Sprintf("safi(%d)", safi)
}

// Valid reports whether both codes of f are known to t
func (t *NameTable) Valid(f Family) bool {
	_, a := t.afis[f.AFI]
	_, s := t.safis[f.SAFI]
	return a && s
}
