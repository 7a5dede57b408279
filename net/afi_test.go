package net

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultResolver(t *testing.T) {
	tests := []struct {
		name     string
		afi      string
		safi     string
		wantFail bool
		expected Family
	}{
		{
			name:     "IPv4 unicast",
			afi:      "ipv4",
			safi:     "unicast",
			expected: Family{AFI: AFIIPv4, SAFI: SAFIUnicast},
		},
		{
			name:     "Case insensitive",
			afi:      "IPv6",
			safi:     "MPLS_VPN",
			expected: Family{AFI: AFIIPv6, SAFI: SAFIMPLSVPN},
		},
		{
			name:     "L2VPN multicast VPN",
			afi:      "l2vpn",
			safi:     "mpls_vpn_multicast",
			expected: Family{AFI: AFIL2VPN, SAFI: SAFIMPLSVPNMcast},
		},
		{
			name:     "Unknown AFI",
			afi:      "ipx",
			safi:     "unicast",
			wantFail: true,
		},
		{
			name:     "Unknown SAFI",
			afi:      "ipv4",
			safi:     "flowspec",
			wantFail: true,
		},
	}

	for _, test := range tests {
		afi, okAFI := DefaultResolver.LookupAFI(test.afi)
		safi, okSAFI := DefaultResolver.LookupSAFI(test.safi)

		if test.wantFail {
			assert.False(t, okAFI && okSAFI, test.name)
			continue
		}

		assert.True(t, okAFI && okSAFI, test.name)
		f := Family{AFI: afi, SAFI: safi}
		assert.Equal(t, test.expected, f, test.name)
		assert.True(t, DefaultResolver.Valid(f), test.name)
	}
}

func TestFamilyString(t *testing.T) {
	assert.Equal(t, "ipv4/mpls_label", Family{AFI: AFIIPv4, SAFI: SAFIMPLSLabel}.String())
	assert.Equal(t, "afi(99)/safi(250)", Family{AFI: 99, SAFI: 250}.String())
	assert.False(t, DefaultResolver.Valid(Family{AFI: 99, SAFI: SAFIUnicast}))
}

func TestNameTableCopiesInput(t *testing.T) {
	afis := map[AFI]string{AFIIPv4: "v4"}
	r := NewNameTable(afis, nil)
	afis[AFIIPv4] = "changed"

	n, ok := r.AFIName(AFIIPv4)
	assert.True(t, ok)
	assert.Equal(t, "v4", n)

	_, ok = r.SAFIName(SAFIUnicast)
	assert.False(t, ok)
}

func TestFamilyProperties(t *testing.T) {
	assert.Equal(t, uint8(32), AFIIPv4.MaxBits())
	assert.Equal(t, uint8(128), AFIIPv6.MaxBits())
	assert.Equal(t, uint8(0), AFIL2VPN.MaxBits())

	assert.False(t, SAFIUnicast.Labeled())
	assert.True(t, SAFIMPLSLabel.Labeled())
	assert.False(t, SAFIMPLSLabel.VPN())
	assert.True(t, SAFIMPLSVPN.Labeled())
	assert.True(t, SAFIMPLSVPNMcast.VPN())
}
