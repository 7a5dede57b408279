package net

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPfx(t *testing.T) {
	tests := []struct {
		name     string
		afi      AFI
		octets   []byte
		pfxlen   uint8
		wantFail error
		expected string
	}{
		{
			name:     "IPv4 /24",
			afi:      AFIIPv4,
			octets:   []byte{10, 0, 1},
			pfxlen:   24,
			expected: "10.0.1.0/24",
		},
		{
			name:     "IPv4 /9 keeps wire octets",
			afi:      AFIIPv4,
			octets:   []byte{10, 128},
			pfxlen:   9,
			expected: "10.128.0.0/9",
		},
		{
			name:     "IPv6 /32",
			afi:      AFIIPv6,
			octets:   []byte{0x20, 0x01, 0x0d, 0xb8},
			pfxlen:   32,
			expected: "2001:db8::/32",
		},
		{
			name:     "Default route",
			afi:      AFIIPv4,
			octets:   []byte{},
			pfxlen:   0,
			expected: "0.0.0.0/0",
		},
		{
			name:     "IPv4 too long",
			afi:      AFIIPv4,
			octets:   []byte{1, 2, 3, 4, 5},
			pfxlen:   33,
			wantFail: ErrInvalidPrefixLength,
		},
		{
			name:     "Missing octets",
			afi:      AFIIPv4,
			octets:   []byte{10},
			pfxlen:   16,
			wantFail: ErrInvalidPrefixLength,
		},
		{
			name:     "L2VPN has no width",
			afi:      AFIL2VPN,
			wantFail: ErrUnsupportedAFI,
		},
	}

	for _, test := range tests {
		pfx, err := NewPfx(test.afi, test.octets, test.pfxlen)
		if test.wantFail != nil {
			assert.ErrorIs(t, err, test.wantFail, test.name)
			continue
		}
		if !assert.NoError(t, err, test.name) {
			continue
		}
		assert.Equal(t, test.expected, pfx.String(), test.name)
		assert.Equal(t, test.octets[:OctetsFor(test.pfxlen)], pfx.Octets(), test.name)
	}
}

func TestNthSubnet(t *testing.T) {
	tests := []struct {
		name     string
		pfx      string
		offset   uint64
		wantFail bool
		expected string
	}{
		{
			name:     "Next /24",
			pfx:      "10.0.0.0/24",
			offset:   1,
			expected: "10.0.1.0/24",
		},
		{
			name:     "Offset zero masks host bits",
			pfx:      "10.0.0.7/24",
			offset:   0,
			expected: "10.0.0.0/24",
		},
		{
			name:     "Carry into upper octets",
			pfx:      "10.0.255.0/24",
			offset:   2,
			expected: "10.1.1.0/24",
		},
		{
			name:     "Last IPv4 /24",
			pfx:      "255.255.254.0/24",
			offset:   1,
			expected: "255.255.255.0/24",
		},
		{
			name:     "Past 255.255.255.255",
			pfx:      "255.255.255.0/24",
			offset:   1,
			wantFail: true,
		},
		{
			name:     "Host routes",
			pfx:      "192.0.2.1/32",
			offset:   254,
			expected: "192.0.2.255/32",
		},
		{
			name:     "IPv6 /64",
			pfx:      "2001:db8::/64",
			offset:   3,
			expected: "2001:db8:0:3::/64",
		},
		{
			name:     "IPv6 /48 large offset",
			pfx:      "2001:db8::/48",
			offset:   1 << 16,
			expected: "2001:db9::/48",
		},
		{
			name:     "IPv6 overflow",
			pfx:      "ffff:ffff:ffff:ffff::/64",
			offset:   1 << 63,
			wantFail: true,
		},
		{
			name:     "IPv6 last /128",
			pfx:      "ffff:ffff:ffff:ffff:ffff:ffff:ffff:fffe/128",
			offset:   1,
			expected: "ffff:ffff:ffff:ffff:ffff:ffff:ffff:ffff/128",
		},
	}

	for _, test := range tests {
		res, err := MustParsePrefix(test.pfx).NthSubnet(test.offset)
		if test.wantFail {
			assert.ErrorIs(t, err, ErrAddressOverflow, test.name)
			continue
		}
		if !assert.NoError(t, err, test.name) {
			continue
		}
		assert.Equal(t, test.expected, res.String(), test.name)
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected bool
	}{
		{
			name:     "Subnet",
			a:        "10.0.0.0/8",
			b:        "10.1.0.0/16",
			expected: true,
		},
		{
			name:     "Equal",
			a:        "10.0.0.0/8",
			b:        "10.0.0.0/8",
			expected: true,
		},
		{
			name:     "Supernet",
			a:        "10.1.0.0/16",
			b:        "10.0.0.0/8",
			expected: false,
		},
		{
			name:     "Disjoint",
			a:        "10.0.0.0/8",
			b:        "11.0.0.0/16",
			expected: false,
		},
		{
			name:     "Mixed families",
			a:        "::/0",
			b:        "10.0.0.0/8",
			expected: false,
		},
	}

	for _, test := range tests {
		res := MustParsePrefix(test.a).Contains(MustParsePrefix(test.b))
		assert.Equal(t, test.expected, res, test.name)
	}
}

func TestPrefixFrom(t *testing.T) {
	pfx, err := PrefixFrom(netip.MustParsePrefix("2001:db8:1::/48"))
	assert.NoError(t, err)
	assert.Equal(t, AFIIPv6, pfx.AFI())
	assert.Equal(t, uint8(48), pfx.Pfxlen())
	assert.Equal(t, []byte{0x20, 0x01, 0x0d, 0xb8, 0, 1}, pfx.Octets())
	assert.Equal(t, netip.MustParsePrefix("2001:db8:1::/48"), pfx.NetIP())
	assert.True(t, pfx.Equal(MustParsePrefix("2001:db8:1::/48")))
}

func TestPrefixFromInvalid(t *testing.T) {
	_, err := PrefixFrom(netip.Prefix{})
	assert.ErrorIs(t, err, ErrInvalidPrefixLength)

	pfx, err := PrefixFrom(netip.PrefixFrom(netip.MustParseAddr("10.1.3.7"), 23))
	assert.NoError(t, err)
	assert.Equal(t, "10.1.2.0/23", pfx.String())
	assert.Equal(t, []byte{10, 1, 2}, pfx.Octets())
}
