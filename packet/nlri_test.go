package packet

import (
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bnet "github.com/taktv6/bgpwire/net"
)

var (
	ipv4Labeled = bnet.Family{AFI: bnet.AFIIPv4, SAFI: bnet.SAFIMPLSLabel}
	ipv4VPN     = bnet.Family{AFI: bnet.AFIIPv4, SAFI: bnet.SAFIMPLSVPN}
	ipv6VPN     = bnet.Family{AFI: bnet.AFIIPv6, SAFI: bnet.SAFIMPLSVPN}

	addrComparer = cmp.Comparer(func(a, b netip.Addr) bool {
		return a == b
	})
)

func TestDecodeNLRI(t *testing.T) {
	tests := []struct {
		name      string
		input     []byte
		family    bnet.Family
		addPath   bool
		wantFail  bool
		wantErr   error
		expected  NLRI
		remaining int
	}{
		{
			name: "IPv4 unicast",
			input: []byte{
				8, 10, // 10.0.0.0/8
				24,
			},
			family: ipv4Unicast,
			expected: NLRI{
				Family: ipv4Unicast,
				Prefix: bnet.MustParsePrefix("10.0.0.0/8"),
			},
			remaining: 1,
		},
		{
			name: "IPv4 unicast with path identifier",
			input: []byte{
				0, 0, 0, 1, // Path ID
				24, 192, 168, 1, // 192.168.1.0/24
			},
			family:  ipv4Unicast,
			addPath: true,
			expected: NLRI{
				Family:    ipv4Unicast,
				PathID:    1,
				HasPathID: true,
				Prefix:    bnet.MustParsePrefix("192.168.1.0/24"),
			},
		},
		{
			name: "Default route",
			input: []byte{
				0,
			},
			family: ipv4Unicast,
			expected: NLRI{
				Family: ipv4Unicast,
				Prefix: bnet.MustParsePrefix("0.0.0.0/0"),
			},
		},
		{
			name: "Labeled IPv4",
			input: []byte{
				48,      // Length
				0, 1, 1, // Label 16, BoS
				10, 1, 2, // 10.1.2.0/24
			},
			family: ipv4Labeled,
			expected: NLRI{
				Family: ipv4Labeled,
				Labels: LabelStack{{Value: 16, BottomOfStack: true}},
				Prefix: bnet.MustParsePrefix("10.1.2.0/24"),
			},
		},
		{
			name: "Labeled IPv4 with two labels",
			input: []byte{
				72,      // Length
				0, 1, 0, // Label 16
				0, 1, 0x11, // Label 17, BoS
				10, 1, 2, // 10.1.2.0/24
			},
			family: ipv4Labeled,
			expected: NLRI{
				Family: ipv4Labeled,
				Labels: LabelStack{{Value: 16}, {Value: 17, BottomOfStack: true}},
				Prefix: bnet.MustParsePrefix("10.1.2.0/24"),
			},
		},
		{
			name: "Labeled IPv4 without bottom of stack",
			input: []byte{
				72,      // Length
				0, 1, 0, // Label 16
				0, 1, 0x10, // Label 17
				10, 1, 2, // 10.1.2.0/24
			},
			family: ipv4Labeled,
			expected: NLRI{
				Family: ipv4Labeled,
				Labels: LabelStack{{Value: 16}, {Value: 17}},
				Prefix: bnet.MustParsePrefix("10.1.2.0/24"),
			},
		},
		{
			name: "VPNv4 without bottom of stack",
			input: []byte{
				112,     // Length
				0, 1, 0, // Label 16
				0, 0, 0, 100, 0, 0, 0, 100, // RD 100:100
				10, 1, 2, // 10.1.2.0/24
			},
			family: ipv4VPN,
			expected: NLRI{
				Family: ipv4VPN,
				Labels: LabelStack{{Value: 16}},
				RD:     NewRDTwoOctetAS(100, 100),
				Prefix: bnet.MustParsePrefix("10.1.2.0/24"),
			},
		},
		{
			name: "VPNv4",
			input: []byte{
				112,     // Length
				0, 1, 1, // Label 16, BoS
				0, 0, 0, 100, 0, 0, 0, 100, // RD 100:100
				10, 1, 2, // 10.1.2.0/24
			},
			family: ipv4VPN,
			expected: NLRI{
				Family: ipv4VPN,
				Labels: LabelStack{{Value: 16, BottomOfStack: true}},
				RD:     NewRDTwoOctetAS(100, 100),
				Prefix: bnet.MustParsePrefix("10.1.2.0/24"),
			},
		},
		{
			name: "VPNv6",
			input: []byte{
				120,     // Length
				0, 1, 1, // Label 16, BoS
				0, 2, 0, 0, 0, 100, 0, 100, // RD 100:100 type 2
				0x20, 0x01, 0x0d, 0xb8, // 2001:db8::/32
			},
			family: ipv6VPN,
			expected: NLRI{
				Family: ipv6VPN,
				Labels: LabelStack{{Value: 16, BottomOfStack: true}},
				RD:     NewRDFourOctetAS(100, 100),
				Prefix: bnet.MustParsePrefix("2001:db8::/32"),
			},
		},
		{
			name: "Prefix too long",
			input: []byte{
				33, 10, 0, 0, 0, 0,
			},
			family:   ipv4Unicast,
			wantFail: true,
			wantErr:  ErrInvalidPrefixLength,
		},
		{
			name: "Length exceeds input",
			input: []byte{
				112, 0, 1, 1, 0, 0, 0, 100,
			},
			family:   ipv4VPN,
			wantFail: true,
			wantErr:  ErrInvalidNLRILength,
		},
		{
			name: "No room for a label",
			input: []byte{
				80, 0, 0, 0, 100, 0, 0, 0, 100, 10, 1,
			},
			family:   ipv4VPN,
			wantFail: true,
			wantErr:  ErrInvalidNLRILength,
		},
		{
			name: "Labeled prefix too long",
			input: []byte{
				64,      // Length: 24 label bits leave 40 prefix bits
				0, 1, 1, // Label 16, BoS
				10, 1, 2, 3, 4,
			},
			family:   ipv4Labeled,
			wantFail: true,
			wantErr:  ErrInvalidPrefixLength,
		},
		{
			name: "Unsupported AFI",
			input: []byte{
				48, 0, 1, 1, 10, 1, 2,
			},
			family:   bnet.Family{AFI: bnet.AFIL2VPN, SAFI: bnet.SAFIMPLSLabel},
			wantFail: true,
			wantErr:  ErrUnsupportedAFI,
		},
		{
			name: "Truncated path identifier",
			input: []byte{
				0, 0,
			},
			family:   ipv4Unicast,
			addPath:  true,
			wantFail: true,
			wantErr:  ErrTruncatedInput,
		},
	}

	for _, test := range tests {
		ctx := &DecodeContext{}
		if test.addPath {
			ctx.EnableAddPath(test.family)
		}

		c := NewCursor(test.input)
		res, err := DecodeNLRI(c, test.family, ctx)

		if test.wantFail {
			assert.ErrorIs(t, err, test.wantErr, test.name)
			continue
		}

		if err != nil {
			t.Errorf("Unexpected failure for test %q: %v", test.name, err)
			continue
		}

		assert.Equal(t, test.expected, res, test.name)
		assert.Equal(t, test.remaining, c.Remaining(), test.name)

		// Bit length invariant
		if test.family.SAFI.Labeled() {
			total := int(test.input[0])
			if test.addPath {
				total = int(test.input[PathIDLen])
			}
			assert.Equal(t, total, res.BitLength(), test.name)
		}

		out, err := res.Encode()
		require.NoError(t, err, test.name)
		assert.Equal(t, test.input[:len(test.input)-test.remaining], out, test.name)
	}
}

func TestNLRIRoundTrip(t *testing.T) {
	rd, err := NewRDIPv4Address(netip.MustParseAddr("192.0.2.1"), 7)
	require.NoError(t, err)

	tests := []struct {
		name    string
		nlri    NLRI
		addPath bool
	}{
		{
			name: "Unicast IPv6",
			nlri: NewNLRI(bnet.MustParsePrefix("2001:db8:1::/48"), bnet.SAFIUnicast),
		},
		{
			name: "Labeled with path identifier",
			nlri: NewLabeledNLRI(bnet.MustParsePrefix("198.51.100.0/24"), NewLabelStack(3000, 4000)).WithPathID(42),
			addPath: true,
		},
		{
			name: "VPN host route",
			nlri: NewVPNNLRI(rd, bnet.MustParsePrefix("203.0.113.7/32"), NewLabelStack(1000)),
		},
		{
			name: "VPN default route",
			nlri: NewVPNNLRI(NewRDFourOctetAS(4200000000, 1), bnet.MustParsePrefix("::/0"), NewLabelStack(1)),
		},
	}

	for _, test := range tests {
		ctx := &DecodeContext{}
		if test.addPath {
			ctx.EnableAddPath(test.nlri.Family)
		}

		b, err := test.nlri.Encode()
		require.NoError(t, err, test.name)

		res, err := DecodeNLRIs(b, test.nlri.Family, ctx)
		require.NoError(t, err, test.name)
		require.Len(t, res, 1, test.name)

		if diff := cmp.Diff(test.nlri, res[0], addrComparer); diff != "" {
			t.Errorf("test %q: round trip mismatch (-want +got):\n%s", test.name, diff)
		}
	}
}

func TestNLRIEncodeFailures(t *testing.T) {
	long := make([]uint32, 10)
	for i := range long {
		long[i] = uint32(i + 16)
	}

	tests := []struct {
		name    string
		nlri    NLRI
		wantErr error
	}{
		{
			name:    "Labeled without labels",
			nlri:    NewLabeledNLRI(bnet.MustParsePrefix("10.0.0.0/8"), nil),
			wantErr: ErrInvalidNLRILength,
		},
		{
			name:    "Bit length above 255",
			nlri:    NewVPNNLRI(NewRDTwoOctetAS(1, 1), bnet.MustParsePrefix("2001:db8::/64"), NewLabelStack(long...)),
			wantErr: ErrInvalidNLRILength,
		},
		{
			name: "Unicast with labels",
			nlri: NLRI{
				Family: ipv4Unicast,
				Labels: NewLabelStack(16),
				Prefix: bnet.MustParsePrefix("10.0.0.0/8"),
			},
			wantErr: ErrInvalidNLRILength,
		},
		{
			name: "Unicast with route distinguisher",
			nlri: NLRI{
				Family: ipv4Unicast,
				RD:     NewRDTwoOctetAS(1, 1),
				Prefix: bnet.MustParsePrefix("10.0.0.0/8"),
			},
			wantErr: ErrInvalidNLRILength,
		},
		{
			name: "Family mismatch",
			nlri: NLRI{
				Family: ipv4Unicast,
				Prefix: bnet.MustParsePrefix("2001:db8::/32"),
			},
		},
	}

	for _, test := range tests {
		_, err := test.nlri.Encode()
		if test.wantErr != nil {
			assert.ErrorIs(t, err, test.wantErr, test.name)
			continue
		}
		assert.Error(t, err, test.name)
	}
}

func TestDecodeNLRIs(t *testing.T) {
	res, err := DecodeNLRIs([]byte{8, 10, 16, 192, 168, 0}, ipv4Unicast, nil)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "10.0.0.0/8", res[0].String())
	assert.Equal(t, "192.168.0.0/16", res[1].String())
	assert.Equal(t, "0.0.0.0/0", res[2].String())

	_, err = DecodeNLRIs([]byte{8, 10, 16, 192}, ipv4Unicast, nil)
	assert.ErrorIs(t, err, ErrTruncatedInput)
}

func TestNLRIString(t *testing.T) {
	n := NewVPNNLRI(NewRDTwoOctetAS(100, 100), bnet.MustParsePrefix("10.1.2.0/24"), NewLabelStack(16)).WithPathID(3)

	assert.Equal(t, "ID=3 [16] RD=100:100 10.1.2.0/24", n.String())
	assert.Equal(t, "ipv4/mpls_vpn ID=3 [16] RD=100:100 10.1.2.0/24", n.Display())
	assert.Equal(t, "00000003700001010000006400000064"+"0a0102", n.Hex())
}
