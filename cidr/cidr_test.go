package cidr

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/aclforge/policy"
)

func addr(t *testing.T, s string) policy.Address {
	t.Helper()
	a, err := policy.ParseAddress(s, "", "")
	require.NoError(t, err)
	return a
}

func addrs(t *testing.T, ss ...string) []policy.Address {
	t.Helper()
	out := make([]policy.Address, 0, len(ss))
	for _, s := range ss {
		out = append(out, addr(t, s))
	}
	return out
}

func prefixes(as []policy.Address) []string {
	out := make([]string, 0, len(as))
	for _, a := range as {
		out = append(out, a.String())
	}
	return out
}

func TestContains(t *testing.T) {
	assert.True(t, Contains(netip.MustParsePrefix("10.0.0.0/8"), netip.MustParsePrefix("10.1.0.0/16")))
	assert.True(t, Contains(netip.MustParsePrefix("10.0.0.0/8"), netip.MustParsePrefix("10.0.0.0/8")))
	assert.False(t, Contains(netip.MustParsePrefix("10.1.0.0/16"), netip.MustParsePrefix("10.0.0.0/8")))
	assert.False(t, Contains(netip.MustParsePrefix("10.0.0.0/8"), netip.MustParsePrefix("11.0.0.0/16")))
	// Never across families.
	assert.False(t, Contains(netip.MustParsePrefix("::/0"), netip.MustParsePrefix("10.0.0.0/8")))
}

func TestCollapse(t *testing.T) {
	tests := []struct {
		name string
		in   []policy.Address
		want []string
	}{
		{
			name: "sibling halves join",
			in:   addrs(t, "10.0.0.0/25", "10.0.0.128/25"),
			want: []string{"10.0.0.0/24"},
		},
		{
			name: "contained is absorbed",
			in:   addrs(t, "10.0.0.0/8", "10.1.2.0/24"),
			want: []string{"10.0.0.0/8"},
		},
		{
			name: "join cascades upward",
			in:   addrs(t, "10.0.0.0/26", "10.0.0.64/26", "10.0.0.128/25"),
			want: []string{"10.0.0.0/24"},
		},
		{
			name: "non-siblings stay apart",
			in:   addrs(t, "10.0.0.128/25", "10.0.1.0/25"),
			want: []string{"10.0.0.128/25", "10.0.1.0/25"},
		},
		{
			name: "families never mix",
			in:   addrs(t, "10.0.0.0/8", "2001:db8::/32"),
			want: []string{"10.0.0.0/8", "2001:db8::/32"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, prefixes(Collapse(tc.in)))
		})
	}
}

func TestExclude(t *testing.T) {
	got := Exclude(addrs(t, "10.0.0.0/24"), addrs(t, "10.0.0.128/25"))
	assert.Equal(t, []string{"10.0.0.0/25"}, prefixes(got))

	got = Exclude(addrs(t, "10.0.0.0/24"), addrs(t, "10.0.0.1/32"))
	assert.Equal(t, []string{
		"10.0.0.0/32",
		"10.0.0.2/31",
		"10.0.0.4/30",
		"10.0.0.8/29",
		"10.0.0.16/28",
		"10.0.0.32/27",
		"10.0.0.64/26",
		"10.0.0.128/25",
	}, prefixes(got))

	// Disjoint excludes change nothing.
	got = Exclude(addrs(t, "10.0.0.0/24"), addrs(t, "192.168.0.0/16"))
	assert.Equal(t, []string{"10.0.0.0/24"}, prefixes(got))

	// Excluding everything leaves nothing.
	got = Exclude(addrs(t, "10.0.0.0/24"), addrs(t, "10.0.0.0/8"))
	assert.Empty(t, got)
}

// TestExcludeMembership verifies the set-difference semantics address by
// address rather than by prefix shape.
func TestExcludeMembership(t *testing.T) {
	include := addrs(t, "192.0.2.0/24", "198.51.100.0/24")
	exclude := addrs(t, "192.0.2.64/26", "198.51.100.7/32")
	result := Exclude(include, exclude)

	member := func(set []policy.Address, a netip.Addr) bool {
		for _, p := range set {
			if p.Prefix.Contains(a) {
				return true
			}
		}
		return false
	}

	for _, base := range []netip.Addr{
		netip.MustParseAddr("192.0.2.0"),
		netip.MustParseAddr("198.51.100.0"),
	} {
		a := base
		for i := 0; i < 256; i++ {
			want := member(include, a) && !member(exclude, a)
			assert.Equal(t, want, member(result, a), "address %s", a)
			a = a.Next()
		}
	}
}

func TestMinimize(t *testing.T) {
	t.Run("exact match cancels the include", func(t *testing.T) {
		inc, exc := Minimize(
			addrs(t, "10.0.0.0/8", "172.16.0.0/12"),
			addrs(t, "172.16.0.0/12"))
		assert.Equal(t, []string{"10.0.0.0/8"}, prefixes(inc))
		assert.Empty(t, exc)
	})

	t.Run("contained exclude survives", func(t *testing.T) {
		inc, exc := Minimize(
			addrs(t, "10.0.0.0/8"),
			addrs(t, "10.1.0.0/16"))
		assert.Equal(t, []string{"10.0.0.0/8"}, prefixes(inc))
		assert.Equal(t, []string{"10.1.0.0/16"}, prefixes(exc))
	})

	t.Run("uncontained exclude is dropped", func(t *testing.T) {
		inc, exc := Minimize(
			addrs(t, "10.0.0.0/8"),
			addrs(t, "192.168.0.0/16"))
		assert.Equal(t, []string{"10.0.0.0/8"}, prefixes(inc))
		assert.Empty(t, exc)
	})
}

// TestMinimizeReExpansion checks that applying the minimized pair as a CIDR
// difference matches the full difference of the original pair, and that the
// minimized excludes never outnumber the originals.
func TestMinimizeReExpansion(t *testing.T) {
	cases := []struct {
		include []policy.Address
		exclude []policy.Address
	}{
		{addrs(t, "10.0.0.0/8", "172.16.0.0/12"), addrs(t, "172.16.0.0/12", "10.1.0.0/16")},
		{addrs(t, "192.0.2.0/24"), addrs(t, "192.0.2.128/25", "203.0.113.0/24")},
		{addrs(t, "10.0.0.0/8"), addrs(t, "10.0.0.0/8")},
	}
	for _, tc := range cases {
		inc, exc := Minimize(tc.include, tc.exclude)
		assert.LessOrEqual(t, len(exc), len(tc.exclude))
		assert.Equal(t,
			prefixes(Exclude(tc.include, tc.exclude)),
			prefixes(Exclude(inc, exc)))
	}
}
