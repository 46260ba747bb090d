// Package ipmatch decides whether a candidate address belongs to an event's
// IP allow list. Lists may mix exact addresses, CIDR blocks and inclusive
// dash ranges, across IPv4 and IPv6.
//
// The matcher is deliberately forgiving about list content and strict about
// candidates: a malformed entry is skipped (one bad entry must not open or
// close the whole policy), while an unparseable candidate never matches
// anything (fail closed). An empty list yields no match; deciding that an
// empty list means "no restriction" is the policy evaluator's job, not ours.
package ipmatch

import (
	"net/netip"
	"strings"
)

// Matches reports whether candidate is covered by any entry of the allow
// list. Entries are tried in order and matching short-circuits on the first
// hit. Pure function, no I/O.
func Matches(candidate string, allowList []string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(candidate))
	if err != nil {
		return false
	}
	// Normalize IPv4-mapped IPv6 (::ffff:a.b.c.d) so v4 entries match
	// candidates arriving over dual-stack sockets.
	addr = addr.Unmap()

	for _, entry := range allowList {
		if matchEntry(addr, strings.TrimSpace(entry)) {
			return true
		}
	}
	return false
}

func matchEntry(addr netip.Addr, entry string) bool {
	if entry == "" {
		return false
	}
	switch {
	case strings.Contains(entry, "/"):
		return matchCIDR(addr, entry)
	case strings.Contains(entry, "-"):
		return matchRange(addr, entry)
	default:
		return matchExact(addr, entry)
	}
}

func matchExact(addr netip.Addr, entry string) bool {
	other, err := netip.ParseAddr(entry)
	if err != nil {
		return false
	}
	other = other.Unmap()
	return addr == other
}

func matchCIDR(addr netip.Addr, entry string) bool {
	prefix, err := netip.ParsePrefix(entry)
	if err != nil {
		return false
	}
	prefix = prefix.Masked()
	if prefix.Addr().Is4() != addr.Is4() {
		return false
	}
	return prefix.Contains(addr)
}

func matchRange(addr netip.Addr, entry string) bool {
	startStr, endStr, ok := strings.Cut(entry, "-")
	if !ok {
		return false
	}
	start, err := netip.ParseAddr(strings.TrimSpace(startStr))
	if err != nil {
		return false
	}
	end, err := netip.ParseAddr(strings.TrimSpace(endStr))
	if err != nil {
		return false
	}
	start, end = start.Unmap(), end.Unmap()
	if start.Is4() != addr.Is4() || end.Is4() != addr.Is4() {
		return false
	}
	return start.Compare(addr) <= 0 && addr.Compare(end) <= 0
}
