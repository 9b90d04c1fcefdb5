package ipmath

import (
	"fmt"
	"math/big"
	"net/netip"
	"strings"
)

// ParseCIDR parses a CIDR string into a prefix. The prefix is not masked, so
// "10.0.0.1/8" parses fine; use Canonicalize to get the network form.
func ParseCIDR(cidr string) (netip.Prefix, error) {
	prefix, err := netip.ParsePrefix(strings.TrimSpace(cidr))
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid cidr %q: %w", cidr, err)
	}
	return prefix, nil
}

// ParseAddress parses an address string. IPv4 octets with leading zeros
// (e.g. "10.11.003.255") are normalized before parsing.
func ParseAddress(address string) (netip.Addr, error) {
	address = strings.TrimSpace(address)
	if strings.Contains(address, ".") && !strings.Contains(address, ":") {
		address = stripV4LeadingZeros(address)
	}
	addr, err := netip.ParseAddr(address)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("invalid address %q: %w", address, err)
	}
	return addr, nil
}

func stripV4LeadingZeros(address string) string {
	parts := strings.Split(address, ".")
	for i, p := range parts {
		trimmed := strings.TrimLeft(p, "0")
		if trimmed == "" {
			trimmed = "0"
		}
		parts[i] = trimmed
	}
	return strings.Join(parts, ".")
}

// Canonicalize masks the host bits of a CIDR, returning the network form.
// Canonicalize("10.0.0.1/31") == "10.0.0.0/31". Idempotent.
func Canonicalize(cidr string) (string, error) {
	prefix, err := ParseCIDR(cidr)
	if err != nil {
		return "", err
	}
	return prefix.Masked().String(), nil
}

func bitLen(a netip.Addr) int {
	if a.Is4() {
		return 32
	}
	return 128
}

func addrToBig(a netip.Addr) *big.Int {
	if a.Is4() {
		b := a.As4()
		return new(big.Int).SetBytes(b[:])
	}
	b := a.As16()
	return new(big.Int).SetBytes(b[:])
}

func bigToAddr(i *big.Int, bits int) (netip.Addr, error) {
	if i.Sign() < 0 || i.BitLen() > bits {
		return netip.Addr{}, fmt.Errorf("value out of range for %d-bit address", bits)
	}
	if bits == 32 {
		var out [4]byte
		i.FillBytes(out[:])
		return netip.AddrFrom4(out), nil
	}
	var out [16]byte
	i.FillBytes(out[:])
	return netip.AddrFrom16(out), nil
}

// AddressCount returns the number of addresses covered by a CIDR.
func AddressCount(cidr string) (*big.Int, error) {
	prefix, err := ParseCIDR(cidr)
	if err != nil {
		return nil, err
	}
	hostBits := bitLen(prefix.Addr()) - prefix.Bits()
	return new(big.Int).Lsh(big.NewInt(1), uint(hostBits)), nil
}

// AddressAt returns the address at a 0-based offset from the network address.
func AddressAt(cidr string, index *big.Int) (string, error) {
	prefix, err := ParseCIDR(cidr)
	if err != nil {
		return "", err
	}
	count, _ := AddressCount(cidr)
	if index.Sign() < 0 || index.Cmp(count) >= 0 {
		return "", fmt.Errorf("index %s out of range for %s", index, cidr)
	}
	network := prefix.Masked().Addr()
	sum := new(big.Int).Add(addrToBig(network), index)
	addr, err := bigToAddr(sum, bitLen(network))
	if err != nil {
		return "", err
	}
	return addr.String(), nil
}

// Broadcast returns the highest address in the CIDR.
func Broadcast(cidr string) (string, error) {
	count, err := AddressCount(cidr)
	if err != nil {
		return "", err
	}
	last := new(big.Int).Sub(count, big.NewInt(1))
	return AddressAt(cidr, last)
}

// Netmask returns the netmask of a CIDR: dotted quad for IPv4, the usual
// compressed group form for IPv6 (e.g. "ffff:ffff:ffff:ffff::").
func Netmask(cidr string) (string, error) {
	prefix, err := ParseCIDR(cidr)
	if err != nil {
		return "", err
	}
	bits := bitLen(prefix.Addr())
	ones := new(big.Int).Lsh(big.NewInt(1), uint(prefix.Bits()))
	ones.Sub(ones, big.NewInt(1))
	mask := new(big.Int).Lsh(ones, uint(bits-prefix.Bits()))
	addr, err := bigToAddr(mask, bits)
	if err != nil {
		return "", err
	}
	return addr.String(), nil
}

// Version reports 4 or 6 for an address string.
func Version(address string) (int, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return 0, err
	}
	if addr.Is4() {
		return 4, nil
	}
	return 6, nil
}

// CIDRVersion reports 4 or 6 for a CIDR string.
func CIDRVersion(cidr string) (int, error) {
	prefix, err := ParseCIDR(cidr)
	if err != nil {
		return 0, err
	}
	if prefix.Addr().Is4() {
		return 4, nil
	}
	return 6, nil
}

// Contains reports whether the address falls inside the CIDR.
func Contains(cidr, address string) (bool, error) {
	prefix, err := ParseCIDR(cidr)
	if err != nil {
		return false, err
	}
	addr, err := ParseAddress(address)
	if err != nil {
		return false, err
	}
	return prefix.Masked().Contains(addr), nil
}

// Overlaps reports whether two CIDRs share any address.
func Overlaps(cidr, other string) (bool, error) {
	a, err := ParseCIDR(cidr)
	if err != nil {
		return false, err
	}
	b, err := ParseCIDR(other)
	if err != nil {
		return false, err
	}
	return a.Masked().Overlaps(b.Masked()), nil
}

// IndexOf returns the 0-based offset of the address from the CIDR's network
// address, or an error if the address is outside the CIDR.
func IndexOf(cidr, address string) (*big.Int, error) {
	ok, err := Contains(cidr, address)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("address %s is not in %s", address, cidr)
	}
	prefix, _ := ParseCIDR(cidr)
	addr, _ := ParseAddress(address)
	network := prefix.Masked().Addr()
	return new(big.Int).Sub(addrToBig(addr), addrToBig(network)), nil
}

// Expand normalizes an address to its stored form: IPv6 becomes the full
// 8-group zero-padded representation, IPv4 the canonical dotted quad.
func Expand(address string) (string, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return "", err
	}
	if addr.Is4() {
		return addr.String(), nil
	}
	return addr.StringExpanded(), nil
}
