package ipam

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"go_ipam/internal/ipmath"
)

// IPv6Generator produces a finite sequence of candidate addresses inside a
// CIDR. The sequence is deterministic for the same construction inputs and
// cannot be restarted.
type IPv6Generator interface {
	// NextIP returns the next candidate, or ok=false once exhausted.
	NextIP() (address string, ok bool)
}

// IPv6GeneratorFactory builds a generator bound to a CIDR. Factories declare
// their own required params and fail with DataMissingError when any is absent.
type IPv6GeneratorFactory func(cidr string, params map[string]string) (IPv6Generator, error)

var (
	generatorMu       sync.RWMutex
	generatorRegistry = map[string]IPv6GeneratorFactory{}
)

// RegisterIPv6Generator adds a named generator factory to the registry.
// Registering an existing name replaces it.
func RegisterIPv6Generator(name string, factory IPv6GeneratorFactory) {
	generatorMu.Lock()
	defer generatorMu.Unlock()
	generatorRegistry[name] = factory
}

func init() {
	RegisterIPv6Generator(DefaultIPv6Generator, NewTenantBasedGenerator)
}

// ipv6Generator looks up the configured factory and builds a generator for
// the block's cidr.
func (s *Service) ipv6Generator(cidr string, params map[string]string) (IPv6Generator, error) {
	generatorMu.RLock()
	factory, ok := generatorRegistry[s.opts.IPv6Generator]
	generatorMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown ipv6 generator %q", s.opts.IPv6Generator)
	}
	return factory(cidr, params)
}

// maxGeneratedCandidates bounds how many candidates the tenant-based
// generator yields for huge blocks before reporting exhaustion.
const maxGeneratedCandidates = 1 << 14

type tenantBasedGenerator struct {
	cidr      string
	base      *big.Int
	count     *big.Int
	produced  int64
	remaining *big.Int
}

// NewTenantBasedGenerator is the default IPv6 generator. It derives a
// deterministic starting offset from the tenant id and MAC address, then
// walks the block from there, wrapping at the block boundary.
func NewTenantBasedGenerator(cidr string, params map[string]string) (IPv6Generator, error) {
	missing := []string{}
	for _, required := range []string{"tenant_id", "mac_address"} {
		if params[required] == "" {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &DataMissingError{Params: missing}
	}

	count, err := ipmath.AddressCount(cidr)
	if err != nil {
		return nil, err
	}

	sum := sha1.Sum([]byte(params["tenant_id"] + "/" + params["mac_address"]))
	seed := binary.BigEndian.Uint64(sum[:8])
	base := new(big.Int).Mod(new(big.Int).SetUint64(seed), count)

	remaining := new(big.Int).Set(count)
	if remaining.Cmp(big.NewInt(maxGeneratedCandidates)) > 0 {
		remaining = big.NewInt(maxGeneratedCandidates)
	}

	return &tenantBasedGenerator{
		cidr:      cidr,
		base:      base,
		count:     count,
		remaining: remaining,
	}, nil
}

func (g *tenantBasedGenerator) NextIP() (string, bool) {
	for g.remaining.Sign() > 0 {
		offset := new(big.Int).Add(g.base, big.NewInt(g.produced))
		offset.Mod(offset, g.count)
		g.produced++
		g.remaining.Sub(g.remaining, big.NewInt(1))

		address, err := ipmath.AddressAt(g.cidr, offset)
		if err != nil {
			continue
		}
		return address, true
	}
	return "", false
}
