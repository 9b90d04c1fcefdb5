package ipam

import (
	"gorm.io/gorm"
)

const (
	// DefaultKeepDeallocatedIPsForDays is how long a deallocated address
	// stays reserved before the garbage collector may purge it.
	DefaultKeepDeallocatedIPsForDays = 2

	// DefaultIPv6Generator names the generator used when none is configured.
	DefaultIPv6Generator = "tenant_based"
)

// Options holds the engine's tunables.
type Options struct {
	DefaultCIDR               string
	DNS1                      string
	DNS2                      string
	KeepDeallocatedIPsForDays int
	IPv6Generator             string
}

// Service is the IPAM engine. All rules live here; handlers and workers stay
// thin. The *gorm.DB is the persistence collaborator and is expected to
// enforce the unique index on (ip_block_id, address).
type Service struct {
	db    *gorm.DB
	opts  Options
	clock Clock
}

// NewService creates the engine. A nil clock falls back to wall-clock time.
func NewService(db *gorm.DB, opts Options, clock Clock) *Service {
	if opts.KeepDeallocatedIPsForDays <= 0 {
		opts.KeepDeallocatedIPsForDays = DefaultKeepDeallocatedIPsForDays
	}
	if opts.IPv6Generator == "" {
		opts.IPv6Generator = DefaultIPv6Generator
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &Service{db: db, opts: opts, clock: clock}
}
