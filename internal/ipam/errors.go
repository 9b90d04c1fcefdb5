package ipam

import (
	"fmt"
	"sort"
	"strings"
)

// ModelNotFoundError is returned when a lookup by id or filter finds nothing.
type ModelNotFoundError struct {
	Model string
	Key   string
}

func (e *ModelNotFoundError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s with %s doesn't exist", e.Model, e.Key)
	}
	return fmt.Sprintf("%s doesn't exist", e.Model)
}

// InvalidModelError aggregates validation failures per field. A save of an
// invalid entity reports every failure, not just the first one.
type InvalidModelError struct {
	Errors map[string][]string
}

func (e *InvalidModelError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e.Errors[field], ", ")))
	}
	return "invalid model: " + strings.Join(parts, "; ")
}

// Add records a validation failure against a field.
func (e *InvalidModelError) Add(field, message string) {
	if e.Errors == nil {
		e.Errors = map[string][]string{}
	}
	e.Errors[field] = append(e.Errors[field], message)
}

// HasErrors reports whether any validation failure was recorded.
func (e *InvalidModelError) HasErrors() bool {
	return len(e.Errors) > 0
}

// DataMissingError is returned when a generator's required params are absent.
type DataMissingError struct {
	Params []string
}

func (e *DataMissingError) Error() string {
	return "required params are missing: " + strings.Join(e.Params, ", ")
}

// DuplicateAddressError is returned when an address is already allocated in a
// block, or was claimed by a concurrent allocation.
type DuplicateAddressError struct {
	Address string
}

func (e *DuplicateAddressError) Error() string {
	return fmt.Sprintf("address %s is already allocated", e.Address)
}

// AddressDoesNotBelongError is returned when an address falls outside the
// target block's CIDR.
type AddressDoesNotBelongError struct {
	Address string
	CIDR    string
}

func (e *AddressDoesNotBelongError) Error() string {
	return fmt.Sprintf("address %s does not belong to %s", e.Address, e.CIDR)
}

// InvalidTenantError is returned when an allocation names a tenant that
// differs from the block's tenant.
type InvalidTenantError struct {
	TenantID string
}

func (e *InvalidTenantError) Error() string {
	return fmt.Sprintf("tenant %s can not allocate from this block", e.TenantID)
}

// IpAllocationNotAllowedError is returned when allocation is attempted on a
// block that has subnets.
type IpAllocationNotAllowedError struct{}

func (e *IpAllocationNotAllowedError) Error() string {
	return "Non Leaf block can not allocate IPAddress"
}

// NoMoreAddressesError is returned when a block is exhausted or marked full.
type NoMoreAddressesError struct {
	BlockID string
}

func (e *NoMoreAddressesError) Error() string {
	return "no more free addresses in block"
}

// AddressDisallowedByPolicyError is returned when the block's policy excludes
// the candidate address.
type AddressDisallowedByPolicyError struct {
	Address string
}

func (e *AddressDisallowedByPolicyError) Error() string {
	return fmt.Sprintf("policy does not allow address %s", e.Address)
}

// AddressLockedError is returned when a pending-deletion address is requested
// before the garbage collector has purged it.
type AddressLockedError struct {
	Address string
}

func (e *AddressLockedError) Error() string {
	return fmt.Sprintf("address %s is locked until it is purged", e.Address)
}
