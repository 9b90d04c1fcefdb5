package httpx

import (
	"errors"

	"go_ipam/internal/ipam"
)

// FromIPAMError maps an engine error to an AppError. Validation failures
// carry the per-field messages in Data so clients can surface them.
func FromIPAMError(err error) *AppError {
	var (
		notFound   *ipam.ModelNotFoundError
		invalid    *ipam.InvalidModelError
		missing    *ipam.DataMissingError
		duplicate  *ipam.DuplicateAddressError
		notBelongs *ipam.AddressDoesNotBelongError
		badTenant  *ipam.InvalidTenantError
		nonLeaf    *ipam.IpAllocationNotAllowedError
		exhausted  *ipam.NoMoreAddressesError
		disallowed *ipam.AddressDisallowedByPolicyError
		lockedAddr *ipam.AddressLockedError
	)

	switch {
	case errors.As(err, &notFound):
		return ErrNotFound(err.Error())
	case errors.As(err, &invalid):
		return ErrUnprocessable(err.Error()).WithData(invalid.Errors)
	case errors.As(err, &missing):
		return ErrParamMissing(err.Error())
	case errors.As(err, &duplicate):
		return ErrAlreadyExists(err.Error())
	case errors.As(err, &notBelongs):
		return ErrUnprocessable(err.Error())
	case errors.As(err, &badTenant):
		return ErrUnprocessable(err.Error())
	case errors.As(err, &nonLeaf):
		return ErrUnprocessable(err.Error())
	case errors.As(err, &exhausted):
		return ErrUnprocessable(err.Error())
	case errors.As(err, &disallowed):
		return ErrUnprocessable(err.Error())
	case errors.As(err, &lockedAddr):
		return ErrStateConflict(err.Error())
	default:
		return ErrDatabaseError("", err)
	}
}
