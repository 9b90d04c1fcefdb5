package ipam

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"go_ipam/internal/ipmath"
	"go_ipam/internal/model"
)

// PolicyParams carries the caller-supplied fields for a policy.
type PolicyParams struct {
	Name        string
	Description string
	TenantID    string
}

// CreatePolicy validates and persists a new policy.
func (s *Service) CreatePolicy(p PolicyParams) (*model.Policy, error) {
	if strings.TrimSpace(p.Name) == "" {
		verr := &InvalidModelError{}
		verr.Add("name", "name should be present")
		return nil, verr
	}
	policy := &model.Policy{
		Name:        p.Name,
		Description: p.Description,
		TenantID:    p.TenantID,
	}
	if err := s.db.Create(policy).Error; err != nil {
		return nil, err
	}
	return policy, nil
}

// FindPolicy fetches a policy by id.
func (s *Service) FindPolicy(id string) (*model.Policy, error) {
	var policy model.Policy
	err := s.db.Where("id = ?", id).First(&policy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ModelNotFoundError{Model: "Policy", Key: fmt.Sprintf("id = '%s'", id)}
	}
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

// ListPolicies returns policies ordered by id, with optional limit+marker
// pagination.
func (s *Service) ListPolicies(tenantID string, limit int, marker string) ([]model.Policy, error) {
	q := s.db.Model(&model.Policy{}).Order("id")
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	if marker != "" {
		q = q.Where("id > ?", marker)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var policies []model.Policy
	if err := q.Find(&policies).Error; err != nil {
		return nil, err
	}
	return policies, nil
}

// UpdatePolicy mutates a policy's fields. Nil pointers leave fields untouched.
func (s *Service) UpdatePolicy(policy *model.Policy, name, description *string) error {
	if name != nil {
		if strings.TrimSpace(*name) == "" {
			verr := &InvalidModelError{}
			verr.Add("name", "name should be present")
			return verr
		}
		policy.Name = *name
	}
	if description != nil {
		policy.Description = *description
	}
	return s.db.Save(policy).Error
}

// DeletePolicy removes a policy, cascading to its unusable ranges and octets
// and detaching every block that referenced it.
func (s *Service) DeletePolicy(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("policy_id = ?", id).Delete(&model.IpRange{}).Error; err != nil {
			return err
		}
		if err := tx.Where("policy_id = ?", id).Delete(&model.IpOctet{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.IpBlock{}).Where("policy_id = ?", id).
			Update("policy_id", "").Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Policy{}).Error
	})
}

// CreateUnusableRange attaches an unusable range to a policy.
func (s *Service) CreateUnusableRange(policy *model.Policy, offset, length int) (*model.IpRange, error) {
	if length <= 0 {
		verr := &InvalidModelError{}
		verr.Add("length", "length should be a positive integer")
		return nil, verr
	}
	ipRange := &model.IpRange{Offset: offset, Length: length, PolicyID: policy.ID}
	if err := s.db.Create(ipRange).Error; err != nil {
		return nil, err
	}
	return ipRange, nil
}

// CreateUnusableOctet attaches an unusable last-octet to a policy.
func (s *Service) CreateUnusableOctet(policy *model.Policy, octet int) (*model.IpOctet, error) {
	if octet < 0 || octet > 255 {
		verr := &InvalidModelError{}
		verr.Add("octet", "octet should be between 0 and 255")
		return nil, verr
	}
	ipOctet := &model.IpOctet{Octet: octet, PolicyID: policy.ID}
	if err := s.db.Create(ipOctet).Error; err != nil {
		return nil, err
	}
	return ipOctet, nil
}

// FindIPRange fetches an unusable range scoped to a policy.
func (s *Service) FindIPRange(policy *model.Policy, id string) (*model.IpRange, error) {
	var ipRange model.IpRange
	err := s.db.Where("id = ? AND policy_id = ?", id, policy.ID).First(&ipRange).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ModelNotFoundError{Model: "IpRange", Key: fmt.Sprintf("id = '%s'", id)}
	}
	if err != nil {
		return nil, err
	}
	return &ipRange, nil
}

// FindIPOctet fetches an unusable octet scoped to a policy.
func (s *Service) FindIPOctet(policy *model.Policy, id string) (*model.IpOctet, error) {
	var ipOctet model.IpOctet
	err := s.db.Where("id = ? AND policy_id = ?", id, policy.ID).First(&ipOctet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ModelNotFoundError{Model: "IpOctet", Key: fmt.Sprintf("id = '%s'", id)}
	}
	if err != nil {
		return nil, err
	}
	return &ipOctet, nil
}

// DeleteIPRange removes an unusable range from a policy.
func (s *Service) DeleteIPRange(policy *model.Policy, id string) error {
	return s.db.Where("id = ? AND policy_id = ?", id, policy.ID).Delete(&model.IpRange{}).Error
}

// DeleteIPOctet removes an unusable octet from a policy.
func (s *Service) DeleteIPOctet(policy *model.Policy, id string) error {
	return s.db.Where("id = ? AND policy_id = ?", id, policy.ID).Delete(&model.IpOctet{}).Error
}

// PolicyRules evaluates a policy's exclusions. The unusable range and octet
// lists are loaded lazily, once, and reused for the lifetime of the instance;
// call Invalidate after mutating the policy's ranges or octets.
type PolicyRules struct {
	svc      *Service
	policyID string

	ranges       []model.IpRange
	octets       []model.IpOctet
	rangesLoaded bool
	octetsLoaded bool
}

// PolicyRules returns an evaluator bound to the given policy id.
func (s *Service) PolicyRules(policyID string) *PolicyRules {
	return &PolicyRules{svc: s, policyID: policyID}
}

// UnusableRanges returns the policy's unusable ranges, memoized.
func (r *PolicyRules) UnusableRanges() ([]model.IpRange, error) {
	if !r.rangesLoaded {
		err := r.svc.db.Where("policy_id = ?", r.policyID).Order("id").Find(&r.ranges).Error
		if err != nil {
			return nil, err
		}
		r.rangesLoaded = true
	}
	return r.ranges, nil
}

// UnusableOctets returns the policy's unusable octets, memoized.
func (r *PolicyRules) UnusableOctets() ([]model.IpOctet, error) {
	if !r.octetsLoaded {
		err := r.svc.db.Where("policy_id = ?", r.policyID).Order("id").Find(&r.octets).Error
		if err != nil {
			return nil, err
		}
		r.octetsLoaded = true
	}
	return r.octets, nil
}

// Invalidate drops the memoized lists so the next call reloads them.
func (r *PolicyRules) Invalidate() {
	r.ranges = nil
	r.octets = nil
	r.rangesLoaded = false
	r.octetsLoaded = false
}

// Allows reports whether the policy permits the address within the CIDR.
func (r *PolicyRules) Allows(cidr, address string) (bool, error) {
	ranges, err := r.UnusableRanges()
	if err != nil {
		return false, err
	}
	for _, ipRange := range ranges {
		contained, err := RangeContains(&ipRange, cidr, address)
		if err != nil {
			return false, err
		}
		if contained {
			return false, nil
		}
	}

	octets, err := r.UnusableOctets()
	if err != nil {
		return false, err
	}
	for _, ipOctet := range octets {
		if OctetAppliesTo(&ipOctet, address) {
			return false, nil
		}
	}
	return true, nil
}

// RangeContains reports whether the address falls inside the unusable window
// the range describes over the CIDR. A negative offset counts back from the
// block's last address.
func RangeContains(ipRange *model.IpRange, cidr, address string) (bool, error) {
	inside, err := ipmath.Contains(cidr, address)
	if err != nil {
		return false, err
	}
	if !inside {
		return false, nil
	}

	index, err := ipmath.IndexOf(cidr, address)
	if err != nil {
		return false, err
	}
	count, err := ipmath.AddressCount(cidr)
	if err != nil {
		return false, err
	}

	start := big.NewInt(int64(ipRange.Offset))
	if ipRange.Offset < 0 {
		// last + offset + 1
		last := new(big.Int).Sub(count, big.NewInt(1))
		start = new(big.Int).Add(last, big.NewInt(int64(ipRange.Offset+1)))
	}
	end := new(big.Int).Add(start, big.NewInt(int64(ipRange.Length)))

	return index.Cmp(start) >= 0 && index.Cmp(end) < 0, nil
}

// OctetAppliesTo reports whether the address is an IPv4 address whose last
// dotted-decimal component equals the unusable octet.
func OctetAppliesTo(ipOctet *model.IpOctet, address string) bool {
	version, err := ipmath.Version(address)
	if err != nil || version != 4 {
		return false
	}
	expanded, err := ipmath.Expand(address)
	if err != nil {
		return false
	}
	parts := strings.Split(expanded, ".")
	last, err := strconv.Atoi(parts[len(parts)-1])
	return err == nil && last == ipOctet.Octet
}
