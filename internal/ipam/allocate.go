package ipam

import (
	"errors"
	"fmt"
	"math/big"

	"gorm.io/gorm"

	"go_ipam/internal/ipmath"
	"go_ipam/internal/model"
)

// AllocateParams carries the optional inputs of an allocation. Address pins a
// specific address; when empty the engine picks one. MacAddress and TenantID
// feed the IPv6 generator.
type AllocateParams struct {
	Address     string
	TenantID    string
	InterfaceID string
	MacAddress  string
}

// AllocateIP reserves an address out of a leaf block. The scan-then-insert
// pattern is optimistic: the unique index on (ip_block_id, address) decides
// races, and a constraint violation surfaces as DuplicateAddressError rather
// than being retried internally.
func (s *Service) AllocateIP(block *model.IpBlock, p AllocateParams) (*model.IpAddress, error) {
	subnets, err := s.Subnets(block)
	if err != nil {
		return nil, err
	}
	if len(subnets) > 0 {
		return nil, &IpAllocationNotAllowedError{}
	}
	if block.IsFull {
		return nil, &NoMoreAddressesError{BlockID: block.ID}
	}
	if p.TenantID != "" && block.TenantID != "" && p.TenantID != block.TenantID {
		return nil, &InvalidTenantError{TenantID: p.TenantID}
	}

	if p.Address != "" {
		return s.allocateGivenAddress(block, p)
	}
	if block.IsIPv6() {
		return s.allocateNextIPv6(block, p)
	}
	return s.allocateNextIPv4(block, p)
}

func (s *Service) allocateGivenAddress(block *model.IpBlock, p AllocateParams) (*model.IpAddress, error) {
	address, err := ipmath.Expand(p.Address)
	if err != nil || !block.Contains(address) {
		return nil, &AddressDoesNotBelongError{Address: p.Address, CIDR: block.CIDR}
	}

	// The gateway and broadcast addresses are implicitly reserved.
	for _, reserved := range []string{block.Gateway, block.Broadcast()} {
		if reserved == "" {
			continue
		}
		normalized, err := ipmath.Expand(reserved)
		if err == nil && normalized == address {
			return nil, &DuplicateAddressError{Address: address}
		}
	}

	taken, err := s.addressRowExists(block.ID, address)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &DuplicateAddressError{Address: address}
	}

	allowed, err := s.policyAllows(block, address)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, &AddressDisallowedByPolicyError{Address: address}
	}

	return s.insertAddress(block, address, p)
}

func (s *Service) allocateNextIPv4(block *model.IpBlock, p AllocateParams) (*model.IpAddress, error) {
	taken, err := s.takenAddressSet(block.ID)
	if err != nil {
		return nil, err
	}
	skip, err := reservedAddressSet(block)
	if err != nil {
		return nil, err
	}
	rules, err := s.policyRulesFor(block)
	if err != nil {
		return nil, err
	}

	count, err := ipmath.AddressCount(block.CIDR)
	if err != nil {
		return nil, err
	}

	one := big.NewInt(1)
	for index := big.NewInt(0); index.Cmp(count) < 0; index.Add(index, one) {
		candidate, err := ipmath.AddressAt(block.CIDR, index)
		if err != nil {
			return nil, err
		}
		if skip[candidate] || taken[candidate] {
			continue
		}
		if rules != nil {
			allowed, err := rules.Allows(block.CIDR, candidate)
			if err != nil {
				return nil, err
			}
			if !allowed {
				continue
			}
		}
		return s.insertAddress(block, candidate, p)
	}

	if err := s.markBlockFull(block); err != nil {
		return nil, err
	}
	return nil, &NoMoreAddressesError{BlockID: block.ID}
}

func (s *Service) allocateNextIPv6(block *model.IpBlock, p AllocateParams) (*model.IpAddress, error) {
	generator, err := s.ipv6Generator(block.CIDR, map[string]string{
		"tenant_id":   p.TenantID,
		"mac_address": p.MacAddress,
	})
	if err != nil {
		return nil, err
	}

	taken, err := s.takenAddressSet(block.ID)
	if err != nil {
		return nil, err
	}
	rules, err := s.policyRulesFor(block)
	if err != nil {
		return nil, err
	}

	for {
		candidate, ok := generator.NextIP()
		if !ok {
			break
		}
		expanded, err := ipmath.Expand(candidate)
		if err != nil {
			continue
		}
		if taken[expanded] {
			continue
		}
		if rules != nil {
			allowed, err := rules.Allows(block.CIDR, expanded)
			if err != nil {
				return nil, err
			}
			if !allowed {
				continue
			}
		}
		return s.insertAddress(block, expanded, p)
	}

	if err := s.markBlockFull(block); err != nil {
		return nil, err
	}
	return nil, &NoMoreAddressesError{BlockID: block.ID}
}

// FindOrAllocateIP returns the active address row for (block, address) if one
// exists, refuses pending-deletion rows until the garbage collector purges
// them, and otherwise allocates the address.
func (s *Service) FindOrAllocateIP(blockID, address string) (*model.IpAddress, error) {
	block, err := s.FindBlock(blockID)
	if err != nil {
		return nil, err
	}

	expanded, expandErr := ipmath.Expand(address)
	if expandErr == nil {
		existing, err := s.findAddressRow(block.ID, expanded)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if existing.MarkedForDeallocation {
				return nil, &AddressLockedError{Address: expanded}
			}
			return existing, nil
		}
	}

	return s.AllocateIP(block, AllocateParams{Address: address})
}

func (s *Service) insertAddress(block *model.IpBlock, address string, p AllocateParams) (*model.IpAddress, error) {
	ip := &model.IpAddress{
		Address:     address,
		IPBlockID:   block.ID,
		InterfaceID: p.InterfaceID,
		TenantID:    p.TenantID,
	}
	if err := s.db.Create(ip).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &DuplicateAddressError{Address: address}
		}
		return nil, err
	}
	return ip, nil
}

func (s *Service) markBlockFull(block *model.IpBlock) error {
	block.IsFull = true
	return s.db.Model(&model.IpBlock{}).Where("id = ?", block.ID).
		Update("is_full", true).Error
}

// takenAddressSet returns every address row of a block, pending-deletion rows
// included: a soft-deleted address stays occupied until purged.
func (s *Service) takenAddressSet(blockID string) (map[string]bool, error) {
	var rows []model.IpAddress
	if err := s.db.Where("ip_block_id = ?", blockID).Find(&rows).Error; err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(rows))
	for _, row := range rows {
		taken[row.Address] = true
	}
	return taken, nil
}

func reservedAddressSet(block *model.IpBlock) (map[string]bool, error) {
	skip := map[string]bool{}
	if block.Gateway != "" {
		gateway, err := ipmath.Expand(block.Gateway)
		if err != nil {
			return nil, err
		}
		skip[gateway] = true
	}
	if broadcast := block.Broadcast(); broadcast != "" {
		skip[broadcast] = true
	}
	return skip, nil
}

func (s *Service) addressRowExists(blockID, address string) (bool, error) {
	row, err := s.findAddressRow(blockID, address)
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

func (s *Service) findAddressRow(blockID, address string) (*model.IpAddress, error) {
	var row model.IpAddress
	err := s.db.Where("ip_block_id = ? AND address = ?", blockID, address).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) policyAllows(block *model.IpBlock, address string) (bool, error) {
	rules, err := s.policyRulesFor(block)
	if err != nil {
		return false, err
	}
	if rules == nil {
		return true, nil
	}
	return rules.Allows(block.CIDR, address)
}

func (s *Service) policyRulesFor(block *model.IpBlock) (*PolicyRules, error) {
	if block.PolicyID == "" {
		return nil, nil
	}
	return s.PolicyRules(block.PolicyID), nil
}

// FindAllocatedIP fetches the address row for (block, address).
func (s *Service) FindAllocatedIP(block *model.IpBlock, address string) (*model.IpAddress, error) {
	expanded, err := ipmath.Expand(address)
	if err != nil {
		return nil, &ModelNotFoundError{Model: "IpAddress", Key: fmt.Sprintf("address = '%s'", address)}
	}
	row, err := s.findAddressRow(block.ID, expanded)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, &ModelNotFoundError{Model: "IpAddress", Key: fmt.Sprintf("address = '%s'", address)}
	}
	return row, nil
}

// FindAddress fetches an address row by id.
func (s *Service) FindAddress(id string) (*model.IpAddress, error) {
	var row model.IpAddress
	err := s.db.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ModelNotFoundError{Model: "IpAddress", Key: fmt.Sprintf("id = '%s'", id)}
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// BlockAddresses returns every address row of a block, pending-deletion rows
// included, ordered by id.
func (s *Service) BlockAddresses(block *model.IpBlock) ([]model.IpAddress, error) {
	var rows []model.IpAddress
	err := s.db.Where("ip_block_id = ?", block.ID).Order("id").Find(&rows).Error
	return rows, err
}

// FindAllAddressesInNetwork returns the addresses of every block carrying the
// given network id, ordered by id.
func (s *Service) FindAllAddressesInNetwork(networkID string) ([]model.IpAddress, error) {
	var rows []model.IpAddress
	err := s.db.
		Joins("JOIN ip_blocks ON ip_blocks.id = ip_addresses.ip_block_id").
		Where("ip_blocks.network_id = ?", networkID).
		Order("ip_addresses.id").
		Find(&rows).Error
	return rows, err
}
