package ipam

import (
	"errors"
	"fmt"

	"go_ipam/internal/ipmath"
	"go_ipam/internal/model"
)

// Network is a virtual aggregate: the set of blocks sharing a network id
// (and tenant, when given). It is never persisted on its own.
type Network struct {
	ID       string
	TenantID string
	Blocks   []model.IpBlock
}

// NetworkAllocateParams carries the inputs of a network-level allocation.
type NetworkAllocateParams struct {
	Addresses   []string
	InterfaceID string
	TenantID    string
	MacAddress  string
}

// FindNetwork materializes the network for (id, tenant). Pass tenantID ""
// to span tenants. Fails with ModelNotFoundError when no blocks carry the id.
func (s *Service) FindNetwork(id, tenantID string) (*Network, error) {
	q := s.db.Where("network_id = ?", id)
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	var blocks []model.IpBlock
	if err := q.Order("created_at").Find(&blocks).Error; err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, &ModelNotFoundError{Model: "Network", Key: fmt.Sprintf("id = '%s'", id)}
	}
	return &Network{ID: id, TenantID: tenantID, Blocks: blocks}, nil
}

// FindOrCreateNetwork materializes the network, seeding it with one default
// private block (from the configured default cidr) when none exists yet.
func (s *Service) FindOrCreateNetwork(id, tenantID string) (*Network, error) {
	network, err := s.FindNetwork(id, tenantID)
	var notFound *ModelNotFoundError
	if errors.As(err, &notFound) {
		if _, err := s.CreateBlock(BlockParams{
			CIDR:      s.opts.DefaultCIDR,
			Type:      string(model.BlockTypePrivate),
			NetworkID: id,
			TenantID:  tenantID,
		}); err != nil {
			return nil, err
		}
		return s.FindNetwork(id, tenantID)
	}
	if err != nil {
		return nil, err
	}
	return network, nil
}

// AllocateNetworkIPs hands out addresses across the network's blocks.
//
// With explicit addresses, each one is allocated from the first block whose
// cidr contains it; addresses that are already actively allocated are
// skipped, and only newly allocated rows are returned.
//
// Without explicit addresses, the first non-full block of each address
// family present yields one address. When every block of the present
// families is exhausted the call fails with NoMoreAddressesError.
func (s *Service) AllocateNetworkIPs(network *Network, p NetworkAllocateParams) ([]*model.IpAddress, error) {
	if len(p.Addresses) > 0 {
		return s.allocateGivenNetworkAddresses(network, p)
	}

	allocated := []*model.IpAddress{}
	satisfied := map[int]bool{}
	present := map[int]bool{}
	for _, block := range network.Blocks {
		present[block.Version()] = true
	}

	for i := range network.Blocks {
		block := &network.Blocks[i]
		version := block.Version()
		if satisfied[version] || block.IsFull {
			continue
		}
		ip, err := s.AllocateIP(block, AllocateParams{
			InterfaceID: p.InterfaceID,
			TenantID:    p.TenantID,
			MacAddress:  p.MacAddress,
		})
		if err != nil {
			var exhausted *NoMoreAddressesError
			if errors.As(err, &exhausted) {
				continue
			}
			return nil, err
		}
		allocated = append(allocated, ip)
		satisfied[version] = true
	}

	for version := range present {
		if !satisfied[version] {
			return nil, &NoMoreAddressesError{}
		}
	}
	return allocated, nil
}

func (s *Service) allocateGivenNetworkAddresses(network *Network, p NetworkAllocateParams) ([]*model.IpAddress, error) {
	allocated := []*model.IpAddress{}
	for _, address := range p.Addresses {
		var owner *model.IpBlock
		for i := range network.Blocks {
			if network.Blocks[i].Contains(address) {
				owner = &network.Blocks[i]
				break
			}
		}
		if owner == nil {
			continue
		}

		expanded, err := ipmath.Expand(address)
		if err != nil {
			continue
		}
		existing, err := s.findAddressRow(owner.ID, expanded)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if existing.MarkedForDeallocation {
				return nil, &AddressLockedError{Address: address}
			}
			// Already actively allocated: skip silently.
			continue
		}

		ip, err := s.AllocateIP(owner, AllocateParams{
			Address:     address,
			InterfaceID: p.InterfaceID,
			TenantID:    p.TenantID,
		})
		if err != nil {
			return nil, err
		}
		allocated = append(allocated, ip)
	}
	return allocated, nil
}

// DeallocateNetworkIPs soft-deallocates every address in the network bound
// to the given interface.
func (s *Service) DeallocateNetworkIPs(network *Network, interfaceID string) error {
	for i := range network.Blocks {
		var rows []model.IpAddress
		err := s.db.Where("ip_block_id = ? AND interface_id = ?", network.Blocks[i].ID, interfaceID).
			Find(&rows).Error
		if err != nil {
			return err
		}
		for j := range rows {
			if err := s.DeallocateIP(&rows[j]); err != nil {
				return err
			}
		}
	}
	return nil
}
