package ipam

import (
	"errors"
	"fmt"
	"math/big"

	"gorm.io/gorm"

	"go_ipam/internal/ipmath"
	"go_ipam/internal/model"
)

// BlockParams carries the caller-supplied fields for a new IP block. Empty
// strings mean unset.
type BlockParams struct {
	CIDR      string
	Type      string
	NetworkID string
	TenantID  string
	ParentID  string
	PolicyID  string
	Gateway   string
	DNS1      string
	DNS2      string
}

// SubnetParams carries the overridable fields when subnetting a block.
type SubnetParams struct {
	NetworkID string
	TenantID  string
}

// CreateBlock validates and persists a new IP block. Validation failures are
// collected into a single InvalidModelError rather than short-circuiting.
func (s *Service) CreateBlock(p BlockParams) (*model.IpBlock, error) {
	block := &model.IpBlock{
		CIDR:      p.CIDR,
		Type:      model.BlockType(p.Type),
		NetworkID: p.NetworkID,
		TenantID:  p.TenantID,
		ParentID:  p.ParentID,
		PolicyID:  p.PolicyID,
		Gateway:   p.Gateway,
		DNS1:      p.DNS1,
		DNS2:      p.DNS2,
	}

	if err := s.validateBlock(block, ""); err != nil {
		return nil, err
	}
	s.applyBlockDefaults(block)

	if err := s.db.Create(block).Error; err != nil {
		return nil, err
	}
	return block, nil
}

// SubnetBlock creates a child block under parent. network_id, tenant_id and
// type are inherited from the parent unless overridden.
func (s *Service) SubnetBlock(parent *model.IpBlock, cidr string, p SubnetParams) (*model.IpBlock, error) {
	networkID := p.NetworkID
	if networkID == "" {
		networkID = parent.NetworkID
	}
	tenantID := p.TenantID
	if tenantID == "" {
		tenantID = parent.TenantID
	}
	return s.CreateBlock(BlockParams{
		CIDR:      cidr,
		Type:      string(parent.Type),
		NetworkID: networkID,
		TenantID:  tenantID,
		ParentID:  parent.ID,
	})
}

func (s *Service) validateBlock(b *model.IpBlock, excludeID string) error {
	verr := &InvalidModelError{}

	canonical, cidrErr := ipmath.Canonicalize(b.CIDR)
	if cidrErr != nil {
		verr.Add("cidr", "cidr is invalid")
	} else {
		b.CIDR = canonical
	}

	if b.Type != model.BlockTypePrivate && b.Type != model.BlockTypePublic {
		verr.Add("type", "type should be one among private, public")
	} else if b.NetworkID != "" {
		var count int64
		q := s.db.Model(&model.IpBlock{}).
			Where("network_id = ? AND type <> ?", b.NetworkID, b.Type)
		if excludeID != "" {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			verr.Add("type", "type should be same within a network")
		}
	}

	if b.ParentID != "" {
		if err := s.validateSubnet(b, verr, cidrErr == nil, excludeID); err != nil {
			return err
		}
	} else if cidrErr == nil {
		if err := s.validateTopLevelOverlap(b, verr, excludeID); err != nil {
			return err
		}
	}

	if b.PolicyID != "" {
		var count int64
		if err := s.db.Model(&model.Policy{}).Where("id = ?", b.PolicyID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			verr.Add("policy_id", fmt.Sprintf("Policy with id = '%s' doesn't exist", b.PolicyID))
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

func (s *Service) validateSubnet(b *model.IpBlock, verr *InvalidModelError, cidrValid bool, excludeID string) error {
	var parent model.IpBlock
	err := s.db.Where("id = ? AND type = ?", b.ParentID, b.Type).First(&parent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		verr.Add("parent_id", fmt.Sprintf("IpBlock with type = '%s', id = '%s' doesn't exist", b.Type, b.ParentID))
		return nil
	}
	if err != nil {
		return err
	}

	// Subnetting validations are skipped for an unparseable cidr.
	if cidrValid {
		within, err := cidrWithin(parent.CIDR, b.CIDR)
		if err != nil {
			return err
		}
		if !within {
			verr.Add("cidr", "cidr should be within parent block's cidr")
		}

		var siblings []model.IpBlock
		q := s.db.Where("parent_id = ?", b.ParentID)
		if excludeID != "" {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Order("created_at").Find(&siblings).Error; err != nil {
			return err
		}
		for _, sibling := range siblings {
			overlaps, err := ipmath.Overlaps(b.CIDR, sibling.CIDR)
			if err != nil {
				return err
			}
			if overlaps {
				verr.Add("cidr", fmt.Sprintf("cidr overlaps with sibling %s", sibling.CIDR))
				break
			}
		}
	}

	if b.NetworkID == "" {
		b.NetworkID = parent.NetworkID
	} else if parent.NetworkID != "" && b.NetworkID != parent.NetworkID {
		verr.Add("network_id", "network_id should be same as that of parent")
	}

	if b.TenantID == "" {
		b.TenantID = parent.TenantID
	} else if parent.TenantID != "" && b.TenantID != parent.TenantID {
		verr.Add("tenant_id", "tenant_id should be same as that of parent")
	}

	allocated, err := s.allocatedAddressCount(parent.ID)
	if err != nil {
		return err
	}
	if allocated > 0 {
		verr.Add("parent_id", "parent is not subnettable since it has allocated ips")
	}
	return nil
}

func (s *Service) validateTopLevelOverlap(b *model.IpBlock, verr *InvalidModelError, excludeID string) error {
	if b.NetworkID != "" {
		var others []model.IpBlock
		q := s.db.Where("parent_id = '' AND network_id = ?", b.NetworkID)
		if excludeID != "" {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Order("created_at").Find(&others).Error; err != nil {
			return err
		}
		for _, other := range others {
			overlaps, err := ipmath.Overlaps(b.CIDR, other.CIDR)
			if err != nil {
				return err
			}
			if overlaps {
				verr.Add("cidr", fmt.Sprintf("cidr overlaps with block %s in same network", other.CIDR))
				break
			}
		}
	}

	// Public space is globally unique, so public blocks are checked against
	// every other public block no matter which network owns it.
	if b.Type == model.BlockTypePublic {
		var publics []model.IpBlock
		q := s.db.Where("type = ?", model.BlockTypePublic)
		if excludeID != "" {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Order("created_at").Find(&publics).Error; err != nil {
			return err
		}
		for _, other := range publics {
			overlaps, err := ipmath.Overlaps(b.CIDR, other.CIDR)
			if err != nil {
				return err
			}
			if overlaps {
				verr.Add("cidr", fmt.Sprintf("cidr overlaps with public block %s", other.CIDR))
				break
			}
		}
	}
	return nil
}

func (s *Service) applyBlockDefaults(b *model.IpBlock) {
	if b.Gateway == "" {
		count, err := ipmath.AddressCount(b.CIDR)
		if err == nil {
			index := big.NewInt(0)
			if count.Cmp(big.NewInt(1)) > 0 {
				index = big.NewInt(1)
			}
			if gateway, err := ipmath.AddressAt(b.CIDR, index); err == nil {
				b.Gateway = gateway
			}
		}
	}
	if b.DNS1 == "" {
		b.DNS1 = s.opts.DNS1
	}
	if b.DNS2 == "" {
		b.DNS2 = s.opts.DNS2
	}
}

func cidrWithin(outer, inner string) (bool, error) {
	network, err := ipmath.AddressAt(inner, big.NewInt(0))
	if err != nil {
		return false, err
	}
	last, err := ipmath.Broadcast(inner)
	if err != nil {
		return false, err
	}
	containsFirst, err := ipmath.Contains(outer, network)
	if err != nil {
		return false, err
	}
	containsLast, err := ipmath.Contains(outer, last)
	if err != nil {
		return false, err
	}
	return containsFirst && containsLast, nil
}

func (s *Service) allocatedAddressCount(blockID string) (int64, error) {
	var count int64
	err := s.db.Model(&model.IpAddress{}).Where("ip_block_id = ?", blockID).Count(&count).Error
	return count, err
}

// FindBlock fetches a block by id.
func (s *Service) FindBlock(id string) (*model.IpBlock, error) {
	var block model.IpBlock
	err := s.db.Where("id = ?", id).First(&block).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ModelNotFoundError{Model: "IpBlock", Key: fmt.Sprintf("id = '%s'", id)}
	}
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// ListBlocks returns blocks ordered by id, with optional limit+marker
// pagination. Pass tenantID "" for all tenants.
func (s *Service) ListBlocks(tenantID string, limit int, marker string) ([]model.IpBlock, error) {
	q := s.db.Model(&model.IpBlock{}).Order("id")
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	if marker != "" {
		q = q.Where("id > ?", marker)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var blocks []model.IpBlock
	if err := q.Find(&blocks).Error; err != nil {
		return nil, err
	}
	return blocks, nil
}

// UpdateBlock applies the given field updates, re-running block validation.
// Nil pointers leave the field untouched.
type UpdateBlockParams struct {
	NetworkID *string
	PolicyID  *string
	Gateway   *string
	DNS1      *string
	DNS2      *string
}

// UpdateBlock mutates a block's non-structural fields.
func (s *Service) UpdateBlock(block *model.IpBlock, p UpdateBlockParams) error {
	if p.NetworkID != nil {
		block.NetworkID = *p.NetworkID
	}
	if p.PolicyID != nil {
		block.PolicyID = *p.PolicyID
	}
	if p.Gateway != nil {
		block.Gateway = *p.Gateway
	}
	if p.DNS1 != nil {
		block.DNS1 = *p.DNS1
	}
	if p.DNS2 != nil {
		block.DNS2 = *p.DNS2
	}
	if err := s.validateBlock(block, block.ID); err != nil {
		return err
	}
	return s.db.Save(block).Error
}

// Subnets returns the direct children of a block.
func (s *Service) Subnets(block *model.IpBlock) ([]model.IpBlock, error) {
	var subnets []model.IpBlock
	err := s.db.Where("parent_id = ?", block.ID).Order("created_at").Find(&subnets).Error
	return subnets, err
}

// Siblings returns blocks sharing this block's parent, excluding itself.
// A top-level block has no siblings.
func (s *Service) Siblings(block *model.IpBlock) ([]model.IpBlock, error) {
	if block.ParentID == "" {
		return []model.IpBlock{}, nil
	}
	var siblings []model.IpBlock
	err := s.db.Where("parent_id = ? AND id <> ?", block.ParentID, block.ID).
		Order("created_at").Find(&siblings).Error
	return siblings, err
}

// NetworkedTopLevelBlocks returns the other blocks of this block's network
// that head a subtree within the network: blocks without a parent, or whose
// parent sits outside the network.
func (s *Service) NetworkedTopLevelBlocks(block *model.IpBlock) ([]model.IpBlock, error) {
	if block.NetworkID == "" {
		return []model.IpBlock{}, nil
	}
	var candidates []model.IpBlock
	err := s.db.Where("network_id = ? AND id <> ?", block.NetworkID, block.ID).
		Order("created_at").Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	topLevel := make([]model.IpBlock, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.ParentID == "" {
			topLevel = append(topLevel, candidate)
			continue
		}
		var parent model.IpBlock
		err := s.db.Where("id = ?", candidate.ParentID).First(&parent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && parent.NetworkID != block.NetworkID) {
			topLevel = append(topLevel, candidate)
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return topLevel, nil
}

// DeleteBlock removes a block, cascading depth-first through its subnet tree
// and deleting every owned address along the way.
func (s *Service) DeleteBlock(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return deleteBlockTree(tx, id)
	})
}

func deleteBlockTree(tx *gorm.DB, id string) error {
	var children []model.IpBlock
	if err := tx.Where("parent_id = ?", id).Find(&children).Error; err != nil {
		return err
	}
	for _, child := range children {
		if err := deleteBlockTree(tx, child.ID); err != nil {
			return err
		}
	}
	if err := tx.Where("ip_block_id = ?", id).Delete(&model.IpAddress{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&model.IpBlock{}).Error
}
