package ip_blocks

import (
	"go_ipam/internal/model"
)

func toBlockDTO(block *model.IpBlock) *BlockDTO {
	return &BlockDTO{
		ID:        block.ID,
		CIDR:      block.CIDR,
		Type:      string(block.Type),
		NetworkID: block.NetworkID,
		TenantID:  block.TenantID,
		ParentID:  block.ParentID,
		PolicyID:  block.PolicyID,
		Gateway:   block.Gateway,
		DNS1:      block.DNS1,
		DNS2:      block.DNS2,
		IsFull:    block.IsFull,
		Broadcast: block.Broadcast(),
		Netmask:   block.Netmask(),
	}
}
