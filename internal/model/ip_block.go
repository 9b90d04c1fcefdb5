package model

import (
	"go_ipam/internal/ipmath"
)

// BlockType represents the visibility class of an IP block
type BlockType string

const (
	BlockTypePrivate BlockType = "private"
	BlockTypePublic  BlockType = "public"
)

// IpBlock represents a CIDR block. Blocks form parent/subnet trees; only leaf
// blocks hand out addresses. An empty NetworkID, TenantID, ParentID or PolicyID
// means unset.
type IpBlock struct {
	BaseModel
	CIDR      string    `gorm:"type:varchar(64);not null;index" json:"cidr"`
	Type      BlockType `gorm:"type:varchar(16);not null" json:"type"`
	NetworkID string    `gorm:"type:varchar(64);index" json:"network_id"`
	TenantID  string    `gorm:"type:varchar(64);index" json:"tenant_id"`
	ParentID  string    `gorm:"type:varchar(36);index" json:"parent_id"`
	PolicyID  string    `gorm:"type:varchar(36);index" json:"policy_id"`
	Gateway   string    `gorm:"type:varchar(64)" json:"gateway"`
	DNS1      string    `gorm:"type:varchar(255)" json:"dns1"`
	DNS2      string    `gorm:"type:varchar(255)" json:"dns2"`
	IsFull    bool      `gorm:"not null;default:0" json:"is_full"`
}

// TableName specifies the table name for IpBlock model
func (IpBlock) TableName() string {
	return "ip_blocks"
}

// Broadcast returns the highest address of the block's CIDR.
func (b *IpBlock) Broadcast() string {
	broadcast, err := ipmath.Broadcast(b.CIDR)
	if err != nil {
		return ""
	}
	return broadcast
}

// Netmask returns the netmask of the block's CIDR.
func (b *IpBlock) Netmask() string {
	netmask, err := ipmath.Netmask(b.CIDR)
	if err != nil {
		return ""
	}
	return netmask
}

// Contains reports whether the address falls inside the block's CIDR.
func (b *IpBlock) Contains(address string) bool {
	ok, err := ipmath.Contains(b.CIDR, address)
	return err == nil && ok
}

// IsIPv6 reports whether the block holds IPv6 addresses.
func (b *IpBlock) IsIPv6() bool {
	version, err := ipmath.CIDRVersion(b.CIDR)
	return err == nil && version == 6
}

// Version reports 4 or 6 for the block's CIDR.
func (b *IpBlock) Version() int {
	version, err := ipmath.CIDRVersion(b.CIDR)
	if err != nil {
		return 0
	}
	return version
}
