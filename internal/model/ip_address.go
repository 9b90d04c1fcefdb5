package model

import (
	"time"

	"go_ipam/internal/ipmath"
)

// IpAddress represents a single address allocated out of an IpBlock. The
// composite unique index on (ip_block_id, address) is what makes concurrent
// allocation of the same candidate resolve to exactly one winner.
//
// A deallocated address is soft-deleted first (MarkedForDeallocation +
// DeallocatedAt) and hard-deleted later by the garbage collector.
type IpAddress struct {
	BaseModel
	Address               string     `gorm:"type:varchar(64);not null;uniqueIndex:uk_ip_addresses_block_address" json:"address"`
	IPBlockID             string     `gorm:"column:ip_block_id;type:varchar(36);not null;uniqueIndex:uk_ip_addresses_block_address;index" json:"ip_block_id"`
	InterfaceID           string     `gorm:"type:varchar(64);index" json:"interface_id"`
	TenantID              string     `gorm:"type:varchar(64)" json:"tenant_id"`
	MarkedForDeallocation bool       `gorm:"not null;default:0" json:"marked_for_deallocation"`
	DeallocatedAt         *time.Time `json:"deallocated_at"`
}

// TableName specifies the table name for IpAddress model
func (IpAddress) TableName() string {
	return "ip_addresses"
}

// Version reports 4 or 6 for the address.
func (a *IpAddress) Version() int {
	version, err := ipmath.Version(a.Address)
	if err != nil {
		return 0
	}
	return version
}
