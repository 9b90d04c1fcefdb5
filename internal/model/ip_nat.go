package model

// IpNat is a directed NAT edge between an inside-local address and an
// inside-global address. The composite unique index makes inserts idempotent.
type IpNat struct {
	BaseModel
	InsideGlobalAddressID string `gorm:"type:varchar(36);not null;uniqueIndex:uk_ip_nats_global_local;index" json:"inside_global_address_id"`
	InsideLocalAddressID  string `gorm:"type:varchar(36);not null;uniqueIndex:uk_ip_nats_global_local;index" json:"inside_local_address_id"`
}

// TableName specifies the table name for IpNat model
func (IpNat) TableName() string {
	return "ip_nats"
}
