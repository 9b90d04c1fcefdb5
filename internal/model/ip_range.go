package model

// IpRange marks a window of addresses inside a block as unusable, expressed as
// a 0-based offset from the network address plus a length. A negative offset
// counts back from the block's last address.
type IpRange struct {
	BaseModel
	Offset   int    `gorm:"not null" json:"offset"`
	Length   int    `gorm:"not null" json:"length"`
	PolicyID string `gorm:"type:varchar(36);not null;index" json:"policy_id"`
}

// TableName specifies the table name for IpRange model
func (IpRange) TableName() string {
	return "ip_ranges"
}
