package model

// IpOctet marks every IPv4 address whose last dotted-decimal component equals
// Octet as unusable. Has no effect on IPv6 addresses.
type IpOctet struct {
	BaseModel
	Octet    int    `gorm:"not null" json:"octet"`
	PolicyID string `gorm:"type:varchar(36);not null;index" json:"policy_id"`
}

// TableName specifies the table name for IpOctet model
func (IpOctet) TableName() string {
	return "ip_octets"
}
