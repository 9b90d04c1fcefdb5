package model

// Policy groups unusable IP ranges and octets. Blocks referencing a policy
// refuse to allocate any address the policy marks unusable.
type Policy struct {
	BaseModel
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:varchar(255)" json:"description"`
	TenantID    string `gorm:"type:varchar(64);index" json:"tenant_id"`
}

// TableName specifies the table name for Policy model
func (Policy) TableName() string {
	return "policies"
}
