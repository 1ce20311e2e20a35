package model

// Site 工作地点
type Site struct {
	BaseModel
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Name      string   `gorm:"type:varchar(128);not null" json:"name"`
	Active    bool     `gorm:"not null;index:idx_sites_active" json:"active"`
}

func (Site) TableName() string {
	return "sites"
}
