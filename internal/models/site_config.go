package models

const SiteConfigNotice = "site_notice"

// SiteConfig is a key/value row for admin-editable settings.
type SiteConfig struct {
	Key   string `gorm:"primaryKey;size:255" json:"key"`
	Value string `gorm:"type:text" json:"value"`
}

func (SiteConfig) TableName() string {
	return "config"
}
