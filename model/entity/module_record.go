package entity

import "time"

// ModuleRecord is the registry row for one known module.
// Installed and Active are separate columns even though every transition sets them together.
type ModuleRecord struct {
	ID          uint       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string     `gorm:"column:name;type:varchar(100);not null" json:"name"`
	Identifier  string     `gorm:"column:identifier;type:varchar(100);not null;uniqueIndex:idx_module_record_identifier" json:"identifier"`
	Version     string     `gorm:"column:version;type:varchar(50);not null;default:''" json:"version"`
	Installed   bool       `gorm:"column:installed;not null;default:false" json:"installed"`
	Active      bool       `gorm:"column:active;not null;default:false" json:"active"`
	InstallDate *time.Time `gorm:"column:install_date" json:"install_date,omitempty"`
	UpdateDate  time.Time  `gorm:"column:update_date;autoUpdateTime" json:"update_date"`

	Fields []ModuleField `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE" json:"fields,omitempty"`
}

func (ModuleRecord) TableName() string {
	return "module_record"
}

func (m ModuleRecord) String() string {
	return m.Name + " (" + m.Version + ")"
}
