package entity

import "gorm.io/datatypes"

// ModuleField tracks a field a module contributes to another entity's schema.
// (module_id, model_name, field_name) is unique.
type ModuleField struct {
	ID          uint              `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ModuleID    uint              `gorm:"column:module_id;not null;uniqueIndex:idx_module_field_unq" json:"module_id"`
	ModelName   string            `gorm:"column:model_name;type:varchar(100);not null;uniqueIndex:idx_module_field_unq" json:"model_name"`
	FieldName   string            `gorm:"column:field_name;type:varchar(100);not null;uniqueIndex:idx_module_field_unq" json:"field_name"`
	FieldType   string            `gorm:"column:field_type;type:varchar(100);not null" json:"field_type"`
	FieldParams datatypes.JSONMap `gorm:"column:field_params" json:"field_params"`
	// pointer so an explicit false survives the column default on insert
	IsActive *bool `gorm:"column:is_active;not null;default:true" json:"is_active"`
}

func (ModuleField) TableName() string {
	return "module_field"
}
