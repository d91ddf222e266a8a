package module

import (
	"emperror.dev/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	entity "modular.GO/model/entity"
)

type ModuleRepository struct {
	db *gorm.DB
}

func NewModuleRepository(db *gorm.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

// DB returns the underlying handle (the transaction handle inside Transaction).
func (r *ModuleRepository) DB() *gorm.DB {
	return r.db
}

// AutoMigrate creates or updates the registry tables.
func (r *ModuleRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&entity.ModuleRecord{}, &entity.ModuleField{})
}

// HasTable reports whether the registry table exists (false before the first migration).
func (r *ModuleRepository) HasTable() bool {
	return r.db.Migrator().HasTable(&entity.ModuleRecord{})
}

// Transaction runs fn with a repository bound to one database transaction.
func (r *ModuleRepository) Transaction(fn func(tx *ModuleRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&ModuleRepository{db: tx})
	})
}

// FindByIdentifier returns gorm.ErrRecordNotFound when no record exists.
func (r *ModuleRepository) FindByIdentifier(identifier string) (*entity.ModuleRecord, error) {
	var m entity.ModuleRecord
	if err := r.db.Where("identifier = ?", identifier).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByIdentifierForUpdate reads the row with a row lock where the dialect supports it.
func (r *ModuleRepository) FindByIdentifierForUpdate(identifier string) (*entity.ModuleRecord, error) {
	q := r.db
	if r.db.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var m entity.ModuleRecord
	if err := q.Where("identifier = ?", identifier).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *ModuleRepository) FindByID(id uint) (*entity.ModuleRecord, error) {
	var m entity.ModuleRecord
	if err := r.db.First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// FindAll lists every record ordered by display name.
func (r *ModuleRepository) FindAll() ([]entity.ModuleRecord, error) {
	var list []entity.ModuleRecord
	err := r.db.Order("name ASC").Order("identifier ASC").Find(&list).Error
	return list, err
}

// Filter lists records matching the given column conditions.
func (r *ModuleRepository) Filter(conds map[string]interface{}) ([]entity.ModuleRecord, error) {
	var list []entity.ModuleRecord
	err := r.db.Where(conds).Order("name ASC").Order("identifier ASC").Find(&list).Error
	return list, err
}

// ActiveIdentifiers returns identifiers that are installed and active. A missing
// table yields an empty list so a fresh database can boot.
func (r *ModuleRepository) ActiveIdentifiers() ([]string, error) {
	if !r.HasTable() {
		return nil, nil
	}
	var ids []string
	err := r.db.Model(&entity.ModuleRecord{}).
		Where("installed = ? AND active = ?", true, true).
		Order("identifier ASC").
		Pluck("identifier", &ids).Error
	return ids, err
}

// CreateIfMissing inserts rec unless its identifier already exists. A lost race
// against a concurrent insert reports created=false without error.
func (r *ModuleRepository) CreateIfMissing(rec *entity.ModuleRecord) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identifier"}},
		DoNothing: true,
	}).Create(rec)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateState persists the lifecycle columns of rec.
func (r *ModuleRepository) UpdateState(rec *entity.ModuleRecord) error {
	return r.db.Model(rec).Select("name", "version", "installed", "active", "install_date", "update_date").
		Updates(rec).Error
}

// Fields returns the schema extensions owned by a module.
func (r *ModuleRepository) Fields(moduleID uint) ([]entity.ModuleField, error) {
	var list []entity.ModuleField
	err := r.db.Where("module_id = ?", moduleID).Order("model_name ASC").Order("field_name ASC").Find(&list).Error
	return list, err
}

// CreateField records a schema extension; the unique index rejects duplicates.
func (r *ModuleRepository) CreateField(f *entity.ModuleField) error {
	if f.FieldParams == nil {
		f.FieldParams = map[string]interface{}{}
	}
	return r.db.Create(f).Error
}
