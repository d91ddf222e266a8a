package product

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	productEntity "modular.GO/model/entity/product"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Page returns one page of products ordered by name, plus the total count.
func (r *ProductRepository) Page(page, size int) ([]productEntity.Product, int64, error) {
	var total int64
	if err := r.db.Model(&productEntity.Product{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	var list []productEntity.Product
	err := r.db.Order("name ASC").Order("id ASC").
		Limit(size).Offset((page - 1) * size).
		Find(&list).Error
	return list, total, err
}

func (r *ProductRepository) FindByID(id uint) (*productEntity.Product, error) {
	var p productEntity.Product
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// BarcodeTaken reports whether another product (not exceptID) uses barcode.
func (r *ProductRepository) BarcodeTaken(barcode string, exceptID uint) (bool, error) {
	var n int64
	q := r.db.Model(&productEntity.Product{}).Where("barcode = ?", barcode)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *ProductRepository) Create(p *productEntity.Product) error {
	return r.db.Create(p).Error
}

func (r *ProductRepository) Update(p *productEntity.Product) error {
	return r.db.Model(p).Select("name", "barcode", "price", "stock", "updated_at").Updates(p).Error
}

func (r *ProductRepository) Delete(id uint) (bool, error) {
	res := r.db.Delete(&productEntity.Product{}, id)
	return res.RowsAffected > 0, res.Error
}

// SetStock updates stock levels by barcode in batches; returns barcodes not found.
func (r *ProductRepository) SetStock(levels map[string]int, batchSize int) (updated int, missing []string, err error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	barcodes := make([]string, 0, len(levels))
	for b := range levels {
		barcodes = append(barcodes, b)
	}
	err = r.db.Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(barcodes); start += batchSize {
			end := min(start+batchSize, len(barcodes))
			var found []productEntity.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("barcode IN ?", barcodes[start:end]).
				Find(&found).Error; err != nil {
				return err
			}
			seen := make(map[string]bool, len(found))
			for _, p := range found {
				seen[p.Barcode] = true
				if err := tx.Model(&productEntity.Product{}).Where("id = ?", p.ID).
					Update("stock", levels[p.Barcode]).Error; err != nil {
					return err
				}
				updated++
			}
			for _, b := range barcodes[start:end] {
				if !seen[b] {
					missing = append(missing, b)
				}
			}
		}
		return nil
	})
	return updated, missing, err
}
