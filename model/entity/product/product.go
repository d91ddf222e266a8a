package product

import "time"

// Product is the catalog entry managed by the product unit.
type Product struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id" form:"-"`
	Name      string    `gorm:"column:name;type:varchar(200);not null" json:"name" form:"name"`
	Barcode   string    `gorm:"column:barcode;type:varchar(100);not null;uniqueIndex:idx_product_barcode" json:"barcode" form:"barcode"`
	Price     float64   `gorm:"column:price;type:decimal(10,2);not null" json:"price" form:"price"`
	Stock     int       `gorm:"column:stock;not null;default:0" json:"stock" form:"stock"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at" form:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at" form:"-"`
}

func (Product) TableName() string {
	return "product"
}

func (p Product) String() string {
	return p.Name
}
