// Package product holds the catalog rules of the product unit: field
// validation, barcode uniqueness and paginated listing.
package product

import (
	"math"
	"strings"

	"emperror.dev/errors"
	"gorm.io/gorm"

	productEntity "modular.GO/model/entity/product"
	productRepo "modular.GO/model/repository/product"
)

// PageSize is the number of products per list page.
const PageSize = 10

var ErrNotFound = errors.New("product not found")

// ValidationErrors maps a field name to its message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for f, msg := range v {
		parts = append(parts, f+": "+msg)
	}
	return strings.Join(parts, "; ")
}

// Input is the editable part of a product.
type Input struct {
	Name    string  `json:"name" form:"name"`
	Barcode string  `json:"barcode" form:"barcode"`
	Price   float64 `json:"price" form:"price"`
	Stock   int     `json:"stock" form:"stock"`
}

// Page is one page of the product list.
type Page struct {
	Products []productEntity.Product `json:"products"`
	Page     int                     `json:"page"`
	Pages    int                     `json:"pages"`
	Total    int64                   `json:"total"`
	PageSize int                     `json:"page_size"`
}

type Service struct {
	repo *productRepo.ProductRepository
}

func NewService(db *gorm.DB) *Service {
	return &Service{repo: productRepo.NewProductRepository(db)}
}

func (s *Service) List(page int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	list, total, err := s.repo.Page(page, PageSize)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	pages := int(math.Ceil(float64(total) / PageSize))
	if pages == 0 {
		pages = 1
	}
	return &Page{Products: list, Page: page, Pages: pages, Total: total, PageSize: PageSize}, nil
}

func (s *Service) Get(id uint) (*productEntity.Product, error) {
	p, err := s.repo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *Service) Create(in Input) (*productEntity.Product, error) {
	if err := s.validate(&in, 0); err != nil {
		return nil, err
	}
	p := &productEntity.Product{Name: in.Name, Barcode: in.Barcode, Price: in.Price, Stock: in.Stock}
	if err := s.repo.Create(p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return p, nil
}

func (s *Service) Update(id uint, in Input) (*productEntity.Product, error) {
	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(&in, id); err != nil {
		return nil, err
	}
	p.Name, p.Barcode, p.Price, p.Stock = in.Name, in.Barcode, in.Price, in.Stock
	if err := s.repo.Update(p); err != nil {
		return nil, errors.Wrap(err, "update product")
	}
	return p, nil
}

func (s *Service) Delete(id uint) error {
	ok, err := s.repo.Delete(id)
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) validate(in *Input, id uint) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Barcode = strings.TrimSpace(in.Barcode)
	verr := ValidationErrors{}
	switch {
	case in.Name == "":
		verr["name"] = "This field is required."
	case len(in.Name) > 200:
		verr["name"] = "Ensure this value has at most 200 characters."
	}
	switch {
	case in.Barcode == "":
		verr["barcode"] = "Barcode cannot be empty."
	case len(in.Barcode) > 100:
		verr["barcode"] = "Ensure this value has at most 100 characters."
	default:
		taken, err := s.repo.BarcodeTaken(in.Barcode, id)
		if err != nil {
			return errors.Wrap(err, "check barcode")
		}
		if taken {
			verr["barcode"] = "A product with this barcode already exists."
		}
	}
	if in.Price <= 0 {
		verr["price"] = "Price must be greater than zero."
	} else if in.Price >= 1e8 {
		verr["price"] = "Ensure that there are no more than 10 digits in total."
	}
	if in.Stock < 0 {
		verr["stock"] = "Stock cannot be negative."
	}
	if len(verr) > 0 {
		return verr
	}
	return nil
}
