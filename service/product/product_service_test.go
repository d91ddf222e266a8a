package product

import (
	"strings"
	"testing"

	"emperror.dev/errors"

	"modular.GO/internal/testutil/sqlitetest"
	productEntity "modular.GO/model/entity/product"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(sqlitetest.Open(t, &productEntity.Product{}))
}

func validationErrors(t *testing.T, err error) ValidationErrors {
	t.Helper()
	var verr ValidationErrors
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	return verr
}

func TestCreate_Valid(t *testing.T) {
	svc := newTestService(t)
	p, err := svc.Create(Input{Name: " Widget ", Barcode: " 123 ", Price: 9.99, Stock: 3})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == 0 || p.Name != "Widget" || p.Barcode != "123" {
		t.Errorf("unexpected product %+v", p)
	}
}

func TestCreate_ValidationMessages(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Create(Input{Name: "Widget", Barcode: "  ", Price: 0, Stock: -1})
	verr := validationErrors(t, err)
	want := map[string]string{
		"barcode": "Barcode cannot be empty.",
		"price":   "Price must be greater than zero.",
		"stock":   "Stock cannot be negative.",
	}
	for field, msg := range want {
		if verr[field] != msg {
			t.Errorf("%s: got %q, want %q", field, verr[field], msg)
		}
	}
	if _, ok := verr["name"]; ok {
		t.Errorf("name should be valid")
	}
}

func TestCreate_DuplicateBarcode(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Create(Input{Name: "A", Barcode: "dup", Price: 1}); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Create(Input{Name: "B", Barcode: "dup", Price: 1})
	if got := validationErrors(t, err)["barcode"]; got != "A product with this barcode already exists." {
		t.Errorf("got %q", got)
	}
}

func TestUpdate_KeepsOwnBarcode(t *testing.T) {
	svc := newTestService(t)
	p, err := svc.Create(Input{Name: "A", Barcode: "b1", Price: 1})
	if err != nil {
		t.Fatal(err)
	}
	got, err := svc.Update(p.ID, Input{Name: "A2", Barcode: "b1", Price: 2, Stock: 5})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Name != "A2" || got.Stock != 5 {
		t.Errorf("unexpected product %+v", got)
	}
	if _, err := svc.Update(999, Input{Name: "x", Barcode: "y", Price: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestList_PaginatesByName(t *testing.T) {
	svc := newTestService(t)
	for i := 0; i < 12; i++ {
		name := string(rune('l' - i))
		if _, err := svc.Create(Input{Name: name, Barcode: "bc" + name, Price: 1}); err != nil {
			t.Fatal(err)
		}
	}
	first, err := svc.List(0)
	if err != nil {
		t.Fatal(err)
	}
	if first.Page != 1 || first.Pages != 2 || first.Total != 12 || len(first.Products) != PageSize {
		t.Fatalf("unexpected first page %+v", first)
	}
	if first.Products[0].Name != "a" {
		t.Errorf("first product %q, want a", first.Products[0].Name)
	}
	second, err := svc.List(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Products) != 2 || second.Products[1].Name != "l" {
		t.Errorf("unexpected second page %+v", second.Products)
	}
}

func TestDelete(t *testing.T) {
	svc := newTestService(t)
	p, err := svc.Create(Input{Name: "A", Barcode: "b", Price: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
}

func TestImportStock(t *testing.T) {
	svc := newTestService(t)
	for _, b := range []string{"a1", "a2"} {
		if _, err := svc.Create(Input{Name: b, Barcode: b, Price: 1}); err != nil {
			t.Fatal(err)
		}
	}
	csv := "barcode,stock\na1,7\na2,x\nzz,3\n,4\n"
	res, err := svc.ImportStock(strings.NewReader(csv), 1)
	if err != nil {
		t.Fatalf("ImportStock: %v", err)
	}
	if res.TotalRows != 4 || res.Updated != 1 || res.Skipped != 3 {
		t.Errorf("unexpected result %+v", res)
	}
	p, _ := svc.repo.FindByID(1)
	if p.Stock != 7 {
		t.Errorf("stock = %d, want 7", p.Stock)
	}
}

func TestImportStock_MissingColumns(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.ImportStock(strings.NewReader("sku,qty\n"), 0); err == nil {
		t.Fatal("expected error for missing barcode column")
	}
}
