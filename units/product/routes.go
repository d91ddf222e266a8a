package product

import (
	"net/http"
	"strconv"
	"time"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"modular.GO/core/auth"
	productService "modular.GO/service/product"
)

var denied = map[Permission]string{
	CanAdd:    "You don't have permission to add products.",
	CanChange: "You don't have permission to edit products.",
	CanDelete: "You don't have permission to delete products.",
}

// RegisterProductRoutes mounts the product routes on the module's group.
func RegisterProductRoutes(g *echo.Group, db *gorm.DB) {
	h := &handler{svc: productService.NewService(db)}

	g.GET("", h.index)
	g.GET("/", h.index)
	g.GET("/list", h.list)
	g.GET("/:id", h.detail)

	mw := auth.Middleware()
	g.POST("/create", h.create, mw, require(CanAdd))
	g.POST("/:id/update", h.update, mw, require(CanChange))
	g.PUT("/:id", h.update, mw, require(CanChange))
	g.POST("/:id/delete", h.delete, mw, require(CanDelete))
	g.DELETE("/:id", h.delete, mw, require(CanDelete))
	g.POST("/stock/import", h.importStock, mw, require(CanChange))
}

func require(p Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !HasPermission(c, p) {
				return c.String(http.StatusForbidden, denied[p])
			}
			return next(c)
		}
	}
}

type handler struct {
	svc *productService.Service
}

func (h *handler) index(c echo.Context) error {
	page, err := h.svc.List(1)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load products")
	}
	return c.Render(http.StatusOK, "products/index.html", echo.Map{
		"Title":    "Product Management",
		"Total":    page.Total,
		"Role":     roleLabel(c),
		"Products": page.Products,
	})
}

func (h *handler) list(c echo.Context) error {
	n, _ := strconv.Atoi(c.QueryParam("page"))
	page, err := h.svc.List(n)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, page)
}

func (h *handler) detail(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Get(id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *handler) create(c echo.Context) error {
	var in productService.Input
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	p, err := h.svc.Create(in)
	if err != nil {
		return h.fail(c, err)
	}
	log.WithField("barcode", p.Barcode).Info("product created")
	return c.JSON(http.StatusCreated, echo.Map{"product": p, "message": "Product created successfully."})
}

func (h *handler) update(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	var in productService.Input
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	p, err := h.svc.Update(id, in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"product": p, "message": "Product updated successfully."})
}

func (h *handler) delete(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully."})
}

// importStock takes a CSV upload (field "file") or a raw CSV body.
func (h *handler) importStock(c echo.Context) error {
	start := time.Now()
	body := c.Request().Body
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		defer f.Close()
		body = f
	}
	batch, _ := strconv.Atoi(c.QueryParam("batch_size"))
	res, err := h.svc.ImportStock(body, batch)
	duration := time.Since(start).Milliseconds()
	c.Response().Header().Set("X-Request-Duration-ms", strconv.FormatInt(duration, 10))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "request_duration_ms": duration})
	}
	return c.JSON(http.StatusOK, res)
}

func (h *handler) fail(c echo.Context, err error) error {
	var verr productService.ValidationErrors
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": verr})
	case errors.Is(err, productService.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}
	log.WithError(err).Error("product request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
}

func productID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return uint(id), nil
}
