package modules

import (
	"net/http"

	"emperror.dev/errors"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	entity "modular.GO/model/entity"
	moduleService "modular.GO/service/modules"
	"modular.GO/module"
)

type moduleView struct {
	entity.ModuleRecord
	Enabled    bool               `json:"enabled"`
	Descriptor *module.Descriptor `json:"descriptor,omitempty"`
}

// ListJSON returns every known module without running discovery.
func (h *Handler) ListJSON(c echo.Context) error {
	records, err := h.svc.Repo.FindAll()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	enabled := h.enabledSet()
	out := make([]moduleView, 0, len(records))
	for _, r := range records {
		_, on := enabled[r.Identifier]
		out = append(out, moduleView{ModuleRecord: r, Enabled: on})
	}
	return c.JSON(http.StatusOK, echo.Map{"modules": out, "total": len(out)})
}

// GetJSON returns one module with its field extensions and current descriptor.
func (h *Handler) GetJSON(c echo.Context) error {
	id := c.Param("id")
	rec, err := h.svc.Repo.FindByIdentifier(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": module.NewError(module.KindNotFound, id, nil).Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	if rec.Fields, err = h.svc.Repo.Fields(rec.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	view := moduleView{ModuleRecord: *rec}
	_, view.Enabled = h.enabledSet()[id]
	if d, err := h.svc.Loader.Descriptor(id); err == nil {
		view.Descriptor = &d
	}
	return c.JSON(http.StatusOK, view)
}

// DiscoverJSON runs discovery and returns the observed identifiers and the
// ones newly registered.
func (h *Handler) DiscoverJSON(c echo.Context) error {
	observed, created, err := h.svc.Discovery.Discover(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	if observed == nil {
		observed = []string{}
	}
	if created == nil {
		created = []string{}
	}
	return c.JSON(http.StatusOK, echo.Map{"observed": observed, "discovered": created})
}

// LifecycleJSON runs install, upgrade or uninstall (?force=true) and returns the result.
func (h *Handler) LifecycleJSON(a action) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")
		var (
			res *moduleService.Result
			err error
		)
		switch a {
		case actionInstall:
			res, err = h.svc.Lifecycle.Install(ctx, id)
		case actionUpgrade:
			res, err = h.svc.Lifecycle.Upgrade(ctx, id)
		default:
			res, err = h.svc.Lifecycle.Uninstall(ctx, id, c.QueryParam("force") == "true")
		}
		if err != nil {
			return c.JSON(statusFor(err), echo.Map{
				"error":      err.Error(),
				"kind":       module.KindOf(err),
				"identifier": id,
			})
		}
		return c.JSON(http.StatusOK, res)
	}
}

// statusFor maps lifecycle error kinds to HTTP status codes.
func statusFor(err error) int {
	switch module.KindOf(err) {
	case module.KindNotFound:
		return http.StatusNotFound
	case module.KindPackageUnavailable, module.KindDescriptorMissing:
		return http.StatusUnprocessableEntity
	case module.KindNotInstalled:
		return http.StatusConflict
	case module.KindMigrationTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) enabledSet() map[string]struct{} {
	set := map[string]struct{}{}
	ids, err := h.svc.List.List()
	if err != nil {
		return set
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
