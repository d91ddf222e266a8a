package modules

import (
	"net/http"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"modular.GO/core/flash"
	moduleService "modular.GO/service/modules"
	"modular.GO/module"
)

// Handler serves the module admin pages and the JSON module API.
type Handler struct {
	svc   *moduleService.Service
	flash flash.Store
}

func NewHandler(svc *moduleService.Service, store flash.Store) *Handler {
	return &Handler{svc: svc, flash: store}
}

type action struct {
	verb  string
	title string
}

var (
	actionInstall   = action{verb: "install", title: "Install"}
	actionUpgrade   = action{verb: "upgrade", title: "Upgrade"}
	actionUninstall = action{verb: "uninstall", title: "Uninstall"}
)

// List runs discovery, then renders every known module.
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	_, discovered, err := h.svc.Discovery.Discover(ctx)
	if err != nil {
		log.WithError(err).Warn("discovery failed while listing modules")
		h.push(c, flash.Message{Level: flash.LevelWarning, Text: "Module discovery failed: " + err.Error()})
	}
	records, err := h.svc.Repo.FindAll()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load modules")
	}
	return c.Render(http.StatusOK, "modules/index.html", echo.Map{
		"Title":      "Modules",
		"Modules":    records,
		"Discovered": discovered,
		"Flash":      h.pop(c),
	})
}

// Confirm renders the confirmation page for an action.
func (h *Handler) Confirm(a action) echo.HandlerFunc {
	return func(c echo.Context) error {
		rec, err := h.svc.Repo.FindByIdentifier(c.Param("id"))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "module not found")
		}
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "could not load module")
		}
		page := "modules/confirm.html"
		if a == actionUninstall {
			page = "modules/confirm_uninstall.html"
		}
		return c.Render(http.StatusOK, page, echo.Map{
			"Title":  a.title + " " + rec.Name,
			"Module": rec,
			"Action": a.title,
			"Verb":   a.verb,
			"Flash":  h.pop(c),
		})
	}
}

func (h *Handler) Install(c echo.Context) error {
	res, err := h.svc.Lifecycle.Install(c.Request().Context(), c.Param("id"))
	return h.finish(c, actionInstall, res, err)
}

func (h *Handler) Upgrade(c echo.Context) error {
	res, err := h.svc.Lifecycle.Upgrade(c.Request().Context(), c.Param("id"))
	return h.finish(c, actionUpgrade, res, err)
}

// Uninstall requires confirm=yes; anything else returns to the list untouched.
func (h *Handler) Uninstall(c echo.Context) error {
	if c.FormValue("confirm") != "yes" {
		return c.Redirect(http.StatusSeeOther, "/modules")
	}
	res, err := h.svc.Lifecycle.Uninstall(c.Request().Context(), c.Param("id"), false)
	return h.finish(c, actionUninstall, res, err)
}

// finish turns a lifecycle outcome into flash messages and redirects to the list.
func (h *Handler) finish(c echo.Context, a action, res *moduleService.Result, err error) error {
	id := c.Param("id")
	if err != nil {
		log.WithField("module", id).WithField("kind", module.KindOf(err)).WithError(err).Warn(a.verb + " failed")
		h.push(c, flash.Message{Level: flash.LevelError, Text: "Failed to " + a.verb + " module: " + err.Error()})
		return c.Redirect(http.StatusSeeOther, "/modules")
	}
	msgs := make([]flash.Message, 0, len(res.Messages)+1)
	for i, text := range res.Messages {
		level := flash.LevelInfo
		if i == len(res.Messages)-1 {
			level = flash.LevelSuccess
		}
		msgs = append(msgs, flash.Message{Level: level, Text: text})
	}
	if res.RestartRequired {
		msgs = append(msgs, flash.Message{Level: flash.LevelWarning, Text: "Restart the application for the changes to take effect."})
	}
	h.push(c, msgs...)
	return c.Redirect(http.StatusSeeOther, "/modules")
}

func (h *Handler) push(c echo.Context, msgs ...flash.Message) {
	sid := flash.SessionID(c)
	if sid == "" {
		return
	}
	if err := h.flash.Push(c.Request().Context(), sid, msgs...); err != nil {
		log.WithError(err).Warn("flash message dropped")
	}
}

func (h *Handler) pop(c echo.Context) []flash.Message {
	sid := flash.SessionID(c)
	if sid == "" {
		return nil
	}
	msgs, err := h.flash.Pop(c.Request().Context(), sid)
	if err != nil {
		log.WithError(err).Warn("flash messages unavailable")
	}
	return msgs
}
