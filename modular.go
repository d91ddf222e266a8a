//go:build !cli
// +build !cli

package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/common-nighthawk/go-figure"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"modular.GO/api"
	_ "modular.GO/api/graphql"
	_ "modular.GO/api/modules"
	"modular.GO/config"
	"modular.GO/core/auth"
	_ "modular.GO/custom"
	"modular.GO/html"
	moduleRepo "modular.GO/model/repository/module"
	"modular.GO/module"
	_ "modular.GO/units/product"
)

func main() {
	config.LoadEnv()
	config.LoadAppConfig()
	config.ConfigureLogging()
	cfg := config.AppConfig

	config.InitRedis()
	log.Info(config.ProbeRedis())

	db, err := config.NewDB()
	if err != nil {
		log.WithError(err).Fatal("failed to connect to DB")
	}
	sqldb, err := db.DB()
	if err != nil {
		log.WithError(err).Fatal("failed to get DB instance")
	}
	if err := sqldb.Ping(); err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	log.Info("Database connection successful.")

	if err := moduleRepo.NewModuleRepository(db).AutoMigrate(); err != nil {
		log.WithError(err).Fatal("could not create module registry tables")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Gzip())
	e.Use(middleware.Decompress())

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start).Milliseconds()
			c.Response().Header().Set("X-Request-Duration-ms", strconv.FormatInt(duration, 10))
			log.WithField("path", c.Path()).WithField("duration_ms", duration).Debug("request handled")
			return err
		}
	})

	e.Renderer = html.NewRenderer()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	apiGroup := e.Group("/api")
	apiGroup.Use(auth.Middleware())
	api.ApplyModules(apiGroup, db)
	api.ApplyRoutes(e, db)

	mounted, err := api.ComposeActiveModules(e, db, module.NewRegistryLoader(cfg.Units))
	if err != nil {
		log.WithError(err).Fatal("module route composition failed")
	}
	log.WithField("modules", mounted).Info("module routes composed")
	module.Lock()

	figure.NewFigure(cfg.AppName, "", true).Print()
	fmt.Println()
	log.WithField("port", cfg.Port).Info("server running")
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
