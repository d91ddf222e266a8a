package graphql

import (
	"net/http"

	gql "github.com/graph-gophers/graphql-go"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"modular.GO/api"
	"modular.GO/core/auth"
	"modular.GO/graphqlserver"
	moduleService "modular.GO/service/modules"
)

func init() {
	api.RegisterRoute(RegisterGraphQLRoutes)
}

// RegisterGraphQLRoutes mounts /graphql (authenticated) and /playground.
func RegisterGraphQLRoutes(e *echo.Echo, db *gorm.DB) {
	schema, err := graphqlserver.NewSchema(moduleService.New(db, moduleService.Options{}))
	if err != nil {
		panic("graphql schema: " + err.Error())
	}
	RegisterGraphQLRoutesWithSchema(e, schema, auth.Middleware())
}

// RegisterGraphQLRoutesWithSchema registers /graphql with a prepared schema (tests pass no middleware).
func RegisterGraphQLRoutesWithSchema(e *echo.Echo, schema *gql.Schema, mw ...echo.MiddlewareFunc) {
	h := echo.WrapHandler(graphqlserver.Handler(schema))
	e.POST("/graphql", h, mw...)
	e.GET("/graphql", h, mw...)
	e.GET("/playground", echo.WrapHandler(playgroundHandler()))
}

func playgroundHandler() http.Handler {
	html := `<!DOCTYPE html>
<html>
<head>
	<title>GraphQL Playground</title>
	<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/graphql-playground-react/build/static/css/index.css"/>
</head>
<body>
	<div id="root"/>
	<script src="https://cdn.jsdelivr.net/npm/graphql-playground-react/build/static/js/middleware.js"></script>
	<script>window.addEventListener('load', function() {
		GraphQLPlayground.init({ endpoint: '/graphql' });
	})</script>
</body>
</html>`
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(html))
	})
}
