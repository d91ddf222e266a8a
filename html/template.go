package html

import (
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/apex/log"
	"github.com/labstack/echo/v4"

	parts "modular.GO/html/parts"
)

//go:embed templates/*/*.html
var templateFS embed.FS

// Template renders the embedded page templates for echo.
type Template struct {
	Templates *template.Template
}

func (t *Template) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.Templates.ExecuteTemplate(w, name, data)
}

// Funcs available to every page.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"criticalCSS": func() template.CSS { return template.CSS(parts.CriticalCSS()) },
		"upper":       strings.ToUpper,
		"yesno": func(b bool) string {
			if b {
				return "Yes"
			}
			return "No"
		},
	}
}

// NewRenderer parses the embedded templates. Page names are their base file
// names prefixed with the directory, e.g. "modules/index.html".
func NewRenderer() *Template {
	root := template.New("").Funcs(Funcs())
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		panic(err)
	}
	for _, dir := range entries {
		files, err := templateFS.ReadDir("templates/" + dir.Name())
		if err != nil {
			panic(err)
		}
		for _, f := range files {
			name := dir.Name() + "/" + f.Name()
			b, err := templateFS.ReadFile("templates/" + name)
			if err != nil {
				panic(err)
			}
			template.Must(root.New(name).Parse(string(b)))
			log.WithField("template", name).Debug("loaded template")
		}
	}
	return &Template{Templates: root}
}
