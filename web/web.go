// Package web holds the embedded HTML views.
package web

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var files embed.FS

// Templates parses every view. Times are shown in loc.
func Templates(loc *time.Location) (*template.Template, error) {
	return template.New("").Funcs(Funcs(loc)).ParseFS(files, "templates/*.html")
}

func Funcs(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"datetime": func(t time.Time) string { return t.In(loc).Format("2006-01-02 15:04") },
		"date":     func(t time.Time) string { return t.In(loc).Format("Monday, 2 January 2006") },
		"clock":    func(t time.Time) string { return t.In(loc).Format("15:04") },
		// inputMin formats t for a datetime-local input's min attribute.
		"inputMin": func(t time.Time) string { return t.In(loc).Format("2006-01-02T15:04") },
	}
}
