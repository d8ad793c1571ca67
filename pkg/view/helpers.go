package view

import (
	"fmt"
	"html/template"
	"maps"
	"slices"
	"strings"
)

// ScriptType is the kind of asset a Script points to.
type ScriptType string

const (
	ScriptCSS    ScriptType = "css"
	ScriptJS     ScriptType = "js"
	ScriptModule ScriptType = "js-module"
)

// Script is a stylesheet or script included by the layout.
type Script struct {
	Type ScriptType
	URL  string
}

// Scripts groups assets by where the layout prints them.
type Scripts struct {
	Head []Script
	End  []Script
}

// Extra lists the assets a single page adds on top of the global ones.
type Extra struct {
	Modules []string
	Head    []Script
	End     []Script
}

// resolve builds the page scripts: global first, then modules, then extra.
func (r *Renderer) resolve(extra Extra) (Scripts, error) {
	out := Scripts{
		Head: slices.Clone(r.global.Head),
		End:  slices.Clone(r.global.End),
	}
	for _, name := range extra.Modules {
		m, ok := r.modules[name]
		if !ok {
			return Scripts{}, fmt.Errorf("%w: %q", ErrUnknownModule, name)
		}
		out.Head = append(out.Head, m.Head...)
		out.End = append(out.End, m.End...)
	}
	out.Head = append(out.Head, extra.Head...)
	out.End = append(out.End, extra.End...)

	for _, s := range slices.Concat(out.Head, out.End) {
		if _, err := s.HTML(); err != nil {
			return Scripts{}, err
		}
	}
	return out, nil
}

// HTML returns the tag including s.
func (s Script) HTML() (template.HTML, error) {
	src := template.HTMLEscapeString(s.URL)
	switch s.Type {
	case ScriptCSS:
		return template.HTML(`<link rel="stylesheet" href="` + src + `">`), nil
	case ScriptJS:
		return template.HTML(`<script src="` + src + `"></script>`), nil
	case ScriptModule:
		return template.HTML(`<script type="module" src="` + src + `"></script>`), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScriptType, s.Type)
}

// helpers returns the template functions bound to one render.
func (r *Renderer) helpers(data Data, req Request, scripts Scripts) template.FuncMap {
	funcs := maps.Clone(r.funcs)
	maps.Copy(funcs, template.FuncMap{
		// activeLink returns the active class when link is one of the page's
		// active links, the inactive class otherwise.
		"activeLink": func(link string, classes ...string) string {
			active, inactive := "active", ""
			if len(classes) > 0 {
				active = classes[0]
			}
			if len(classes) > 1 {
				inactive = classes[1]
			}
			if links, ok := data["activeLinks"].([]string); ok && slices.Contains(links, link) {
				return active
			}
			return inactive
		},
		"csrfField": func() template.HTML {
			return template.HTML(`<input type="hidden" name="CSRFToken" value="` +
				template.HTMLEscapeString(req.CSRFToken) + `">`)
		},
		"title": func(location string) string {
			title, _ := data["title"].(string)
			if location != "head" {
				return title
			}
			if title == "" {
				return r.appTitle
			}
			return title + " | " + r.appTitle
		},
		"alias": r.alias,
		"url": func(p string) string {
			return r.baseURL + "/" + strings.TrimPrefix(p, "/")
		},
		"scripts": func(location string) (template.HTML, error) {
			var list []Script
			switch location {
			case "head":
				list = scripts.Head
			case "end":
				list = scripts.End
			default:
				return "", fmt.Errorf("%w: %q", ErrUnknownLocation, location)
			}
			var b strings.Builder
			for _, s := range list {
				tag, err := s.HTML()
				if err != nil {
					return "", err
				}
				b.WriteString(string(tag))
				b.WriteByte('\n')
			}
			return template.HTML(b.String()), nil
		},
	})
	return funcs
}
