package tplengine

import (
	"fmt"
	"io/fs"
	"sync"

	"github.com/flosch/pongo2/v6"
)

// Renderer renders a named template with the given variables bound.
type Renderer interface {
	Render(name string, vars map[string]any) (string, error)
}

// Engine is a pongo2-backed template renderer loading templates from an
// fs.FS, typically an embedded template directory. Parsed templates are
// cached; Render is safe for concurrent use.
type Engine struct {
	mu          sync.Mutex
	templateSet *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
	extension   string
}

var _ Renderer = (*Engine)(nil)

// New builds an engine reading templates from files. Names passed to
// Render are resolved by appending the extension.
func New(files fs.FS, extension string) *Engine {
	return &Engine{
		templateSet: pongo2.NewSet("extraction", pongo2.NewFSLoader(files)),
		templates:   make(map[string]*pongo2.Template),
		extension:   extension,
	}
}

func (e *Engine) Render(name string, vars map[string]any) (string, error) {
	tmpl, err := e.template(name + e.extension)
	if err != nil {
		return "", err
	}

	rendered, err := tmpl.Execute(pongo2.Context(vars))
	if err != nil {
		return "", fmt.Errorf("executing template %q: %w", name, err)
	}
	return rendered, nil
}

func (e *Engine) template(path string) (*pongo2.Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[path]; ok {
		return tmpl, nil
	}

	tmpl, err := e.templateSet.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading template %q: %w", path, err)
	}
	e.templates[path] = tmpl
	return tmpl, nil
}
