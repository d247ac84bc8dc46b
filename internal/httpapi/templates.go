package httpapi

import (
	"embed"
	"html/template"
	"io/fs"
	"strings"

	"github.com/marshallshelly/pebble-shop/internal/pagination"
)

//go:embed templates
var templateFS embed.FS

// loadTemplates parses every page under templates/, naming each by its path
// relative to that directory, e.g. "posts/list.html".
func loadTemplates() (*template.Template, error) {
	root := template.New("")
	err := fs.WalkDir(templateFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".html") {
			return err
		}
		b, err := templateFS.ReadFile(path)
		if err != nil {
			return err
		}
		_, err = root.New(strings.TrimPrefix(path, "templates/")).Parse(string(b))
		return err
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}

// pagerView feeds the "pager" template.
type pagerView struct {
	Page         int
	Size         int
	TotalPages   int
	HasPrevious  bool
	PreviousPage int
	HasNext      bool
	NextPage     int
	SizeParam    string
}

func newPager[T any](p pagination.Page[T], sizeParam string) pagerView {
	return pagerView{
		Page:         p.Page,
		Size:         p.Size,
		TotalPages:   p.TotalPages,
		HasPrevious:  p.HasPrevious,
		PreviousPage: p.PreviousPage,
		HasNext:      p.HasNext,
		NextPage:     p.NextPage,
		SizeParam:    sizeParam,
	}
}
