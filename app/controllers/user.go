package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrymomot/tela"
	"github.com/dmitrymomot/tela/app/models"
	"github.com/dmitrymomot/tela/pkg/db"
	"github.com/dmitrymomot/tela/pkg/export"
	"github.com/dmitrymomot/tela/pkg/model"
	"github.com/dmitrymomot/tela/pkg/storage"
	"github.com/dmitrymomot/tela/pkg/view"
)

const (
	exportFilename = "utilisateurs.csv"
	exportPrefix   = "exports"
	roleColumn     = "dro_libelle"
)

// User lists and exports users.
type User struct {
	users *model.Model[*models.Utilisateur]
}

// NewUser returns the factory of the user controller.
func NewUser(users *model.Model[*models.Utilisateur]) tela.ControllerFactory {
	return func() tela.Controller { return &User{users: users} }
}

func (u *User) Actions() tela.Actions {
	return tela.Actions{
		"index":  u.index,
		"export": u.export,
	}
}

// list loads the users with their role label, ordered by name.
func (u *User) list(c tela.Context) ([]string, []db.Row, error) {
	users, err := u.users.With("droit")
	if err != nil {
		return nil, nil, err
	}
	list, err := users.All(c, model.Order("uti_nom", "uti_prenom"))
	if err != nil {
		return nil, nil, err
	}
	columns := append(visibleColumns(u.users), roleColumn)
	rows := tableRows(u.users, list, columns)
	for i, e := range list {
		rows[i][roleColumn] = e.Droit
	}
	return columns, rows, nil
}

func (u *User) index(c tela.Context, _ tela.Args) error {
	columns, rows, err := u.list(c)
	if err != nil {
		return err
	}
	return c.View(http.StatusOK, "index", view.Data{
		"title":       "Users",
		"activeLinks": []string{"user"},
		"resource":    "utilisateur",
		"columns":     columns,
		"list":        rows,
		"actions": []listAction{
			{URL: "/user/export", Label: "Export CSV"},
		},
	}, view.Extra{Modules: []string{"data-tables"}})
}

type listAction struct {
	URL   string
	Label string
}

// export sends the user list as CSV. With storage configured the file is
// archived and the browser is redirected to a signed download URL.
func (u *User) export(c tela.Context, _ tela.Args) error {
	columns, rows, err := u.list(c)
	if err != nil {
		return err
	}

	content, err := export.CSVBytes(columns, rows)
	if errors.Is(err, export.ErrNoRows) {
		c.AddAlert("There is no user to export.", "info")
		return c.Redirect(http.StatusFound, "/user")
	}
	if err != nil {
		return err
	}

	store, err := c.Storage()
	switch {
	case err == nil:
		url, err := storage.Archive(c, store, exportPrefix, exportFilename, content,
			storage.WithContentType("text/csv; charset=utf-8"))
		if err != nil {
			return err
		}
		c.LogInfo("user export archived", "rows", len(rows))
		return c.Redirect(http.StatusFound, url)
	case !errors.Is(err, storage.ErrNotConfigured):
		return err
	}

	w := c.ResponseWriter()
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(content)
	return err
}
