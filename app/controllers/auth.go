package controllers

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/tela"
	"github.com/dmitrymomot/tela/app/models"
	"github.com/dmitrymomot/tela/pkg/db"
	"github.com/dmitrymomot/tela/pkg/model"
	"github.com/dmitrymomot/tela/pkg/session"
	"github.com/dmitrymomot/tela/pkg/validator"
	"github.com/dmitrymomot/tela/pkg/view"
)

const invalidCredentials = "Unknown matricule or wrong password."

// Auth logs users in and out.
type Auth struct {
	users *model.Model[*models.Utilisateur]
}

// NewAuth returns the factory of the auth controller.
func NewAuth(users *model.Model[*models.Utilisateur]) tela.ControllerFactory {
	return func() tela.Controller { return &Auth{users: users} }
}

func (a *Auth) Actions() tela.Actions {
	return tela.Actions{
		"login":        a.login,
		"authenticate": a.authenticate,
		"logout":       a.logout,
	}
}

func (a *Auth) login(c tela.Context, _ tela.Args) error {
	if c.IsAuthenticated() {
		return c.Redirect(http.StatusFound, "/")
	}
	return a.form(c, http.StatusOK, "")
}

func (a *Auth) form(c tela.Context, code int, matricule string) error {
	return c.View(code, "auth/login", view.Data{
		"title":       "Log in",
		"activeLinks": []string{"login"},
		"matricule":   matricule,
	})
}

func (a *Auth) authenticate(c tela.Context, args tela.Args) error {
	matricule := strings.ToUpper(strings.TrimSpace(args.Value("matricule")))
	password := args.Value("password")
	if err := validator.Apply(
		validator.RequiredString("matricule", matricule),
		validator.RequiredString("password", password),
	); err != nil {
		c.AddAlert(invalidCredentials, "danger")
		return a.form(c, http.StatusUnprocessableEntity, matricule)
	}

	u, err := a.users.First(c, map[string]any{"uti_matricule": matricule})
	switch {
	case errors.Is(err, db.ErrNoRows):
		c.LogInfo("login rejected", "matricule", matricule, "reason", "unknown")
		c.AddAlert(invalidCredentials, "danger")
		return a.form(c, http.StatusUnprocessableEntity, matricule)
	case err != nil:
		return err
	}

	if !u.Actif || bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		c.LogInfo("login rejected", "matricule", matricule, "active", u.Actif)
		c.AddAlert(invalidCredentials, "danger")
		return a.form(c, http.StatusUnprocessableEntity, matricule)
	}

	if err := c.Login(&session.User{Matricule: u.Matricule, Role: u.DroitID}); err != nil {
		return err
	}
	c.LogInfo("user logged in", "matricule", u.Matricule, "role", u.DroitID)
	c.AddAlert("Welcome "+strings.TrimSpace(u.Prenom+" "+u.Nom)+".", "success")
	return c.Redirect(http.StatusFound, "/")
}

func (a *Auth) logout(c tela.Context, _ tela.Args) error {
	if err := c.Logout(); err != nil && !errors.Is(err, session.ErrNotFound) {
		return err
	}
	return c.Redirect(http.StatusFound, "/")
}

// HashPassword returns the bcrypt hash stored in uti_password.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
