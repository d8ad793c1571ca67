package controllers

import (
	"net/http"

	"github.com/dmitrymomot/tela"
	"github.com/dmitrymomot/tela/pkg/view"
)

// Home serves the landing page.
type Home struct{}

// NewHome is the controller factory for Home.
func NewHome() tela.Controller { return &Home{} }

func (h *Home) Actions() tela.Actions {
	return tela.Actions{"index": h.index}
}

func (h *Home) index(c tela.Context, _ tela.Args) error {
	return c.View(http.StatusOK, "home", view.Data{
		"activeLinks": []string{"home"},
	})
}
