// Package models declares the demo resources and binds them to their tables.
package models

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/tela/pkg/attribute"
	"github.com/dmitrymomot/tela/pkg/db"
	"github.com/dmitrymomot/tela/pkg/model"
)

// Roles stored in t_droit.
const (
	RoleUser  = 1
	RoleAdmin = 2
)

// Utilisateur is a row of t_utilisateur. Droit is filled by the has-one join.
type Utilisateur struct {
	ID           int64  `db:"uti_id"`
	Matricule    string `db:"uti_matricule"`
	Nom          string `db:"uti_nom"`
	Prenom       string `db:"uti_prenom"`
	Mail         string `db:"uti_mail"`
	Password     string `db:"uti_password"`
	Actif        bool   `db:"uti_actif"`
	DroitID      int    `db:"uti_dro_id"`
	DateCreation string `db:"uti_date_creation"`
	Droit        string `db:"dro_libelle"`
}

// Droit is a row of t_droit.
type Droit struct {
	ID           int64          `db:"dro_id"`
	Libelle      string         `db:"dro_libelle"`
	Utilisateurs []*Utilisateur `rel:"utilisateurs"`
}

var resources = []string{"utilisateur", "droit"}

// Models groups the demo models.
type Models struct {
	Utilisateurs *model.Model[*Utilisateur]
	Droits       *model.Model[*Droit]
	loader       *attribute.Loader
}

// New loads the property definitions from loader and builds the models.
func New(ctx context.Context, dao *db.DAO, loader *attribute.Loader, opts ...model.Option) (*Models, error) {
	utiDef, err := loader.Load(ctx, "utilisateur")
	if err != nil {
		return nil, err
	}
	droDef, err := loader.Load(ctx, "droit")
	if err != nil {
		return nil, err
	}

	plainUsers, err := model.New(dao, model.Config[*Utilisateur]{
		Table:      "t_utilisateur",
		PrimaryKey: []string{"uti_id"},
		Definition: utiDef,
		New:        func() *Utilisateur { return &Utilisateur{} },
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("models: utilisateur: %w", err)
	}

	droits, err := model.New(dao, model.Config[*Droit]{
		Table:      "t_droit",
		PrimaryKey: []string{"dro_id"},
		Definition: droDef,
		New:        func() *Droit { return &Droit{} },
		Relations: []model.Relation{
			{Name: "utilisateurs", Kind: model.HasMany, Model: plainUsers, ForeignKey: "uti_dro_id"},
		},
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("models: droit: %w", err)
	}

	users, err := model.New(dao, model.Config[*Utilisateur]{
		Table:      "t_utilisateur",
		PrimaryKey: []string{"uti_id"},
		Definition: utiDef,
		New:        func() *Utilisateur { return &Utilisateur{} },
		Relations: []model.Relation{
			{Name: "droit", Kind: model.HasOne, Model: droits, ForeignKey: "uti_dro_id"},
		},
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("models: utilisateur: %w", err)
	}

	return &Models{Utilisateurs: users, Droits: droits, loader: loader}, nil
}

// Alias resolves the display name of a resource property. Joined columns
// such as dro_libelle on a user row are looked up in the other resources.
// It falls back to the property name and feeds the view alias helper.
func (m *Models) Alias(resource, property string) string {
	ctx := context.Background()
	if def, err := m.loader.Load(ctx, resource); err == nil && def.HasProperty(property) {
		return def.Alias(property)
	}
	for _, name := range resources {
		if name == resource {
			continue
		}
		if def, err := m.loader.Load(ctx, name); err == nil && def.HasProperty(property) {
			return def.Alias(property)
		}
	}
	return property
}
