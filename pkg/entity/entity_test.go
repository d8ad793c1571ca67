package entity_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tela/pkg/entity"
)

type audit struct {
	CreatedAt time.Time `db:"created_at"`
}

type user struct {
	audit
	ID      int64    `db:"uti_id"`
	Login   string   `db:"uti_login"`
	Name    string   `db:"uti_nom"`
	Active  bool     `db:"uti_actif"`
	Score   float64  `db:"uti_score"`
	Manager *int64   `db:"uti_manager_id"`
	Note    string   `db:"-"`
	Tags    []string `db:"tags"`
}

type upperUser struct {
	Name string `db:"uti_nom"`
	Full string `db:"uti_full"`
}

func (u *upperUser) Set(name string, v any) bool {
	if name == "uti_nom" {
		u.Name = strings.ToUpper(v.(string))
		return true
	}
	return false
}

func (u *upperUser) Get(name string) (any, bool) {
	if name == "uti_full" {
		return "M. " + u.Name, true
	}
	return nil, false
}

func TestHydrate(t *testing.T) {
	t.Parallel()

	var u user
	err := entity.Hydrate(&u, map[string]any{
		"uti_id":         int64(7),
		"uti_login":      []byte("mdurand"),
		"uti_nom":        "Durand",
		"uti_actif":      int64(1),
		"uti_score":      "12.5",
		"uti_manager_id": int64(3),
		"created_at":     "2024-05-01 10:00:00",
		"unknown":        "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, "mdurand", u.Login)
	assert.Equal(t, "Durand", u.Name)
	assert.True(t, u.Active)
	assert.InDelta(t, 12.5, u.Score, 0.0001)
	require.NotNil(t, u.Manager)
	assert.Equal(t, int64(3), *u.Manager)
	assert.Equal(t, 2024, u.CreatedAt.Year())
}

func TestHydrate_Conversions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		row   map[string]any
		check func(t *testing.T, u user)
	}{
		{"string id", map[string]any{"uti_id": "42"}, func(t *testing.T, u user) { assert.Equal(t, int64(42), u.ID) }},
		{"float id", map[string]any{"uti_id": 42.0}, func(t *testing.T, u user) { assert.Equal(t, int64(42), u.ID) }},
		{"bool from string", map[string]any{"uti_actif": "on"}, func(t *testing.T, u user) { assert.True(t, u.Active) }},
		{"nil resets pointer", map[string]any{"uti_manager_id": nil}, func(t *testing.T, u user) { assert.Nil(t, u.Manager) }},
		{"int to string", map[string]any{"uti_nom": int64(5)}, func(t *testing.T, u user) { assert.Equal(t, "5", u.Name) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var u user
			require.NoError(t, entity.Hydrate(&u, tt.row))
			tt.check(t, u)
		})
	}
}

func TestHydrate_Errors(t *testing.T) {
	t.Parallel()

	var u user
	assert.ErrorIs(t, entity.Hydrate(u, map[string]any{}), entity.ErrNotStructPointer)
	assert.ErrorIs(t, entity.Hydrate(&u, map[string]any{"uti_id": "abc"}), entity.ErrConvert)
	assert.ErrorIs(t, entity.Set(&u, "nope", 1), entity.ErrUnknownProperty)
}

func TestOverrides(t *testing.T) {
	t.Parallel()

	var u upperUser
	require.NoError(t, entity.Hydrate(&u, map[string]any{"uti_nom": "durand", "uti_full": "raw"}))
	assert.Equal(t, "DURAND", u.Name)
	assert.Equal(t, "raw", u.Full)

	v, ok := entity.Get(&u, "uti_full")
	require.True(t, ok)
	assert.Equal(t, "M. DURAND", v)

	v, ok = entity.Get(&u, "uti_nom")
	require.True(t, ok)
	assert.Equal(t, "DURAND", v)
}

func TestFieldsAndToRow(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]string{"created_at", "uti_id", "uti_login", "uti_nom", "uti_actif", "uti_score", "uti_manager_id", "tags"},
		entity.Fields(&user{}),
	)
	assert.True(t, entity.HasProperty(user{}, "uti_nom"))
	assert.False(t, entity.HasProperty(user{}, "Note"))

	row := entity.ToRow(&user{ID: 1, Name: "Durand"})
	assert.Equal(t, int64(1), row["uti_id"])
	assert.Equal(t, "Durand", row["uti_nom"])
	assert.NotContains(t, row, "Note")
}

type droit struct {
	ID    int64  `db:"dro_id"`
	Label string `db:"dro_libelle"`
}

type withRights struct {
	ID     int64    `db:"uti_id"`
	Rights []*droit `rel:"droits"`
}

func TestSetRelation(t *testing.T) {
	t.Parallel()

	var u withRights
	rights := []*droit{{ID: 1, Label: "admin"}}
	require.NoError(t, entity.SetRelation(&u, "droits", rights))
	assert.Equal(t, rights, u.Rights)
	assert.Equal(t, []string{"uti_id"}, entity.Fields(&u))

	assert.ErrorIs(t, entity.SetRelation(&u, "nope", rights), entity.ErrUnknownProperty)
	assert.ErrorIs(t, entity.SetRelation(&u, "droits", []string{"x"}), entity.ErrConvert)
}
