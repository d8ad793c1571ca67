package model_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tela/pkg/attribute"
	"github.com/dmitrymomot/tela/pkg/db"
	"github.com/dmitrymomot/tela/pkg/model"
)

const (
	userProps = `
properties:
  uti_id:
    type: integer
    fillable: false
  uti_login:
    type: string
    required: true
    unique: true
    search: true
    alias: Login
  uti_nom:
    type: string
    search: true
  uti_actif:
    type: boolean
    default: true
  uti_dro_id:
    type: integer
  uti_password:
    type: string
    hidden: true
`
	droitProps = `
properties:
  dro_id:
    type: integer
  dro_libelle:
    type: string
`
	membreProps = `
properties:
  grp_id:
    type: integer
  uti_id:
    type: integer
  mbr_role:
    type: string
    unique: true
`
)

type droit struct {
	ID    int64  `db:"dro_id"`
	Label string `db:"dro_libelle"`
	Users []*user `rel:"utilisateurs"`
}

type user struct {
	ID      int64  `db:"uti_id"`
	Login   string `db:"uti_login"`
	Name    string `db:"uti_nom"`
	Active  bool   `db:"uti_actif"`
	DroitID int64  `db:"uti_dro_id"`
	Droit   string `db:"dro_libelle"`
}

type membre struct {
	GroupID int64  `db:"grp_id"`
	UserID  int64  `db:"uti_id"`
	Role    string `db:"mbr_role"`
}

type fixture struct {
	mock   sqlmock.Sqlmock
	users  *model.Model[*user]
	droits *model.Model[*droit]
	membre *model.Model[*membre]
}

func setup(t *testing.T) fixture {
	t.Helper()
	return setupDialect(t, db.MySQL)
}

func setupDialect(t *testing.T, dialect db.Dialect) fixture {
	t.Helper()

	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	dao := db.New(conn, dialect)

	loader, err := attribute.NewLoader(fstest.MapFS{
		"utilisateur.yaml": {Data: []byte(userProps)},
		"droit.yaml":       {Data: []byte(droitProps)},
		"membre.yaml":      {Data: []byte(membreProps)},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = loader.Close() })

	users, err := model.New(dao, model.Config[*user]{
		Table:      "t_utilisateur",
		PrimaryKey: []string{"uti_id"},
		Definition: loader.MustLoad("utilisateur"),
		New:        func() *user { return &user{} },
	})
	require.NoError(t, err)

	droits, err := model.New(dao, model.Config[*droit]{
		Table:      "t_droit",
		PrimaryKey: []string{"dro_id"},
		Definition: loader.MustLoad("droit"),
		New:        func() *droit { return &droit{} },
		Relations: []model.Relation{
			{Name: "utilisateurs", Kind: model.HasMany, Model: users, ForeignKey: "uti_dro_id"},
		},
	})
	require.NoError(t, err)

	// has-one needs the related model, so it is declared after droits exists.
	users, err = model.New(dao, model.Config[*user]{
		Table:      "t_utilisateur",
		PrimaryKey: []string{"uti_id"},
		Definition: loader.MustLoad("utilisateur"),
		New:        func() *user { return &user{} },
		Relations: []model.Relation{
			{Name: "droit", Kind: model.HasOne, Model: droits, ForeignKey: "uti_dro_id"},
		},
	})
	require.NoError(t, err)

	membres, err := model.New(dao, model.Config[*membre]{
		Table:      "t_membre",
		PrimaryKey: []string{"grp_id", "uti_id"},
		Definition: loader.MustLoad("membre"),
		New:        func() *membre { return &membre{} },
	})
	require.NoError(t, err)

	return fixture{mock: mock, users: users, droits: droits, membre: membres}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	def := attribute.NewDefinition("x", nil)
	_, err := model.New(nil, model.Config[*user]{Definition: def, New: func() *user { return nil }})
	assert.ErrorIs(t, err, model.ErrMissingTable)

	_, err = model.New(nil, model.Config[*user]{Table: "t", Definition: def})
	assert.ErrorIs(t, err, model.ErrMissingFactory)

	_, err = model.New(nil, model.Config[*user]{Table: "t", New: func() *user { return nil }})
	assert.ErrorIs(t, err, model.ErrMissingDefinition)

	_, err = model.New(nil, model.Config[*user]{
		Table: "t", Definition: def, New: func() *user { return nil },
		Relations: []model.Relation{{Name: "r", Kind: "belongs-to"}},
	})
	assert.ErrorIs(t, err, model.ErrInvalidRelation)
}

func TestFind(t *testing.T) {
	t.Parallel()
	f := setup(t)
	ctx := context.Background()

	f.mock.ExpectQuery("SELECT * FROM t_utilisateur WHERE uti_id = ?").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"uti_id", "uti_login", "uti_nom", "uti_actif", "extra"}).
			AddRow(int64(7), "mdurand", "Durand", int64(1), "x"))

	list, err := f.users.Find(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, &user{ID: 7, Login: "mdurand", Name: "Durand", Active: true}, list[0])

	f.mock.ExpectQuery("SELECT * FROM t_utilisateur WHERE uti_login = ? LIMIT 1").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"uti_id"}))

	_, err = f.users.First(ctx, []any{"uti_login", "nobody"})
	assert.ErrorIs(t, err, db.ErrNoRows)

	f.mock.ExpectQuery("SELECT COUNT(*) AS total FROM t_utilisateur WHERE uti_actif = ?").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(int64(3)))

	n, err := f.users.Count(ctx, map[string]any{"uti_actif": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestWith(t *testing.T) {
	t.Parallel()
	f := setup(t)
	ctx := context.Background()

	_, err := f.users.With("unknown")
	assert.ErrorIs(t, err, model.ErrUnknownRelation)

	withDroit, err := f.users.With("droit")
	require.NoError(t, err)

	f.mock.ExpectQuery("SELECT * FROM t_utilisateur LEFT JOIN t_droit ON t_utilisateur.uti_dro_id = t_droit.dro_id WHERE uti_login = ?").
		WithArgs("mdurand").
		WillReturnRows(sqlmock.NewRows([]string{"uti_id", "uti_login", "uti_dro_id", "dro_id", "dro_libelle"}).
			AddRow(int64(7), "mdurand", int64(2), int64(2), "admin"))

	list, err := withDroit.Find(ctx, []any{"uti_login", "mdurand"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "admin", list[0].Droit)

	withUsers, err := f.droits.With("utilisateurs")
	require.NoError(t, err)

	f.mock.ExpectQuery("SELECT * FROM t_droit WHERE dro_id = ? LIMIT 1").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"dro_id", "dro_libelle"}).AddRow(int64(2), "admin"))
	f.mock.ExpectQuery("SELECT * FROM t_utilisateur WHERE uti_dro_id = ?").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"uti_id", "uti_login"}).
			AddRow(int64(7), "mdurand").
			AddRow(int64(8), "jmartin"))

	droit, err := withUsers.First(ctx, 2)
	require.NoError(t, err)
	require.Len(t, droit.Users, 2)
	assert.Equal(t, "jmartin", droit.Users[1].Login)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSearch(t *testing.T) {
	t.Parallel()
	f := setup(t)

	f.mock.ExpectQuery("SELECT t_utilisateur.uti_id, t_utilisateur.uti_login, t_utilisateur.uti_nom, t_utilisateur.uti_actif, t_utilisateur.uti_dro_id " +
		"FROM t_utilisateur WHERE t_utilisateur.uti_login LIKE ? OR t_utilisateur.uti_nom LIKE ?").
		WithArgs("%dur%", "%dur%").
		WillReturnRows(sqlmock.NewRows([]string{"uti_id", "uti_nom"}).AddRow(int64(7), "Durand"))

	list, err := f.users.Search(context.Background(), "dur")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Durand", list[0].Name)

	_, err = f.droits.Search(context.Background(), "dur")
	assert.ErrorIs(t, err, model.ErrNoSearchFields)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSearch_Postgres(t *testing.T) {
	t.Parallel()
	f := setupDialect(t, db.Postgres)

	f.mock.ExpectQuery("SELECT t_utilisateur.uti_id, t_utilisateur.uti_login, t_utilisateur.uti_nom, t_utilisateur.uti_actif, t_utilisateur.uti_dro_id " +
		"FROM t_utilisateur WHERE t_utilisateur.uti_login ILIKE $1 OR t_utilisateur.uti_nom ILIKE $2").
		WithArgs("%mdu%", "%mdu%").
		WillReturnRows(sqlmock.NewRows([]string{"uti_id", "uti_login"}).AddRow(int64(7), "MDURAND"))

	list, err := f.users.Search(context.Background(), "mdu")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(7), list[0].ID)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSave(t *testing.T) {
	t.Parallel()
	f := setup(t)
	ctx := context.Background()

	f.mock.ExpectExec("INSERT INTO t_utilisateur (uti_actif, uti_login, uti_nom) VALUES (?, ?, ?)").
		WithArgs(1, "mdurand", "Durand").
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := f.users.Save(ctx, db.Row{
		"uti_login": "mdurand",
		"uti_nom":   "Durand",
		"uti_actif": true,
		"csrf":      "token",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	f.mock.ExpectExec("UPDATE t_utilisateur SET uti_actif = ?, uti_nom = ? WHERE uti_id = ?").
		WithArgs(0, "Durand", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := f.users.Save(ctx, db.Row{"uti_id": 7, "uti_nom": "Durand", "uti_actif": false})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.users.Save(ctx, db.Row{"uti_nom": "Durand"})
	assert.ErrorIs(t, err, model.ErrMissingRequired)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRemove(t *testing.T) {
	t.Parallel()
	f := setup(t)

	f.mock.ExpectExec("DELETE FROM t_utilisateur WHERE uti_id = ?").
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := f.users.Remove(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.users.Remove(context.Background(), nil)
	assert.ErrorIs(t, err, model.ErrMissingCondition)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestValueExists(t *testing.T) {
	t.Parallel()
	f := setup(t)
	ctx := context.Background()

	f.mock.ExpectQuery("SELECT * FROM t_utilisateur WHERE uti_login = ? LIMIT 1").
		WithArgs("mdurand").
		WillReturnRows(sqlmock.NewRows([]string{"uti_id"}).AddRow(int64(7)))
	f.mock.ExpectQuery("SELECT * FROM t_utilisateur WHERE uti_id != ? AND uti_login = ? LIMIT 1").
		WithArgs(7, "mdurand").
		WillReturnRows(sqlmock.NewRows([]string{"uti_id"}))
	f.mock.ExpectQuery("SELECT * FROM t_membre WHERE NOT (grp_id = ? AND uti_id = ?) AND mbr_role = ? LIMIT 1").
		WithArgs(1, 7, "owner").
		WillReturnRows(sqlmock.NewRows([]string{"grp_id"}).AddRow(int64(2)))

	ok, err := f.users.ValueExists(ctx, "uti_login", "mdurand", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.users.ValueExists(ctx, "uti_login", "mdurand", 7)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.users.ValueExists(ctx, "uti_id", 7, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.membre.ValueExists(ctx, "mbr_role", "owner", map[string]any{"grp_id": 1, "uti_id": 7})
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestValidate(t *testing.T) {
	t.Parallel()
	f := setup(t)

	f.mock.ExpectQuery("SELECT * FROM t_utilisateur WHERE uti_id != ? AND uti_login = ? LIMIT 1").
		WithArgs(7, "mdurand").
		WillReturnRows(sqlmock.NewRows([]string{"uti_id"}).AddRow(int64(8)))

	errs, err := f.users.Validate(context.Background(), db.Row{"uti_login": "mdurand", "uti_nom": "Durand"}, 7)
	require.NoError(t, err)
	require.Contains(t, errs, "uti_login")
	assert.True(t, errs["uti_login"].Has("unique"))
	assert.Equal(t, "Login", errs["uti_login"].Alias)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSanitizeAndDefaults(t *testing.T) {
	t.Parallel()
	f := setup(t)

	row, err := f.users.Sanitize(map[string]any{"uti_nom": "  <b>Durand</b> ", "uti_actif": "on", "csrf": "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, db.Row{"uti_nom": "Durand", "uti_actif": true}, row)

	e, err := f.users.DefaultEntity()
	require.NoError(t, err)
	assert.True(t, e.Active)
	assert.Empty(t, e.Name)

	assert.Equal(t, []string{"uti_login", "uti_nom"}, f.users.Attributes(attribute.Has("search")))
	assert.Equal(t, db.Row{"uti_id": int64(7), "uti_login": "", "uti_nom": "", "uti_actif": false, "uti_dro_id": int64(0)},
		f.users.Properties(&user{ID: 7}))
}
