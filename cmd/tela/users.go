package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tela/app"
	"github.com/dmitrymomot/tela/app/controllers"
	"github.com/dmitrymomot/tela/app/models"
	"github.com/dmitrymomot/tela/pkg/attribute"
	"github.com/dmitrymomot/tela/pkg/model"
	"github.com/dmitrymomot/tela/pkg/validator"
)

// bcrypt ignores input past 72 bytes.
const (
	minPasswordLength = 6
	maxPasswordLength = 72
)

func usersCmd(envFiles *[]string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage application users",
	}
	cmd.AddCommand(usersCreateCmd(envFiles))
	return cmd
}

func usersCreateCmd(envFiles *[]string) *cobra.Command {
	var (
		nom, prenom, mail, password string
		role                        int
		inactive                    bool
	)

	cmd := &cobra.Command{
		Use:     "create MATRICULE",
		Short:   "Create a user with a bcrypt password",
		Example: "  tela users create adm1 --nom Martin --prenom claire --password secret --role 2",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validator.Apply(
				validator.RequiredString("--password", password),
				validator.MinLenString("--password", password, minPasswordLength),
				validator.MaxLenString("--password", password, maxPasswordLength),
				validator.MinNum("--role", role, models.RoleUser),
			); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}
			ctx := cmd.Context()
			e, err := setup(ctx, *envFiles)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			loader, err := attribute.NewLoader(app.Properties())
			if err != nil {
				return err
			}
			ms, err := models.New(ctx, e.dao, loader, model.WithLogger(e.log))
			if err != nil {
				return err
			}
			users := ms.Utilisateurs

			row, err := users.Sanitize(map[string]any{
				"uti_matricule": args[0],
				"uti_nom":       nom,
				"uti_prenom":    prenom,
				"uti_mail":      mail,
				"uti_actif":     strconv.FormatBool(!inactive),
				"uti_dro_id":    strconv.Itoa(role),
			}, nil)
			if err != nil {
				return err
			}
			problems, err := users.Validate(ctx, row, nil)
			if err != nil {
				return err
			}
			if len(problems) > 0 {
				return validationError(problems)
			}

			hash, err := controllers.HashPassword(password, 0)
			if err != nil {
				return err
			}
			row["uti_password"] = hash

			id, err := users.Save(ctx, row)
			if err != nil {
				return err
			}
			cmd.Printf("User %s created (id %d, role %d)\n", row["uti_matricule"], id, role)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&nom, "nom", "", "last name")
	f.StringVar(&prenom, "prenom", "", "first name")
	f.StringVar(&mail, "mail", "", "email address")
	f.StringVar(&password, "password", "", "password, stored as a bcrypt hash")
	f.IntVar(&role, "role", models.RoleUser, "role id (1 user, 2 administrator)")
	f.BoolVar(&inactive, "inactive", false, "create the account disabled")
	return cmd
}

func validationError(problems validator.PropertyErrors) error {
	lines := make([]string, 0, len(problems))
	for _, e := range problems.Flatten() {
		lines = append(lines, fmt.Sprintf("  %s: %s", e.TranslationValues["field"], e.Message))
	}
	return fmt.Errorf("invalid user:\n%s\n%w", strings.Join(lines, "\n"), validator.ErrValidation)
}
