package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/spardhafest/spardha/internal/config"
	"github.com/spardhafest/spardha/internal/model"
	"github.com/spardhafest/spardha/internal/service"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin credentials",
		Long:  "Create, list and deactivate the operator accounts that may open the dashboard.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())
	cmd.AddCommand(newAdminDeactivateCmd())

	return cmd
}

// ---------- admin create ----------

func newAdminCreateCmd() *cobra.Command {
	var (
		email    string
		password string
		name     string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new admin credential",
		Example: `  spardha admin create --email admin@example.com --password secret123
  spardha admin create --email admin@example.com  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminCreate(cmd, email, password, name, role)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Admin display name")
	cmd.Flags().StringVar(&role, "role", model.RoleAdmin, "Admin role (admin or super_admin)")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runAdminCreate(cmd *cobra.Command, email, password, name, role string) error {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address: %q", email)
	}
	if role != model.RoleAdmin && role != model.RoleSuperAdmin {
		return fmt.Errorf("invalid role %q (want %s or %s)", role, model.RoleAdmin, model.RoleSuperAdmin)
	}

	if password == "" {
		var err error
		password, err = promptPassword(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
	}

	hash, err := service.HashPassword(password)
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	admin := &model.AdminCredential{
		Email:        email,
		PasswordHash: hash,
		FullName:     name,
		Role:         role,
		IsActive:     true,
	}
	if err := store.CreateAdmin(context.Background(), admin); err != nil {
		if errors.Is(err, config.ErrConflict) {
			return fmt.Errorf("admin %q already exists", email)
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created admin %q (%s)\n", email, admin.Role)
	return nil
}

// promptPassword reads and confirms a password from the terminal.
func promptPassword(w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())

	fmt.Fprint(w, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Fprint(w, "Confirm password: ")
	confirm, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}

	if string(pw) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pw), nil
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all admin credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminList(cmd.OutOrStdout(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAdminList(out io.Writer, jsonOutput bool) error {
	store, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	admins, err := store.ListAdmins(context.Background())
	if err != nil {
		return err
	}

	if jsonOutput {
		if admins == nil {
			admins = []model.AdminCredential{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(admins)
	}

	if len(admins) == 0 {
		fmt.Fprintln(out, "No admin credentials configured. Use 'spardha admin create' to create one.")
		return nil
	}

	fmt.Fprintf(out, "%-30s %-24s %-12s %-8s %s\n", "EMAIL", "NAME", "ROLE", "ACTIVE", "LAST LOGIN")
	fmt.Fprintf(out, "%-30s %-24s %-12s %-8s %s\n", "-----", "----", "----", "------", "----------")
	for _, a := range admins {
		active := "yes"
		if !a.IsActive {
			active = "no"
		}
		lastLogin := "never"
		if a.LastLogin != nil {
			lastLogin = a.LastLogin.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(out, "%-30s %-24s %-12s %-8s %s\n", a.Email, a.FullName, a.Role, active, lastLogin)
	}

	return nil
}

// ---------- admin deactivate ----------

func newAdminDeactivateCmd() *cobra.Command {
	var activate bool

	cmd := &cobra.Command{
		Use:   "deactivate <email>",
		Short: "Stop an admin credential from signing in",
		Long: `Deactivate an admin credential. Existing sessions stay valid until they
expire; new logins are refused. Use --activate to re-enable the credential.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.TrimSpace(args[0])

			store, err := openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			if err := store.SetAdminActive(context.Background(), email, activate); err != nil {
				if errors.Is(err, config.ErrNotFound) {
					return fmt.Errorf("admin %q not found", email)
				}
				return err
			}

			state := "Deactivated"
			if activate {
				state = "Activated"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s admin %q\n", state, email)
			return nil
		},
	}

	cmd.Flags().BoolVar(&activate, "activate", false, "Re-enable the credential instead")

	return cmd
}
