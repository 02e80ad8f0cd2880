package main

import (
	"fmt"

	"taquilla/internal/repository"
	"taquilla/internal/service"

	"github.com/spf13/cobra"
)

var (
	adminNombre   string
	adminUsuario  string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create the first jefe account",
	Long:  `Creates a jefe only when none exists. Without --password the DEFAULT_PASSWORD is used and must be changed on first login.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, db, err := openDB()
		if err != nil {
			return err
		}
		// No audit service: bootstrapping happens before any actor exists.
		svc := service.NewUsuarioService(repository.NewUsuarioRepository(db), nil, cfg)
		u, err := svc.CrearJefeInicial(cmd.Context(), adminNombre, adminUsuario, adminPassword)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "jefe %q created (id %s)\n", u.Usuario, u.ID)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminNombre, "nombre", "Administrador", "display name")
	createAdminCmd.Flags().StringVar(&adminUsuario, "usuario", "admin", "login id")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "initial password (defaults to DEFAULT_PASSWORD)")
}
