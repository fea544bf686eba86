package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Ventas-api/pkg/jwt"
)

var (
	tokenID  jwt.Identity
	tokenTTL time.Duration
)

// El login vive en otro servicio; esto emite tokens para integraciones y pruebas manuales.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Emite un JWT firmado con JWT_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenID.UserID == "" || tokenID.CompanyID == "" {
			return errors.New("--user y --company son requeridos")
		}
		tok, err := jwt.Generate(cfg.JWT.Secret, tokenID, cfg.JWT.Issuer, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenID.UserID, "user", "", "ID del usuario")
	f.StringVar(&tokenID.CompanyID, "company", "", "ID de la empresa")
	f.StringVar(&tokenID.Role, "role", jwt.RoleVendedor, "rol: admin | vendedor")
	f.DurationVar(&tokenTTL, "ttl", time.Hour, "vigencia del token")
}
