// ncfctl administra la base del servicio desde la terminal: migraciones,
// rangos NCF y tokens de servicio.
//
// Uso: go run ./cmd/ncfctl --help
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jhoicas/Ventas-api/pkg/config"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

var (
	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:           "ncfctl",
	Short:         "Administración de secuencias NCF y base de datos de Ventas API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("cargar configuración: %w", err)
		}
		log = logger.New(logger.Config{Env: "development", Level: cfg.Log.Level, Service: "ncfctl", Output: cmd.ErrOrStderr()})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, sequenceCmd, tokenCmd)
}

func main() {
	// .env es opcional; viper lee luego el entorno ya cargado
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
