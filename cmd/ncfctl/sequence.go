package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/fiscal"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/postgres"
)

var companyID string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Aplica las migraciones SQL pendientes",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := openPool(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()
		applied, err := postgres.Migrate(cmd.Context(), pool)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "sin migraciones pendientes")
			return nil
		}
		for _, name := range applied {
			fmt.Fprintln(cmd.OutOrStdout(), "aplicada", name)
		}
		return nil
	},
}

var sequenceCmd = &cobra.Command{
	Use:     "sequence",
	Aliases: []string{"seq"},
	Short:   "Rangos NCF autorizados de una empresa",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		if companyID == "" {
			return errors.New("--company es requerido")
		}
		return nil
	},
}

var createIn dto.CreateNCFSequenceRequest

var sequenceCreateCmd = &cobra.Command{
	Use:     "create",
	Short:   "Registra un rango autorizado",
	Example: `  ncfctl sequence create --company <id> --type B01 --prefix B01 --start 1 --end 500 --width 8 --expires 2026-12-31 --activate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSequences(cmd, func(ctx context.Context, uc *fiscal.SequenceUseCase, _ *fiscal.Allocator) (any, error) {
			return uc.Create(ctx, companyID, createIn)
		})
	},
}

var sequenceListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lista las secuencias con su consumo",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSequences(cmd, func(ctx context.Context, uc *fiscal.SequenceUseCase, _ *fiscal.Allocator) (any, error) {
			return uc.List(ctx, companyID)
		})
	},
}

var sequenceActivateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Activa la secuencia y desactiva la anterior del mismo tipo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSequences(cmd, func(ctx context.Context, uc *fiscal.SequenceUseCase, _ *fiscal.Allocator) (any, error) {
			return uc.Activate(ctx, companyID, args[0])
		})
	},
}

var sequenceDeactivateCmd = &cobra.Command{
	Use:   "deactivate <id>",
	Short: "Saca de uso una secuencia",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSequences(cmd, func(ctx context.Context, uc *fiscal.SequenceUseCase, _ *fiscal.Allocator) (any, error) {
			return uc.Deactivate(ctx, companyID, args[0])
		})
	},
}

var nextType string

// next consume un número fuera de una factura (comprobantes manuales, anulaciones en papel).
var sequenceNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Asigna el siguiente NCF de la secuencia activa",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSequences(cmd, func(ctx context.Context, _ *fiscal.SequenceUseCase, alloc *fiscal.Allocator) (any, error) {
			a, err := alloc.Allocate(ctx, companyID, nextType)
			if err != nil {
				return nil, err
			}
			return dto.NCFAllocationResponse{SequenceID: a.SequenceID, TypeCode: a.TypeCode, NCF: a.NCF}, nil
		})
	},
}

func init() {
	sequenceCmd.PersistentFlags().StringVar(&companyID, "company", "", "ID de la empresa (tenant)")

	f := sequenceCreateCmd.Flags()
	f.StringVar(&createIn.TypeCode, "type", "", "tipo de comprobante (B01, B02, ...)")
	f.StringVar(&createIn.Prefix, "prefix", "", "prefijo del NCF")
	f.Int64Var(&createIn.StartNumber, "start", 1, "primer número del rango")
	f.Int64Var(&createIn.EndNumber, "end", 0, "último número del rango")
	f.IntVar(&createIn.NumberWidth, "width", 8, "ancho con ceros a la izquierda")
	f.StringVar(&createIn.ExpirationDate, "expires", "", "vencimiento YYYY-MM-DD")
	f.BoolVar(&createIn.Activate, "activate", false, "activar al crear")
	_ = sequenceCreateCmd.MarkFlagRequired("type")
	_ = sequenceCreateCmd.MarkFlagRequired("end")

	sequenceNextCmd.Flags().StringVar(&nextType, "type", "", "tipo de comprobante")
	_ = sequenceNextCmd.MarkFlagRequired("type")

	sequenceCmd.AddCommand(sequenceCreateCmd, sequenceListCmd, sequenceActivateCmd, sequenceDeactivateCmd, sequenceNextCmd)
}

func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	if !cfg.DB.Enabled() {
		return nil, errors.New("DATABASE_URL o DB_HOST requerido")
	}
	return postgres.NewPool(ctx, cfg.DB)
}

// withSequences abre la base, arma los casos de uso y escribe el resultado como JSON.
func withSequences(cmd *cobra.Command, fn func(ctx context.Context, uc *fiscal.SequenceUseCase, alloc *fiscal.Allocator) (any, error)) error {
	ctx := cmd.Context()
	pool, err := openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	uow := postgres.NewTxRunner(pool, log)
	reader := postgres.NewRepos(pool)
	out, err := fn(ctx, fiscal.NewSequenceUseCase(uow, reader), fiscal.NewAllocator(uow, nil, log))
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
