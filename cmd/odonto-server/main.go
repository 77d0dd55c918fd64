package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/odonto/odonto/internal/config"
	"github.com/odonto/odonto/internal/domain/empresa"
	"github.com/odonto/odonto/internal/domain/usuario"
	"github.com/odonto/odonto/internal/platform/auth"
	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "odonto-server",
		Short: "Multi-tenant dental clinic API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tenantCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, _ := cmd.Flags().GetInt("target")
			return withMigrator(cmd.Context(), func(ctx context.Context, m *db.Migrator) error {
				var count int
				var err error
				if target > 0 {
					count, err = m.UpTo(ctx, target)
				} else {
					count, err = m.Up(ctx)
				}
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Printf("Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().Int("target", 0, "Stop after this migration version (0 applies all)")
	cmd.AddCommand(upCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
				fmt.Println("---------- ---------------------------------------- ---------- --------------------")
				for _, s := range statuses {
					status := "pending"
					appliedAt := ""
					if s.Applied {
						status = "applied"
						if s.AppliedAt != nil {
							appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
						}
					}
					fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
				}
				return nil
			})
		},
	})

	return cmd
}

func withMigrator(ctx context.Context, fn func(context.Context, *db.Migrator) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, db.NewMigrator(pool, migrations.FS))
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage empresas",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empresa and its admin usuario",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in auth.RegisterInput
			in.EmpresaNome, _ = cmd.Flags().GetString("empresa")
			in.CNPJ, _ = cmd.Flags().GetString("cnpj")
			in.Nome, _ = cmd.Flags().GetString("nome")
			in.Email, _ = cmd.Flags().GetString("email")
			in.Password, _ = cmd.Flags().GetString("password")
			if in.EmpresaNome == "" || in.Email == "" || in.Password == "" {
				return fmt.Errorf("--empresa, --email and --password are required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
			usuarios := usuario.NewService(usuario.NewRepo(pool), empresa.NewService(empresa.NewRepo(pool)),
				db.NewTxRunner(pool), auth.NewMemoryCache(cfg.PrincipalCacheTTL), logger)
			p, err := usuarios.Register(ctx, in)
			if err != nil {
				return err
			}
			fmt.Printf("Created empresa %s with admin %s (%s).\n", p.EmpresaID, p.Email, p.ID)
			return nil
		},
	}
	createCmd.Flags().String("empresa", "", "Empresa name")
	createCmd.Flags().String("cnpj", "", "Empresa CNPJ")
	createCmd.Flags().String("nome", "Administrador", "Admin display name")
	createCmd.Flags().String("email", "", "Admin email")
	createCmd.Flags().String("password", "", "Admin password")

	cmd.AddCommand(createCmd)
	return cmd
}
