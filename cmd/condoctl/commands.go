package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Dan9191/condo-service/internal/config"
	"github.com/Dan9191/condo-service/internal/middleware"
	"github.com/Dan9191/condo-service/internal/models"
	"github.com/Dan9191/condo-service/internal/seed"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending Postgres migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := open(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.Config.StorageDriver != config.DriverPostgres {
			a.Log.Infof("Storage driver %s has no schema to migrate", a.Config.StorageDriver)
		}
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:     "seed",
	Short:   "Create condominiums, units and suppliers from a YAML file",
	Example: "  condoctl seed --file seed.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open seed file: %w", err)
		}
		defer f.Close()
		data, err := seed.Load(f)
		if err != nil {
			return err
		}

		a, err := open(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()
		res, err := seed.Apply(cmd.Context(), a.Service, data)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "condominiums=%d skipped=%d units=%d suppliers=%d\n",
			res.Condominiums, res.Skipped, res.Units, res.Suppliers)
		return nil
	},
}

var feesCmd = &cobra.Command{
	Use:   "fees",
	Short: "Monthly maintenance fees",
}

var feesGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Charge next month's fee to every unit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := open(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()
		ids, err := condoIDs(ctx, cmd, a)
		if err != nil {
			return err
		}
		var errs []error
		for _, id := range ids {
			run, err := a.Service.GenerateMonthlyFees(ctx, id)
			if err != nil {
				errs = append(errs, fmt.Errorf("condominium %s: %w", id, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s created=%d already=%d not_configured=%d failed=%v\n",
				id, run.Period, run.Created, run.AlreadyRegistered, run.NotConfigured, run.Failed)
		}
		return errors.Join(errs...)
	},
}

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Supplier invoice housekeeping",
}

var invoicesOverdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "Mark pending invoices past their due date as Vencida",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		asOf := time.Now()
		if v, _ := cmd.Flags().GetString("as-of"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				return fmt.Errorf("invalid --as-of: %w", err)
			}
			asOf = t
		}
		a, err := open(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()
		ids, err := condoIDs(ctx, cmd, a)
		if err != nil {
			return err
		}
		var errs []error
		for _, id := range ids {
			n, err := a.Service.MarkOverdue(ctx, id, asOf)
			if err != nil {
				errs = append(errs, fmt.Errorf("condominium %s: %w", id, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s overdue=%d\n", id, n)
		}
		return errors.Join(errs...)
	},
}

var invoicesReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Check paid invoices against their Cuentas por Pagar expenses",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := open(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()
		ids, err := condoIDs(ctx, cmd, a)
		if err != nil {
			return err
		}
		dirty := 0
		for _, id := range ids {
			rec, err := a.Service.ReconcileInvoices(ctx, id)
			if err != nil {
				return fmt.Errorf("condominium %s: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s orphans=%d dangling=%d duplicates=%d\n",
				id, len(rec.Orphans), len(rec.Dangling), len(rec.Duplicates))
			if !rec.Clean() {
				dirty++
			}
		}
		if dirty > 0 {
			return fmt.Errorf("%d condominiums have inconsistencies", dirty)
		}
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate reports",
}

var reportDebtorsCmd = &cobra.Command{
	Use:   "debtors",
	Short: "Write the debtor list of a condominium as CSV",
	Example: `  condoctl report debtors --condo <id> --out deudores.csv
  condoctl report debtors --condo <id> --upload`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		condoID, _ := cmd.Flags().GetString("condo")
		out, _ := cmd.Flags().GetString("out")
		upload, _ := cmd.Flags().GetBool("upload")

		a, err := open(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if upload {
			loc, err := a.Service.UploadDebtorReport(ctx, condoID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), loc)
			return nil
		}
		w := cmd.OutOrStdout()
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()
			w = f
		}
		return a.Service.WriteDebtorReport(ctx, condoID, w)
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token signed with JWT_SECRET",
	Example: `  condoctl token --user admin-1 --email admin@torreazul.do --role admin --tenant <condo id>
  condoctl token --user root --role super_admin --ttl 1h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.AuthProvider != config.AuthJWT {
			return fmt.Errorf("tokens are issued by the identity provider when AUTH_PROVIDER=%s", cfg.AuthProvider)
		}
		user, _ := cmd.Flags().GetString("user")
		mail, _ := cmd.Flags().GetString("email")
		role, _ := cmd.Flags().GetString("role")
		tenants, _ := cmd.Flags().GetStringSlice("tenant")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		switch models.Role(role) {
		case models.RoleSuperAdmin, models.RoleAdmin, models.RoleOwner:
		default:
			return fmt.Errorf("unknown role %q", role)
		}
		token, err := middleware.NewJWTVerifier(cfg.JWTSecret).Issue(models.Principal{
			UserID: user, Email: mail, Role: models.Role(role), Tenants: tenants,
		}, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd, feesCmd, invoicesCmd, reportCmd, tokenCmd)
	feesCmd.AddCommand(feesGenerateCmd)
	invoicesCmd.AddCommand(invoicesOverdueCmd, invoicesReconcileCmd)
	reportCmd.AddCommand(reportDebtorsCmd)

	seedCmd.Flags().String("file", "seed.yaml", "Seed file")

	for _, c := range []*cobra.Command{feesGenerateCmd, invoicesOverdueCmd, invoicesReconcileCmd} {
		c.Flags().String("condo", "", "Condominium id (default: all)")
	}
	invoicesOverdueCmd.Flags().String("as-of", "", "Reference date YYYY-MM-DD (default: today)")

	reportDebtorsCmd.Flags().String("condo", "", "Condominium id")
	reportDebtorsCmd.Flags().String("out", "", "Output file (default: stdout)")
	reportDebtorsCmd.Flags().Bool("upload", false, "Upload to REPORTS_BUCKET instead of writing locally")
	reportDebtorsCmd.MarkFlagRequired("condo")

	tokenCmd.Flags().String("user", "", "Subject (user id)")
	tokenCmd.Flags().String("email", "", "E-mail claim")
	tokenCmd.Flags().String("role", string(models.RoleAdmin), "super_admin, admin or propietario")
	tokenCmd.Flags().StringSlice("tenant", nil, "Condominium ids the token may access")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	tokenCmd.MarkFlagRequired("user")
}
