package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"financas/internal/auth"
	"financas/internal/cli"
	"financas/internal/config"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/services"
	"financas/internal/storage"
)

// environment is what every command needs once configuration is loaded.
type environment struct {
	cfg    *config.Config
	logger *log.Logger
	loc    *time.Location
}

func loadEnvironment() environment {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).ValidateCLI)
	logger := cli.SetupLogger(cfg, log.ComponentCLI)
	return environment{cfg: cfg, logger: logger, loc: cli.ApplyTimezone(logger, cfg)}
}

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending database migrations" }
func (*migrateCmd) Usage() string {
	return `migrate

  Applies every embedded migration not yet applied to SQLITE_DB_PATH and
  prints the resulting schema version.
`
}
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env := loadEnvironment()
	version, err := storage.RunMigrations(env.cfg.SQLiteDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error migrating %s: %v\n", env.cfg.SQLiteDBPath, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("schema version %d\n", version)
	return subcommands.ExitSuccess
}

type userAddCmd struct {
	email    string
	name     string
	password string
}

func (*userAddCmd) Name() string     { return "useradd" }
func (*userAddCmd) Synopsis() string { return "create a user account" }
func (*userAddCmd) Usage() string {
	return `useradd -email <email> -name <name> [-password <password>]

  Creates a user. When -password is omitted it is read from the
  FINANCAS_PASSWORD environment variable.
`
}

func (c *userAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "email address (required)")
	f.StringVar(&c.name, "name", "", "display name (required)")
	f.StringVar(&c.password, "password", "", "password, at least 8 characters")
}

func (c *userAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.password == "" {
		c.password = os.Getenv("FINANCAS_PASSWORD")
	}
	if c.email == "" || c.name == "" || c.password == "" {
		fmt.Fprintln(os.Stderr, "Error: -email, -name and a password are required.")
		return subcommands.ExitUsageError
	}

	env := loadEnvironment()
	repo := cli.InitSQLite(env.logger, env.cfg.SQLiteDBPath)
	defer repo.Close()

	user, err := auth.NewPasswordAuthenticator(repo).Register(ctx, c.name, c.email, c.password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating user: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("created user %s <%s>\n", user.ID, user.Email)
	return subcommands.ExitSuccess
}

type dashboardCmd struct {
	email string
	year  int
	month int
}

func (*dashboardCmd) Name() string     { return "dashboard" }
func (*dashboardCmd) Synopsis() string { return "print a user's monthly dashboard" }
func (*dashboardCmd) Usage() string {
	return `dashboard -email <email> [-ano <year> -mes <month>]

  Prints the dashboard of the given month, the current one by default.
`
}

func (c *dashboardCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "email of the user (required)")
	f.IntVar(&c.year, "ano", 0, "year, defaults to the current one")
	f.IntVar(&c.month, "mes", 0, "month 1-12, defaults to the current one")
}

func (c *dashboardCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.email == "" {
		fmt.Fprintln(os.Stderr, "Error: -email is required.")
		return subcommands.ExitUsageError
	}

	env := loadEnvironment()
	repo := cli.InitSQLite(env.logger, env.cfg.SQLiteDBPath)
	defer repo.Close()

	email, err := core.NormalizeEmail(c.email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	user, err := repo.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "Error: no user with email %s\n", email)
		return subcommands.ExitFailure
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading user: %v\n", err)
		return subcommands.ExitFailure
	}

	now := time.Now().In(env.loc)
	year, month := now.Year(), now.Month()
	if c.year != 0 {
		year = c.year
	}
	if c.month != 0 {
		month = time.Month(c.month)
	}

	d, err := services.NewDashboardService(repo, env.loc, 0).Month(ctx, user.ID, year, month)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building dashboard: %v\n", err)
		return subcommands.ExitFailure
	}
	renderDashboard(os.Stdout, d, env.loc)
	return subcommands.ExitSuccess
}

// renderDashboard prints d as aligned label/value lines.
func renderDashboard(w io.Writer, d core.Dashboard, loc *time.Location) {
	const day = "02/01/2006"
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	last := d.Period.End.In(loc).AddDate(0, 0, -1)
	fmt.Fprintf(tw, "Período\t%s a %s\n", d.Period.Start.In(loc).Format(day), last.Format(day))
	fmt.Fprintf(tw, "Renda\t%s\t(%d)\n", d.IncomeTotal, d.IncomeCount)
	fmt.Fprintf(tw, "Contas mensais\t%s\t(%d)\n", d.MonthlyBillsTotal, d.MonthlyBillCount)
	fmt.Fprintf(tw, "Parcelas\t%s\t(%d)\n", d.InstallmentsTotal, d.InstallmentCount)
	fmt.Fprintf(tw, "Gastos variáveis\t%s\t(%d)\n", d.VariableExpensesTotal, d.VariableExpenseCount)
	fmt.Fprintf(tw, "Total de gastos\t%s\n", d.ExpensesTotal)
	fmt.Fprintf(tw, "Saldo\t%s\n", d.Balance)
	fmt.Fprintf(tw, "Média gastos variáveis\t%s\n", d.VariableExpensesMean)
	if d.LargestExpense != nil {
		fmt.Fprintf(tw, "Maior gasto variável\t%s\t%s\n", d.LargestExpense.Amount, d.LargestExpense.Description)
	}
	if d.NextInstallment != nil {
		fmt.Fprintf(tw, "Próxima parcela\t%s\t%s em %s\n",
			d.NextInstallment.Amount, d.NextInstallment.Description, d.NextInstallment.DueDate.In(loc).Format(day))
	}
	if len(d.Chart) > 0 {
		fmt.Fprintln(tw, "\t")
		for _, e := range d.Chart {
			fmt.Fprintf(tw, "  %s\t%s\n", e.Name, e.Value)
		}
	}
	tw.Flush()
}
