// Command admin creates an approved admin account so the first administrator
// can log in to the portal.
//
// Usage:
//
//	admin -name "Jane Doe" -email jane@college.edu [-d DSN]
//
// Missing name or email is prompted for. The password is always read from the
// terminal. Server config sources (env, .env, -c file, -d flag) apply.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/eventportal/internal/common"
	"github.com/dmitrijs2005/eventportal/internal/flagx"
	"github.com/dmitrijs2005/eventportal/internal/server/config"
	"github.com/dmitrijs2005/eventportal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/eventportal/internal/server/services"
)

type adminArgs struct {
	name  string
	email string
}

func parseAdminArgs(args []string) (adminArgs, error) {
	var a adminArgs

	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&a.name, "name", "", "admin display name")
	fs.StringVar(&a.email, "email", "", "admin email (login)")

	err := fs.Parse(flagx.FilterArgs(args, []string{"-name", "-email"}))
	return a, err
}

func run(ctx context.Context, in io.Reader, out io.Writer) error {
	a, err := parseAdminArgs(os.Args[1:])
	if err != nil {
		return err
	}

	reader := bufio.NewReader(in)
	if a.name == "" {
		if a.name, err = promptLine(reader, "Enter admin name", out); err != nil {
			return err
		}
	}
	if a.email == "" {
		if a.email, err = promptLine(reader, "Enter admin email", out); err != nil {
			return err
		}
	}

	pw, err := promptPassword(out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	cfg := config.LoadConfig()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	u, err := services.NewAdminService(db, m).CreateAdmin(ctx, a.name, a.email, string(pw))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Admin %s created (id %s)\n", u.Email, u.ID)
	return nil
}

func main() {
	if err := run(context.Background(), os.Stdin, os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}
