// Command useradm creates user accounts in the postbox database.
//
//	useradm -username alice            # prompts for the password
//	echo secret123 | useradm -username alice
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mkrupp/postbox/internal/domain"
	"github.com/mkrupp/postbox/internal/infra/config"
	"github.com/mkrupp/postbox/internal/infra/logging"
	"github.com/mkrupp/postbox/internal/repo/session"
	"github.com/mkrupp/postbox/internal/repo/sqlitedb"
	"github.com/mkrupp/postbox/internal/repo/user"
	"github.com/mkrupp/postbox/internal/svc/authsvc"
	"github.com/mkrupp/postbox/internal/validate"
)

const (
	appName = "postbox"
	svcName = "useradm"
)

var errNoUsername = errors.New("username is required")

type Config struct {
	config.EnvConfig

	Log  logging.LoggerConfig `envPrefix:"LOG_"`
	Auth authsvc.AuthConfig   `envPrefix:"AUTH_"`
	DB   sqlitedb.Config      `envPrefix:"DB_"`
}

// readPassword is replaced in tests.
//
//nolint:gochecknoglobals
var readPassword = term.ReadPassword

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	username := flag.String("username", "", "name of the user to create")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		fail(err)
	}

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		fail(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	password, err := promptPassword(os.Stdin, os.Stderr)
	if err != nil {
		fail(err)
	}

	created, err := run(ctx, cfg, validate.RegisterInput{Username: *username, Password: password})
	if err != nil {
		fail(err)
	}

	fmt.Printf("created user %s (%s)\n", created.Username, created.ID)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "useradm:", err)
	os.Exit(1)
}

// promptPassword reads the password without echo from a terminal, or the
// first line of in otherwise.
func promptPassword(in *os.File, out io.Writer) (string, error) {
	fd := int(in.Fd()) //nolint:gosec

	if term.IsTerminal(fd) {
		fmt.Fprint(out, "Password: ")
		pw, err := readPassword(fd)
		fmt.Fprintln(out)

		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}

		return string(pw), nil
	}

	return readLine(in)
}

func readLine(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read password: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func run(ctx context.Context, cfg Config, input validate.RegisterInput) (*domain.User, error) {
	if strings.TrimSpace(input.Username) == "" {
		return nil, errNoUsername
	}

	db, err := sqlitedb.Open(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	defer db.Close() //nolint:errcheck

	authSvc, err := authsvc.NewAuthService(
		user.SQLiteUserRepositoryFactory(ctx, db),
		session.MemorySessionRepositoryFactory(),
		authsvc.NewMemoryRateLimiter(cfg.Auth.RateLimit, nil),
		cfg.Auth,
	)
	if err != nil {
		return nil, fmt.Errorf("new auth service: %w", err)
	}
	defer authSvc.Close() //nolint:errcheck

	created, err := authSvc.Register(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	return created, nil
}
