package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/inkwell-blog/inkwell/internal/auth"
	"github.com/inkwell-blog/inkwell/internal/shared"
	"github.com/inkwell-blog/inkwell/internal/users"
)

// PasswordEnv supplies the password when --password is omitted.
const PasswordEnv = "INKWELL_ADMIN_PASSWORD"

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, in users.NewUser) (users.User, auth.Token, error)
}

// SuperuserCLI creates administrator accounts.
type SuperuserCLI struct {
	registrar Registrar
	getenv    func(string) string
}

// NewSuperuserCLI constructs the helper.
func NewSuperuserCLI(registrar Registrar) *SuperuserCLI {
	return &SuperuserCLI{registrar: registrar, getenv: os.Getenv}
}

type superuserResult struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// CreateCommand runs `createsuperuser`.
func (c *SuperuserCLI) CreateCommand(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("createsuperuser", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	email := flags.String("email", "", "account e-mail address (required)")
	username := flags.String("username", "", "display name (required)")
	password := flags.String("password", "", "password; falls back to $"+PasswordEnv)
	jsonOutput := flags.Bool("json", false, "print the created account as JSON")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", flags.Name(), err)
		return 2
	}
	if *password == "" && c.getenv != nil {
		*password = c.getenv(PasswordEnv)
	}
	if *email == "" || *username == "" || *password == "" {
		_, _ = fmt.Fprintln(stderr, "createsuperuser: --email, --username and a password are required")
		return 2
	}
	if len(*password) < 8 {
		_, _ = fmt.Fprintln(stderr, "createsuperuser: password must have at least 8 characters")
		return 2
	}
	if len(*password) > users.MaxPasswordBytes {
		_, _ = fmt.Fprintf(stderr, "createsuperuser: password must have at most %d bytes\n", users.MaxPasswordBytes)
		return 2
	}

	user, token, err := c.registrar.Register(ctx, users.NewUser{
		Email:       *email,
		Username:    *username,
		Password:    *password,
		IsStaff:     true,
		IsSuperuser: true,
	})
	if err != nil {
		var verr *shared.ValidationError
		if errors.As(err, &verr) {
			for field, msg := range verr.Fields {
				_, _ = fmt.Fprintf(stderr, "createsuperuser: %s: %s\n", field, msg)
			}
			return 1
		}
		_, _ = fmt.Fprintf(stderr, "createsuperuser: %v\n", err)
		return 1
	}

	if *jsonOutput {
		res := superuserResult{ID: user.ID, Email: user.Email, Username: user.Username, Token: token.Key}
		if err := json.NewEncoder(stdout).Encode(res); err != nil {
			_, _ = fmt.Fprintf(stderr, "createsuperuser: encode json: %v\n", err)
			return 1
		}
		return 0
	}
	_, _ = fmt.Fprintf(stdout, "Superuser created successfully. id=%d token=%s\n", user.ID, token.Key)
	return 0
}
