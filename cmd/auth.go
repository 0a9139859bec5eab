package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/otherjamesbrown/sprintctl/credentials"
)

// AuthCommandDeps holds the dependencies for auth commands.
type AuthCommandDeps struct {
	NewStore     func() (*credentials.Store, error)
	Stdin        io.Reader
	StdinFd      int
	IsTerminal   func(fd int) bool
	ReadPassword func(fd int) ([]byte, error)
}

// DefaultAuthDeps returns the default dependencies for production use.
func DefaultAuthDeps() *AuthCommandDeps {
	return &AuthCommandDeps{
		NewStore:     credentials.NewStore,
		Stdin:        os.Stdin,
		StdinFd:      int(os.Stdin.Fd()),
		IsTerminal:   term.IsTerminal,
		ReadPassword: term.ReadPassword,
	}
}

// NewAuthCommand creates the auth command with its subcommands.
func NewAuthCommand(deps *AuthCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultAuthDeps()
	}

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Google Sheets credentials",
		Long: `Manage the credentials used to read the action log from Google Sheets.

Credentials are stored encrypted (AES-256-GCM) in ~/.sprintctl/credentials.yaml.
The encryption key comes from SPRINTCTL_ENCRYPTION_KEY, the system keyring,
or SPRINTCTL_PASSPHRASE, in that order.

Values in config.yaml or the environment (SPRINTCTL_SHEETS_API_KEY,
VITE_GOOGLE_API_KEY, SPRINTCTL_SHEETS_CREDENTIALS_FILE) take precedence
over stored credentials.`,
	}

	cmd.AddCommand(newAuthSetKeyCommand(deps))
	cmd.AddCommand(newAuthStatusCommand(deps))
	cmd.AddCommand(newAuthClearCommand(deps))

	return cmd
}

func newAuthSetKeyCommand(deps *AuthCommandDeps) *cobra.Command {
	var apiKey, serviceAccount string

	cmd := &cobra.Command{
		Use:   "set-key",
		Short: "Store a Sheets API key or service account",
		Long: `Store a Google Sheets API key or service account key.

Without flags the API key is read from stdin; on a terminal it is not echoed.

Examples:
  # Prompt for the API key
  sprintctl auth set-key

  # Pass the key directly
  sprintctl auth set-key --api-key AIza...

  # Store a service account key file
  sprintctl auth set-key --service-account ./sa.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthSetKey(deps, apiKey, serviceAccount, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "Google API key")
	cmd.Flags().StringVar(&serviceAccount, "service-account", "", "Path to a service account JSON key")
	return cmd
}

func newAuthStatusCommand(deps *AuthCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show stored credential status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthStatus(deps, cmd.OutOrStdout())
		},
	}
}

func newAuthClearCommand(deps *AuthCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthClear(deps, cmd.OutOrStdout())
		},
	}
}

func runAuthSetKey(deps *AuthCommandDeps, apiKey, serviceAccount string, out io.Writer) error {
	if apiKey != "" && serviceAccount != "" {
		return errors.New("pass --api-key or --service-account, not both")
	}

	creds := &credentials.Credentials{AuthType: credentials.AuthTypeAPIKey, APIKey: apiKey}
	switch {
	case serviceAccount != "":
		data, err := os.ReadFile(serviceAccount)
		if err != nil {
			return fmt.Errorf("reading service account key: %w", err)
		}
		creds = &credentials.Credentials{
			AuthType:           credentials.AuthTypeServiceAccount,
			ServiceAccountJSON: string(data),
		}
	case apiKey == "":
		key, err := promptAPIKey(deps, out)
		if err != nil {
			return err
		}
		creds.APIKey = key
	}

	store, err := deps.NewStore()
	if err != nil {
		return fmt.Errorf("opening credential store: %w", err)
	}
	if err := store.Save(creds); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}

	fmt.Fprintf(out, "✓ Credentials saved to %s\n", store.Path())
	fmt.Fprintf(out, "  Encryption key: %s\n", store.KeyDescription())
	return nil
}

// promptAPIKey reads the key without echo on a terminal, or one line of
// piped input otherwise.
func promptAPIKey(deps *AuthCommandDeps, out io.Writer) (string, error) {
	var key string
	if deps.IsTerminal != nil && deps.IsTerminal(deps.StdinFd) {
		fmt.Fprint(out, "Google Sheets API key: ")
		b, err := deps.ReadPassword(deps.StdinFd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("reading API key: %w", err)
		}
		key = string(b)
	} else {
		line, err := bufio.NewReader(deps.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading API key: %w", err)
		}
		key = line
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("no API key provided")
	}
	return key, nil
}

func runAuthStatus(deps *AuthCommandDeps, out io.Writer) error {
	store, err := deps.NewStore()
	if err != nil {
		return fmt.Errorf("opening credential store: %w", err)
	}

	creds, err := store.Load()
	if errors.Is(err, credentials.ErrNoCredentials) {
		fmt.Fprintln(out, "Status: not configured")
		fmt.Fprintln(out, "\nRun 'sprintctl auth set-key' to store a Sheets API key.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	fmt.Fprintln(out, "Status: configured")
	fmt.Fprintf(out, "  Type: %s\n", creds.AuthType)
	switch creds.AuthType {
	case credentials.AuthTypeServiceAccount:
		fmt.Fprintf(out, "  Service account: %s\n", creds.ClientEmail)
	default:
		fmt.Fprintf(out, "  API key: %s\n", credentials.MaskCredential(creds.APIKey))
	}
	if !creds.LastUpdated.IsZero() {
		fmt.Fprintf(out, "  Updated: %s\n", creds.LastUpdated.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(out, "  Encryption key: %s\n", store.KeyDescription())
	fmt.Fprintf(out, "\nCredentials stored in: %s\n", store.Path())
	return nil
}

func runAuthClear(deps *AuthCommandDeps, out io.Writer) error {
	store, err := deps.NewStore()
	if err != nil {
		return fmt.Errorf("opening credential store: %w", err)
	}
	if !store.Exists() {
		fmt.Fprintln(out, "No stored credentials.")
		return nil
	}
	if err := store.Delete(); err != nil {
		return err
	}
	fmt.Fprintln(out, "✓ Stored credentials removed")
	return nil
}
