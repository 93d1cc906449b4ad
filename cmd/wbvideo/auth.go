package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"wbvideo/pkg/auth"
	"wbvideo/pkg/config"
	"wbvideo/pkg/extract"
	"wbvideo/pkg/logger"
	"wbvideo/pkg/ui"
	"wbvideo/pkg/weibo"
)

var (
	loginUserAgent string
	loginVerifyID  string
	logoutAll      bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Weibo session cookies",
	Long: `Manage stored Weibo session cookies.

Cookies are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - The WBVIDEO_COOKIE environment variable (read only)

The cookie grants full access to the account. Never share it.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store a session cookie",
	Long: `Store the cookie of a logged-in browser session.

You will be asked to paste the full Cookie request header from your browser.
Input is hidden. The account is called "default" unless a name is given.`,
	Example: `  # Interactive login
  wbvideo auth login

  # Store a second account and check it against a profile feed
  wbvideo auth login work --verify 1234567890`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove a stored session cookie",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)

	loginCmd.Flags().StringVar(&loginUserAgent, "user-agent", "", "user agent of the browser the cookie came from")
	loginCmd.Flags().StringVar(&loginVerifyID, "verify", "", "request the first feed page of this user id to check the cookie")
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove every stored account")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := auth.DefaultAccountName
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	reader := bufio.NewReader(os.Stdin)
	out := cmd.OutOrStdout()

	auth.ShowCookieExtractionGuide(out)
	fmt.Fprintln(out)

	if _, err := manager.Retrieve(name); err == nil {
		if !confirm(reader, out, fmt.Sprintf("Account '%s' already exists. Replace it? (y/N): ", name)) {
			return nil
		}
	}

	var cookie string
	for {
		fmt.Fprint(out, "Cookie header (hidden): ")
		cookie, err = readSecret(reader, out)
		if err != nil {
			return fmt.Errorf("failed to read cookie: %w", err)
		}
		cookie = auth.NormalizeCookie(cookie)
		if strings.EqualFold(cookie, "help") {
			auth.ShowCookieExtractionGuide(out)
			continue
		}
		verr := auth.ValidateCookie(cookie)
		if verr == nil {
			break
		}
		ui.PrintWarning("That does not look like a Weibo cookie", verr)
		auth.ShowQuickExtractGuide(out)
		if !confirm(reader, out, "Try again? (Y/n): ") {
			return verr
		}
	}

	account := &auth.Account{
		Name:      name,
		Cookie:    cookie,
		UserAgent: strings.TrimSpace(loginUserAgent),
	}

	if loginVerifyID != "" {
		if err := verifyCookie(cmd.Context(), account, loginVerifyID); err != nil {
			return err
		}
	}

	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess("Account saved: " + name)
	fmt.Fprintln(out, "\nDownload a user's videos with:")
	if name == auth.DefaultAccountName {
		fmt.Fprintln(out, "  wbvideo --user_id <id>")
	} else {
		fmt.Fprintf(out, "  wbvideo --user_id <id> --account %s\n", name)
	}
	return nil
}

// verifyCookie requests the first feed page of userID with account's cookie
func verifyCookie(ctx context.Context, account *auth.Account, userID string) error {
	userID = weibo.SanitizeUserID(userID)
	if !weibo.IsValidUserID(userID) {
		return fmt.Errorf("invalid user id %q", userID)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if account.UserAgent != "" {
		cfg.Weibo.UserAgent = account.UserAgent
	}
	client := weibo.NewClientFromConfig(cfg, account.Cookie, logger.GetLogger())

	sp := ui.NewSpinner("Checking cookie against the feed of " + userID)
	sp.Start()
	page, err := client.FetchPage(ctx, userID, weibo.InitialCursor)
	sp.Stop()
	if err != nil {
		return fmt.Errorf("cookie check failed: %w", err)
	}

	ui.PrintInfo("Cookie check", fmt.Sprintf("%d feed items, %d videos on the first page",
		page.List.Len(), len(extract.PlaybackURLs(page.Payload))))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var names []string
	switch {
	case len(args) == 1:
		names = []string{args[0]}
	case logoutAll:
		accounts, err := manager.List()
		if err != nil {
			return fmt.Errorf("failed to list accounts: %w", err)
		}
		for _, a := range accounts {
			names = append(names, a.Name)
		}
	default:
		names = []string{auth.DefaultAccountName}
	}

	if len(names) == 0 {
		ui.PrintInfo("No stored accounts", "nothing to remove")
		return nil
	}

	var errs []error
	for _, name := range names {
		if err := manager.Delete(name); err != nil {
			errs = append(errs, err)
			continue
		}
		ui.PrintSuccess("Account removed: " + name)
	}
	return errors.Join(errs...)
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'wbvideo auth login' to add one")
		return nil
	}

	ui.PrintHighlight("Stored Accounts")
	fmt.Fprintln(out)
	printAccounts(out, accounts)

	if os.Getenv(auth.CookieEnv) != "" {
		fmt.Fprintf(out, "%s is set and takes precedence over stored accounts.\n", auth.CookieEnv)
	}
	return nil
}

func printAccounts(w io.Writer, accounts []*auth.Account) {
	for i, account := range accounts {
		s := auth.SanitizeAccount(account)
		fmt.Fprintf(w, "%d. %s\n", i+1, s.Name)
		fmt.Fprintf(w, "   Cookie: %s\n", s.Cookie)
		if s.UserAgent != "" {
			fmt.Fprintf(w, "   User Agent: %s\n", s.UserAgent)
		}
		fmt.Fprintf(w, "   Last Modified: %s\n\n", s.LastModified.Format(time.DateTime))
	}
}

func confirm(reader *bufio.Reader, w io.Writer, prompt string) bool {
	fmt.Fprint(w, prompt)
	input, _ := reader.ReadString('\n')
	input = strings.ToLower(strings.TrimSpace(input))
	if strings.Contains(prompt, "(Y/n)") {
		return input != "n" && input != "no"
	}
	return strings.HasPrefix(input, "y")
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(reader *bufio.Reader, w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(w)
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
