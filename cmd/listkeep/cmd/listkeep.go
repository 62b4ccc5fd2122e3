package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"listkeep/backend"
	_ "listkeep/backend/bolt"
	_ "listkeep/backend/file"
	_ "listkeep/backend/keyring"
	_ "listkeep/backend/memory"
	_ "listkeep/backend/sqlite"
	"listkeep/internal/cli/prompt"
	"listkeep/internal/config"
	"listkeep/internal/liststore"
	"listkeep/internal/markdown"
	"listkeep/internal/shutdown"
	"listkeep/internal/tui"
	"listkeep/internal/utils"
	"listkeep/internal/watcher"
)

// Build information, set at build time
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Result codes for CLI output (used in no-prompt mode)
const (
	ResultActionCompleted = "ACTION_COMPLETED"
	ResultInfoOnly        = "INFO_ONLY"
	ResultError           = "ERROR"
)

// Config holds command-line configuration. Fields left empty fall back to the
// config file.
type Config struct {
	NoPrompt     bool
	Verbose      bool
	OutputFormat string
	ConfigPath   string    // Path to config file (for testing)
	DBPath       string    // Path to sqlite database (for testing)
	Stdin        io.Reader // Input for confirmation prompts (for testing)

	jsonOutput bool // set per invocation; JSON output must not be interleaved with prompts
}

// Execute runs the CLI with the given arguments and IO writers
func Execute(args []string, stdout, stderr io.Writer, cfg *Config) int {
	if cfg == nil {
		cfg = &Config{}
	}
	rootCmd := NewListKeep(stdout, stderr, cfg)

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		if containsJSONFlag(args) {
			outputErrorJSON(err, stdout)
		} else {
			_, _ = fmt.Fprintln(stderr, "Error:", err)
			if cfg.NoPrompt {
				_, _ = fmt.Fprintln(stdout, ResultError)
			}
		}
		return 1
	}
	return 0
}

// containsJSONFlag checks if args contain --json flag
func containsJSONFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--json" {
			return true
		}
	}
	return false
}

// NewListKeep creates the root command with injectable IO
func NewListKeep(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	if cfg == nil {
		cfg = &Config{}
	}

	cmd := &cobra.Command{
		Use:     "listkeep",
		Short:   "Keep named lists of items",
		Long:    "listkeep stores named lists of items in a local key-value backend and edits them from the terminal.",
		Version: Version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(stdout) {
				return cmd.Help()
			}
			return runTUI(cmd, cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("no-prompt", "y", false, "Disable interactive prompts")
	cmd.PersistentFlags().BoolP("verbose", "V", false, "Enable verbose/debug output")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().String("backend", "", "Storage backend (sqlite, bolt, file, keyring, memory)")
	cmd.PersistentFlags().String("config", "", "Path to config file")

	cmd.AddCommand(newListCmd(stdout, cfg))
	cmd.AddCommand(newItemCmd(stdout, cfg))
	cmd.AddCommand(newTUICmd(cfg))
	cmd.AddCommand(newExportCmd(stdout, cfg))
	cmd.AddCommand(newImportCmd(stdout, cfg))
	cmd.AddCommand(newConfigCmd(stdout, cfg))
	cmd.AddCommand(newVersionCmd(stdout))

	return cmd
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// app bundles the resolved configuration with an open store
type app struct {
	cfg       *config.Config
	kv        backend.KeyValueStore
	store     *liststore.ListStore
	lifecycle *shutdown.Manager
}

// Close releases everything registered with the app's lifecycle
func (a *app) Close() {
	if err := a.lifecycle.Close(shutdown.DefaultTimeout); err != nil {
		utils.Warnf("Shutdown: %v", err)
	}
}

func (a *app) jsonOutput() bool {
	return a.cfg.OutputFormat == "json"
}

// loadConfig reads the config file and applies command-line overrides
func loadConfig(cmd *cobra.Command, cfg *Config) (*config.Config, error) {
	noPrompt, _ := cmd.Flags().GetBool("no-prompt")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	backendName, _ := cmd.Flags().GetString("backend")
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = cfg.ConfigPath
	}

	appCfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.DBPath != "" {
		appCfg.Backends.SQLite.Path = cfg.DBPath
	}

	outputFormat := cfg.OutputFormat
	if jsonOutput {
		outputFormat = "json"
	}
	appCfg.ApplyFlags(noPrompt || cfg.NoPrompt, verbose || cfg.Verbose, outputFormat, backendName)
	if err := appCfg.Validate(); err != nil {
		return nil, err
	}

	cfg.NoPrompt = appCfg.NoPrompt
	cfg.jsonOutput = appCfg.OutputFormat == "json"
	utils.SetVerboseMode(appCfg.Logging.Verbose)
	return appCfg, nil
}

// openApp loads configuration and opens the configured backend
func openApp(cmd *cobra.Command, cfg *Config) (*app, error) {
	appCfg, err := loadConfig(cmd, cfg)
	if err != nil {
		return nil, err
	}

	dups, err := liststore.ParseDuplicatePolicy(appCfg.DuplicateLists)
	if err != nil {
		return nil, err
	}

	kv, err := backend.Open(appCfg.Backend, appCfg.BackendOptions())
	if err != nil {
		return nil, utils.ErrStorageUnavailable("open", err.Error())
	}
	utils.Debugf("Opened %s backend, key %q", appCfg.Backend, appCfg.StorageKey)

	lifecycle := shutdown.NewManager()
	lifecycle.RegisterCleanup("backend", func(context.Context) error {
		return kv.Close()
	})

	return &app{
		cfg: appCfg,
		kv:  kv,
		store: liststore.New(kv, liststore.Options{
			Key:        appCfg.StorageKey,
			Duplicates: dups,
		}),
		lifecycle: lifecycle,
	}, nil
}

// userError converts store errors into errors with suggestions
func userError(err error, listName string) error {
	var se *liststore.StorageError
	switch {
	case err == nil:
		return nil
	case liststore.IsListNotFound(err):
		return utils.ErrListNotFound(listName)
	case liststore.IsDuplicateList(err):
		return utils.ErrListExists(listName)
	case errors.As(err, &se) && se.Op == liststore.OpRead:
		return utils.ErrStorageUnavailable("read", se.Err.Error())
	case errors.As(err, &se):
		return utils.ErrStorageUnavailable("save", se.Err.Error())
	}
	return err
}

// input returns the reader shared by every prompt of one command
func input(cfg *Config) io.Reader {
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	cfg.Stdin = utils.LineReader(cfg.Stdin)
	return cfg.Stdin
}

// confirm asks for confirmation unless prompts are disabled
func confirm(cfg *Config, stdout io.Writer, question string) bool {
	if cfg.NoPrompt {
		return true
	}
	return utils.PromptYesNoWithReader(question, input(cfg), stdout)
}

// selectName returns the name given on the command line, or asks the user to
// pick one of options.
func selectName(args []string, options []string, question string, cfg *Config, stdout io.Writer) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	s := &prompt.Selector{
		Options:  options,
		Prompt:   question,
		Reader:   input(cfg),
		Writer:   stdout,
		NoPrompt: cfg.NoPrompt || cfg.jsonOutput,
	}
	name, err := s.Run()
	if errors.Is(err, prompt.ErrNoPromptMode) {
		return "", fmt.Errorf("a name is required: %w", err)
	}
	return name, err
}

// askName returns the name given on the command line, or prompts for one.
func askName(args []string, kind string, cfg *Config, stdout io.Writer) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	p := &prompt.NamePrompt{
		Kind:     kind,
		Reader:   input(cfg),
		Writer:   stdout,
		NoPrompt: cfg.NoPrompt || cfg.jsonOutput,
	}
	name, err := p.Run()
	if errors.Is(err, prompt.ErrNoPromptMode) {
		return "", fmt.Errorf("%s name required: %w", kind, err)
	}
	return name, err
}

// =============================================================================
// list commands
// =============================================================================

// newListCmd creates the 'list' subcommand for list management
func newListCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Manage lists",
		Long:  "View all lists or manage lists with subcommands.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return doListView(cmd.Context(), a, cfg, stdout)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	listCmd.AddCommand(newListCreateCmd(stdout, cfg))
	listCmd.AddCommand(newListDeleteCmd(stdout, cfg))
	listCmd.AddCommand(newListShowCmd(stdout, cfg))

	return listCmd
}

// newListCreateCmd creates the 'list create' subcommand
func newListCreateCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new list",
		Long:  "Create a new, empty list. Words are joined with spaces to form the name; without a name you are prompted for one.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			name, err := askName(args, "list", cfg, stdout)
			if err != nil {
				return err
			}
			return doListCreate(cmd.Context(), a, name, cfg, stdout)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newListDeleteCmd creates the 'list delete' subcommand
func newListDeleteCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a list",
		Long:  "Delete every list with the given name, together with its items. Without a name you pick the list interactively.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			name, err := resolveListName(cmd.Context(), a, args, cfg, stdout)
			if err != nil {
				return err
			}
			return doListDelete(cmd.Context(), a, name, cfg, stdout)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newListShowCmd creates the 'list show' subcommand
func newListShowCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Show the items of a list",
		Long:  "Show the items of the first list with the given name. Without a name you pick the list interactively.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			name, err := resolveListName(cmd.Context(), a, args, cfg, stdout)
			if err != nil {
				return err
			}
			return doListShow(cmd.Context(), a, name, cfg, stdout)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// resolveListName returns the list named on the command line, or lets the
// user pick one of the stored lists.
func resolveListName(ctx context.Context, a *app, args []string, cfg *Config, stdout io.Writer) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	snap, err := a.store.Load(ctx)
	if err != nil {
		return "", userError(err, "")
	}
	if len(snap) == 0 {
		return "", utils.ErrNoListsAvailable()
	}
	return selectName(nil, snap.Names(), "Select list:", cfg, stdout)
}

type listJSON struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
	Count int      `json:"count"`
}

type listsResponse struct {
	Lists    []listJSON `json:"lists"`
	Count    int        `json:"count"`
	Modified string     `json:"modified,omitempty"`
	Result   string     `json:"result"`
}

type listResponse struct {
	List   listJSON `json:"list"`
	Result string   `json:"result"`
}

type actionResponse struct {
	Action string `json:"action"`
	List   string `json:"list"`
	Item   string `json:"item,omitempty"`
	Count  int    `json:"count"`
	Result string `json:"result"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Suggestion string `json:"suggestion,omitempty"`
	Code       int    `json:"code"`
	Result     string `json:"result"`
}

func toListJSON(l liststore.List) listJSON {
	return listJSON{Name: l.Name, Items: l.ItemNames(), Count: len(l.Items)}
}

// modifiedAt returns the last write time of the store, if the backend records one
func modifiedAt(ctx context.Context, a *app) string {
	mt, ok := a.kv.(backend.ModTimer)
	if !ok {
		return ""
	}
	t, found, err := mt.Modified(ctx, a.store.Key())
	if err != nil || !found {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// doListView displays all lists with their item counts
func doListView(ctx context.Context, a *app, cfg *Config, stdout io.Writer) error {
	snap, err := a.store.Load(ctx)
	if err != nil {
		return userError(err, "")
	}

	if a.jsonOutput() {
		lists := make([]listJSON, 0, len(snap))
		for _, l := range snap {
			lists = append(lists, toListJSON(l))
		}
		return writeJSON(stdout, listsResponse{
			Lists:    lists,
			Count:    len(lists),
			Modified: modifiedAt(ctx, a),
			Result:   ResultInfoOnly,
		})
	}

	if len(snap) == 0 {
		_, _ = fmt.Fprintln(stdout, "No lists found. Create one with: listkeep list create \"groceries\"")
		if cfg.NoPrompt {
			_, _ = fmt.Fprintln(stdout, ResultInfoOnly)
		}
		return nil
	}

	_, _ = fmt.Fprintf(stdout, "Lists (%d):\n\n", len(snap))
	_, _ = fmt.Fprintf(stdout, "%-30s %s\n", "NAME", "ITEMS")
	for _, l := range snap {
		_, _ = fmt.Fprintf(stdout, "%-30s %d\n", l.Name, len(l.Items))
	}

	if cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultInfoOnly)
	}
	return nil
}

// doListCreate creates a new list
func doListCreate(ctx context.Context, a *app, name string, cfg *Config, stdout io.Writer) error {
	name, err := utils.ValidateName("list", name)
	if err != nil {
		return err
	}

	snap, err := a.store.Load(ctx)
	if err != nil {
		return userError(err, name)
	}
	snap, err = a.store.CreateList(ctx, snap, name)
	if err != nil {
		return userError(err, name)
	}

	if a.jsonOutput() {
		return writeJSON(stdout, actionResponse{Action: "create", List: name, Count: len(snap), Result: ResultActionCompleted})
	}

	_, _ = fmt.Fprintf(stdout, "Created list: %s\n", name)
	if cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultActionCompleted)
	}
	return nil
}

// doListDelete deletes every list with the given name
func doListDelete(ctx context.Context, a *app, name string, cfg *Config, stdout io.Writer) error {
	snap, err := a.store.Load(ctx)
	if err != nil {
		return userError(err, name)
	}
	list, ok := snap.Find(name)
	if !ok {
		return utils.ErrListNotFound(name)
	}

	if !a.jsonOutput() && !confirm(cfg, stdout, fmt.Sprintf("Delete list '%s' and its %d items?", list.Name, len(list.Items))) {
		_, _ = fmt.Fprintln(stdout, "Cancelled")
		return nil
	}

	snap, err = a.store.DeleteList(ctx, snap, name)
	if err != nil {
		return userError(err, name)
	}

	if a.jsonOutput() {
		return writeJSON(stdout, actionResponse{Action: "delete", List: name, Count: len(snap), Result: ResultActionCompleted})
	}

	_, _ = fmt.Fprintf(stdout, "Deleted list: %s\n", name)
	if cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultActionCompleted)
	}
	return nil
}

// doListShow displays the items of one list
func doListShow(ctx context.Context, a *app, name string, cfg *Config, stdout io.Writer) error {
	snap, err := a.store.Load(ctx)
	if err != nil {
		return userError(err, name)
	}
	list, ok := snap.Find(name)
	if !ok {
		return utils.ErrListNotFound(name)
	}

	if a.jsonOutput() {
		return writeJSON(stdout, listResponse{List: toListJSON(list), Result: ResultInfoOnly})
	}

	_, _ = fmt.Fprintf(stdout, "%s (%d items)\n", list.Name, len(list.Items))
	if len(list.Items) == 0 {
		_, _ = fmt.Fprintf(stdout, "\nNo items. Add one with: listkeep item add %q <item>\n", list.Name)
	} else {
		_, _ = fmt.Fprintln(stdout)
		for i, it := range list.Items {
			_, _ = fmt.Fprintf(stdout, "%3d. %s\n", i+1, it.ItemName)
		}
	}

	if cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultInfoOnly)
	}
	return nil
}

// =============================================================================
// item commands
// =============================================================================

// newItemCmd creates the 'item' subcommand for item management
func newItemCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	itemCmd := &cobra.Command{
		Use:   "item",
		Short: "Manage the items of a list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	itemCmd.AddCommand(&cobra.Command{
		Use:   "add <list> [item]",
		Short: "Add an item to the end of a list",
		Long:  "Add an item to the first list with the given name. Words after the list name are joined with spaces; without them you are prompted for the item.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			itemName, err := askName(args[1:], "item", cfg, stdout)
			if err != nil {
				return err
			}
			return doItemAdd(cmd.Context(), a, args[0], itemName, cfg, stdout)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	itemCmd.AddCommand(&cobra.Command{
		Use:   "delete <list> [item]",
		Short: "Delete an item from a list",
		Long:  "Delete every item with the given name from the first list with the given name. Without an item you pick one interactively.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			itemName, err := resolveItemName(cmd.Context(), a, args[0], args[1:], cfg, stdout)
			if err != nil {
				return err
			}
			return doItemDelete(cmd.Context(), a, args[0], itemName, cfg, stdout)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	return itemCmd
}

// resolveItemName returns the item named on the command line, or lets the
// user pick one of the items of listName.
func resolveItemName(ctx context.Context, a *app, listName string, args []string, cfg *Config, stdout io.Writer) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	snap, err := a.store.Load(ctx)
	if err != nil {
		return "", userError(err, listName)
	}
	list, ok := snap.Find(listName)
	if !ok {
		return "", utils.ErrListNotFound(listName)
	}
	if len(list.Items) == 0 {
		return "", fmt.Errorf("list '%s' has no items", listName)
	}
	return selectName(nil, list.ItemNames(), "Select item:", cfg, stdout)
}

// doItemAdd appends an item to a list
func doItemAdd(ctx context.Context, a *app, listName, itemName string, cfg *Config, stdout io.Writer) error {
	itemName, err := utils.ValidateName("item", itemName)
	if err != nil {
		return err
	}

	snap, err := a.store.Load(ctx)
	if err != nil {
		return userError(err, listName)
	}
	if len(snap) == 0 {
		return utils.ErrNoListsAvailable()
	}

	snap, err = a.store.AddItem(ctx, snap, listName, itemName)
	if err != nil {
		return userError(err, listName)
	}
	list, _ := snap.Find(listName)

	if a.jsonOutput() {
		return writeJSON(stdout, actionResponse{Action: "add", List: listName, Item: itemName, Count: len(list.Items), Result: ResultActionCompleted})
	}

	_, _ = fmt.Fprintf(stdout, "Added item to %s: %s\n", listName, itemName)
	if cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultActionCompleted)
	}
	return nil
}

// doItemDelete removes matching items from a list
func doItemDelete(ctx context.Context, a *app, listName, itemName string, cfg *Config, stdout io.Writer) error {
	snap, err := a.store.Load(ctx)
	if err != nil {
		return userError(err, listName)
	}
	before, ok := snap.Find(listName)
	if !ok {
		return utils.ErrListNotFound(listName)
	}

	snap, err = a.store.DeleteItem(ctx, snap, listName, itemName)
	if err != nil {
		return userError(err, listName)
	}
	after, _ := snap.Find(listName)
	removed := len(before.Items) - len(after.Items)

	if a.jsonOutput() {
		return writeJSON(stdout, actionResponse{Action: "delete", List: listName, Item: itemName, Count: len(after.Items), Result: ResultActionCompleted})
	}

	if removed <= 0 {
		_, _ = fmt.Fprintf(stdout, "No item '%s' in %s\n", itemName, listName)
		if cfg.NoPrompt {
			_, _ = fmt.Fprintln(stdout, ResultInfoOnly)
		}
		return nil
	}

	_, _ = fmt.Fprintf(stdout, "Deleted %d item(s) from %s: %s\n", removed, listName, itemName)
	if cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultActionCompleted)
	}
	return nil
}

// =============================================================================
// tui, export, import
// =============================================================================

// newTUICmd creates the 'tui' subcommand
func newTUICmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive list editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// runTUI starts the interactive interface. Log output is redirected to a
// background log file while the alternate screen is active.
func runTUI(cmd *cobra.Command, cfg *Config) error {
	a, err := openApp(cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	bl, err := utils.NewBackgroundLoggerWithEnabled(a.cfg.IsBackgroundLoggingEnabled())
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	logger := utils.GetLogger()
	logger.SetOutput(bl)
	a.lifecycle.RegisterCleanup("log", func(context.Context) error {
		logger.SetOutput(nil)
		return bl.Close()
	})
	if bl.IsEnabled() {
		utils.Debugf("TUI logging to %s", bl.GetLogPath())
	}

	stop := a.lifecycle.NotifyOnSignal()
	defer stop()

	ctx := a.lifecycle.Context()
	p := tea.NewProgram(tui.New(a.store, tui.WithContext(ctx)), tea.WithAltScreen(), tea.WithContext(ctx))

	if w := startWatcher(a, p); w != nil {
		a.lifecycle.RegisterCleanup("watcher", func(context.Context) error {
			w.Stop()
			return nil
		})
	}

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && a.lifecycle.IsShutdown() {
		utils.Debugf("TUI stopped by signal")
		return nil
	}
	return err
}

// startWatcher reloads the TUI when another process changes the backend's files.
// Returns nil when watching is disabled or the backend has no files.
func startWatcher(a *app, p *tea.Program) *watcher.Watcher {
	if !a.cfg.IsWatchChangesEnabled() {
		return nil
	}
	loc, ok := a.kv.(backend.Locator)
	if !ok {
		return nil
	}
	path := loc.Location(a.store.Key())
	if path == "" {
		return nil
	}

	w, err := watcher.New(watcher.DefaultConfig(func() { p.Send(tui.ReloadMsg{}) }, path))
	if err != nil {
		utils.Warnf("File watching disabled: %v", err)
		return nil
	}
	if err := w.Start(); err != nil {
		utils.Warnf("File watching disabled: %v", err)
		w.Stop()
		return nil
	}
	utils.Debugf("Watching %s for changes", path)
	return w
}

// newExportCmd creates the 'export' subcommand
func newExportCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Print the stored lists",
		Long: `Print the stored lists. The default json format is the stored blob exactly as
persisted; redirect it to a file to make a backup. The markdown format writes one
"## list" section per list with a "- item" line per item.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if err := validateTransferFormat(format); err != nil {
				return err
			}

			a, err := openApp(cmd, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			// No result code: the output must stay importable.
			if format == formatMarkdown {
				snap, err := a.store.Load(cmd.Context())
				if err != nil {
					return userError(err, "")
				}
				text, err := markdown.Format(snap)
				if err != nil {
					return fmt.Errorf("cannot export as markdown: %w", err)
				}
				_, _ = fmt.Fprint(stdout, text)
				return nil
			}

			blob, err := a.store.Export(cmd.Context())
			if err != nil {
				return userError(err, "")
			}
			_, _ = fmt.Fprintln(stdout, blob)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	exportCmd.Flags().String("format", formatJSON, "Output format: json or markdown")
	return exportCmd
}

const (
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

func validateTransferFormat(format string) error {
	switch format {
	case formatJSON, formatMarkdown:
		return nil
	}
	return utils.WrapWithSuggestion(
		fmt.Errorf("unknown format: %s", format),
		"Use --format json or --format markdown",
	)
}

// newImportCmd creates the 'import' subcommand
func newImportCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the stored lists from a file",
		Long:  "Replace every stored list with the contents of a file written by 'listkeep export'. Use - to read standard input.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if err := validateTransferFormat(format); err != nil {
				return err
			}

			data, err := readImportSource(args[0], cfg)
			if err != nil {
				return err
			}

			blob := string(data)
			if format == formatMarkdown {
				if blob, err = markdownToBlob(args[0], blob); err != nil {
					return err
				}
			}

			a, err := openApp(cmd, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return doImport(cmd.Context(), a, args[0], blob, cfg, stdout)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	importCmd.Flags().String("format", formatJSON, "Input format: json or markdown")
	return importCmd
}

// markdownToBlob converts a markdown export into the stored JSON form.
func markdownToBlob(source, text string) (string, error) {
	snap, err := markdown.Parse(text)
	if err != nil {
		return "", utils.WrapWithSuggestion(
			fmt.Errorf("invalid import file %s: %w", source, err),
			"Import a file written by 'listkeep export --format markdown'",
		)
	}
	return liststore.Encode(snap)
}

func readImportSource(path string, cfg *Config) ([]byte, error) {
	if path == "-" {
		in := cfg.Stdin
		if in == nil {
			in = os.Stdin
		}
		return io.ReadAll(in)
	}
	data, err := os.ReadFile(config.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	return data, nil
}

// doImport replaces the stored lists with blob
func doImport(ctx context.Context, a *app, source, blob string, cfg *Config, stdout io.Writer) error {
	if _, err := liststore.Decode(blob); err != nil {
		return utils.WrapWithSuggestion(
			fmt.Errorf("invalid import file %s: %w", source, err),
			"Import a file written by 'listkeep export'",
		)
	}

	if !a.jsonOutput() && source != "-" && !confirm(cfg, stdout, "Replace all stored lists?") {
		_, _ = fmt.Fprintln(stdout, "Cancelled")
		return nil
	}

	snap, err := a.store.Import(ctx, blob)
	if err != nil {
		return userError(err, "")
	}

	if a.jsonOutput() {
		return writeJSON(stdout, actionResponse{Action: "import", Count: len(snap), Result: ResultActionCompleted})
	}

	_, _ = fmt.Fprintf(stdout, "Imported %d lists\n", len(snap))
	if cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultActionCompleted)
	}
	return nil
}

// =============================================================================
// config and version
// =============================================================================

// newConfigCmd creates the 'config' subcommand
func newConfigCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = cfg.ConfigPath
			}
			if path == "" {
				path = config.DefaultConfigPath()
			}
			_, _ = fmt.Fprintln(stdout, path)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  "Print the configuration after environment and command-line overrides.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, err := loadConfig(cmd, cfg)
			if err != nil {
				return err
			}
			out, err := appCfg.YAML()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(stdout, out)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	return configCmd
}

type versionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// newVersionCmd creates the 'version' subcommand
func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOutput, _ := cmd.Flags().GetBool("json")
			if jsonOutput {
				return writeJSON(stdout, versionResponse{Version: Version, Commit: Commit, BuildDate: BuildDate})
			}
			_, _ = fmt.Fprintf(stdout, "listkeep\n")
			_, _ = fmt.Fprintf(stdout, "  Version:    %s\n", Version)
			_, _ = fmt.Fprintf(stdout, "  Commit:     %s\n", Commit)
			_, _ = fmt.Fprintf(stdout, "  Build date: %s\n", BuildDate)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// =============================================================================
// output helpers
// =============================================================================

func writeJSON(stdout io.Writer, v interface{}) error {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
	return nil
}

// outputErrorJSON outputs error in JSON format
func outputErrorJSON(err error, stdout io.Writer) {
	response := errorResponse{
		Error:  err.Error(),
		Code:   1,
		Result: ResultError,
	}
	if ews, ok := err.(*utils.ErrorWithSuggestion); ok {
		response.Error = ews.Err.Error()
		response.Suggestion = ews.Suggestion
	}

	jsonBytes, _ := json.Marshal(response)
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
}
