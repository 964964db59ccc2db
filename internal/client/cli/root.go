package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/foodkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/foodkeeper/internal/client/client"
	"github.com/dmitrijs2005/foodkeeper/internal/client/config"
	"github.com/dmitrijs2005/foodkeeper/internal/client/models"
	"github.com/dmitrijs2005/foodkeeper/internal/logging"
	"github.com/spf13/cobra"
)

type appFactory func(ctx context.Context, c *config.Config, log logging.Logger) (*App, error)

// runner owns the App for the lifetime of one command execution.
type runner struct {
	cfg     *config.Config
	factory appFactory
	logOut  io.Writer
	app     *App
}

// Execute loads configuration and runs the command line given by args.
func Execute(ctx context.Context, args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	r := &runner{cfg: cfg, factory: NewApp, logOut: os.Stderr}
	defer r.close()

	root := r.rootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (r *runner) close() {
	if r.app != nil {
		_ = r.app.Close()
		r.app = nil
	}
}

// prepare builds the App and validates the stored session before any
// command that needs it.
func (r *runner) prepare(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" || r.app != nil {
		return nil
	}
	if err := r.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logging.New(r.logOut, r.cfg.LogLevel)
	app, err := r.factory(cmd.Context(), r.cfg, log)
	if err != nil {
		return err
	}
	r.app = app

	ctx, cancel := context.WithTimeout(cmd.Context(), r.cfg.RequestTimeout)
	defer cancel()
	app.Start(ctx)
	return nil
}

func (r *runner) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "foodkeeper",
		Short:             "Track perishable food against the FoodKeeper backend",
		Long:              "FoodKeeper keeps your food inventory: barcode lookup, photo analysis, manual entry and expiry tracking.\nRun without a command to start the interactive shell.",
		Version:           buildinfo.Summary(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: r.prepare,
		RunE:              r.runShell,
		Args:              cobra.NoArgs,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	r.cfg.BindFlags(root.PersistentFlags())

	root.AddCommand(
		r.loginCommand(),
		r.registerCommand(),
		r.logoutCommand(),
		r.statusCommand(),
		r.whoamiCommand(),
		r.itemsCommand(),
		r.expiringCommand(),
		r.barcodeCommand(),
		r.analyzeCommand(),
		r.dashboardCommand(),
		r.watchCommand(),
	)
	return root
}

// runShell starts the REPL together with the background revalidation loop.
func (r *runner) runShell(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	a := r.app

	go a.StartRevalidation(ctx, r.cfg.RevalidateInterval)

	a.printTitle("FoodKeeper CLI (type 'help' for commands)")
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, mutedStyle.Render("Not logged in. Type 'login' or 'register'."))
	}
	runREPL(ctx, a, a.statusLine, a.reader)
	return nil
}

func (r *runner) loginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.app.Login(cmd.Context())
		},
	}
}

func (r *runner) registerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an account and log into it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.app.Register(cmd.Context())
		},
	}
}

func (r *runner) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.app.Logout(cmd.Context())
		},
	}
}

func (r *runner) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.app.Status(cmd.Context())
		},
	}
}

func (r *runner) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.app.Whoami(cmd.Context())
		},
	}
}

func (r *runner) itemsCommand() *cobra.Command {
	items := &cobra.Command{
		Use:     "items",
		Aliases: []string{"item"},
		Short:   "Manage food items",
	}

	var opts client.ListOptions
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List food items",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.app.ListItems(cmd.Context(), opts)
		},
	}
	list.Flags().IntVar(&opts.Skip, "skip", 0, "items to skip")
	list.Flags().IntVar(&opts.Limit, "limit", client.DefaultLimit, "maximum items to return")
	list.Flags().StringVar(&opts.Category, "category", "", "only items of this category")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.GetItem(cmd.Context(), args[0])
		},
	}

	update := &cobra.Command{
		Use:   "update <id> name=value...",
		Short: "Change fields of an item",
		Long:  "Change fields of an item. Fields: name, category, quantity, expiration_date, barcode, image_url.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.UpdateItem(cmd.Context(), args[0], args[1:])
		},
	}

	del := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.DeleteItem(cmd.Context(), args[0])
		},
	}

	items.AddCommand(list, get, r.addCommand(), update, del)
	return items
}

func (r *runner) addCommand() *cobra.Command {
	var (
		draft    models.FoodItemCreate
		category string
		barcode  string
		expires  string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an item manually",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if category != "" {
				draft.Category = &category
			}
			if barcode != "" {
				draft.Barcode = &barcode
			}
			if expires != "" {
				d, err := models.ParseDate(expires)
				if err != nil {
					return err
				}
				draft.ExpirationDate = &d
			}
			return r.app.AddItem(cmd.Context(), draft)
		},
	}
	cmd.Flags().StringVar(&draft.Name, "name", "", "item name")
	cmd.Flags().IntVar(&draft.Quantity, "quantity", 1, "quantity")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringVar(&barcode, "barcode", "", "barcode")
	cmd.Flags().StringVar(&expires, "expires", "", "expiration date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (r *runner) expiringCommand() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "expiring",
		Short: "List items expiring soon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.app.Expiring(cmd.Context(), days)
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", client.DefaultExpiringDays, "look-ahead window in days")
	return cmd
}

func (r *runner) barcodeCommand() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "barcode <code>",
		Short: "Look up a product by barcode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.Barcode(cmd.Context(), args[0], save)
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "add the product to the inventory")
	return cmd
}

func (r *runner) analyzeCommand() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Recognize a food item on a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.Analyze(cmd.Context(), args[0], save)
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "add the recognized item to the inventory")
	return cmd
}

func (r *runner) dashboardCommand() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the inventory and the items expiring soon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.app.Dashboard(cmd.Context(), days)
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", client.DefaultExpiringDays, "look-ahead window in days")
	return cmd
}

func (r *runner) watchCommand() *cobra.Command {
	var (
		days     int
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep printing the items expiring soon until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				return fmt.Errorf("interval must be positive")
			}
			return r.app.Watch(cmd.Context(), days, interval)
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", client.DefaultExpiringDays, "look-ahead window in days")
	cmd.Flags().DurationVar(&interval, "every", time.Minute, "refresh period")
	return cmd
}
