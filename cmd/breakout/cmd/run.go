package cmd

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/breakout/broker/tinkoff"
	"github.com/rustyeddy/breakout/config"
	"github.com/rustyeddy/breakout/engine"
	"github.com/rustyeddy/breakout/fetch"
	"github.com/rustyeddy/breakout/journal"
	"github.com/rustyeddy/breakout/notify"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the live engine for every configured instrument",
	Long: `Run starts one engine per configured instrument: each engine
grid-searches its trailing history at startup and then once per trading
day, polls for completed minute bars and trades the breakout rule.

Without --live (and engine.live: false in the config) the engine only
signals: entries and exits are journaled and notified, no orders are
placed.

Requires TINKOFF_TOKEN in the environment; TINKOFF_ACCOUNT_ID as well
when live. Stop with Ctrl-C: open positions are reported, never
liquidated.

Example:
  breakout run -c config.yaml --live`,
	RunE: runRunCmd,
}

var (
	runConfigPath string
	runLive       bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "config.yaml", "path to config file")
	runCmd.Flags().BoolVar(&runLive, "live", false, "place real orders (overrides engine.live)")
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return err
	}
	live := cfg.Engine.Live || runLive

	client, err := tinkoff.FromEnv()
	if err != nil {
		return err
	}
	if live && client.AccountID == "" {
		return fmt.Errorf("%s required for live trading", tinkoff.EnvAccountID)
	}

	jnl, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	defer jnl.Close()

	notifier := newNotifier(cfg.Telegram)
	defer notifier.Close()

	loc, err := cfg.Engine.Location()
	if err != nil {
		return err
	}
	poll, err := cfg.Engine.ParsePollInterval()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sup := engine.NewSupervisor(ctx)
	for _, inst := range cfg.Instruments {
		figi := inst.FIGI
		if figi == "" {
			figi, err = client.ResolveFIGI(ctx, inst.Ticker)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", inst.Ticker, err)
			}
			log.Printf("resolved FIGI %s for ticker %s", figi, inst.Ticker)
		}

		capital := cfg.Account.Capital
		if sq, ok := jnl.(*journal.SQLite); ok {
			if last, found, cerr := sq.LastCapital(inst.Ticker); cerr == nil && found {
				capital = last
				log.Printf("%s: resuming capital %.2f from journal", inst.Ticker, last)
			}
		}

		eng := engine.New(engine.Config{
			Ticker:       inst.Ticker,
			FIGI:         figi,
			PollInterval: poll,
			DaysBack:     cfg.Engine.DaysBack,
			RecalTime:    cfg.Engine.RecalTime,
			Location:     loc,
			Capital:      capital,
			Commission:   cfg.Strategy.Commission,
			RiskPct:      cfg.Strategy.RiskPercent,
			Live:         live,
			Grid:         cfg.Grid(),
			Fetch:        fetch.DefaultPolicy(),
		}, client, client, jnl, notifier)

		if err := sup.Start(eng); err != nil {
			return err
		}
	}

	mode := "signal"
	if live {
		mode = "LIVE"
	}
	fmt.Printf("running %d engine(s) in %s mode, Ctrl-C to stop\n", len(cfg.Instruments), mode)

	started := time.Now()
	err = sup.Wait()
	printSessionSummary(jnl, started)
	return err
}

// printSessionSummary reports the trades closed during this run when the
// journal backend supports querying.
func printSessionSummary(jnl journal.Journal, since time.Time) {
	sq, ok := jnl.(*journal.SQLite)
	if !ok {
		return
	}

	trades, err := sq.ListTradesClosedBetween(since, time.Now())
	if err != nil || len(trades) == 0 {
		return
	}

	var pnl float64
	for _, t := range trades {
		pnl += t.RealizedPL
	}
	fmt.Printf("session: %d trade(s) closed, realized P&L %+.2f\n", len(trades), pnl)
}

func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "csv":
		return journal.NewCSV(jc.TradesFile, jc.CapitalFile)
	default:
		return journal.NewSQLite(jc.DBPath)
	}
}

func newNotifier(tc config.TelegramConfig) *notify.Notifier {
	tc = tc.Resolved()
	if tc.BotToken == "" || tc.ChatID == "" {
		log.Println("telegram not configured, notifications go to the log")
		return notify.New(64, notify.LogSink{})
	}
	return notify.New(64, notify.NewTelegram(tc.BotToken, tc.ChatID), notify.LogSink{})
}
