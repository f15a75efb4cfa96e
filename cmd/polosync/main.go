package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/polosync/polosync/config"
	"github.com/polosync/polosync/database"
	"github.com/polosync/polosync/exchanges/poloniex"
)

var (
	configPath string
	startFlag  string
	endFlag    string
	fromCSV    bool
)

func main() {
	app := &cli.App{
		Name:  "polosync",
		Usage: "query Poloniex account history, balances and market data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Value:       "config.json",
				Usage:       "path to the JSON config file",
				Destination: &configPath,
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "ticker",
				Usage:  "print the public ticker snapshot",
				Action: tickerCommand,
			},
			{
				Name:   "fees",
				Usage:  "print the account's maker/taker fee tier",
				Action: feesCommand,
			},
			{
				Name:   "balances",
				Usage:  "print non-zero balances with their BTC valuation",
				Action: balancesCommand,
			},
			{
				Name:   "trades",
				Usage:  "print canonical trades for a time window",
				Flags:  windowFlags(),
				Action: tradesCommand,
			},
			{
				Name:  "loans",
				Usage: "print lending history for a time window",
				Flags: append(windowFlags(), &cli.BoolFlag{
					Name:        "csv",
					Usage:       "prefer the local lendingHistory.csv export",
					Destination: &fromCSV,
				}),
				Action: loansCommand,
			},
			{
				Name:   "movements",
				Usage:  "print deposits and withdrawals for a time window",
				Flags:  windowFlags(),
				Action: movementsCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func windowFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "start",
			Usage:       "window start (RFC3339 or unix seconds)",
			Value:       "0",
			Destination: &startFlag,
		},
		&cli.StringFlag{
			Name:        "end",
			Usage:       "window end (RFC3339 or unix seconds, defaults to now)",
			Destination: &endFlag,
		},
	}
}

// setupClient loads the config file and wires the client, including the
// persistent history cache when the database is enabled
func setupClient() (*poloniex.Poloniex, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	settings := poloniex.Settings{
		APIKey:      cfg.API.Key,
		APISecret:   cfg.API.Secret,
		DataDir:     cfg.DataDir,
		Verbose:     cfg.Verbose,
		HTTPTimeout: cfg.HTTPTimeout,
	}

	cleanup := func() {}
	if cfg.Database.Enabled {
		store, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		settings.CacheBackend = store
		cleanup = func() {
			if err := store.Close(); err != nil {
				log.WithError(err).Warn("closing history cache database")
			}
		}
	}

	return poloniex.New(settings), cleanup, nil
}

func parseWindow() (start, end time.Time, err error) {
	start, err = parseTimestamp(startFlag)
	if err != nil {
		return start, end, fmt.Errorf("invalid --start: %w", err)
	}

	end = time.Now()
	if endFlag != "" {
		end, err = parseTimestamp(endFlag)
		if err != nil {
			return start, end, fmt.Errorf("invalid --end: %w", err)
		}
	}

	if end.Before(start) {
		return start, end, fmt.Errorf("window end %s precedes start %s", end, start)
	}
	return start, end, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(unix, 0), nil
	}
	return time.Parse(time.RFC3339, raw)
}

func jsonOutput(in any) error {
	j, err := json.MarshalIndent(in, "", " ")
	if err != nil {
		return err
	}
	fmt.Println(string(j))
	return nil
}

func tickerCommand(c *cli.Context) error {
	client, cleanup, err := setupClient()
	if err != nil {
		return err
	}
	defer cleanup()

	ticker, err := client.GetTicker(c.Context)
	if err != nil {
		return err
	}
	return jsonOutput(ticker)
}

func feesCommand(c *cli.Context) error {
	client, cleanup, err := setupClient()
	if err != nil {
		return err
	}
	defer cleanup()

	fees, err := client.GetFeeInfo(c.Context)
	if err != nil {
		return err
	}
	return jsonOutput(fees)
}

func balancesCommand(c *cli.Context) error {
	client, cleanup, err := setupClient()
	if err != nil {
		return err
	}
	defer cleanup()

	balances, err := client.QueryBalances(c.Context)
	if err != nil {
		return err
	}
	return jsonOutput(balances)
}

func tradesCommand(c *cli.Context) error {
	client, cleanup, err := setupClient()
	if err != nil {
		return err
	}
	defer cleanup()

	start, end, err := parseWindow()
	if err != nil {
		return err
	}

	trades, err := client.QueryTrades(c.Context, start, end, end)
	if err != nil {
		return err
	}
	return jsonOutput(trades)
}

func loansCommand(c *cli.Context) error {
	client, cleanup, err := setupClient()
	if err != nil {
		return err
	}
	defer cleanup()

	start, end, err := parseWindow()
	if err != nil {
		return err
	}

	loans, err := client.QueryLoanHistory(c.Context, start, end, end, fromCSV)
	if err != nil {
		return err
	}
	return jsonOutput(loans)
}

func movementsCommand(c *cli.Context) error {
	client, cleanup, err := setupClient()
	if err != nil {
		return err
	}
	defer cleanup()

	start, end, err := parseWindow()
	if err != nil {
		return err
	}

	movements, err := client.QueryDepositsWithdrawals(c.Context, start, end, end)
	if err != nil {
		return err
	}
	return jsonOutput(movements)
}
