package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/setavenger/walletcore/internal/backend"
	"github.com/setavenger/walletcore/internal/configs"
	"github.com/setavenger/walletcore/internal/controller"
	"github.com/setavenger/walletcore/internal/core"
	"github.com/setavenger/walletcore/internal/dispatch"
	"github.com/setavenger/walletcore/internal/logging"
	"github.com/setavenger/walletcore/internal/setup"
	"github.com/setavenger/walletcore/internal/storage"
	"github.com/setavenger/walletcore/internal/wallet"
)

const usage = `usage: walletcore [flags] <command> [args]

commands:
  newseed                              print a fresh 24 word mnemonic
  init <mnemonic>                      create the wallet
  address [legacy]                     print the receive address
  balance                              print the balance
  fees                                 refresh and print network fees
  estimate <address> <sats> <level>    estimate the fee of a payment
  send <address> <sats> <level>        pay an address
  pay <bip21-uri> <level>              pay a bitcoin: uri
  sweep <wif> <level>                  move the funds of a private key here
  receive <sats>                       record an incoming payment
  confirm <hash>                       mark a transfer as included
  history                              list transfers

levels: economy, regular, priority
the seed for send, pay and sweep is read from WALLETCORE_SEED or stdin
`

var (
	dataDir     string
	networkName string
	jsonOutput  bool
	debug       bool
)

var printer = message.NewPrinter(language.English)

func init() {
	pflag.BoolVar(&debug, "debug", false, "enable debug logging")
	pflag.StringVar(&dataDir, "datadir", "", "path to data directory for walletcore")
	pflag.StringVar(&networkName, "network", "", "switch to network (mainnet, testnet, signet, regtest)")
	pflag.BoolVar(&jsonOutput, "json", false, "print history as json")
	pflag.Usage = func() {
		fmt.Fprint(os.Stderr, usage, "\nflags:\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if debug {
		logging.SetLogLevel(zerolog.DebugLevel)
	} else {
		logging.SetLogLevel(zerolog.InfoLevel)
	}
}

func main() {
	args := pflag.Args()
	if len(args) == 0 {
		pflag.Usage()
		os.Exit(2)
	}

	if args[0] == "newseed" {
		mnemonic, err := backend.NewMnemonic()
		if err != nil {
			logging.L.Fatal().Err(err).Msg("failed to generate mnemonic")
		}
		fmt.Println(mnemonic)
		return
	}

	if err := run(args[0], args[1:]); err != nil {
		logging.L.Err(err).Str("command", args[0]).Msg("command failed")
		os.Exit(1)
	}
}

func resolvedDataDir() string {
	if dataDir == "" {
		return configs.DefaultDataDir()
	}
	return configs.ResolvePath(dataDir)
}

func run(command string, args []string) error {
	dir := resolvedDataDir()
	if networkName != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		config, err := configs.Load(dir)
		if err != nil {
			return err
		}
		if config.Network != networkName {
			if err := config.SetNetwork(networkName); err != nil {
				return fmt.Errorf("failed to switch network: %w", err)
			}
		}
	}

	queue := dispatch.NewQueue()
	defer queue.Close()

	manager, config, exists, err := setup.NewManagerWithDataDir(dir, queue)
	if err != nil {
		return err
	}
	if debug {
		logging.SetLogLevel(zerolog.DebugLevel)
	}

	if command == "init" {
		if exists {
			return errors.New("wallet already exists in " + dir)
		}
		if len(args) == 0 {
			return errors.New("init needs a mnemonic")
		}
		w, err := manager.CreateWallet(config.Network, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(w.ReceiveAddress())
		return storage.SavePlain(dir, manager)
	}

	if !exists {
		return errors.New("no wallet found, run init first")
	}
	w, ok := manager.PrimaryWallet()
	if !ok {
		return errors.New("wallet file holds no wallet for network " + config.Network)
	}
	w.Subscribe("cli", func(e core.WalletEvent) {
		logging.L.Debug().Str("event", e.Kind.String()).Msg("wallet event")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := execute(ctx, manager, w, command, args); err != nil {
		return err
	}
	queue.Flush()
	return storage.SavePlain(dir, manager)
}

func execute(ctx context.Context, manager *controller.Manager, w *wallet.Wallet, command string, args []string) error {
	switch command {
	case "address":
		if len(args) > 0 && args[0] == "legacy" {
			fmt.Println(w.ReceiveAddressForScheme(core.SchemeLegacy))
		} else {
			fmt.Println(w.ReceiveAddress())
		}

	case "balance":
		fmt.Println(formatAmount(w.Balance()))

	case "fees":
		if err := manager.RefreshFees(ctx); err != nil {
			logging.L.Warn().Err(err).Msg("fee refresh failed, showing last known fees")
		}
		for _, fee := range w.Fees() {
			printer.Printf("%-10s %d sat/vB\n", fee.ConfirmationTime, fee.Rate)
		}
		for _, level := range []wallet.FeeLevel{wallet.Economy, wallet.Regular, wallet.Priority} {
			fee, err := w.FeeForLevel(level)
			if err != nil {
				return err
			}
			printer.Printf("%-10s -> %s at %d sat/vB\n", level, fee.ConfirmationTime, fee.Rate)
		}

	case "estimate":
		if len(args) != 3 {
			return errors.New("estimate needs <address> <sats> <level>")
		}
		amount, level, err := parseAmountAndLevel(w, args[1], args[2])
		if err != nil {
			return err
		}
		basis, err := manager.EstimateBasis(ctx, w, args[0], amount, level)
		if err != nil {
			return err
		}
		printer.Printf("fee %s (%d vB at %d sat/vB)\n", formatAmount(basis.Fee()), basis.CostFactor, basis.PricePerCostFactor)

	case "send":
		if len(args) != 3 {
			return errors.New("send needs <address> <sats> <level>")
		}
		amount, level, err := parseAmountAndLevel(w, args[1], args[2])
		if err != nil {
			return err
		}
		seed, err := readSeed()
		if err != nil {
			return err
		}
		t, err := manager.Send(ctx, w, args[0], amount, level, seed)
		if err != nil {
			return err
		}
		fmt.Println(t.Hash())

	case "pay":
		if len(args) != 2 {
			return errors.New("pay needs <bip21-uri> <level>")
		}
		level, err := wallet.ParseFeeLevel(args[1])
		if err != nil {
			return err
		}
		seed, err := readSeed()
		if err != nil {
			return err
		}
		t, err := manager.Pay(ctx, w, args[0], level, seed)
		if err != nil {
			return err
		}
		fmt.Println(t.Hash())

	case "sweep":
		if len(args) != 2 {
			return errors.New("sweep needs <wif> <level>")
		}
		level, err := wallet.ParseFeeLevel(args[1])
		if err != nil {
			return err
		}
		seed, err := readSeed()
		if err != nil {
			return err
		}
		t, err := manager.Sweep(ctx, w, args[0], level, seed)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", t.Hash(), formatAmount(t.Amount()))

	case "receive":
		if len(args) != 1 {
			return errors.New("receive needs <sats>")
		}
		sats, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || sats <= 0 {
			return fmt.Errorf("invalid amount %q", args[0])
		}
		nw, ok := w.Core().(*backend.Wallet)
		if !ok {
			return errors.New("wallet does not accept simulated payments")
		}
		fmt.Println(nw.Receive(sats).Hash())

	case "confirm":
		if len(args) != 1 {
			return errors.New("confirm needs <hash>")
		}
		native, ok := manager.NativeManager(w.Core().Manager().Network().Name())
		if !ok {
			return errors.New("no native manager for wallet network")
		}
		return native.Confirm(args[0])

	case "history":
		items := manager.TransactionHistory(w)
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}
		for _, item := range items {
			printer.Printf("%s  %-9s %-8s %s  %s\n",
				item.Timestamp.Format(time.DateTime),
				item.State,
				item.Direction,
				formatAmount(item.NetAmount),
				item.Hash,
			)
		}

	default:
		pflag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func parseAmountAndLevel(w *wallet.Wallet, sats, level string) (core.Amount, wallet.FeeLevel, error) {
	value, err := strconv.ParseInt(sats, 10, 64)
	if err != nil || value <= 0 {
		return core.Amount{}, 0, fmt.Errorf("invalid amount %q", sats)
	}
	l, err := wallet.ParseFeeLevel(level)
	if err != nil {
		return core.Amount{}, 0, err
	}
	return core.NewAmount(value, w.Currency()), l, nil
}

func readSeed() (string, error) {
	if seed := os.Getenv("WALLETCORE_SEED"); seed != "" {
		return seed, nil
	}
	fmt.Fprint(os.Stderr, "seed: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read seed: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// formatAmount prints the base unit count with separators and the decimal value.
func formatAmount(a core.Amount) string {
	return printer.Sprintf("%d sats (%s)", a.Value, a)
}
