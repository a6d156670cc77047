package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"gopkg.in/urfave/cli.v1"

	"fdchain/cmd/internal/passphrase"
	"fdchain/config"
	"fdchain/core"
	"fdchain/crypto"
	"fdchain/native/bank"
	"fdchain/services/indexer"
	"fdchain/storage"
)

const passphraseEnv = "FD_KEYSTORE_PASSPHRASE"

var (
	dataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory holding the chain database",
		Value: "./fd-data",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "Node configuration file; overrides --datadir and supplies deposit limits",
	}
	fromFlag = cli.StringFlag{
		Name:  "from",
		Usage: "Signing account address",
	}
	keystoreFlag = cli.StringFlag{
		Name:  "keystore",
		Usage: "Keystore file of the signing account (passphrase from " + passphraseEnv + " or prompt)",
	}
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fdctl: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "fdctl"
	app.Usage = "operate a fixed deposit node data directory"
	app.Flags = []cli.Flag{dataDirFlag, configFlag}
	app.Commands = commands()
	return app
}

// openRuntime opens the chain database named by the global flags. The caller
// must invoke the returned closer.
func openRuntime(ctx *cli.Context) (*core.Runtime, func(), error) {
	dataDir := ctx.GlobalString(dataDirFlag.Name)
	bankCfg := bank.DefaultConfig()
	if path := strings.TrimSpace(ctx.GlobalString(configFlag.Name)); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, nil, fmt.Errorf("load config: %w", err)
		}
		dataDir = cfg.DataDir
		bankCfg = cfg.Bank
	}
	cfg := &config.Config{DataDir: dataDir}
	db, err := storage.NewLevelDB(cfg.ResolvePath("chain"))
	if err != nil {
		return nil, nil, fmt.Errorf("open chain database: %w", err)
	}
	return core.NewRuntime(db, bankCfg), db.Close, nil
}

// openIndexer connects to the event indexer named by the command flags,
// falling back to the node configuration.
func openIndexer(ctx *cli.Context) (*indexer.Indexer, error) {
	cfg := config.Default()
	cfg.DataDir = ctx.GlobalString(dataDirFlag.Name)
	if path := strings.TrimSpace(ctx.GlobalString(configFlag.Name)); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	driver := firstSet(ctx.String("driver"), cfg.Indexer.Driver)
	dsn := firstSet(ctx.String("dsn"), cfg.Indexer.DSN)
	if driver == "" {
		return nil, fmt.Errorf("indexer driver not configured")
	}
	if driver == "sqlite" && !strings.HasPrefix(dsn, "file:") {
		dsn = cfg.ResolvePath(dsn)
	}
	db, err := indexer.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	return indexer.New(db, nil)
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// withRuntime opens the database for the duration of fn.
func withRuntime(fn func(*cli.Context, *core.Runtime) error) func(*cli.Context) error {
	return func(ctx *cli.Context) error {
		runtime, closeDB, err := openRuntime(ctx)
		if err != nil {
			return err
		}
		defer closeDB()
		return fn(ctx, runtime)
	}
}

func signer(ctx *cli.Context) (crypto.Address, error) {
	if from := strings.TrimSpace(ctx.String(fromFlag.Name)); from != "" {
		return crypto.ParseAddress(from)
	}
	path := strings.TrimSpace(ctx.String(keystoreFlag.Name))
	if path == "" {
		return crypto.Address{}, fmt.Errorf("--from or --keystore is required")
	}
	pass, err := passphrase.NewSource(passphraseEnv).Get()
	if err != nil {
		return crypto.Address{}, err
	}
	key, err := crypto.LoadFromKeystore(path, pass)
	if err != nil {
		return crypto.Address{}, fmt.Errorf("load keystore: %w", err)
	}
	return key.PubKey().Address(), nil
}

func requireArgs(ctx *cli.Context, n int) error {
	if ctx.NArg() != n {
		return fmt.Errorf("%s expects %d argument(s): %s", ctx.Command.Name, n, ctx.Command.ArgsUsage)
	}
	return nil
}

func addressArg(ctx *cli.Context, i int) (crypto.Address, error) {
	addr, err := crypto.ParseAddress(ctx.Args().Get(i))
	if err != nil {
		return crypto.Address{}, fmt.Errorf("invalid address %q: %w", ctx.Args().Get(i), err)
	}
	return addr, nil
}

func amountArg(ctx *cli.Context, i int) (*big.Int, error) {
	raw := strings.TrimSpace(ctx.Args().Get(i))
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}

func uintArg(ctx *cli.Context, i int, name string) (uint64, error) {
	raw := strings.TrimSpace(ctx.Args().Get(i))
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func printJSON(ctx *cli.Context, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(ctx.App.Writer, string(out))
	return err
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
