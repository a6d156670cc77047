package main

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/urfave/cli.v1"

	"fdchain/cmd/internal/passphrase"
	"fdchain/config"
	"fdchain/core"
	"fdchain/crypto"
	"fdchain/native/bank"
	"fdchain/services/indexer"
)

func commands() []cli.Command {
	signed := []cli.Flag{fromFlag, keystoreFlag}
	return []cli.Command{
		{
			Name:      "init",
			Usage:     "Apply a genesis file to an empty data directory",
			ArgsUsage: "<genesis.yaml>",
			Action:    withRuntime(initChain),
		},
		{
			Name:   "keygen",
			Usage:  "Generate a depositor key and write it to an encrypted keystore",
			Flags:  []cli.Flag{cli.StringFlag{Name: "out", Usage: "Keystore output path", Value: "depositor.json"}},
			Action: keygen,
		},
		{
			Name:      "mint",
			Usage:     "Credit native balance to an account",
			ArgsUsage: "<address> <amount>",
			Action:    withRuntime(mint),
		},
		{
			Name:      "balance",
			Usage:     "Show the balances of an account",
			ArgsUsage: "<address>",
			Action:    withRuntime(balance),
		},
		{
			Name:   "height",
			Usage:  "Show the current block height",
			Action: withRuntime(height),
		},
		{
			Name:      "advance",
			Usage:     "Advance the block clock",
			ArgsUsage: "<blocks>",
			Action:    withRuntime(advance),
		},
		{
			Name:  "set-params",
			Usage: "Set the deposit parameters",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "interest", Usage: "Interest rate per epoch (ppm or percent, e.g. 5%)"},
				cli.StringFlag{Name: "penalty", Usage: "Premature close penalty (ppm or percent)"},
				cli.Uint64Flag{Name: "frequency", Usage: "Compounding events per epoch", Value: 1},
				cli.Uint64Flag{Name: "epoch", Usage: "Epoch length in blocks", Value: bank.BlocksPerYear},
			},
			Action: withRuntime(setParams),
		},
		{
			Name:      "set-treasury",
			Usage:     "Bind the treasury account",
			ArgsUsage: "<address>",
			Action:    withRuntime(setTreasury),
		},
		{
			Name:   "reset-treasury",
			Usage:  "Unbind the treasury account",
			Action: withRuntime(resetTreasury),
		},
		{
			Name:      "open",
			Usage:     "Open a fixed deposit",
			ArgsUsage: "<amount> <maturity-blocks>",
			Flags:     signed,
			Action:    withRuntime(openDeposit),
		},
		{
			Name:      "close",
			Usage:     "Close a deposit, claiming matured or premature",
			ArgsUsage: "<id> <matured|premature>",
			Flags:     signed,
			Action:    withRuntime(closeDeposit),
		},
		{
			Name:      "deposit",
			Usage:     "Show a single deposit",
			ArgsUsage: "<address> <id>",
			Action:    withRuntime(showDeposit),
		},
		{
			Name:      "deposits",
			Usage:     "List the open deposits of a depositor",
			ArgsUsage: "<address>",
			Action:    withRuntime(listDeposits),
		},
		{
			Name:      "quote",
			Usage:     "Preview closing a deposit at the current height",
			ArgsUsage: "<address> <id>",
			Action:    withRuntime(quote),
		},
		{
			Name:      "lock",
			Usage:     "Lock free balance for DAO participation",
			ArgsUsage: "<amount>",
			Flags:     signed,
			Action:    withRuntime(lock),
		},
		{
			Name:   "unlock",
			Usage:  "Release the DAO lock",
			Flags:  signed,
			Action: withRuntime(unlock),
		},
		{
			Name:  "export-events",
			Usage: "Export indexed events to a parquet file",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "out", Usage: "Parquet output path", Value: "events.parquet"},
				cli.StringFlag{Name: "driver", Usage: "Indexer database driver (sqlite or postgres); defaults to the node config"},
				cli.StringFlag{Name: "dsn", Usage: "Indexer database DSN; defaults to the node config"},
				cli.StringFlag{Name: "account", Usage: "Only export events of this account"},
				cli.StringFlag{Name: "type", Usage: "Only export events of this type"},
				cli.Uint64Flag{Name: "from-height", Usage: "Only export events at or above this height"},
			},
			Action: exportEvents,
		},
		{
			Name:      "pause",
			Usage:     "Pause or resume a module",
			ArgsUsage: "<module>",
			Flags:     []cli.Flag{cli.BoolFlag{Name: "resume", Usage: "Clear the pause flag instead of setting it"}},
			Action:    withRuntime(pause),
		},
	}
}

func initChain(ctx *cli.Context, runtime *core.Runtime) error {
	if err := requireArgs(ctx, 1); err != nil {
		return err
	}
	genesis, err := config.LoadGenesis(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	if err := runtime.ApplyGenesis(genesis); err != nil {
		return err
	}
	h, err := runtime.Height()
	if err != nil {
		return err
	}
	return printJSON(ctx, map[string]interface{}{"height": h})
}

func keygen(ctx *cli.Context) error {
	out := strings.TrimSpace(ctx.String("out"))
	if out == "" {
		return fmt.Errorf("--out is required")
	}
	pass, err := passphrase.NewSource(passphraseEnv).WithPrompt("Enter new keystore passphrase: ").Get()
	if err != nil {
		return err
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return err
	}
	if err := crypto.SaveToKeystore(out, key, pass); err != nil {
		return err
	}
	return printJSON(ctx, map[string]string{
		"address":  key.PubKey().Address().String(),
		"keystore": out,
	})
}

func mint(ctx *cli.Context, runtime *core.Runtime) error {
	if err := requireArgs(ctx, 2); err != nil {
		return err
	}
	addr, err := addressArg(ctx, 0)
	if err != nil {
		return err
	}
	amount, err := amountArg(ctx, 1)
	if err != nil {
		return err
	}
	if err := runtime.Mint(addr, amount); err != nil {
		return err
	}
	return printBalance(ctx, runtime, addr)
}

func balance(ctx *cli.Context, runtime *core.Runtime) error {
	if err := requireArgs(ctx, 1); err != nil {
		return err
	}
	addr, err := addressArg(ctx, 0)
	if err != nil {
		return err
	}
	return printBalance(ctx, runtime, addr)
}

func printBalance(ctx *cli.Context, runtime *core.Runtime, addr crypto.Address) error {
	var view map[string]string
	err := runtime.View(func(call *core.Call) error {
		account, err := call.Ledger.Account(addr)
		if err != nil {
			return err
		}
		spendable, err := call.Ledger.Spendable(addr)
		if err != nil {
			return err
		}
		view = map[string]string{
			"address":   addr.String(),
			"free":      amountString(account.Free),
			"reserved":  amountString(account.Reserved),
			"spendable": amountString(spendable),
		}
		return nil
	})
	if err != nil {
		return err
	}
	return printJSON(ctx, view)
}

func height(ctx *cli.Context, runtime *core.Runtime) error {
	h, err := runtime.Height()
	if err != nil {
		return err
	}
	return printJSON(ctx, map[string]uint64{"height": h})
}

func advance(ctx *cli.Context, runtime *core.Runtime) error {
	if err := requireArgs(ctx, 1); err != nil {
		return err
	}
	n, err := uintArg(ctx, 0, "block count")
	if err != nil {
		return err
	}
	h, err := runtime.AdvanceBlocks(n)
	if err != nil {
		return err
	}
	return printJSON(ctx, map[string]uint64{"height": h})
}

func setParams(ctx *cli.Context, runtime *core.Runtime) error {
	interest, err := bank.ParsePermill(ctx.String("interest"))
	if err != nil {
		return fmt.Errorf("--interest: %w", err)
	}
	penalty, err := bank.ParsePermill(ctx.String("penalty"))
	if err != nil {
		return fmt.Errorf("--penalty: %w", err)
	}
	frequency := ctx.Uint64("frequency")
	if frequency > uint64(^uint32(0)) {
		return fmt.Errorf("--frequency %d out of range", frequency)
	}
	params := bank.Params{
		InterestRate:         interest,
		PenaltyRate:          penalty,
		CompoundingFrequency: uint32(frequency),
		EpochLength:          ctx.Uint64("epoch"),
	}
	err = runtime.Execute(func(call *core.Call) error {
		return call.Bank.SetParams(bank.RootOrigin(), params)
	})
	if err != nil {
		return err
	}
	return printJSON(ctx, params)
}

func setTreasury(ctx *cli.Context, runtime *core.Runtime) error {
	if err := requireArgs(ctx, 1); err != nil {
		return err
	}
	addr, err := addressArg(ctx, 0)
	if err != nil {
		return err
	}
	err = runtime.Execute(func(call *core.Call) error {
		return call.Bank.SetTreasury(bank.RootOrigin(), addr)
	})
	if err != nil {
		return err
	}
	return printJSON(ctx, map[string]string{"treasury": addr.String()})
}

func resetTreasury(ctx *cli.Context, runtime *core.Runtime) error {
	err := runtime.Execute(func(call *core.Call) error {
		return call.Bank.ResetTreasury(bank.RootOrigin())
	})
	if err != nil {
		return err
	}
	return printJSON(ctx, map[string]bool{"reset": true})
}

func openDeposit(ctx *cli.Context, runtime *core.Runtime) error {
	if err := requireArgs(ctx, 2); err != nil {
		return err
	}
	from, err := signer(ctx)
	if err != nil {
		return err
	}
	amount, err := amountArg(ctx, 0)
	if err != nil {
		return err
	}
	maturity, err := uintArg(ctx, 1, "maturity period")
	if err != nil {
		return err
	}
	var deposit *bank.Deposit
	err = runtime.Execute(func(call *core.Call) error {
		id, err := call.Bank.OpenDeposit(bank.Signed(from), amount, maturity)
		if err != nil {
			return err
		}
		deposit, err = call.Bank.Deposit(from, id)
		return err
	})
	if err != nil {
		return err
	}
	return printJSON(ctx, depositView(deposit))
}

func closeDeposit(ctx *cli.Context, runtime *core.Runtime) error {
	if err := requireArgs(ctx, 2); err != nil {
		return err
	}
	from, err := signer(ctx)
	if err != nil {
		return err
	}
	id, err := uintArg(ctx, 0, "deposit id")
	if err != nil {
		return err
	}
	matured, err := bank.ParseMaturityClaim(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	var settlement *bank.Settlement
	err = runtime.Execute(func(call *core.Call) error {
		var err error
		settlement, err = call.Bank.CloseDeposit(bank.Signed(from), id, matured)
		return err
	})
	if err != nil {
		return err
	}
	return printJSON(ctx, settlementView(settlement))
}

func depositArgs(ctx *cli.Context) (crypto.Address, uint64, error) {
	if err := requireArgs(ctx, 2); err != nil {
		return crypto.Address{}, 0, err
	}
	addr, err := addressArg(ctx, 0)
	if err != nil {
		return crypto.Address{}, 0, err
	}
	id, err := uintArg(ctx, 1, "deposit id")
	if err != nil {
		return crypto.Address{}, 0, err
	}
	return addr, id, nil
}

func showDeposit(ctx *cli.Context, runtime *core.Runtime) error {
	addr, id, err := depositArgs(ctx)
	if err != nil {
		return err
	}
	var deposit *bank.Deposit
	err = runtime.View(func(call *core.Call) error {
		var err error
		deposit, err = call.Bank.Deposit(addr, id)
		return err
	})
	if err != nil {
		return err
	}
	return printJSON(ctx, depositView(deposit))
}

func listDeposits(ctx *cli.Context, runtime *core.Runtime) error {
	if err := requireArgs(ctx, 1); err != nil {
		return err
	}
	addr, err := addressArg(ctx, 0)
	if err != nil {
		return err
	}
	var deposits []*bank.Deposit
	err = runtime.View(func(call *core.Call) error {
		var err error
		deposits, err = call.Bank.Deposits(addr)
		return err
	})
	if err != nil {
		return err
	}
	views := make([]map[string]interface{}, 0, len(deposits))
	for _, d := range deposits {
		views = append(views, depositView(d))
	}
	return printJSON(ctx, views)
}

func quote(ctx *cli.Context, runtime *core.Runtime) error {
	addr, id, err := depositArgs(ctx)
	if err != nil {
		return err
	}
	var settlement *bank.Settlement
	err = runtime.View(func(call *core.Call) error {
		var err error
		settlement, err = call.Bank.QuoteClose(addr, id)
		return err
	})
	if err != nil {
		return err
	}
	return printJSON(ctx, settlementView(settlement))
}

func lock(ctx *cli.Context, runtime *core.Runtime) error {
	if err := requireArgs(ctx, 1); err != nil {
		return err
	}
	from, err := signer(ctx)
	if err != nil {
		return err
	}
	amount, err := amountArg(ctx, 0)
	if err != nil {
		return err
	}
	err = runtime.Execute(func(call *core.Call) error {
		return call.Bank.LockForDAO(bank.Signed(from), amount)
	})
	if err != nil {
		return err
	}
	return printJSON(ctx, map[string]string{"user": from.String(), "locked": amount.String()})
}

func unlock(ctx *cli.Context, runtime *core.Runtime) error {
	from, err := signer(ctx)
	if err != nil {
		return err
	}
	err = runtime.Execute(func(call *core.Call) error {
		return call.Bank.UnlockDAO(bank.Signed(from))
	})
	if err != nil {
		return err
	}
	return printJSON(ctx, map[string]string{"user": from.String(), "locked": "0"})
}

func pause(ctx *cli.Context, runtime *core.Runtime) error {
	if err := requireArgs(ctx, 1); err != nil {
		return err
	}
	pauses, err := runtime.SetPaused(ctx.Args().Get(0), !ctx.Bool("resume"))
	if err != nil {
		return err
	}
	return printJSON(ctx, map[string][]string{"paused": pauses.Modules()})
}

func exportEvents(ctx *cli.Context) error {
	idx, err := openIndexer(ctx)
	if err != nil {
		return err
	}
	defer idx.Close()
	out := strings.TrimSpace(ctx.String("out"))
	n, err := idx.ExportParquet(context.Background(), out, indexer.Filter{
		Account:    ctx.String("account"),
		Type:       ctx.String("type"),
		FromHeight: ctx.Uint64("from-height"),
	})
	if err != nil {
		return err
	}
	return printJSON(ctx, map[string]interface{}{"out": out, "rows": n})
}

func depositView(d *bank.Deposit) map[string]interface{} {
	return map[string]interface{}{
		"depositor":      d.Depositor.String(),
		"id":             d.ID,
		"principal":      amountString(d.Principal),
		"openedAt":       d.OpenedAt,
		"maturityPeriod": d.MaturityPeriod,
		"maturesAt":      d.MaturesAt(),
	}
}

func settlementView(s *bank.Settlement) map[string]interface{} {
	return map[string]interface{}{
		"deposit":  depositView(s.Deposit),
		"matured":  s.Matured,
		"elapsed":  s.Elapsed,
		"interest": amountString(s.Interest),
		"penalty":  amountString(s.Penalty),
		"closedAt": s.ClosedAt,
	}
}
