package main

import (
	"bytes"
	"encoding/json"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"fdchain/core/events"
	"fdchain/crypto"
	"fdchain/services/indexer"
)

func testAddress(last byte) crypto.Address {
	var raw [crypto.AddressLength]byte
	raw[19] = last
	return crypto.MustNewAddress(raw)
}

type harness struct {
	dataDir string
	out     bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	return &harness{dataDir: t.TempDir()}
}

func (h *harness) run(args ...string) error {
	h.out.Reset()
	app := newApp()
	app.Writer = &h.out
	return app.Run(append([]string{"fdctl", "--datadir", h.dataDir}, args...))
}

func (h *harness) mustRun(t *testing.T, dst interface{}, args ...string) {
	t.Helper()
	require.NoError(t, h.run(args...))
	if dst != nil {
		require.NoError(t, json.Unmarshal(h.out.Bytes(), dst))
	}
}

func TestDepositLifecycleFromCLI(t *testing.T) {
	h := newHarness(t)
	alice := testAddress(0x01).String()
	treasury := testAddress(0xEE).String()

	var bal map[string]string
	h.mustRun(t, &bal, "mint", alice, "10000")
	require.Equal(t, "10000", bal["free"])
	h.mustRun(t, nil, "mint", treasury, "100000")
	h.mustRun(t, nil, "set-treasury", treasury)
	h.mustRun(t, nil, "set-params", "--interest", "10%", "--penalty", "1%", "--frequency", "1", "--epoch", "100")

	var opened map[string]interface{}
	h.mustRun(t, &opened, "open", "--from", alice, "1000", "100")
	require.EqualValues(t, 1, opened["id"])
	require.Equal(t, "1000", opened["principal"])

	h.mustRun(t, &bal, "balance", alice)
	require.Equal(t, "9000", bal["free"])
	require.Equal(t, "1000", bal["reserved"])

	var list []map[string]interface{}
	h.mustRun(t, &list, "deposits", alice)
	require.Len(t, list, 1)

	var quoted map[string]interface{}
	h.mustRun(t, &quoted, "quote", alice, "1")
	require.Equal(t, false, quoted["matured"])
	require.Equal(t, "10", quoted["penalty"])

	var height map[string]uint64
	h.mustRun(t, &height, "advance", "100")
	require.Equal(t, uint64(100), height["height"])

	var closed map[string]interface{}
	h.mustRun(t, &closed, "close", "--from", alice, "1", "matured")
	require.Equal(t, true, closed["matured"])
	interest, ok := new(big.Int).SetString(closed["interest"].(string), 10)
	require.True(t, ok)
	require.Positive(t, interest.Sign())

	h.mustRun(t, &bal, "balance", alice)
	require.Equal(t, new(big.Int).Add(big.NewInt(10000), interest).String(), bal["free"])
	require.Equal(t, "0", bal["reserved"])

	require.Error(t, h.run("deposit", alice, "1"))
}

func TestCLIRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	alice := testAddress(0x01).String()

	require.ErrorContains(t, h.run("open", "1000", "100"), "--from or --keystore is required")
	require.Error(t, h.run("mint", alice))
	require.Error(t, h.run("mint", "not-an-address", "5"))
	require.Error(t, h.run("advance", "0"))
	require.Error(t, h.run("close", "--from", alice, "1", "bogus"))
}

func TestPauseCommand(t *testing.T) {
	h := newHarness(t)

	var out map[string][]string
	h.mustRun(t, &out, "pause", "bank")
	require.Equal(t, []string{"bank"}, out["paused"])
	h.mustRun(t, &out, "pause", "--resume", "bank")
	require.Empty(t, out["paused"])
}

func TestExportEventsCommand(t *testing.T) {
	h := newHarness(t)
	dsn := filepath.Join(h.dataDir, "events.db")
	db, err := indexer.Open("sqlite", dsn)
	require.NoError(t, err)
	idx, err := indexer.New(db, nil)
	require.NoError(t, err)
	idx.Emit(events.BlockAdvanced{Height: 1})
	idx.Emit(events.BlockAdvanced{Height: 2})
	require.NoError(t, idx.Close())

	var out map[string]interface{}
	path := filepath.Join(h.dataDir, "out.parquet")
	h.mustRun(t, &out, "export-events", "--driver", "sqlite", "--dsn", dsn, "--out", path, "--from-height", "2")
	require.EqualValues(t, 1, out["rows"])
	require.Equal(t, path, out["out"])
}
