package observability

import (
	"math/big"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"fdchain/core/events"
	"fdchain/crypto"
	"fdchain/native/bank"
)

func testDeposit() *bank.Deposit {
	var raw [20]byte
	raw[19] = 1
	return &bank.Deposit{
		Depositor:      crypto.MustNewAddress(raw),
		ID:             1,
		Principal:      big.NewInt(100),
		OpenedAt:       1,
		MaturityPeriod: bank.BlocksPerYear,
	}
}

func TestBankMetricsTrackDeposits(t *testing.T) {
	m := NewBankMetrics(prometheus.NewRegistry())
	deposit := testDeposit()

	m.Emit(events.Typed{Evt: bank.NewDepositOpenedEvent(deposit)})
	require.Equal(t, float64(1), testutil.ToFloat64(m.opened))
	require.Equal(t, float64(100), testutil.ToFloat64(m.principal))

	m.Emit(events.Typed{Evt: bank.NewDepositClosedEvent(&bank.Settlement{
		Deposit:  deposit,
		Matured:  true,
		Interest: big.NewInt(8),
		Penalty:  big.NewInt(0),
		ClosedAt: bank.BlocksPerYear + 1,
	})})
	require.Equal(t, float64(1), testutil.ToFloat64(m.closed.WithLabelValues("matured")))
	require.Equal(t, float64(0), testutil.ToFloat64(m.principal))
	require.Equal(t, float64(8), testutil.ToFloat64(m.interest))
	require.Equal(t, float64(0), testutil.ToFloat64(m.penalties))
	require.Equal(t, float64(bank.BlocksPerYear+1), testutil.ToFloat64(m.height))
	require.Equal(t, float64(1), testutil.ToFloat64(m.events.WithLabelValues(bank.EventTypeDepositClosed)))
}

func TestBankMetricsTrackLocksAndFailures(t *testing.T) {
	m := NewBankMetrics(prometheus.NewRegistry())
	user := testDeposit().Depositor

	m.Emit(events.Typed{Evt: bank.NewDAOLockedEvent(user, big.NewInt(50), 3)})
	m.Emit(events.Typed{Evt: bank.NewDAOUnlockedEvent(user, big.NewInt(50), 4)})
	m.Emit(nil)
	m.Emit(events.Typed{})
	require.Equal(t, float64(1), testutil.ToFloat64(m.daoActions.WithLabelValues("lock")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.daoActions.WithLabelValues("unlock")))

	m.RecordFailure("open", bank.ErrAmountBelowMinimum)
	m.RecordFailure("open", nil)
	require.Equal(t, float64(1), testutil.ToFloat64(m.failures.WithLabelValues("open", "validation")))
}

func TestChainMetrics(t *testing.T) {
	m := NewChainMetrics(prometheus.NewRegistry())
	m.SetHeight(42)
	m.RecordProduceError()
	require.Equal(t, float64(42), testutil.ToFloat64(m.height))
	require.Equal(t, float64(1), testutil.ToFloat64(m.produceErrors))

	var nilMetrics *ChainMetrics
	nilMetrics.SetHeight(1)
}
