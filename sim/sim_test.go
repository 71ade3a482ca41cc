package sim

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rtfm/core"
	"rtfm/firmware"
)

func TestPinRecordsLevels(t *testing.T) {
	p := NewPin("D13", true)
	var seen []bool
	p.OnChange = func(name string, high bool) {
		require.Equal(t, "D13", name)
		seen = append(seen, high)
	}

	p.Low()
	require.True(t, p.Lit())
	p.Toggle()
	p.Set(false)

	require.Equal(t, []bool{false, true, false}, p.History())
	require.Equal(t, seen, p.History())
	require.False(t, p.Get())

	p.ClearHistory()
	require.Zero(t, p.Writes())
}

func TestTimerAcknowledge(t *testing.T) {
	var tm Timer
	require.ErrorIs(t, tm.Start(0), ErrZeroRate)

	tm.Expire()
	require.ErrorIs(t, tm.Wait(), core.ErrNotReady, "stopped timer never expires")

	require.NoError(t, tm.Start(1))
	tm.Expire()
	tm.Expire()
	require.NoError(t, tm.Wait())
	require.ErrorIs(t, tm.Wait(), core.ErrNotReady)
	require.Equal(t, uint32(1), tm.Overruns())
}

func TestUARTFaultsAndFIFO(t *testing.T) {
	u := NewUART()
	u.Fault = FailEvery(3)
	var wire []byte
	u.OnTransmit = func(b byte) { wire = append(wire, b) }

	n, err := u.Write([]byte("abcd"))
	require.ErrorIs(t, err, ErrInjected)
	require.Equal(t, 2, n)
	require.Equal(t, "ab", string(u.Transmitted()))
	require.Equal(t, wire, u.Transmitted())

	u.Inject([]byte(strings.Repeat("z", RxCapacity+2))...)
	require.Equal(t, RxCapacity, u.Buffered())
	require.Equal(t, 2, u.Dropped())

	buf := make([]byte, 8)
	n, err = u.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 8, n)
	require.Equal(t, RxCapacity-8, u.Buffered())
}

func TestFailAt(t *testing.T) {
	f := FailAt(0, 4)
	require.True(t, f(0))
	require.False(t, f(1))
	require.True(t, f(4))
}

func TestMachineRunFeedsInput(t *testing.T) {
	m := NewMachine(4)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := firmware.DefaultOptions()
	opts.Echo = true
	opts.Publish = func(s firmware.Snapshot) {
		if s.Rx.Received == 3 {
			cancel()
		}
	}
	fw, err := m.Init(opts)
	require.NoError(t, err)

	err = m.Run(ctx, fw, RunOptions{Period: time.Hour, Input: strings.NewReader("abc")})
	require.NoError(t, err)

	require.Equal(t, uint32(3), fw.Snapshot().Rx.Received)
	require.Equal(t, "abc", string(m.UART.Transmitted()))
	require.Equal(t, byte('c'), fw.Snapshot().Rx.Last)
}

func TestMachineRunNeedsRate(t *testing.T) {
	m := NewMachine(4)
	err := m.Run(context.Background(), nil, RunOptions{})
	require.ErrorIs(t, err, ErrZeroRate)
}
