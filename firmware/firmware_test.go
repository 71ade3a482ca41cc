package firmware_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rtfm/app/blink"
	"rtfm/core"
	"rtfm/firmware"
	"rtfm/sim"
)

func start(t *testing.T, opts firmware.Options) (*sim.Machine, *firmware.Firmware) {
	t.Helper()
	m := sim.NewMachine(4)
	fw, err := m.Init(opts)
	require.NoError(t, err)
	require.NoError(t, fw.App.Start())
	m.LED.ClearHistory()
	m.TxLED.ClearHistory()
	m.RxLED.ClearHistory()
	return m, fw
}

func blinkyOptions() firmware.Options {
	opts := firmware.DefaultOptions()
	opts.Program = firmware.Blinky
	return opts
}

func TestParseProgram(t *testing.T) {
	p, err := firmware.ParseProgram("blinky")
	require.NoError(t, err)
	require.Equal(t, firmware.Blinky, p)

	_, err = firmware.ParseProgram("doom")
	require.ErrorIs(t, err, firmware.ErrUnknownProgram)
	require.Equal(t, "serial", firmware.Serial.String())
}

func TestBlinkyFourPeriods(t *testing.T) {
	m, _ := start(t, blinkyOptions())
	blue, green, yellow := m.LED, m.TxLED, m.RxLED

	var lit [][3]bool
	for i := 0; i < 4; i++ {
		m.TickNow()
		lit = append(lit, [3]bool{blue.Lit(), green.Lit(), yellow.Lit()})
	}

	// Blue, Green, Yellow, Off.
	require.Equal(t, [][3]bool{
		{true, false, false},
		{false, false, false},
		{false, true, false},
		{false, true, true},
	}, lit)
}

func TestBlinkyIgnoresSpuriousInterrupt(t *testing.T) {
	m, _ := start(t, blinkyOptions())

	m.NVIC.Pend(firmware.SourceTC3)
	require.Zero(t, m.LED.Writes(), "no period elapsed, nothing to do")

	m.TickNow()
	require.True(t, m.LED.Lit())
}

func TestBlinkyStartsTimer(t *testing.T) {
	m := sim.NewMachine(4)
	opts := blinkyOptions()
	opts.TimerHz = 5
	_, err := m.Init(opts)
	require.NoError(t, err)
	require.Equal(t, uint32(5), m.Timer.Hz())
	require.True(t, m.Timer.InterruptEnabled())
}

func TestSerialSendsGreeting(t *testing.T) {
	m, _ := start(t, firmware.DefaultOptions())

	m.TickNow()

	require.Equal(t, "Hello World", string(m.UART.Transmitted()))
	require.Equal(t, []bool{false, true}, m.TxLED.History(), "ok indicator pulsed")
	require.Equal(t, []bool{true}, m.RxLED.History(), "error indicator stays inactive")
}

func TestSerialWriteFailsOnByteFive(t *testing.T) {
	m, _ := start(t, firmware.DefaultOptions())
	m.UART.Fault = sim.FailAt(5)

	m.TickNow()

	require.Equal(t, "Hello", string(m.UART.Transmitted()))
	require.Equal(t, 6, m.UART.Writes(), "no retry in the same period")
	require.Equal(t, []bool{false, true}, m.RxLED.History(), "error indicator pulsed")
	require.Equal(t, []bool{true}, m.TxLED.History())

	m.UART.Fault = nil
	m.TickNow()
	require.Equal(t, "HelloHello World", string(m.UART.Transmitted()))
}

func TestSerialReceiveTogglesLiveness(t *testing.T) {
	m, _ := start(t, firmware.DefaultOptions())

	m.ReceiveNow('x')
	m.ReceiveNow('y')

	require.Equal(t, []bool{true, false}, m.LED.History())
	require.Empty(t, m.TxLED.History(), "receive path leaves the tx indicators alone")
	require.Empty(t, m.RxLED.History())
	require.Empty(t, m.UART.Transmitted(), "echo is off by default")
	require.Zero(t, m.UART.Buffered())
}

func TestSerialEcho(t *testing.T) {
	opts := firmware.DefaultOptions()
	opts.Echo = true
	m, _ := start(t, opts)

	m.ReceiveNow('x')
	m.TickNow()

	require.Equal(t, "xHello World", string(m.UART.Transmitted()))
}

func TestSerialCeilings(t *testing.T) {
	_, fw := start(t, firmware.DefaultOptions())

	byName := map[string]core.CeilingReport{}
	for _, r := range fw.App.Report() {
		byName[r.Resource] = r
	}
	require.Equal(t, core.Priority(2), byName["UART"].Ceiling)
	require.Equal(t, []string{"TC3", "SERCOM0"}, byName["UART"].Users)
	require.Equal(t, core.Priority(2), byName["SESSION"].Ceiling)
	require.Equal(t, core.Priority(1), byName["RECEIVER"].Ceiling)
}

func TestInitRejectsBadConfiguration(t *testing.T) {
	m := sim.NewMachine(4)
	_, err := firmware.Init(m.NVIC, firmware.Peripherals{}, firmware.DefaultOptions())
	require.ErrorIs(t, err, firmware.ErrMissingPeripheral)

	opts := firmware.DefaultOptions()
	opts.TimerPriority = 5
	_, err = sim.NewMachine(4).Init(opts)
	require.ErrorIs(t, err, core.ErrPriorityRange)

	opts = firmware.DefaultOptions()
	opts.TimerHz = 0
	_, err = sim.NewMachine(4).Init(opts)
	require.ErrorIs(t, err, sim.ErrZeroRate)

	opts = firmware.DefaultOptions()
	opts.Baud = 0
	_, err = sim.NewMachine(4).Init(opts)
	require.ErrorIs(t, err, firmware.ErrBaudRate)

	opts = firmware.DefaultOptions()
	opts.Program = firmware.Program(9)
	_, err = sim.NewMachine(4).Init(opts)
	require.ErrorIs(t, err, firmware.ErrUnknownProgram)
}

func TestIdlePublishesSnapshots(t *testing.T) {
	m := sim.NewMachine(4)
	var published []firmware.Snapshot
	opts := firmware.DefaultOptions()
	opts.Publish = func(s firmware.Snapshot) { published = append(published, s) }
	fw, err := m.Init(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Run(ctx, fw, sim.RunOptions{Period: time.Millisecond, Ticks: 3}))

	snap := fw.Snapshot()
	require.Equal(t, uint32(3), snap.Tx.Periods)
	require.Equal(t, uint32(33), snap.Tx.Sent)
	require.True(t, snap.LastTx.TxOK)
	require.NotEmpty(t, published)
	require.Equal(t, snap, published[len(published)-1])
}

func TestBlinkyRunEndsInBlue(t *testing.T) {
	m := sim.NewMachine(4)
	fw, err := m.Init(blinkyOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Run(ctx, fw, sim.RunOptions{Period: time.Millisecond, Ticks: 5}))

	require.Equal(t, blink.Blue, fw.Snapshot().Mode)
	require.Equal(t, uint32(5), fw.App.Tasks().All()[0].Invocations())
}
