package core

import (
	"strings"
	"testing"
)

func TestTraceRingKeepsNewestEvents(t *testing.T) {
	ClearTrace()
	defer ClearTrace()

	for i := 0; i < TraceRingSize+5; i++ {
		RecordEvent(EvtPend, Source(i%MaxSources), 1, uint32(i))
	}

	events := Trace()
	if len(events) != TraceRingSize {
		t.Fatalf("Expected %d events, got %d", TraceRingSize, len(events))
	}
	if events[0].Value != 5 || events[len(events)-1].Value != TraceRingSize+4 {
		t.Errorf("Expected oldest 5 and newest %d, got %d and %d",
			TraceRingSize+4, events[0].Value, events[len(events)-1].Value)
	}
	if TraceCount() != TraceRingSize+5 {
		t.Errorf("Expected count %d, got %d", TraceRingSize+5, TraceCount())
	}
}

func TestTraceRecordsDispatch(t *testing.T) {
	ClearTrace()
	defer ClearTrace()
	SetTime(1234)
	defer SetTime(0)

	ctl := NewSoftNVIC(4)
	app, err := Initialize(ctl, func(a *App) error {
		r := NewResource(a, "LED", 2, 0)
		task := a.Task("blink", 3, 1)
		h := Use(task, r)
		task.Bind(func(th *Threshold) {
			_ = h.Lock(th, func(v *int) { *v++ })
		})
		return nil
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	app.Start()
	ctl.Pend(3)

	var kinds []uint8
	for _, evt := range Trace() {
		kinds = append(kinds, evt.Kind)
		if evt.Clock != 1234 {
			t.Errorf("Expected clock 1234, got %d", evt.Clock)
		}
	}
	want := []uint8{EvtPend, EvtTaskEnter, EvtClaim, EvtRelease, EvtTaskExit}
	if len(kinds) != len(want) {
		t.Fatalf("Expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, EventName(want[i]), EventName(kinds[i]))
		}
	}
}

func TestDumpTrace(t *testing.T) {
	ClearTrace()
	defer ClearTrace()

	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(nil)

	RecordEvent(EvtTaskEnter, NoSource, IdlePriority, 1)
	DumpTrace()

	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[2], "ENTER src=idle") {
		t.Errorf("Unexpected dump line %q", lines[2])
	}
}

func TestDebugPrintlnHonoursEnable(t *testing.T) {
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(nil)

	DebugPrintln("hidden")
	SetDebugEnabled(true)
	DebugPrintln("shown")
	SetDebugEnabled(false)

	if len(lines) != 1 || lines[0] != "shown" {
		t.Errorf("Expected only the enabled line, got %v", lines)
	}
}

func TestPeriodTicks(t *testing.T) {
	cases := []struct {
		clock, hz, want uint32
	}{
		{48000000, 1, 48000000},
		{46875, 1, 46875},
		{1000, 3, 333},
		{1000, 0, 0},
	}
	for _, tc := range cases {
		if got := PeriodTicks(tc.clock, tc.hz); got != tc.want {
			t.Errorf("PeriodTicks(%d, %d) = %d, want %d", tc.clock, tc.hz, got, tc.want)
		}
	}
}
