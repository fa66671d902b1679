package telemetry

import (
	"testing"
)

func noopProps() Properties { return Properties{} }

func TestNew_Enabled(t *testing.T) {
	t.Setenv("KUROUKAI_TELEMETRY", "")

	tracker := New(noopProps)
	if tracker == nil {
		t.Fatal("expected a tracker when telemetry is not disabled")
	}
	if tracker.instanceID == "" {
		t.Error("expected a generated instance ID")
	}
}

func TestNew_DisabledViaEnv(t *testing.T) {
	for _, val := range []string{"0", "false", "False", "FALSE", "off", "Off", "no", "NO"} {
		t.Run(val, func(t *testing.T) {
			t.Setenv("KUROUKAI_TELEMETRY", val)
			if tracker := New(noopProps); tracker != nil {
				t.Fatalf("expected nil tracker when KUROUKAI_TELEMETRY=%s", val)
			}
		})
	}
}

func TestNilTrackerIsSafe(t *testing.T) {
	var tracker *Tracker
	tracker.Start()
	tracker.Shutdown()
}

func TestFreshInstanceIDPerProcess(t *testing.T) {
	t.Setenv("KUROUKAI_TELEMETRY", "")

	a := New(noopProps)
	b := New(noopProps)
	if a.instanceID == b.instanceID {
		t.Error("expected distinct instance IDs per tracker")
	}
}
