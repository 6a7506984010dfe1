package utils

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestCronLoggerPassesMessagesThrough(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	cl := CronLogger{Logger: NewLoggerFrom(base)}

	for _, msg := range []string{"start", "skip", "wake"} {
		hook.Reset()
		cl.Info(msg, "entry", 1)

		e := hook.LastEntry()
		if e == nil {
			t.Fatalf("%s: nothing logged", msg)
		}
		if e.Level != logrus.DebugLevel {
			t.Errorf("%s: level %v, want debug", msg, e.Level)
		}
		if e.Message != "[cron] "+msg {
			t.Errorf("%s: message %q", msg, e.Message)
		}
		if e.Data["entry"] != 1 {
			t.Errorf("%s: fields %v", msg, e.Data)
		}
	}
}

func TestCronLoggerError(t *testing.T) {
	base, hook := test.NewNullLogger()
	cl := CronLogger{Logger: NewLoggerFrom(base)}

	cl.Error(errors.New("boom"), "panic", "stack", "...")

	e := hook.LastEntry()
	if e == nil || e.Level != logrus.ErrorLevel {
		t.Fatalf("expected an error entry, got %v", e)
	}
	if e.Data["error"] != "boom" || e.Data["stack"] != "..." {
		t.Errorf("fields: got %v", e.Data)
	}
}
