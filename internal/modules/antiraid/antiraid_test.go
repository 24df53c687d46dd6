package antiraid

import (
	"testing"
	"time"
)

func TestRecordJoinSurge(t *testing.T) {
	now := time.Unix(1700000000, 0)
	engine := New(3, 10*time.Second).WithNow(func() time.Time { return now })

	if _, surge := engine.RecordJoin(); surge {
		t.Fatalf("first join should not surge")
	}
	now = now.Add(time.Second)
	if _, surge := engine.RecordJoin(); surge {
		t.Fatalf("second join should not surge")
	}
	now = now.Add(time.Second)
	count, surge := engine.RecordJoin()
	if !surge {
		t.Fatalf("third join within window should surge (count=%d)", count)
	}
}

func TestRecordJoinWindowExpiry(t *testing.T) {
	now := time.Unix(1700000000, 0)
	engine := New(3, 10*time.Second).WithNow(func() time.Time { return now })

	engine.RecordJoin()
	engine.RecordJoin()
	now = now.Add(11 * time.Second)
	if _, surge := engine.RecordJoin(); surge {
		t.Fatalf("joins outside window should not count toward surge")
	}
	if rate := engine.JoinRate(); rate != 1 {
		t.Fatalf("expected 1 join in window, got %d", rate)
	}
}

func TestTooYoung(t *testing.T) {
	now := time.Unix(1700000000, 0)
	engine := New(3, 10*time.Second).WithNow(func() time.Time { return now })

	young := now.Add(-2 * 24 * time.Hour)
	old := now.Add(-30 * 24 * time.Hour)

	if !engine.TooYoung(young, 7) {
		t.Fatalf("2 day old account should be too young for a 7 day gate")
	}
	if engine.TooYoung(old, 7) {
		t.Fatalf("30 day old account should pass a 7 day gate")
	}
	if engine.TooYoung(young, 0) {
		t.Fatalf("gate disabled with zero minimum age")
	}
}
