package passcode

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type captureSender struct {
	mu    sync.Mutex
	codes map[string]string
	fail  error
}

func (s *captureSender) Send(_ context.Context, phone, code string) error {
	if s.fail != nil {
		return s.fail
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes == nil {
		s.codes = make(map[string]string)
	}
	s.codes[phone] = code
	return nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestIssuer() (*Issuer, *captureSender, *fakeClock) {
	s := &captureSender{}
	clk := &fakeClock{t: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	return NewIssuer(Config{}, s).WithClock(clk.Now), s, clk
}

func TestSendAndVerify(t *testing.T) {
	iss, sender, _ := newTestIssuer()
	ticket, err := iss.Send(context.Background(), "+1 (555) 010-0000")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if ticket.Phone != "+15550100000" {
		t.Errorf("ticket phone = %q", ticket.Phone)
	}
	code := sender.codes["+15550100000"]
	if len(code) != 6 {
		t.Fatalf("code %q should have 6 digits", code)
	}
	if err := iss.Verify("+1 555 010 0000", code); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if err := iss.Verify("+15550100000", code); !errors.Is(err, ErrNoPasscode) {
		t.Errorf("second Verify = %v, want ErrNoPasscode", err)
	}
}

func TestSendCooldown(t *testing.T) {
	iss, _, clk := newTestIssuer()
	if _, err := iss.Send(context.Background(), "555"); err != nil {
		t.Fatal(err)
	}
	clk.Advance(20 * time.Second)

	_, err := iss.Send(context.Background(), "555")
	var cd *CooldownError
	if !errors.As(err, &cd) {
		t.Fatalf("expected CooldownError, got %v", err)
	}
	if cd.Remaining != 40*time.Second {
		t.Errorf("remaining = %s, want 40s", cd.Remaining)
	}
	if got := iss.Remaining("555"); got != 40*time.Second {
		t.Errorf("Remaining = %s, want 40s", got)
	}

	clk.Advance(40 * time.Second)
	if iss.Remaining("555") != 0 {
		t.Error("countdown should be finished")
	}
	if _, err := iss.Send(context.Background(), "555"); err != nil {
		t.Errorf("send after cooldown: %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	iss, sender, clk := newTestIssuer()
	if _, err := iss.Send(context.Background(), "555"); err != nil {
		t.Fatal(err)
	}
	clk.Advance(5 * time.Minute)
	if err := iss.Verify("555", sender.codes["555"]); !errors.Is(err, ErrExpired) {
		t.Errorf("Verify = %v, want ErrExpired", err)
	}
}

func TestVerifyTooManyAttempts(t *testing.T) {
	s := &captureSender{}
	iss := NewIssuer(Config{MaxAttempts: 2}, s)
	if _, err := iss.Send(context.Background(), "555"); err != nil {
		t.Fatal(err)
	}
	wrong := "x" + s.codes["555"]
	if err := iss.Verify("555", wrong); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("first wrong guess = %v, want ErrInvalidCode", err)
	}
	if err := iss.Verify("555", wrong); !errors.Is(err, ErrTooManyAttempts) {
		t.Errorf("second wrong guess = %v, want ErrTooManyAttempts", err)
	}
	if err := iss.Verify("555", s.codes["555"]); !errors.Is(err, ErrNoPasscode) {
		t.Errorf("code should be burned, got %v", err)
	}
}

func TestSendDeliveryFailureClearsCode(t *testing.T) {
	boom := errors.New("sms gateway down")
	iss := NewIssuer(Config{}, &captureSender{fail: boom})
	if _, err := iss.Send(context.Background(), "555"); !errors.Is(err, boom) {
		t.Fatalf("Send = %v, want wrapped gateway error", err)
	}
	if iss.Remaining("555") != 0 {
		t.Error("failed delivery should not start a countdown")
	}
}

func TestLogSender(t *testing.T) {
	if err := (LogSender{Logger: zap.NewNop()}).Send(context.Background(), "555", "123456"); err != nil {
		t.Errorf("LogSender.Send: %v", err)
	}
}
