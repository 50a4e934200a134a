// Package passcode issues and verifies one-time numeric codes for phone
// sign-in.
package passcode

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNoPasscode      = errors.New("passcode: no code was sent to this number")
	ErrInvalidCode     = errors.New("passcode: code does not match")
	ErrExpired         = errors.New("passcode: code has expired")
	ErrTooManyAttempts = errors.New("passcode: too many attempts")
)

// CooldownError is returned by Send when a code was sent too recently.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("passcode: wait %s before requesting another code", e.Remaining.Round(time.Second))
}

// Sender delivers a code to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, code string) error
}

// LogSender writes codes to the log instead of sending an SMS.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) Send(_ context.Context, phone, code string) error {
	s.Logger.Info("passcode issued", zap.String("phone", phone), zap.String("code", code))
	return nil
}

// Config tunes an Issuer.
type Config struct {
	Length      int           // digits per code (default 6)
	Cooldown    time.Duration // minimum gap between sends (default 60s)
	TTL         time.Duration // code lifetime (default 5m)
	MaxAttempts int           // wrong guesses before the code is burned (default 5)
}

func (c *Config) setDefaults() {
	if c.Length <= 0 {
		c.Length = 6
	}
	if c.Cooldown <= 0 {
		c.Cooldown = time.Minute
	}
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
}

// Ticket describes a code that was just sent.
type Ticket struct {
	Phone     string
	ExpiresAt time.Time
	ResendAt  time.Time
}

type entry struct {
	code     string
	sentAt   time.Time
	expires  time.Time
	attempts int
}

// Issuer tracks outstanding codes in memory.
type Issuer struct {
	mu      sync.Mutex
	cfg     Config
	sender  Sender
	now     func() time.Time
	pending map[string]*entry
}

// NewIssuer returns an Issuer delivering codes through sender.
func NewIssuer(cfg Config, sender Sender) *Issuer {
	cfg.setDefaults()
	return &Issuer{
		cfg:     cfg,
		sender:  sender,
		now:     time.Now,
		pending: make(map[string]*entry),
	}
}

// WithClock replaces the time source; used by tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// NormalizePhone strips spaces, dashes, dots and parentheses.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')', '\t':
			return -1
		}
		return r
	}, phone)
}

// Send issues a fresh code for phone unless the cooldown is still running.
func (i *Issuer) Send(ctx context.Context, phone string) (Ticket, error) {
	phone = NormalizePhone(phone)
	now := i.now()

	i.mu.Lock()
	i.prune(now)
	if e, ok := i.pending[phone]; ok {
		if wait := e.sentAt.Add(i.cfg.Cooldown).Sub(now); wait > 0 {
			i.mu.Unlock()
			return Ticket{}, &CooldownError{Remaining: wait}
		}
	}
	code, err := generate(i.cfg.Length)
	if err != nil {
		i.mu.Unlock()
		return Ticket{}, err
	}
	e := &entry{code: code, sentAt: now, expires: now.Add(i.cfg.TTL)}
	i.pending[phone] = e
	i.mu.Unlock()

	if err := i.sender.Send(ctx, phone, code); err != nil {
		i.mu.Lock()
		if i.pending[phone] == e {
			delete(i.pending, phone)
		}
		i.mu.Unlock()
		return Ticket{}, fmt.Errorf("deliver passcode: %w", err)
	}
	return Ticket{Phone: phone, ExpiresAt: e.expires, ResendAt: now.Add(i.cfg.Cooldown)}, nil
}

// Verify checks code for phone. A matching code is consumed.
func (i *Issuer) Verify(phone, code string) error {
	phone = NormalizePhone(phone)
	code = strings.TrimSpace(code)
	now := i.now()

	i.mu.Lock()
	defer i.mu.Unlock()

	e, ok := i.pending[phone]
	if !ok {
		return ErrNoPasscode
	}
	if !now.Before(e.expires) {
		delete(i.pending, phone)
		return ErrExpired
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(e.code)) != 1 {
		e.attempts++
		if e.attempts >= i.cfg.MaxAttempts {
			delete(i.pending, phone)
			return ErrTooManyAttempts
		}
		return ErrInvalidCode
	}
	delete(i.pending, phone)
	return nil
}

// Remaining returns how long until another code may be sent to phone.
func (i *Issuer) Remaining(phone string) time.Duration {
	phone = NormalizePhone(phone)
	now := i.now()

	i.mu.Lock()
	defer i.mu.Unlock()

	e, ok := i.pending[phone]
	if !ok {
		return 0
	}
	if wait := e.sentAt.Add(i.cfg.Cooldown).Sub(now); wait > 0 {
		return wait
	}
	return 0
}

// prune drops expired codes whose cooldown has also passed. Caller holds mu.
func (i *Issuer) prune(now time.Time) {
	for phone, e := range i.pending {
		if !now.Before(e.expires) && !now.Before(e.sentAt.Add(i.cfg.Cooldown)) {
			delete(i.pending, phone)
		}
	}
}

func generate(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	ten := big.NewInt(10)
	for range n {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate passcode: %w", err)
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}
