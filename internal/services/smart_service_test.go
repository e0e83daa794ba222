package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"housetab/internal/cache"
	"housetab/internal/core"
	"housetab/internal/smart"
)

type fakeParser struct {
	mu      sync.Mutex
	calls   int
	result  core.ParseResult
	err     error
	release chan struct{} // when set, Parse blocks until closed
}

func (p *fakeParser) Parse(_ context.Context, _ string) (core.ParseResult, error) {
	p.mu.Lock()
	p.calls++
	release := p.release
	p.mu.Unlock()
	if release != nil {
		<-release
	}
	if p.err != nil {
		return core.ParseResult{}, p.err
	}
	return p.result, nil
}

func (p *fakeParser) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func validResult() core.ParseResult {
	return core.ParseResult{
		Item:   "晚餐",
		Amount: 300,
		Date:   "2024-01-15",
		Payer:  "SELF",
		Kind:   "DEBT",
	}
}

func TestParseSuccess(t *testing.T) {
	svc := NewSmartService(&fakeParser{result: validResult()}, nil)

	draft, err := svc.Parse(context.Background(), "昨天晚餐我付了300")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if draft.Item != "晚餐" || draft.Amount.Cents != 30000 {
		t.Fatalf("draft = %+v", draft)
	}
	if draft.Payer != core.PayerSelf || draft.Kind != core.KindDebt {
		t.Fatalf("draft enums = %+v", draft)
	}
	if svc.Busy() {
		t.Fatalf("busy flag stuck after completion")
	}
}

func TestParseEmptyInput(t *testing.T) {
	parser := &fakeParser{result: validResult()}
	svc := NewSmartService(parser, nil)

	if _, err := svc.Parse(context.Background(), "   "); !errors.Is(err, smart.ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable, got %v", err)
	}
	if parser.callCount() != 0 {
		t.Fatalf("blank input must not reach the parser")
	}
}

func TestParseFailureClearsBusy(t *testing.T) {
	parser := &fakeParser{err: errors.New("model timeout")}
	svc := NewSmartService(parser, nil)

	if _, err := svc.Parse(context.Background(), "something"); err == nil {
		t.Fatalf("expected error")
	}
	if svc.Busy() {
		t.Fatalf("busy flag stuck after failure")
	}
	// The gate is re-armable.
	parser.err = nil
	parser.result = validResult()
	if _, err := svc.Parse(context.Background(), "something"); err != nil {
		t.Fatalf("parse after failure: %v", err)
	}
}

func TestParseRejectsUnnormalizableResult(t *testing.T) {
	res := validResult()
	res.Amount = -5
	svc := NewSmartService(&fakeParser{result: res}, nil)

	if _, err := svc.Parse(context.Background(), "x"); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestParseBusyGate(t *testing.T) {
	release := make(chan struct{})
	parser := &fakeParser{result: validResult(), release: release}
	svc := NewSmartService(parser, nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Parse(context.Background(), "first")
		done <- err
	}()

	// Wait for the first call to take the gate.
	deadline := time.After(2 * time.Second)
	for !svc.Busy() {
		select {
		case <-deadline:
			t.Fatalf("first parse never became busy")
		case <-time.After(time.Millisecond):
		}
	}

	if _, err := svc.Parse(context.Background(), "second"); !errors.Is(err, ErrParseBusy) {
		t.Fatalf("expected ErrParseBusy, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first parse: %v", err)
	}
	if parser.callCount() != 1 {
		t.Fatalf("rejected call must not reach the parser, calls = %d", parser.callCount())
	}
}

func TestParseCacheReuse(t *testing.T) {
	parser := &fakeParser{result: validResult()}
	drafts := cache.NewLRUCache[core.Draft](16, time.Minute)
	svc := NewSmartService(parser, drafts)

	ctx := context.Background()
	first, err := svc.Parse(ctx, "晚餐 300")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	second, err := svc.Parse(ctx, "  晚餐 300  ")
	if err != nil {
		t.Fatalf("cached parse: %v", err)
	}
	if first != second {
		t.Fatalf("cache returned a different draft: %+v vs %+v", first, second)
	}
	if parser.callCount() != 1 {
		t.Fatalf("cache hit still called the parser, calls = %d", parser.callCount())
	}
}
