package transcription_test

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/provider"
	"github.com/kbukum/scribe/resilience"
	"github.com/kbukum/scribe/transcription"
)

type fakeProvider struct {
	calls int
	err   error
}

func (f *fakeProvider) Name() string                     { return "fake" }
func (f *fakeProvider) IsAvailable(context.Context) bool { return true }
func (f *fakeProvider) Transcribe(_ context.Context, req transcription.Request) (*transcription.Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &transcription.Response{
		Segments: []transcription.Segment{{Start: 0, End: 1, Text: req.AudioPath}},
	}, nil
}

func TestDecoratePassesThrough(t *testing.T) {
	fake := &fakeProvider{}
	p := transcription.Decorate(fake, provider.ResilienceConfig{}, logger.NewNop())

	if p.Name() != "fake" {
		t.Errorf("Name() = %q", p.Name())
	}
	resp, err := p.Transcribe(context.Background(), transcription.Request{AudioPath: "a.wav"})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if len(resp.Segments) != 1 || resp.Segments[0].Text != "a.wav" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestDecorateOpensCircuit(t *testing.T) {
	fake := &fakeProvider{err: errors.New("connection refused")}
	cb := resilience.CircuitBreakerConfig{Name: "whisper", MaxFailures: 2, Timeout: time.Minute, HalfOpenMaxCalls: 1}
	p := transcription.Decorate(fake, provider.ResilienceConfig{CircuitBreaker: &cb}, logger.NewNop())

	for i := 0; i < 2; i++ {
		if _, err := p.Transcribe(context.Background(), transcription.Request{}); err == nil {
			t.Fatalf("call %d: expected backend error", i)
		}
	}

	_, err := p.Transcribe(context.Background(), transcription.Request{})
	if apperrors.CodeOf(err) != apperrors.ErrCodeServiceUnavailable {
		t.Fatalf("expected SERVICE_UNAVAILABLE once the circuit opens, got %v", err)
	}
	if fake.calls != 2 {
		t.Errorf("backend called %d times, want 2", fake.calls)
	}
}
