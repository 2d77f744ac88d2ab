package render

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type scriptedRenderer struct {
	calls      int
	failures   int
	failReason Reason
}

func (s *scriptedRenderer) Name() string {
	return "scripted"
}

func (s *scriptedRenderer) Render(ctx context.Context, req Request) (string, error) {
	s.calls++
	if s.calls <= s.failures {
		return "", &Error{
			URL:      req.URL,
			Reason:   s.failReason,
			Attempts: 1,
			Message:  "scripted failure",
		}
	}
	return "<html>ok</html>", nil
}

var fastBackoff = Backoff{MinSeconds: 0, MaxSeconds: 1}

func TestRetryEventuallySucceeds(t *testing.T) {
	inner := &scriptedRenderer{failures: 2, failReason: ReasonBackend}
	r := Retrying{Inner: inner, MaxAttempts: 3, Backoff: fastBackoff}

	html, err := r.Render(context.Background(), Request{URL: "https://example.com"})
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "<html>ok</html>", html)
	require.Equal(t, 3, inner.calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	inner := &scriptedRenderer{failures: 100, failReason: ReasonStatus}
	r := Retrying{Inner: inner, MaxAttempts: 3, Backoff: fastBackoff}

	_, err := r.Render(context.Background(), Request{URL: "https://example.com"})
	require.Error(t, err)

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	require.Equal(t, 3, rerr.Attempts)
	require.Equal(t, ReasonStatus, rerr.Reason)
	require.Equal(t, 3, inner.calls)
}

func TestRetryDoesNotRepeatChallenges(t *testing.T) {
	inner := &scriptedRenderer{failures: 100, failReason: ReasonChallenge}
	r := Retrying{Inner: inner, MaxAttempts: 5, Backoff: fastBackoff}

	_, err := r.Render(context.Background(), Request{URL: "https://example.com"})
	require.Error(t, err)

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	require.Equal(t, ReasonChallenge, rerr.Reason)
	require.Equal(t, 1, inner.calls)
}

func TestFallbackSwitchesBackends(t *testing.T) {
	primary := &scriptedRenderer{failures: 100, failReason: ReasonChallenge}
	secondary := &scriptedRenderer{}
	f := Fallback{Primary: primary, Secondary: secondary}

	html, err := f.Render(context.Background(), Request{URL: "https://example.com"})
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "<html>ok</html>", html)
	require.Equal(t, 1, primary.calls)
	require.Equal(t, 1, secondary.calls)
}

func TestBackoffExponential(t *testing.T) {
	b := Backoff{MinSeconds: 2, MaxSeconds: 30, Exponential: true}
	require.Equal(t, "2s", b.Delay(1).String())
	require.Equal(t, "4s", b.Delay(2).String())
	require.Equal(t, "8s", b.Delay(3).String())
	require.Equal(t, "30s", b.Delay(5).String())
}

func TestBackoffUniformWindow(t *testing.T) {
	b := Backoff{MinSeconds: 3, MaxSeconds: 5}
	for i := 0; i < 50; i++ {
		d := b.Delay(1).Seconds()
		require.GreaterOrEqual(t, d, 3.0)
		require.LessOrEqual(t, d, 5.0)
	}
}
