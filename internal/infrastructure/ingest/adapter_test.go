package ingest

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	tokens []string
	err    error
}

func (s *recordingSink) OnIdentification(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, token)
	return s.err
}

func (s *recordingSink) got() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tokens...)
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestAdapter(sink Sink, window time.Duration) (*Adapter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	a := NewAdapter(sink, window, zerolog.Nop())
	a.now = clock.now
	return a, clock
}

func TestHandle_Rebote(t *testing.T) {
	sink := &recordingSink{}
	a, clock := newTestAdapter(sink, 500*time.Millisecond)

	require.NoError(t, a.Handle("1112223334\n"))
	clock.advance(200 * time.Millisecond)
	require.NoError(t, a.Handle("1112223334"))
	// cada lectura renueva la ventana
	clock.advance(400 * time.Millisecond)
	require.NoError(t, a.Handle("1112223334"))
	clock.advance(600 * time.Millisecond)
	require.NoError(t, a.Handle("1112223334"))

	assert.Equal(t, []string{"1112223334", "1112223334"}, sink.got())
}

func TestHandle_OtraTarjetaNoRebota(t *testing.T) {
	sink := &recordingSink{}
	a, _ := newTestAdapter(sink, time.Second)

	require.NoError(t, a.Handle("a"))
	require.NoError(t, a.Handle("b"))
	require.NoError(t, a.Handle("a"))

	assert.Equal(t, []string{"a", "b", "a"}, sink.got())
}

func TestHandle_VacioYErrores(t *testing.T) {
	boom := errors.New("cola llena")
	sink := &recordingSink{err: boom}
	a, _ := newTestAdapter(sink, 0)

	require.NoError(t, a.Handle("   "))
	assert.Empty(t, sink.got())

	assert.ErrorIs(t, a.Handle("x"), boom)
}

func TestHandle_RechazadaNoCuentaParaLaVentana(t *testing.T) {
	sink := &recordingSink{err: errors.New("cola llena")}
	a, clock := newTestAdapter(sink, time.Second)

	require.Error(t, a.Handle("1112223334"))
	sink.mu.Lock()
	sink.err = nil
	sink.mu.Unlock()

	clock.advance(100 * time.Millisecond)
	require.NoError(t, a.Handle("1112223334"))
	assert.Equal(t, []string{"1112223334", "1112223334"}, sink.got())
}

func TestRunTerminal(t *testing.T) {
	sink := &recordingSink{}
	a, _ := newTestAdapter(sink, 0)

	in := strings.NewReader("9876543210\n\n1122334455\r\n")
	require.NoError(t, RunTerminal(context.Background(), in, a))

	assert.Equal(t, []string{"9876543210", "1122334455"}, sink.got())
}

func TestRunTerminal_Cancelacion(t *testing.T) {
	sink := &recordingSink{}
	a, _ := newTestAdapter(sink, 0)

	r, w := io.Pipe()
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunTerminal(ctx, r, a) }()

	_, err := w.Write([]byte("5556667778\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(sink.got()) == 1 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("RunTerminal no terminó tras cancelar")
	}
}
