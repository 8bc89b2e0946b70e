package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Voldziu/ToCoZwykle/internal/application/seed"
	"github.com/Voldziu/ToCoZwykle/internal/application/sets"
	"github.com/Voldziu/ToCoZwykle/internal/domain"
	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
	"github.com/Voldziu/ToCoZwykle/internal/infrastructure/sqlite"
)

// ==================== Fakes ====================

// faultyStore envuelve el store real e inyecta latencia y fallos en tarjetas y pedidos.
type faultyStore struct {
	*sqlite.Store

	mu          sync.Mutex
	ensureDelay time.Duration
	ensureErr   error
	recordErr   error
	recordGate  chan struct{}
	ensureCalls int
}

func (f *faultyStore) EnsureCard(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	f.ensureCalls++
	delay, err := f.ensureDelay, f.ensureErr
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	if err != nil {
		return false, err
	}
	return f.Store.EnsureCard(ctx, id)
}

func (f *faultyStore) RecordOrder(ctx context.Context, r *entity.Receipt) error {
	f.mu.Lock()
	gate, err := f.recordGate, f.recordErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return err
	}
	return f.Store.RecordOrder(ctx, r)
}

func (f *faultyStore) set(fn func(f *faultyStore)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// ==================== Helpers ====================

func newStore(t *testing.T) *faultyStore {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = seed.NewSeeder(store, store, store).Apply(context.Background())
	require.NoError(t, err)
	return &faultyStore{Store: store}
}

func newController(store *faultyStore, cfg Config) *Controller {
	if cfg.StorageTimeout == 0 {
		cfg.StorageTimeout = time.Second
	}
	c := New(Deps{
		Catalog: store,
		Cards:   store,
		Orders:  store,
		Sets:    sets.NewManager(store, store, store, cfg.StorageTimeout),
		Log:     zerolog.Nop(),
	}, cfg)
	c.newID = func() string { return "receipt-1" }
	c.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }
	return c
}

func start(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = c.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
}

func running(t *testing.T, cfg Config) (*Controller, *faultyStore) {
	t.Helper()
	store := newStore(t)
	c := newController(store, cfg)
	start(t, c)
	return c, store
}

func ctxT(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func hasNotice(c *Controller, kind string) bool {
	for _, n := range c.Notices(0) {
		if n.Kind == kind {
			return true
		}
	}
	return false
}

// ==================== Identificación ====================

func TestIdentify_ActivaYRelecturaEsNoOp(t *testing.T) {
	c, store := running(t, Config{})
	ctx := ctxT(t)

	assert.Equal(t, StateIdle, c.State().State)
	require.NoError(t, c.Identify(ctx, "  9876543210 "))

	s := c.State()
	assert.Equal(t, StateActive, s.State)
	assert.Equal(t, "9876543210", s.CardID)
	assert.Empty(t, s.Lines)

	require.NoError(t, c.AddToCart(ctx, 301, 1))
	require.NoError(t, c.Identify(ctx, "9876543210"))
	assert.Len(t, c.State().Lines, 1, "la relectura no toca el carrito")

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 1, store.ensureCalls)
}

func TestIdentify_OtraTarjetaSeRechaza(t *testing.T) {
	c, _ := running(t, Config{})
	ctx := ctxT(t)

	require.NoError(t, c.Identify(ctx, "9876543210"))
	require.NoError(t, c.AddToCart(ctx, 201, 2))

	err := c.Identify(ctx, "1122334455")
	assert.ErrorIs(t, err, domain.ErrSessionBusy)

	s := c.State()
	assert.Equal(t, "9876543210", s.CardID)
	require.Len(t, s.Lines, 1)
	assert.Equal(t, 2, s.Lines[0].Quantity)
	assert.True(t, hasNotice(c, KindCardRejected))
}

func TestIdentify_TokenVacio(t *testing.T) {
	c, _ := running(t, Config{})
	assert.ErrorIs(t, c.OnIdentification("   "), domain.ErrInvalidInput)
	assert.ErrorIs(t, c.Identify(ctxT(t), ""), domain.ErrInvalidInput)
}

func TestIdentify_LecturasConcurrentesDeDosTarjetas(t *testing.T) {
	c, store := running(t, Config{})
	store.set(func(f *faultyStore) { f.ensureDelay = 50 * time.Millisecond })
	ctx := ctxT(t)

	cards := []string{"9988776655", "5556667778"}
	errs := make([]error, len(cards))
	var wg sync.WaitGroup
	for i, card := range cards {
		wg.Add(1)
		go func(i int, card string) {
			defer wg.Done()
			errs[i] = c.Identify(ctx, card)
		}(i, card)
	}
	wg.Wait()

	var winner string
	accepted, busy := 0, 0
	for i, err := range errs {
		switch {
		case err == nil:
			accepted++
			winner = cards[i]
		case errors.Is(err, domain.ErrSessionBusy):
			busy++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, busy)

	s := c.State()
	assert.Equal(t, StateActive, s.State)
	assert.Equal(t, winner, s.CardID)
	assert.Empty(t, s.Lines)
}

func TestIdentify_LecturasConcurrentesNoCorrompenElCarrito(t *testing.T) {
	c, _ := running(t, Config{QueueSize: 64})
	ctx := ctxT(t)

	require.NoError(t, c.Identify(ctx, seed.DemoCard))
	require.NoError(t, c.ApplySet(ctx, seed.DemoSet))
	before := c.State()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.OnIdentification("7778889990")
		}()
		go func() {
			defer wg.Done()
			_ = c.AddToCart(ctx, 301, 1)
		}()
	}
	wg.Wait()
	// un Identify síncrono al final garantiza que las lecturas encoladas ya se procesaron
	assert.ErrorIs(t, c.Identify(ctx, "7778889990"), domain.ErrSessionBusy)

	after := c.State()
	assert.Equal(t, seed.DemoCard, after.CardID)
	require.Len(t, after.Lines, len(before.Lines))
	assert.Equal(t, 2+20, after.Lines[0].Quantity)
	assert.True(t, after.Total.Equal(before.Total.Add(seed.Price(301).Mul(decimal.NewFromInt(20)))))
}

func TestOnIdentification_ColaLlena(t *testing.T) {
	store := newStore(t)
	c := newController(store, Config{QueueSize: 2})
	// sin Run nadie consume la cola

	require.NoError(t, c.OnIdentification("a"))
	require.NoError(t, c.OnIdentification("b"))
	assert.ErrorIs(t, c.OnIdentification("c"), domain.ErrIngestBacklog)
	assert.True(t, hasNotice(c, KindIngestBacklog))

	start(t, c)
	require.Eventually(t, func() bool { return c.State().State == StateActive }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "a", c.State().CardID)
}

func TestIdentify_FalloDeAlmacenamiento(t *testing.T) {
	c, store := running(t, Config{})
	store.set(func(f *faultyStore) { f.ensureErr = errors.New("disk I/O error") })
	ctx := ctxT(t)

	err := c.Identify(ctx, "4443332221")
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, StateIdle, c.State().State)
	assert.True(t, hasNotice(c, KindStorageError))

	store.set(func(f *faultyStore) { f.ensureErr = nil })
	require.NoError(t, c.Identify(ctx, "4443332221"))
}

func TestIdentify_TimeoutDeAlmacenamiento(t *testing.T) {
	c, store := running(t, Config{StorageTimeout: 20 * time.Millisecond})
	store.set(func(f *faultyStore) { f.ensureDelay = time.Second })

	err := c.Identify(ctxT(t), "1231231231")
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateIdle, c.State().State)
}

// ==================== Carrito ====================

func TestComandosSinSesion(t *testing.T) {
	c, _ := running(t, Config{})
	ctx := ctxT(t)

	assert.ErrorIs(t, c.AddToCart(ctx, 301, 1), domain.ErrNoActiveSession)
	assert.ErrorIs(t, c.ClearCart(ctx), domain.ErrNoActiveSession)
	assert.ErrorIs(t, c.RemoveFromCart(ctx, 301), domain.ErrNoActiveSession)
	assert.ErrorIs(t, c.SaveCurrentCartAsSet(ctx, "x"), domain.ErrNoActiveSession)
	assert.ErrorIs(t, c.ApplySet(ctx, "x"), domain.ErrNoActiveSession)
	_, err := c.Sets(ctx)
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	_, err = c.Checkout(ctx)
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	assert.NoError(t, c.Reset(ctx))
}

func TestAddToCart_AcumulaYValida(t *testing.T) {
	c, _ := running(t, Config{})
	ctx := ctxT(t)
	require.NoError(t, c.Identify(ctx, "9879879879"))

	for _, q := range []int{1, 3, 2} {
		require.NoError(t, c.AddToCart(ctx, 301, q))
	}
	s := c.State()
	require.Len(t, s.Lines, 1)
	assert.Equal(t, 6, s.Lines[0].Quantity)
	assert.True(t, s.Total.Equal(seed.Price(301).Mul(decimal.NewFromInt(6))))

	assert.ErrorIs(t, c.AddToCart(ctx, 301, 0), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, c.AddToCart(ctx, 999, 1), domain.ErrUnknownProduct)

	require.NoError(t, c.RemoveFromCart(ctx, 301))
	assert.ErrorIs(t, c.RemoveFromCart(ctx, 301), domain.ErrNotFound)
	assert.Empty(t, c.State().Lines)
}

// ==================== Sets ====================

func TestSets_IdaYVueltaReproduceElTotal(t *testing.T) {
	c, _ := running(t, Config{})
	ctx := ctxT(t)
	require.NoError(t, c.Identify(ctx, "1122334455"))

	require.NoError(t, c.AddToCart(ctx, 101, 2))
	require.NoError(t, c.AddToCart(ctx, 305, 1))
	original := c.State().Total

	require.NoError(t, c.SaveCurrentCartAsSet(ctx, "Mío"))
	assert.ErrorIs(t, c.SaveCurrentCartAsSet(ctx, "Mío"), domain.ErrConflict)
	require.NoError(t, c.ClearCart(ctx))
	assert.ErrorIs(t, c.SaveCurrentCartAsSet(ctx, "Vacía"), domain.ErrEmptyCart)

	require.NoError(t, c.ApplySet(ctx, "Mío"))
	assert.True(t, c.State().Total.Equal(original), "esperado %s, obtenido %s", original, c.State().Total)

	all, err := c.Sets(ctx)
	require.NoError(t, err)
	assert.Contains(t, all, "Mío")

	require.NoError(t, c.RenameSet(ctx, "Mío", "Nuestro"))
	assert.ErrorIs(t, c.ApplySet(ctx, "Mío"), domain.ErrNotFound)
	require.NoError(t, c.OverwriteSetFromCart(ctx, "Nuestro", ""))
	require.NoError(t, c.DeleteSet(ctx, "Nuestro"))
	assert.ErrorIs(t, c.DeleteSet(ctx, "Nuestro"), domain.ErrNotFound)
}

// ==================== Checkout ====================

func TestCheckout_EscenarioSetDeDemo(t *testing.T) {
	c, store := running(t, Config{})
	ctx := ctxT(t)

	require.NoError(t, c.Identify(ctx, seed.DemoCard))
	require.NoError(t, c.ApplySet(ctx, seed.DemoSet))

	receipt, err := c.Checkout(ctx)
	require.NoError(t, err)

	want := seed.Price(301).Mul(decimal.NewFromInt(2)).Add(seed.Price(201))
	assert.True(t, receipt.Total.Equal(want), "esperado %s, obtenido %s", want, receipt.Total)
	assert.Equal(t, seed.DemoCard, receipt.CardID)
	assert.Equal(t, "receipt-1", receipt.ID)
	require.Len(t, receipt.Lines, 2)
	assert.Equal(t, "Cola", receipt.Lines[0].Name)

	s := c.State()
	assert.Equal(t, StateIdle, s.State)
	assert.Empty(t, s.CardID)
	assert.Empty(t, s.Lines)

	_, err = c.Checkout(ctx)
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)

	n, err := store.CountOrders(ctx, seed.DemoCard)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, hasNotice(c, KindCheckout))
}

func TestCheckout_CarritoVacio(t *testing.T) {
	c, _ := running(t, Config{})
	ctx := ctxT(t)
	require.NoError(t, c.Identify(ctx, "9876543210"))

	_, err := c.Checkout(ctx)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Equal(t, StateActive, c.State().State)
}

func TestCheckout_FalloAlGuardarConservaElCarrito(t *testing.T) {
	c, store := running(t, Config{})
	ctx := ctxT(t)
	require.NoError(t, c.Identify(ctx, "9876543210"))
	require.NoError(t, c.AddToCart(ctx, 402, 3))

	store.set(func(f *faultyStore) { f.recordErr = errors.New("database is locked") })
	_, err := c.Checkout(ctx)
	assert.ErrorIs(t, err, domain.ErrStorage)

	s := c.State()
	assert.Equal(t, StateActive, s.State)
	require.Len(t, s.Lines, 1)
	assert.Equal(t, 3, s.Lines[0].Quantity)

	store.set(func(f *faultyStore) { f.recordErr = nil })
	receipt, err := c.Checkout(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, receipt.Lines[0].Quantity)
}

func TestCheckout_EnCursoBloqueaOtrosComandos(t *testing.T) {
	c, store := running(t, Config{})
	ctx := ctxT(t)
	require.NoError(t, c.Identify(ctx, "9876543210"))
	require.NoError(t, c.AddToCart(ctx, 301, 1))

	gate := make(chan struct{})
	store.set(func(f *faultyStore) { f.recordGate = gate })

	done := make(chan error, 1)
	go func() {
		_, err := c.Checkout(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return c.State().State == StateCheckingOut }, time.Second, time.Millisecond)

	assert.ErrorIs(t, c.AddToCart(ctx, 301, 1), domain.ErrCheckoutInProgress)
	assert.ErrorIs(t, c.Reset(ctx), domain.ErrCheckoutInProgress)
	assert.ErrorIs(t, c.Identify(ctx, "1122334455"), domain.ErrSessionBusy)
	_, err := c.Checkout(ctx)
	assert.ErrorIs(t, err, domain.ErrCheckoutInProgress)

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, StateIdle, c.State().State)
}

// ==================== Reset / ciclo de vida ====================

func TestReset_DescartaCarrito(t *testing.T) {
	c, _ := running(t, Config{})
	ctx := ctxT(t)
	require.NoError(t, c.Identify(ctx, "9876543210"))
	require.NoError(t, c.AddToCart(ctx, 301, 1))

	require.NoError(t, c.Reset(ctx))
	assert.Equal(t, StateIdle, c.State().State)
	assert.True(t, hasNotice(c, KindSessionEnded))

	// una tarjeta distinta ya puede entrar
	require.NoError(t, c.Identify(ctx, "1122334455"))
	assert.Empty(t, c.State().Lines)
}

func TestRun_DosVecesFalla(t *testing.T) {
	c, _ := running(t, Config{})
	require.Eventually(t, func() bool { return c.running.Load() }, time.Second, time.Millisecond)
	assert.Error(t, c.Run(context.Background()))
}

func TestComandos_ActorDetenido(t *testing.T) {
	store := newStore(t)
	c := newController(store, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = c.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	assert.ErrorIs(t, c.ClearCart(context.Background()), ErrStopped)
}

func TestNotices_Desde(t *testing.T) {
	l := newNoticeLog(3)
	for i := 0; i < 5; i++ {
		l.add(Notice{Kind: KindCardActivated})
	}
	all := l.since(0)
	require.Len(t, all, 3, "el búfer conserva solo los más recientes")
	assert.Equal(t, uint64(3), all[0].Seq)
	assert.Equal(t, uint64(5), all[2].Seq)

	assert.Len(t, l.since(4), 1)
	assert.Empty(t, l.since(5))
}
