// Package session implementa el controlador de sesión del kiosko.
//
// Un único goroutine (Run) es dueño de la tarjeta activa y del carrito. Las lecturas de
// tarjeta y los comandos de la interfaz le llegan como mensajes, así que nunca se
// intercalan. El acceso al repositorio se hace fuera del actor: se toma una instantánea,
// se suelta el actor, se persiste y el resultado vuelve como otro mensaje.
package session

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Voldziu/ToCoZwykle/internal/application/sets"
	"github.com/Voldziu/ToCoZwykle/internal/domain"
	"github.com/Voldziu/ToCoZwykle/internal/domain/cart"
	"github.com/Voldziu/ToCoZwykle/internal/domain/repository"
)

// ErrStopped el actor ya no procesa mensajes.
var ErrStopped = errors.New("session: controlador detenido")

// State fase de la sesión.
type State string

const (
	StateIdle        State = "no_session"
	StateActivating  State = "activating"
	StateActive      State = "active"
	StateCheckingOut State = "checking_out"
)

// Snapshot vista de solo lectura del estado, publicada tras cada transición.
type Snapshot struct {
	State  State
	CardID string
	Lines  []cart.Line
	Total  decimal.Decimal
}

// Deps colaboradores del controlador.
type Deps struct {
	Catalog repository.CatalogRepository
	Cards   repository.CardRepository
	Orders  repository.OrderRepository // nil: los pedidos no se guardan
	Sets    *sets.Manager
	Log     zerolog.Logger
}

// Config parámetros de la cola y del acceso a almacenamiento.
type Config struct {
	QueueSize      int
	StorageTimeout time.Duration
	NoticeBuffer   int
}

// Controller controlador de sesión. Crear con New y arrancar Run en su propio goroutine.
type Controller struct {
	catalog repository.CatalogRepository
	cards   repository.CardRepository
	orders  repository.OrderRepository
	sets    *sets.Manager
	log     zerolog.Logger
	timeout time.Duration
	now     func() time.Time
	newID   func() string

	scans     chan scanMsg
	cmds      chan any
	activated chan activation
	done      chan struct{}
	running   atomic.Bool

	snap    atomic.Pointer[Snapshot]
	notices *noticeLog

	// Solo los toca el goroutine de Run.
	phase   State
	card    string
	cart    cart.Cart
	epoch   uint64
	waiters []chan error
}

// New construye el controlador en estado sin sesión.
func New(deps Deps, cfg Config) *Controller {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.StorageTimeout <= 0 {
		cfg.StorageTimeout = 3 * time.Second
	}
	c := &Controller{
		catalog:   deps.Catalog,
		cards:     deps.Cards,
		orders:    deps.Orders,
		sets:      deps.Sets,
		log:       deps.Log,
		timeout:   cfg.StorageTimeout,
		now:       time.Now,
		newID:     uuid.NewString,
		scans:     make(chan scanMsg, cfg.QueueSize),
		cmds:      make(chan any),
		activated: make(chan activation),
		done:      make(chan struct{}),
		notices:   newNoticeLog(cfg.NoticeBuffer),
		phase:     StateIdle,
	}
	c.publish()
	return c
}

// Run procesa lecturas y comandos hasta que ctx se cancela.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("session: Run ya está en marcha")
	}
	defer close(c.done)

	c.log.Info().Int("queue", cap(c.scans)).Msg("controlador de sesión iniciado")
	for {
		select {
		case <-ctx.Done():
			c.releaseWaiters(ErrStopped)
			c.log.Info().Msg("controlador de sesión detenido")
			return nil
		case m := <-c.scans:
			c.handleScan(ctx, m)
		case a := <-c.activated:
			c.handleActivation(a)
		case cmd := <-c.cmds:
			c.handleCommand(cmd)
		}
	}
}

// State devuelve la última instantánea publicada. Seguro desde cualquier goroutine.
func (c *Controller) State() Snapshot {
	s := *c.snap.Load()
	s.Lines = append([]cart.Line(nil), s.Lines...)
	return s
}

// Notices avisos con secuencia mayor que after, en orden.
func (c *Controller) Notices(after uint64) []Notice {
	return c.notices.since(after)
}

// ==================== Identificación ====================

type scanMsg struct {
	token string
	reply chan error
}

type activation struct {
	epoch   uint64
	card    string
	created bool
	err     error
}

// OnIdentification punto de entrada de la ingesta. Nunca bloquea: con la cola llena la
// lectura se descarta con ErrIngestBacklog y un aviso.
func (c *Controller) OnIdentification(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ErrInvalidInput
	}
	select {
	case c.scans <- scanMsg{token: token}:
		return nil
	default:
		c.notify(LevelWarn, KindIngestBacklog, token, "lectura descartada: cola de tarjetas llena")
		return domain.ErrIngestBacklog
	}
}

// Identify como OnIdentification pero espera el resultado: nil cuando la tarjeta queda activa.
func (c *Controller) Identify(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ErrInvalidInput
	}
	reply := make(chan error, 1)
	select {
	case c.scans <- scanMsg{token: token, reply: reply}:
	default:
		c.notify(LevelWarn, KindIngestBacklog, token, "lectura descartada: cola de tarjetas llena")
		return domain.ErrIngestBacklog
	}
	res, err := await(ctx, c, reply)
	if err != nil {
		return err
	}
	return res
}

func (c *Controller) handleScan(ctx context.Context, m scanMsg) {
	switch {
	case c.phase == StateIdle:
		c.epoch++
		c.phase = StateActivating
		c.card = m.token
		c.cart = cart.Empty()
		c.addWaiter(m.reply)
		c.publish()
		go c.ensureCard(ctx, c.epoch, m.token)
	case m.token == c.card:
		// relectura de la misma tarjeta
		if c.phase == StateActivating {
			c.addWaiter(m.reply)
			return
		}
		reply(m.reply, nil)
	default:
		c.notify(LevelWarn, KindCardRejected, m.token, "tarjeta rechazada: otra tarjeta tiene la sesión activa")
		reply(m.reply, domain.ErrSessionBusy)
	}
}

func (c *Controller) ensureCard(ctx context.Context, epoch uint64, card string) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	created, err := c.cards.EnsureCard(ctx, card)
	select {
	case c.activated <- activation{epoch: epoch, card: card, created: created, err: err}:
	case <-c.done:
	}
}

func (c *Controller) handleActivation(a activation) {
	if a.epoch != c.epoch || c.phase != StateActivating {
		// la sesión se canceló mientras se registraba la tarjeta
		return
	}
	if a.err != nil {
		err := domain.Storage("ensure card", a.err)
		c.phase = StateIdle
		c.card = ""
		c.notify(LevelError, KindStorageError, a.card, "no se pudo registrar la tarjeta: "+err.Error())
		c.releaseWaiters(err)
		c.publish()
		return
	}
	c.phase = StateActive
	msg := "tarjeta activada"
	if a.created {
		msg = "tarjeta nueva registrada y activada"
	}
	c.notify(LevelInfo, KindCardActivated, a.card, msg)
	c.releaseWaiters(nil)
	c.publish()
}

func (c *Controller) addWaiter(ch chan error) {
	if ch != nil {
		c.waiters = append(c.waiters, ch)
	}
}

func (c *Controller) releaseWaiters(err error) {
	for _, w := range c.waiters {
		reply(w, err)
	}
	c.waiters = nil
}

// ==================== Internos ====================

func (c *Controller) publish() {
	c.snap.Store(&Snapshot{
		State:  c.phase,
		CardID: c.card,
		Lines:  c.cart.Lines(),
		Total:  c.cart.Total(),
	})
}

func (c *Controller) notify(level, kind, card, msg string) {
	n := c.notices.add(Notice{Level: level, Kind: kind, CardID: card, Message: msg, At: time.Now()})
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	c.log.WithLevel(lvl).Uint64("seq", n.Seq).Str("kind", kind).Str("card", card).Msg(msg)
}

// report publica el fallo de un comando como aviso y devuelve el mismo error.
func (c *Controller) report(op string, err error) error {
	if err == nil || errors.Is(err, ErrStopped) {
		return err
	}
	card := c.State().CardID
	if errors.Is(err, domain.ErrStorage) {
		c.notify(LevelError, KindStorageError, card, op+": "+err.Error())
	} else {
		c.notify(LevelWarn, KindRejected, card, op+": "+err.Error())
	}
	return err
}

func reply(ch chan error, err error) {
	if ch != nil {
		ch <- err
	}
}

func (c *Controller) submit(ctx context.Context, cmd any) error {
	select {
	case c.cmds <- cmd:
		return nil
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func await[T any](ctx context.Context, c *Controller, ch <-chan T) (T, error) {
	var zero T
	select {
	case v := <-ch:
		return v, nil
	case <-c.done:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// exec envía un comando con respuesta de tipo error y espera el resultado.
func (c *Controller) exec(ctx context.Context, cmd any, ch chan error) error {
	if err := c.submit(ctx, cmd); err != nil {
		return err
	}
	res, err := await(ctx, c, ch)
	if err != nil {
		return err
	}
	return res
}

func (c *Controller) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}
