package session

import (
	"context"
	"errors"

	"github.com/Voldziu/ToCoZwykle/internal/application/sets"
	"github.com/Voldziu/ToCoZwykle/internal/domain"
	"github.com/Voldziu/ToCoZwykle/internal/domain/cart"
	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
)

// Mensajes al actor. Cada uno lleva su canal de respuesta con búfer 1 para que el actor
// nunca se bloquee respondiendo.
type (
	refCmd struct{ reply chan ref }

	addCmd struct {
		epoch    uint64
		product  entity.Product
		quantity int
		reply    chan error
	}

	removeCmd struct {
		productID int64
		reply     chan error
	}

	clearCmd struct{ reply chan error }

	mergeCmd struct {
		epoch uint64
		items []cart.Item
		reply chan error
	}

	beginCheckoutCmd struct{ reply chan checkoutStart }

	finishCheckoutCmd struct {
		epoch uint64
		err   error
		reply chan error
	}

	resetCmd struct{ reply chan error }
)

// ref instantánea de la sesión activa para trabajar fuera del actor.
type ref struct {
	card  string
	epoch uint64
	cart  cart.Cart
	err   error
}

type checkoutStart struct {
	receipt *entity.Receipt
	epoch   uint64
	err     error
}

func (c *Controller) handleCommand(cmd any) {
	switch m := cmd.(type) {
	case refCmd:
		m.reply <- ref{card: c.card, epoch: c.epoch, cart: c.cart, err: c.requireActive()}

	case addCmd:
		if err := c.requireEpoch(m.epoch); err != nil {
			m.reply <- err
			return
		}
		next, err := c.cart.Add(m.product, m.quantity)
		if err != nil {
			m.reply <- err
			return
		}
		c.cart = next
		c.publish()
		m.reply <- nil

	case removeCmd:
		if err := c.requireActive(); err != nil {
			m.reply <- err
			return
		}
		next, ok := c.cart.Remove(m.productID)
		if !ok {
			m.reply <- domain.ErrNotFound
			return
		}
		c.cart = next
		c.publish()
		m.reply <- nil

	case clearCmd:
		if err := c.requireActive(); err != nil {
			m.reply <- err
			return
		}
		c.cart = cart.Empty()
		c.publish()
		m.reply <- nil

	case mergeCmd:
		if err := c.requireEpoch(m.epoch); err != nil {
			m.reply <- err
			return
		}
		next, err := c.cart.AddItems(m.items)
		if err != nil {
			m.reply <- err
			return
		}
		c.cart = next
		c.publish()
		m.reply <- nil

	case beginCheckoutCmd:
		if err := c.requireActive(); err != nil {
			m.reply <- checkoutStart{err: err}
			return
		}
		if c.cart.IsEmpty() {
			m.reply <- checkoutStart{err: domain.ErrEmptyCart}
			return
		}
		c.phase = StateCheckingOut
		c.publish()
		m.reply <- checkoutStart{receipt: c.buildReceipt(), epoch: c.epoch}

	case finishCheckoutCmd:
		if c.phase != StateCheckingOut || m.epoch != c.epoch {
			m.reply <- domain.ErrNoActiveSession
			return
		}
		if m.err != nil {
			// el carrito queda intacto para reintentar
			c.phase = StateActive
			c.publish()
			m.reply <- nil
			return
		}
		c.notify(LevelInfo, KindCheckout, c.card, "pedido cerrado por "+c.cart.Total().StringFixed(2))
		c.endSession()
		m.reply <- nil

	case resetCmd:
		switch c.phase {
		case StateCheckingOut:
			m.reply <- domain.ErrCheckoutInProgress
			return
		case StateIdle:
			m.reply <- nil
			return
		}
		c.notify(LevelInfo, KindSessionEnded, c.card, "sesión terminada")
		c.releaseWaiters(domain.ErrNoActiveSession)
		c.endSession()
		m.reply <- nil
	}
}

func (c *Controller) requireActive() error {
	switch c.phase {
	case StateActive:
		return nil
	case StateCheckingOut:
		return domain.ErrCheckoutInProgress
	default:
		return domain.ErrNoActiveSession
	}
}

// requireEpoch además exige que siga siendo la misma sesión que tomó la instantánea.
func (c *Controller) requireEpoch(epoch uint64) error {
	if err := c.requireActive(); err != nil {
		return err
	}
	if epoch != c.epoch {
		return domain.ErrNoActiveSession
	}
	return nil
}

func (c *Controller) endSession() {
	c.phase = StateIdle
	c.card = ""
	c.cart = cart.Empty()
	c.publish()
}

func (c *Controller) buildReceipt() *entity.Receipt {
	lines := c.cart.Lines()
	r := &entity.Receipt{
		ID:        c.newID(),
		CardID:    c.card,
		Lines:     make([]entity.ReceiptLine, 0, len(lines)),
		Total:     c.cart.Total(),
		CreatedAt: c.now(),
	}
	for _, l := range lines {
		r.Lines = append(r.Lines, entity.ReceiptLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal(),
		})
	}
	return r
}

// ==================== API de comandos ====================

func (c *Controller) active(ctx context.Context) (ref, error) {
	ch := make(chan ref, 1)
	if err := c.submit(ctx, refCmd{reply: ch}); err != nil {
		return ref{}, err
	}
	r, err := await(ctx, c, ch)
	if err != nil {
		return ref{}, err
	}
	return r, r.err
}

// AddToCart añade quantity unidades del producto al carrito de la sesión activa.
func (c *Controller) AddToCart(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return c.report("añadir al carrito", domain.ErrInvalidQuantity)
	}
	r, err := c.active(ctx)
	if err != nil {
		return c.report("añadir al carrito", err)
	}

	lctx, cancel := c.bound(ctx)
	p, err := c.catalog.GetProduct(lctx, productID)
	cancel()
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			err = domain.ErrUnknownProduct
		}
		return c.report("añadir al carrito", domain.Storage("get product", err))
	}

	ch := make(chan error, 1)
	return c.report("añadir al carrito", c.exec(ctx, addCmd{epoch: r.epoch, product: *p, quantity: quantity, reply: ch}, ch))
}

// RemoveFromCart quita la línea del producto. ErrNotFound si no estaba en el carrito.
func (c *Controller) RemoveFromCart(ctx context.Context, productID int64) error {
	ch := make(chan error, 1)
	return c.report("quitar del carrito", c.exec(ctx, removeCmd{productID: productID, reply: ch}, ch))
}

// ClearCart vacía el carrito sin terminar la sesión.
func (c *Controller) ClearCart(ctx context.Context) error {
	ch := make(chan error, 1)
	return c.report("vaciar carrito", c.exec(ctx, clearCmd{reply: ch}, ch))
}

// SaveCurrentCartAsSet guarda el carrito como set nueva de la tarjeta activa.
func (c *Controller) SaveCurrentCartAsSet(ctx context.Context, name string) error {
	r, err := c.active(ctx)
	if err != nil {
		return c.report("guardar set", err)
	}
	if r.cart.IsEmpty() {
		return c.report("guardar set", domain.ErrEmptyCart)
	}
	if err := c.sets.SaveAsNew(ctx, r.card, name, r.cart.SetItems()); err != nil {
		return c.report("guardar set", err)
	}
	c.notify(LevelInfo, KindSetChanged, r.card, "set guardada: "+name)
	return nil
}

// OverwriteSetFromCart reemplaza una set existente con el carrito actual (y la renombra si newName no es vacío).
func (c *Controller) OverwriteSetFromCart(ctx context.Context, oldName, newName string) error {
	r, err := c.active(ctx)
	if err != nil {
		return c.report("sobrescribir set", err)
	}
	if r.cart.IsEmpty() {
		return c.report("sobrescribir set", domain.ErrEmptyCart)
	}
	if err := c.sets.Overwrite(ctx, r.card, oldName, newName, r.cart.SetItems()); err != nil {
		return c.report("sobrescribir set", err)
	}
	c.notify(LevelInfo, KindSetChanged, r.card, "set sobrescrita: "+oldName)
	return nil
}

// ApplySet fusiona las líneas de una set en el carrito, todas o ninguna.
func (c *Controller) ApplySet(ctx context.Context, name string) error {
	r, err := c.active(ctx)
	if err != nil {
		return c.report("aplicar set", err)
	}
	items, err := c.sets.LoadIntoCart(ctx, r.card, name)
	if err != nil {
		return c.report("aplicar set", err)
	}
	ch := make(chan error, 1)
	return c.report("aplicar set", c.exec(ctx, mergeCmd{epoch: r.epoch, items: items, reply: ch}, ch))
}

// Sets sets de la tarjeta activa.
func (c *Controller) Sets(ctx context.Context) (map[string][]sets.LineView, error) {
	r, err := c.active(ctx)
	if err != nil {
		return nil, c.report("listar sets", err)
	}
	out, err := c.sets.List(ctx, r.card)
	if err != nil {
		return nil, c.report("listar sets", err)
	}
	return out, nil
}

// RenameSet renombra una set de la tarjeta activa.
func (c *Controller) RenameSet(ctx context.Context, oldName, newName string) error {
	r, err := c.active(ctx)
	if err != nil {
		return c.report("renombrar set", err)
	}
	if err := c.sets.Rename(ctx, r.card, oldName, newName); err != nil {
		return c.report("renombrar set", err)
	}
	c.notify(LevelInfo, KindSetChanged, r.card, "set renombrada: "+oldName+" -> "+newName)
	return nil
}

// DeleteSet borra una set de la tarjeta activa.
func (c *Controller) DeleteSet(ctx context.Context, name string) error {
	r, err := c.active(ctx)
	if err != nil {
		return c.report("borrar set", err)
	}
	if err := c.sets.Delete(ctx, r.card, name); err != nil {
		return c.report("borrar set", err)
	}
	c.notify(LevelInfo, KindSetChanged, r.card, "set borrada: "+name)
	return nil
}

// Checkout cierra el pedido: congela el carrito en un ticket, lo persiste y termina la sesión.
// Si no se puede guardar, la sesión vuelve a activa con el carrito intacto y el error es ErrStorage.
func (c *Controller) Checkout(ctx context.Context) (*entity.Receipt, error) {
	ch := make(chan checkoutStart, 1)
	if err := c.submit(ctx, beginCheckoutCmd{reply: ch}); err != nil {
		return nil, c.report("checkout", err)
	}
	// Aceptado el comando, la respuesta es inmediata; no se abandona aunque ctx expire.
	start, err := await(context.Background(), c, ch)
	if err != nil {
		return nil, err
	}
	if start.err != nil {
		return nil, c.report("checkout", start.err)
	}

	var persistErr error
	if c.orders != nil {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		persistErr = domain.Storage("record order", c.orders.RecordOrder(pctx, start.receipt))
		cancel()
	}

	fin := make(chan error, 1)
	if err := c.exec(context.Background(), finishCheckoutCmd{epoch: start.epoch, err: persistErr, reply: fin}, fin); err != nil {
		return nil, err
	}
	if persistErr != nil {
		return nil, c.report("checkout", persistErr)
	}
	return start.receipt, nil
}

// Reset termina la sesión descartando el carrito. Sin sesión no hace nada.
func (c *Controller) Reset(ctx context.Context) error {
	ch := make(chan error, 1)
	return c.report("reset", c.exec(ctx, resetCmd{reply: ch}, ch))
}
