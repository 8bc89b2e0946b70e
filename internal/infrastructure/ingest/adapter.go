// Package ingest recibe identificadores de tarjeta desde fuentes externas (MQTT, terminal)
// y los entrega al controlador de sesión.
package ingest

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Sink destino de las lecturas. Lo implementa el controlador de sesión.
type Sink interface {
	OnIdentification(token string) error
}

// Adapter normaliza y filtra lecturas antes de entregarlas. Seguro para varias fuentes a la vez.
type Adapter struct {
	sink   Sink
	window time.Duration
	log    zerolog.Logger
	now    func() time.Time

	mu     sync.Mutex
	last   string
	lastAt time.Time
}

// NewAdapter crea el adaptador. window es el intervalo en el que una relectura del mismo
// token se ignora; 0 lo desactiva.
func NewAdapter(sink Sink, window time.Duration, log zerolog.Logger) *Adapter {
	return &Adapter{sink: sink, window: window, log: log, now: time.Now}
}

// Handle procesa una lectura cruda. Los tokens vacíos y los rebotes se descartan sin error.
func (a *Adapter) Handle(raw string) error {
	token := strings.TrimSpace(raw)
	if token == "" {
		return nil
	}

	a.mu.Lock()
	now := a.now()
	bounce := a.window > 0 && token == a.last && now.Sub(a.lastAt) <= a.window
	// la ventana se renueva con cada lectura, como un lector que mantiene la tarjeta apoyada
	a.last, a.lastAt = token, now
	a.mu.Unlock()

	if bounce {
		a.log.Debug().Str("card", token).Msg("lectura repetida ignorada")
		return nil
	}
	if err := a.sink.OnIdentification(token); err != nil {
		// una lectura rechazada no cuenta para la ventana: la siguiente pasa
		a.mu.Lock()
		if a.last == token && a.lastAt.Equal(now) {
			a.last = ""
		}
		a.mu.Unlock()
		a.log.Warn().Err(err).Str("card", token).Msg("lectura no entregada")
		return err
	}
	a.log.Debug().Str("card", token).Msg("lectura entregada")
	return nil
}
