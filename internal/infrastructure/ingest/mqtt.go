package ingest

import (
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/Voldziu/ToCoZwykle/pkg/config"
)

// MQTTSource se suscribe al topic del lector de tarjetas. La suscripción se rehace en cada
// reconexión desde el OnConnect.
type MQTTSource struct {
	client  mqtt.Client
	topic   string
	adapter *Adapter
	log     zerolog.Logger
}

// NewMQTTSource prepara el cliente sin conectarlo.
func NewMQTTSource(cfg config.MQTTConfig, a *Adapter, log zerolog.Logger) *MQTTSource {
	s := &MQTTSource{topic: cfg.Topic, adapter: a, log: log}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn().Err(err).Msg("conexión MQTT perdida")
		})
	s.client = mqtt.NewClient(opts)
	return s
}

// Start conecta con el broker esperando como máximo timeout.
func (s *MQTTSource) Start(timeout time.Duration) error {
	tok := s.client.Connect()
	if !tok.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt: timeout conectando")
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt: conectar: %w", err)
	}
	return nil
}

// Stop desconecta dando 250 ms para vaciar el tráfico pendiente.
func (s *MQTTSource) Stop() {
	s.client.Disconnect(250)
}

func (s *MQTTSource) onConnect(c mqtt.Client) {
	tok := c.Subscribe(s.topic, 1, s.handle)
	if tok.WaitTimeout(5*time.Second) && tok.Error() == nil {
		s.log.Info().Str("topic", s.topic).Msg("suscrito al lector de tarjetas")
		return
	}
	s.log.Error().Err(tok.Error()).Str("topic", s.topic).Msg("no se pudo suscribir")
}

func (s *MQTTSource) handle(_ mqtt.Client, msg mqtt.Message) {
	_ = s.adapter.Handle(string(msg.Payload()))
}

// Publish envía un token al topic del lector (simulador y herramienta de operación).
func Publish(cfg config.MQTTConfig, token string, timeout time.Duration) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("mqtt: token vacío")
	}
	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID + "-publisher")
	c := mqtt.NewClient(opts)
	tok := c.Connect()
	if !tok.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt: timeout conectando")
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt: conectar: %w", err)
	}
	defer c.Disconnect(250)

	pub := c.Publish(cfg.Topic, 1, false, token)
	if !pub.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt: timeout publicando")
	}
	return pub.Error()
}
