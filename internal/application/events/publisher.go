package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// BusClient puerto del cliente del bus de eventos externo (Kafka u otro).
type BusClient interface {
	Publish(ctx context.Context, ev Event) error
}

// BusClientFunc adaptador de función a BusClient (útil en desarrollo y tests).
type BusClientFunc func(ctx context.Context, ev Event) error

func (f BusClientFunc) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Etiquetas con las que un evento llega al canal de alertas de operaciones.
const (
	AlertCircuitOpen   = "circuit_open"
	AlertPublishFailed = "publish_failed"
)

// AlertSink recibe eventos cuya entrega fue cortocircuitada o agotó reintentos.
// Un evento en falla terminal nunca se descarta en silencio.
type AlertSink interface {
	Notify(ctx context.Context, reason string, ev Event, attempts int)
}

// ErrCircuitOpen indica que la publicación se cortocircuitó por breaker abierto.
// La mutación del libro que generó el evento permanece confirmada.
var ErrCircuitOpen = errors.New("circuit breaker abierto")

// Config parámetros del pipeline de publicación.
type Config struct {
	MaxAttempts      int           // intentos de transporte por evento
	RetryBackoff     time.Duration // espera entre reintentos
	FailureThreshold int           // fallas consecutivas para abrir el breaker
	OpenDuration     time.Duration // cooldown del breaker en Open
	RatePerMinute    int           // tokens por minuto por llave de caller
}

// Publisher envuelve el cliente del bus con deduplicación por llave de
// idempotencia, reintento acotado, circuit breaker y rate limiter por caller.
// El orden es publicar-después-de-commit: cuando Publish corre, la transacción
// del libro ya confirmó, y una falla de entrega jamás la revierte.
type Publisher struct {
	bus     BusClient
	records repository.EventRecordRepository
	alerts  AlertSink
	breaker *CircuitBreaker
	limiter *RateLimiter
	log     *logger.Logger
	cfg     Config
	sleep   func(time.Duration)
}

// NewPublisher construye el pipeline de publicación.
func NewPublisher(bus BusClient, records repository.EventRecordRepository, alerts AlertSink, log *logger.Logger, cfg Config) *Publisher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	return &Publisher{
		bus:     bus,
		records: records,
		alerts:  alerts,
		breaker: NewCircuitBreaker(BreakerConfig{FailureThreshold: cfg.FailureThreshold, OpenDuration: cfg.OpenDuration}),
		limiter: NewRateLimiter(cfg.RatePerMinute),
		log:     log,
		cfg:     cfg,
		sleep:   time.Sleep,
	}
}

// Allow consulta el rate limiter para la llave de caller. Se invoca en la entrada
// de cada operación que dispara publicaciones, antes de cualquier interacción con
// el libro o el bus. El rechazo es terminal para esa llamada (sin auto-retry).
func (p *Publisher) Allow(callerKey string) error {
	if !p.limiter.Allow(callerKey) {
		p.log.Warn().Str("caller", callerKey).Msg("rate limit excedido")
		return domain.ErrRateLimited
	}
	return nil
}

// BreakerState expone el estado del breaker (health/operaciones).
func (p *Publisher) BreakerState() BreakerState {
	return p.breaker.State()
}

// Publish registra el evento de forma durable y lo entrega al bus con reintento
// acotado. Si la llave de idempotencia ya fue entregada, retorna de inmediato sin
// re-publicar. El error de retorno es informativo: el caller no debe revertir
// nada por una falla de entrega.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if ev.EventID == "" {
		ev.EventID = DeriveEventID(keyFieldsFromEvent(ev))
	}
	if ev.OccurredOn.IsZero() {
		ev.OccurredOn = time.Now().UTC()
	}

	rec := &entity.EventRecord{
		EventID:       ev.EventID,
		TenantID:      ev.TenantID,
		EventType:     ev.EventType,
		AggregateID:   ev.AggregateID,
		AggregateType: ev.AggregateType,
		OccurredOn:    ev.OccurredOn,
		Payload:       ev.Data,
		Extensions:    ev.Extensions,
	}
	created, err := p.records.Insert(ctx, rec)
	if err != nil {
		return fmt.Errorf("registrar evento: %w", err)
	}
	attempts := 0
	if !created {
		existing, err := p.records.Get(ctx, ev.EventID)
		if err != nil {
			return fmt.Errorf("consultar evento: %w", err)
		}
		if existing != nil && existing.Delivered {
			// Dedup: ya entregado, no se re-publica.
			p.log.Debug().Str("event_id", ev.EventID).Msg("evento ya entregado, se omite publicación")
			return nil
		}
		if existing != nil {
			rec.EventVersion = existing.EventVersion
			attempts = existing.AttemptCount
		}
	}
	ev.EventVersion = rec.EventVersion

	proceed, trial := p.breaker.Acquire()
	if !proceed {
		p.log.Warn().
			Str("event_id", ev.EventID).
			Str("event_type", ev.EventType).
			Msg("breaker abierto, publicación cortocircuitada")
		p.alerts.Notify(ctx, AlertCircuitOpen, ev, attempts)
		return ErrCircuitOpen
	}

	maxAttempts := p.cfg.MaxAttempts
	if trial {
		// Half-Open: una única publicación de prueba.
		maxAttempts = 1
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		attempts++
		if err := p.bus.Publish(ctx, ev); err != nil {
			lastErr = err
			p.breaker.OnFailure()
			p.log.Warn().
				Err(err).
				Str("event_id", ev.EventID).
				Int("attempt", attempts).
				Msg("falla de transporte al publicar")
			if i < maxAttempts-1 {
				p.sleep(p.cfg.RetryBackoff)
			}
			continue
		}
		p.breaker.OnSuccess()
		if err := p.records.MarkDelivered(ctx, ev.EventID, attempts, time.Now().UTC()); err != nil {
			return fmt.Errorf("marcar evento entregado: %w", err)
		}
		p.log.Info().
			Str("event_id", ev.EventID).
			Str("event_type", ev.EventType).
			Int64("event_version", ev.EventVersion).
			Msg("evento publicado")
		return nil
	}

	if err := p.records.UpdateAttempts(ctx, ev.EventID, attempts); err != nil {
		p.log.Error().Err(err).Str("event_id", ev.EventID).Msg("actualizar intentos del evento")
	}
	p.alerts.Notify(ctx, AlertPublishFailed, ev, attempts)
	return fmt.Errorf("publicar evento tras %d intentos: %w", attempts, lastErr)
}
