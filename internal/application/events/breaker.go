package events

import (
	"sync"
	"time"
)

// BreakerState estado del circuit breaker hacia el bus.
type BreakerState string

const (
	StateClosed   BreakerState = "closed"    // publicación permitida
	StateOpen     BreakerState = "open"      // publicación cortocircuitada
	StateHalfOpen BreakerState = "half-open" // una publicación de prueba permitida
)

// BreakerConfig parámetros de transición del breaker.
type BreakerConfig struct {
	FailureThreshold int           // fallas consecutivas para abrir
	OpenDuration     time.Duration // tiempo en Open antes de pasar a Half-Open
}

// BreakerSnapshot estado completo del breaker. Las transiciones son funciones
// puras snapshot → snapshot, testeables sin tocar la lógica de publicación.
type BreakerSnapshot struct {
	State        BreakerState
	Failures     int // fallas consecutivas en Closed
	OpenedAt     time.Time
	TrialPending bool // hay una publicación de prueba en vuelo en Half-Open
}

// AdvanceClock aplica la transición temporal: Open → Half-Open cuando ha
// transcurrido OpenDuration. Las demás dimensiones no cambian con el tiempo.
func AdvanceClock(s BreakerSnapshot, cfg BreakerConfig, now time.Time) BreakerSnapshot {
	if s.State == StateOpen && now.Sub(s.OpenedAt) >= cfg.OpenDuration {
		s.State = StateHalfOpen
		s.TrialPending = false
	}
	return s
}

// ApplyFailure registra una falla de publicación.
// Closed: acumula; al llegar al umbral abre. Half-Open: la prueba falló, reabre.
func ApplyFailure(s BreakerSnapshot, cfg BreakerConfig, now time.Time) BreakerSnapshot {
	switch s.State {
	case StateHalfOpen:
		s.State = StateOpen
		s.OpenedAt = now
		s.TrialPending = false
	case StateClosed:
		s.Failures++
		if s.Failures >= cfg.FailureThreshold {
			s.State = StateOpen
			s.OpenedAt = now
		}
	}
	return s
}

// ApplySuccess registra una publicación exitosa.
// Half-Open: la prueba pasó, cierra. Closed: resetea el contador de fallas.
func ApplySuccess(s BreakerSnapshot) BreakerSnapshot {
	switch s.State {
	case StateHalfOpen:
		s = BreakerSnapshot{State: StateClosed}
	case StateClosed:
		s.Failures = 0
	}
	return s
}

// CircuitBreaker protege la conexión al bus con el ciclo Closed/Open/Half-Open.
// Envuelve las transiciones puras con el lock y el reloj.
type CircuitBreaker struct {
	mu   sync.Mutex
	cfg  BreakerConfig
	snap BreakerSnapshot
	now  func() time.Time
}

// NewCircuitBreaker construye el breaker en Closed.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		cfg:  cfg,
		snap: BreakerSnapshot{State: StateClosed},
		now:  time.Now,
	}
}

// Acquire decide si un intento de publicación puede proceder.
// En Half-Open solo se admite una prueba en vuelo; trial indica que este caller
// es quien la ejecuta y debe limitarse a un único intento de transporte.
func (cb *CircuitBreaker) Acquire() (proceed, trial bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.snap = AdvanceClock(cb.snap, cb.cfg, cb.now())
	switch cb.snap.State {
	case StateClosed:
		return true, false
	case StateHalfOpen:
		if cb.snap.TrialPending {
			return false, false
		}
		cb.snap.TrialPending = true
		return true, true
	default:
		return false, false
	}
}

// OnSuccess registra un éxito de transporte.
func (cb *CircuitBreaker) OnSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.snap = ApplySuccess(cb.snap)
}

// OnFailure registra una falla de transporte.
func (cb *CircuitBreaker) OnFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.snap = ApplyFailure(cb.snap, cb.cfg, cb.now())
}

// State devuelve el estado actual (aplicando primero la transición temporal).
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.snap = AdvanceClock(cb.snap, cb.cfg, cb.now())
	return cb.snap.State
}
