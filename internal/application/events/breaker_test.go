package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ──────────────────────────────────────────────────────────────────────────────
// Transiciones puras del breaker — Closed / Open / Half-Open
// ──────────────────────────────────────────────────────────────────────────────

var testBreakerCfg = BreakerConfig{
	FailureThreshold: 3,
	OpenDuration:     30 * time.Second,
}

// Caso 1: en Closed, fallas por debajo del umbral solo acumulan.
func TestBreaker_ClosedAcumulaFallasBajoUmbral(t *testing.T) {
	now := time.Now()
	s := BreakerSnapshot{State: StateClosed}

	s = ApplyFailure(s, testBreakerCfg, now)
	s = ApplyFailure(s, testBreakerCfg, now)

	assert.Equal(t, StateClosed, s.State)
	assert.Equal(t, 2, s.Failures)
}

// Caso 2: al llegar al umbral de fallas consecutivas, el breaker abre.
func TestBreaker_AbriConFallasConsecutivas(t *testing.T) {
	now := time.Now()
	s := BreakerSnapshot{State: StateClosed}

	for i := 0; i < testBreakerCfg.FailureThreshold; i++ {
		s = ApplyFailure(s, testBreakerCfg, now)
	}

	assert.Equal(t, StateOpen, s.State)
	assert.Equal(t, now, s.OpenedAt)
}

// Caso 3: un éxito en Closed resetea el contador — las fallas deben ser
// consecutivas para abrir.
func TestBreaker_ExitoEnClosedReseteaContador(t *testing.T) {
	now := time.Now()
	s := BreakerSnapshot{State: StateClosed}

	s = ApplyFailure(s, testBreakerCfg, now)
	s = ApplyFailure(s, testBreakerCfg, now)
	s = ApplySuccess(s)

	assert.Equal(t, StateClosed, s.State)
	assert.Equal(t, 0, s.Failures)
}

// Caso 4: en Open, antes del cooldown el estado no cambia con el reloj.
func TestBreaker_OpenNoCambiaAntesDelCooldown(t *testing.T) {
	now := time.Now()
	s := BreakerSnapshot{State: StateOpen, OpenedAt: now}

	s = AdvanceClock(s, testBreakerCfg, now.Add(testBreakerCfg.OpenDuration-time.Second))

	assert.Equal(t, StateOpen, s.State)
}

// Caso 5: cumplido el cooldown, Open pasa a Half-Open.
func TestBreaker_OpenPasaAHalfOpenTrasCooldown(t *testing.T) {
	now := time.Now()
	s := BreakerSnapshot{State: StateOpen, OpenedAt: now}

	s = AdvanceClock(s, testBreakerCfg, now.Add(testBreakerCfg.OpenDuration))

	assert.Equal(t, StateHalfOpen, s.State)
	assert.False(t, s.TrialPending)
}

// Caso 6: la prueba de Half-Open pasa → cierra y resetea todo.
func TestBreaker_HalfOpenCierraConUnExito(t *testing.T) {
	s := BreakerSnapshot{State: StateHalfOpen}

	s = ApplySuccess(s)

	assert.Equal(t, StateClosed, s.State)
	assert.Equal(t, 0, s.Failures)
}

// Caso 7: la prueba de Half-Open falla → reabre y reinicia el cooldown.
func TestBreaker_HalfOpenReabreConUnaFalla(t *testing.T) {
	reopenAt := time.Now().Add(time.Minute)
	s := BreakerSnapshot{State: StateHalfOpen, TrialPending: true}

	s = ApplyFailure(s, testBreakerCfg, reopenAt)

	assert.Equal(t, StateOpen, s.State)
	assert.Equal(t, reopenAt, s.OpenedAt)
	assert.False(t, s.TrialPending)
}

// ──────────────────────────────────────────────────────────────────────────────
// CircuitBreaker — Acquire con reloj inyectado
// ──────────────────────────────────────────────────────────────────────────────

// fakeClock reloj controlable para avanzar el breaker sin dormir.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(cfg BreakerConfig) (*CircuitBreaker, *fakeClock) {
	cb := NewCircuitBreaker(cfg)
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	cb.now = clock.Now
	return cb, clock
}

// En Closed, Acquire siempre procede y no es prueba.
func TestCircuitBreaker_AcquireEnClosed(t *testing.T) {
	cb, _ := newTestBreaker(testBreakerCfg)

	proceed, trial := cb.Acquire()

	assert.True(t, proceed)
	assert.False(t, trial)
}

// En Open, Acquire cortocircuita hasta cumplido el cooldown.
func TestCircuitBreaker_AcquireEnOpenCortocircuita(t *testing.T) {
	cb, clock := newTestBreaker(testBreakerCfg)
	for i := 0; i < testBreakerCfg.FailureThreshold; i++ {
		cb.OnFailure()
	}
	require.Equal(t, StateOpen, cb.State())

	proceed, _ := cb.Acquire()
	assert.False(t, proceed)

	// Medio cooldown: sigue cortocircuitando.
	clock.Advance(testBreakerCfg.OpenDuration / 2)
	proceed, _ = cb.Acquire()
	assert.False(t, proceed)
}

// En Half-Open solo un caller obtiene la prueba; los concurrentes fallan
// rápido en lugar de golpear el bus en manada.
func TestCircuitBreaker_HalfOpenAdmiteUnaSolaPrueba(t *testing.T) {
	cb, clock := newTestBreaker(testBreakerCfg)
	for i := 0; i < testBreakerCfg.FailureThreshold; i++ {
		cb.OnFailure()
	}
	clock.Advance(testBreakerCfg.OpenDuration)
	require.Equal(t, StateHalfOpen, cb.State())

	proceed, trial := cb.Acquire()
	require.True(t, proceed)
	require.True(t, trial)

	// Segundo caller mientras la prueba está en vuelo: rechazado.
	proceed, trial = cb.Acquire()
	assert.False(t, proceed)
	assert.False(t, trial)

	// La prueba pasa → cierra y el tráfico fluye de nuevo.
	cb.OnSuccess()
	assert.Equal(t, StateClosed, cb.State())
	proceed, trial = cb.Acquire()
	assert.True(t, proceed)
	assert.False(t, trial)
}

// La prueba de Half-Open falla: reabre con el cooldown completo.
func TestCircuitBreaker_PruebaFallidaReabre(t *testing.T) {
	cb, clock := newTestBreaker(testBreakerCfg)
	for i := 0; i < testBreakerCfg.FailureThreshold; i++ {
		cb.OnFailure()
	}
	clock.Advance(testBreakerCfg.OpenDuration)

	proceed, trial := cb.Acquire()
	require.True(t, proceed)
	require.True(t, trial)

	cb.OnFailure()
	assert.Equal(t, StateOpen, cb.State())

	// Nuevo cooldown completo desde la falla de la prueba.
	clock.Advance(testBreakerCfg.OpenDuration / 2)
	proceed, _ = cb.Acquire()
	assert.False(t, proceed)

	clock.Advance(testBreakerCfg.OpenDuration / 2)
	assert.Equal(t, StateHalfOpen, cb.State())
}
