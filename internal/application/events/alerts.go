package events

import (
	"context"

	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// LogAlertSink implementación del canal de alertas de operaciones sobre el
// logger estructurado. En producción suele reemplazarse por un canal dedicado
// (pager, cola de DLQ); el contrato es el mismo.
type LogAlertSink struct {
	log *logger.Logger
}

// NewLogAlertSink construye el sink sobre el logger.
func NewLogAlertSink(log *logger.Logger) *LogAlertSink {
	return &LogAlertSink{log: log}
}

// Notify registra el evento no entregado con la etiqueta de la causa.
func (s *LogAlertSink) Notify(_ context.Context, reason string, ev Event, attempts int) {
	s.log.Error().
		Str("alert", reason).
		Str("event_id", ev.EventID).
		Str("event_type", ev.EventType).
		Str("tenant_id", ev.TenantID).
		Int("attempts", attempts).
		Msg("evento sin entregar derivado a operaciones")
}
