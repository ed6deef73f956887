package retention

import "time"

// SetNow fija el reloj del enforcer (solo tests).
func SetNow(uc *EnforceUseCase, now func() time.Time) { uc.now = now }
