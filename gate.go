package gamebridge

import "context"

// Gate is the yes/no surface presentation code consults before rendering
// protected content. A false answer means "show the login or registration
// prompt"; it is never an error condition, and callers must not treat it
// as one.
type Gate struct {
	engine *Engine
}

// NewGate wraps an engine in an access gate.
func NewGate(engine *Engine) *Gate {
	return &Gate{engine: engine}
}

// CanAccess reports whether the identity's protected content should be
// rendered. Storage failures read as "no access": the caller falls back to
// the auth prompt either way, and the failure is recorded on the audit
// trail rather than surfaced to presentation code.
func (g *Gate) CanAccess(ctx context.Context, identity Identity) bool {
	if g == nil || g.engine == nil {
		return false
	}

	ok, err := g.engine.IsAuthenticated(ctx, identity)
	if err != nil {
		g.engine.metricInc(MetricGateDenied)
		g.engine.emitAudit(ctx, auditEventGateDenied, false, identity.ID, "", err, nil)
		return false
	}
	if !ok {
		g.engine.metricInc(MetricGateDenied)
		return false
	}

	g.engine.metricInc(MetricGateAllowed)
	return true
}
