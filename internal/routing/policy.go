package routing

import (
	"time"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/config"
)

// TierPolicy carries the knobs that drive tier resolution and the SLA
// window stamped onto new assignments.
type TierPolicy struct {
	LimitExternal int
	LimitInternal int
	SLA           time.Duration
}

// PolicyFromConfig maps the routing configuration into a TierPolicy.
func PolicyFromConfig(cfg config.RoutingConfig) TierPolicy {
	return TierPolicy{
		LimitExternal: cfg.LimitExternal,
		LimitInternal: cfg.LimitInternal,
		SLA:           cfg.SLA(),
	}
}
