package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	//reactionRoleEvents counts reaction role events that matched a rule, by policy
	reactionRoleEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hoshi_reaction_role_events_total",
			Help: "Reaction role events that matched a rule binding, by policy",
		},
		[]string{"policy"},
	)

	//starboardCreates counts summary posts created on starboards
	starboardCreates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hoshi_starboard_creates_total",
			Help: "Starboard summary posts created",
		},
	)

	//starboardEdits counts edits made to existing summary posts
	starboardEdits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hoshi_starboard_edits_total",
			Help: "Starboard summary posts edited with a higher star count",
		},
	)

	//starboardCoalesced counts triggers dropped because an update was already in flight
	starboardCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hoshi_starboard_coalesced_total",
			Help: "Starboard triggers coalesced into an in-flight update",
		},
	)
)
