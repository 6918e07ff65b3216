package auth

import "forkful/internal/observability"

func incrementAccessTokensIssued() {
	observability.AccessTokensIssued.Inc()
}

func incrementTokenValidationsFailed() {
	observability.TokenValidationsFailed.Inc()
}

func incrementLoginAttempts(outcome string) {
	observability.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
}

func incrementGateDecisions(decision string) {
	observability.GateDecisionsTotal.WithLabelValues(decision).Inc()
}
