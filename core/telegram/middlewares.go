package telegram

import "github.com/m3rciful/dealerbot/core/telegram/middleware"

// DefaultMiddlewares builds the shared update chain: panics are recovered
// innermost so that logging and metrics still see the failure.
func DefaultMiddlewares() []middleware.Middleware {
	return []middleware.Middleware{
		middleware.Logging,
		middleware.Metrics,
		middleware.Recover,
	}
}
