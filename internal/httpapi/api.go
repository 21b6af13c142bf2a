// Package httpapi exposes the session controller to a local browser UI:
// read-only state projections plus the learner action set, JSON over HTTP.
// Every action responds with the refreshed projection, so a thin front-end
// can render each reply as the whole screen.
package httpapi

import (
	"cippe-prep/internal/logging"
	"cippe-prep/internal/session"
)

type API struct {
	ctrl *session.Controller
	log  *logging.Logger
}

func NewAPI(ctrl *session.Controller, log *logging.Logger) *API {
	if log == nil {
		log = logging.Nop()
	}
	return &API{
		ctrl: ctrl,
		log:  log,
	}
}
