package server

import (
	"net/http"
)

// ServeWS upgrades an HTTP request to a websocket connection and hands it
// to Processor.HandleConnection. A client reconnecting after a dropped
// socket may carry its prior session key as a query parameter, letting
// HandleConnection synthesize a successful-auth sequence instead of
// forcing a fresh Login, per spec.md §4.8 step 2.
func (p *Processor) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := Upgrade(w, r)
	if err != nil {
		if p.Log != nil {
			p.Log.Warnw("websocket upgrade failed", "error", err)
		}
		return
	}
	priorSessionKey := r.URL.Query().Get("session_key")
	p.HandleConnection(conn, priorSessionKey)
}
