package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"vani-bank-backend/internal/bank"
	"vani-bank-backend/internal/render"
	"vani-bank-backend/internal/types"
)

var (
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_turns_total",
		Help: "Conversational turns processed, labeled by outcome",
	}, []string{"outcome"})

	turnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bank_turn_duration_seconds",
		Help:    "Latency distribution of conversational turns",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer for the REST surface; the WS
	// handshake authenticates nothing — every frame carries its own token.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS runs the persistent conversation loop. Turns on one connection
// are strictly sequential: the next read is only issued after the previous
// turn's response is written.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var req types.TurnRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[ws] read failed: %v", err)
			}
			return
		}
		resp := s.handleTurn(r.Context(), req)
		if err := conn.WriteJSON(resp); err != nil {
			log.Printf("[ws] write failed: %v", err)
			return
		}
	}
}

// handleTurn processes a single authenticated turn: classify (unless the
// client already carries an intent), dispatch, render.
func (s *Server) handleTurn(ctx context.Context, req types.TurnRequest) types.TurnResponse {
	start := time.Now()
	defer func() {
		turnDuration.Observe(time.Since(start).Seconds())
	}()

	userID, err := s.parseAccessToken(req.Token)
	if err != nil {
		turnsTotal.WithLabelValues("auth_error").Inc()
		return turnResponse("Authentication error. Please log in again.", start)
	}

	env := req.Envelope
	if !env.HasIntent() {
		cl, err := s.oracle.Classify(ctx, req.Text)
		if errors.Is(err, bank.ErrOracleBusy) {
			turnsTotal.WithLabelValues("busy").Inc()
			return turnResponse(bank.MsgBusy, start)
		}
		if err != nil {
			log.Printf("[ws] classification failed for user %s: %v", userID, err)
			turnsTotal.WithLabelValues("error").Inc()
			return turnResponse("I'm having trouble understanding your request right now. Please try again.", start)
		}
		if cl.Envelope == nil {
			// The oracle answered directly; no dispatch.
			turnsTotal.WithLabelValues("direct_answer").Inc()
			return turnResponse(cl.Text, start)
		}
		env = *cl.Envelope
	}

	reply, err := s.dispatcher.Dispatch(ctx, userID, env, req.Text)
	if errors.Is(err, bank.ErrNotFound) {
		turnsTotal.WithLabelValues("not_found").Inc()
		return turnResponse("Authentication error. Please log in again.", start)
	}
	if err != nil {
		log.Printf("[ws] dispatch failed for user %s intent %q: %v", userID, env.Intent, err)
		turnsTotal.WithLabelValues("error").Inc()
		return turnResponse("Something went wrong handling that request. Please try again.", start)
	}

	msg, err := render.Message(reply)
	if err != nil {
		log.Printf("[ws] render failed for user %s intent %q: %v", userID, env.Intent, err)
		turnsTotal.WithLabelValues("error").Inc()
		return turnResponse("Something went wrong handling that request. Please try again.", start)
	}
	if reply.Directive != nil {
		turnsTotal.WithLabelValues("directive").Inc()
	} else {
		turnsTotal.WithLabelValues("terminal").Inc()
	}
	return turnResponse(msg, start)
}

func turnResponse(msg string, start time.Time) types.TurnResponse {
	return types.TurnResponse{
		Message:      msg,
		ResponseTime: time.Since(start).Seconds(),
	}
}
