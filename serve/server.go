// Server wires a running engine.SimulationEngine to a Hub of WebSocket
// viewers: it answers get_state/run/step/subscribe requests and
// broadcasts batch and termination notifications as they happen, each
// one tagged with a monotonic sequence number and the object it concerns
// so a scoped viewer can detect a gap in its own feed.
package serve

import (
	"net/http"
	"sync/atomic"

	"github.com/ersantana/desim/engine"
	"github.com/sirupsen/logrus"
)

// Server exposes one SimulationEngine to WebSocket viewers over HTTP.
type Server struct {
	hub *Hub
	eng *engine.SimulationEngine
	log *logrus.Entry
	seq uint64
}

// New constructs a Server around an already-configured engine.
func New(eng *engine.SimulationEngine) *Server {
	hub := NewHub()
	s := &Server{hub: hub, eng: eng, log: logrus.WithField("component", "serve.server")}
	hub.SetMessageHandler(s.handleMessage)
	return s
}

// Handler returns the http.Handler to mount at the viewer websocket
// endpoint.
func (s *Server) Handler() http.Handler {
	return NewWebSocketHandler(s.hub)
}

// Run starts the hub's broadcast loop; call in its own goroutine.
func (s *Server) Run() { s.hub.Run() }

func (s *Server) nextSeq() uint64 { return atomic.AddUint64(&s.seq, 1) }

// BroadcastBatch notifies viewers watching object (or every viewer, if
// they subscribed to everything) that one batch was dispatched against
// it. The server calls this after each dispatching "step" request;
// batches dispatched inside engine.Simulate are not broadcast.
func (s *Server) BroadcastBatch(simTime float64, object string, batchSize int) {
	event := NewBatchDispatchedEvent(s.nextSeq(), simTime, object, batchSize)
	if err := s.hub.BroadcastJSON(object, event); err != nil {
		s.log.WithError(err).Warn("failed to encode batch notification")
	}
}

// BroadcastTerminated notifies every viewer that the run ended.
func (s *Server) BroadcastTerminated(simTime float64, diagnostic string) {
	event := NewRunTerminatedEvent(s.nextSeq(), simTime, diagnostic)
	if err := s.hub.BroadcastJSON("", event); err != nil {
		s.log.WithError(err).Warn("failed to encode termination notification")
	}
}

// handleMessage dispatches everything except subscribe requests, which
// the hub's readPump intercepts and applies directly since they only
// touch hub-local client state.
func (s *Server) handleMessage(clientID, msgType string, data []byte) {
	switch MessageType(msgType) {
	case MsgGetState:
		s.sendState(clientID)

	case MsgRun:
		req, err := ParseRun(data)
		if err != nil {
			s.log.WithError(err).Warn("malformed run request")
			return
		}
		if _, err := s.eng.Simulate(req.TimeMax); err != nil {
			s.log.WithError(err).Warn("simulate failed")
			return
		}
		s.BroadcastTerminated(s.eng.Time(), "run requested by viewer")
		s.sendState(clientID)

	case MsgStep:
		object, dispatched, done, diagnostic, err := s.eng.StepOne()
		if err != nil {
			s.log.WithError(err).Warn("step failed")
			return
		}
		if dispatched {
			s.BroadcastBatch(s.eng.Time(), object, 1)
		}
		if done {
			s.BroadcastTerminated(s.eng.Time(), diagnostic)
		}
		s.sendState(clientID)

	default:
		s.log.WithField("msgType", msgType).Warn("unrecognized viewer message type")
	}
}

func (s *Server) sendState(clientID string) {
	snap := s.eng.GetSimulationState()
	objects := make([]ObjectStateWire, 0, len(snap.Objects))
	for _, o := range snap.Objects {
		objects = append(objects, ObjectStateWire{Type: o.Type, Name: o.Name, Time: o.Time, State: o.State})
	}
	resp := SimulationStateResponse{
		Type:    MsgSimulationState,
		SimTime: snap.Time,
		State:   s.eng.State().String(),
		Objects: objects,
	}
	if err := s.hub.SendJSONToClient(clientID, resp); err != nil {
		s.log.WithError(err).Warn("failed to encode state response")
	}
}
