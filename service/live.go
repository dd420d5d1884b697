package service

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/flow"

	"github.com/gorilla/websocket"
)

// LiveOp is one client message on the live channel: a field changed
// in the browser and the client wants the authoritative delta.
//
// The browser's own FormLogic asset gives instant feedback; this
// channel is the server's answer for the same event, so the two can
// never drift for long.
type LiveOp struct {
	Op              string      `json:"op"`
	ReferenceNumber string      `json:"referenceNumber"`
	Template        string      `json:"template,omitempty"`
	FieldID         string      `json:"fieldId"`
	Value           interface{} `json:"value"`
}

// LiveReply is the server's response: the state folded from the rules
// the changed field triggers.
type LiveReply struct {
	Op      string      `json:"op"`
	FieldID string      `json:"fieldId,omitempty"`
	State   *flow.State `json:"state,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Live upgrades to a websocket and answers fieldChanged ops.
func (s *Service) Live(w http.ResponseWriter, r *http.Request) {
	var upgrader = websocket.Upgrader{}

	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("service.Live upgrade error", err)
		return
	}
	defer c.Close()

	ctx := r.Context()

	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			break
		}

		var op LiveOp
		if err := json.Unmarshal(message, &op); err != nil {
			s.writeLive(c, mt, &LiveReply{Op: "error", Error: "can't parse: " + err.Error()})
			continue
		}
		if op.Op != "fieldChanged" {
			s.writeLive(c, mt, &LiveReply{Op: "error", Error: "unknown op " + op.Op})
			continue
		}

		t, err := s.Templates.Get(ctx, op.Template, "")
		if err != nil {
			s.writeLive(c, mt, &LiveReply{Op: "error", FieldID: op.FieldID, Error: err.Error()})
			continue
		}

		// The change is applied to a copy.  Nothing persists
		// until the page is saved.
		data := s.formData(ctx, op.ReferenceNumber).Copy()
		data[op.FieldID] = op.Value

		state, err := s.Orchestrator.EvaluateFieldChange(ctx, t, data, op.FieldID)
		if err != nil {
			s.writeLive(c, mt, &LiveReply{Op: "error", FieldID: op.FieldID, Error: err.Error()})
			continue
		}

		s.writeLive(c, mt, &LiveReply{Op: "state", FieldID: op.FieldID, State: state})
	}
}

func (s *Service) writeLive(c *websocket.Conn, mt int, reply *LiveReply) {
	js, err := json.Marshal(reply)
	if err != nil {
		log.Println("service.Live marshal error", err)
		return
	}
	if err := c.WriteMessage(mt, js); err != nil {
		log.Println("service.Live write error", err)
	}
}
