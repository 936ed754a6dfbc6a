package handler

// wshandler is code for handling websockets for subscriptions.  It supports both commonly used WS protocols
// * subscriptions-transport-ws: early protocol from Apollo for subscriptions (sub-protocol name:graphql-ws)
// * graphql-ws is newer ws transport which can handle query/mutation/subscription (sub-protocol name:graphql-transport-ws).

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

const (
	protocolOld = "graphql-ws"
	protocolNew = "graphql-transport-ws"

	// Close codes defined by the graphql-transport-ws protocol
	closeInvalidMessage   = 4400
	closeUnauthorized     = 4401
	closeInitTimeout      = 4408
	closeSubscriberExists = 4409
	closeTooManyInit      = 4429
)

type (
	wsConnection struct {
		*websocket.Conn // handle for WS communications

		h           *Handler // we need this for the schema etc
		id          string   // identifies the connection in log messages
		newProtocol bool     // default to old

		writeMtx sync.Mutex // websocket writes must not be concurrent

		// cancelSubscription keeps track of the cancel function(s) associated with each operation.
		//  map key = ID that identifies the operation
		//  map value = context.CancelFunc that will terminate the operation (ie kill all subscription processing)
		mtx                sync.Mutex
		cancelSubscription map[string]context.CancelFunc

		pong chan struct{} // signalled when a pong message is received
	}

	// wsMessage is a message received from the client
	wsMessage struct {
		Type    string          `json:"type"`
		ID      string          `json:"id,omitempty"`
		Payload json.RawMessage `json:"payload,omitempty"`
	}

	// wsPayload is the payload of a subscribe (start) message
	wsPayload struct {
		OperationName string                 `json:"operationName,omitempty"`
		Query         string                 `json:"query"`
		Variables     map[string]interface{} `json:"variables,omitempty"`
		Extensions    map[string]interface{} `json:"extensions,omitempty"`
	}

	// wsReply is a message sent to the client
	wsReply struct {
		Type    string      `json:"type"`
		ID      string      `json:"id,omitempty"`
		Payload interface{} `json:"payload,omitempty"`
	}
)

var errInvalidMessage = errors.New("invalid message")

var upgrader = websocket.Upgrader{
	CheckOrigin:  func(r *http.Request) bool { return true },
	Subprotocols: []string{protocolOld, protocolNew},
}

// serveWS is called in response to a GraphQL HTTP request wanting to upgrade to a WS.
// It handles subscription request(s) and sends a stream of responses. (With the new protocol
// queries and mutations are also allowed.)
func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("wsConnection upgrade error:", err)
		// nothing else required here as w's HTTP status has already been set
		return
	}
	c := &wsConnection{
		Conn:               conn,
		h:                  h,
		id:                 uuid.NewString(),
		newProtocol:        conn.Subprotocol() == protocolNew, // else assume it's the "old" (graphql-ws) WS sub-protocol
		cancelSubscription: make(map[string]context.CancelFunc, 1),
		pong:               make(chan struct{}, 1),
	}
	ctx, cancel := context.WithCancel(r.Context())
	defer func() {
		cancel()
		c.stopAll()
		if err := c.Close(); err != nil {
			log.Println("wsConnection", c.id, "close error:", err)
		}
	}()

	if !c.init() {
		return
	}
	go c.keepAlive(ctx)

	for {
		message, err := c.read()
		if errors.Is(err, errInvalidMessage) {
			c.closeWith(closeInvalidMessage, "Invalid message received")
			return
		}
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("wsConnection", c.id, "read error:", err)
			}
			return
		}

		switch {
		case message.Type == "subscribe" && c.newProtocol, message.Type == "start" && !c.newProtocol:
			if !c.start(ctx, message) {
				return
			}

		case message.Type == "complete" && c.newProtocol, message.Type == "stop" && !c.newProtocol:
			c.remove(message.ID)

		case message.Type == "ping" && c.newProtocol:
			_ = c.send(wsReply{Type: "pong"})

		case message.Type == "pong" && c.newProtocol:
			select {
			case c.pong <- struct{}{}:
			default:
			}

		case message.Type == "connection_init":
			c.closeWith(closeTooManyInit, "Too many initialisation requests")
			return

		case message.Type == "connection_terminate" && !c.newProtocol:
			return

		default:
			log.Println("wsConnection", c.id, "unexpected message type:", message.Type)
			c.closeWith(closeInvalidMessage, "Unexpected message type "+message.Type)
			return
		}
	}
}

// init handles the initial (high level) handshake by receiving an "init" message and sending an "ack"
func (c *wsConnection) init() bool {
	_ = c.SetReadDeadline(time.Now().Add(c.h.initialTimeout))
	message, err := c.read()
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			c.closeWith(closeInitTimeout, "Connection initialisation timeout")
			return false
		}
		log.Println("wsConnection", c.id, "init error:", err)
		c.closeWith(closeInvalidMessage, "Invalid message received")
		return false
	}
	if message.Type != "connection_init" {
		log.Println("wsConnection", c.id, "expected connection_init but got:", message.Type)
		if c.newProtocol {
			c.closeWith(closeUnauthorized, "Unauthorized")
		} else {
			_ = c.send(wsReply{Type: "connection_error", Payload: gqlerror.Errorf("expected connection_init")})
		}
		return false
	}
	_ = c.SetReadDeadline(time.Time{})

	if err := c.send(wsReply{Type: "connection_ack"}); err != nil {
		log.Println("wsConnection", c.id, "error sending ack:", err)
		return false
	}
	return true
}

// keepAlive sends regular "ka" messages (old protocol) or "ping" messages (new protocol), closing
// the connection if a "pong" is not received in time
func (c *wsConnection) keepAlive(ctx context.Context) {
	if !c.newProtocol {
		if err := c.send(wsReply{Type: "ka"}); err != nil {
			return
		}
	}
	ticker := time.NewTicker(c.h.pingFrequency)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !c.newProtocol {
			if err := c.send(wsReply{Type: "ka"}); err != nil {
				return
			}
			continue
		}
		if err := c.send(wsReply{Type: "ping"}); err != nil {
			return
		}
		select {
		case <-c.pong:
		case <-time.After(c.h.pongTimeout):
			log.Println("wsConnection", c.id, "pong not received - closing")
			_ = c.Close() // the read loop will get an error and clean up
			return
		case <-ctx.Done():
			return
		}
	}
}

// start extracts an operation from a JSON message and starts the processing of it.
// It returns false if the connection is to be closed.
func (c *wsConnection) start(ctx context.Context, message *wsMessage) bool {
	if message.ID == "" {
		c.closeWith(closeInvalidMessage, "Missing operation id")
		return false
	}
	var payload wsPayload
	decoder := jsonAPI.NewDecoder(bytes.NewReader(message.Payload))
	decoder.UseNumber() // allows us to distinguish ints from floats in Variables map (see also FixNumberVariables())
	if err := decoder.Decode(&payload); err != nil {
		c.closeWith(closeInvalidMessage, "Invalid payload")
		return false
	}

	// Add to our map of operations active in this ws (first checking that the ID is not in use)
	c.mtx.Lock()
	if _, ok := c.cancelSubscription[message.ID]; ok {
		c.mtx.Unlock()
		log.Println("wsConnection", c.id, "duplicate ID:", message.ID)
		if c.newProtocol {
			c.closeWith(closeSubscriberExists, "Subscriber for "+message.ID+" already exists")
			return false
		}
		c.sendErrors(message.ID, gqlerror.List{gqlerror.Errorf("operation %s already exists", message.ID)})
		return true
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancelSubscription[message.ID] = cancel
	c.mtx.Unlock()

	if err := FixNumberVariables(payload.Variables); err != nil {
		c.sendErrors(message.ID, gqlerror.List{gqlerror.Errorf("%s", err.Error())})
		c.remove(message.ID)
		return true
	}
	operation, variables, errs := c.h.prepare(payload.Query, payload.OperationName, payload.Variables)
	if errs != nil {
		c.sendErrors(message.ID, errs)
		c.remove(message.ID)
		return true
	}

	op := &gqlOperation{
		Handler:    c.h,
		isMutation: operation.Operation == ast.Mutation,
		variables:  variables,
	}
	go c.process(ctx, message.ID, op, operation)
	return true
}

// process runs the operation sending the result(s) to the client followed by a "complete" message
func (c *wsConnection) process(ctx context.Context, id string, op *gqlOperation, operation *ast.OperationDefinition) {
	defer c.remove(id)

	var results <-chan gqlResult
	if operation.Operation == ast.Subscription {
		ch, err := op.subscribe(ctx, operation)
		if err != nil {
			c.sendErrors(id, gqlerror.List{gqlerror.Errorf("%s", err.Error())})
			return
		}
		results = ch
	} else {
		ch := make(chan gqlResult, 1)
		ch <- op.execute(ctx, operation)
		close(ch)
		results = ch
	}

	messageType := "next"
	if !c.newProtocol {
		messageType = "data"
	}
	for result := range results {
		if err := c.send(wsReply{Type: messageType, ID: id, Payload: result}); err != nil {
			log.Println("wsConnection", c.id, "write error:", err)
			return
		}
	}
	if ctx.Err() == nil {
		_ = c.send(wsReply{Type: "complete", ID: id}) // client did not stop it so tell them it's finished
	}
}

// sendErrors sends an "error" message for an operation
func (c *wsConnection) sendErrors(id string, errs gqlerror.List) {
	var payload interface{} = errs
	if !c.newProtocol && len(errs) > 0 {
		payload = errs[0] // old protocol has a single error object
	}
	if err := c.send(wsReply{Type: "error", ID: id, Payload: payload}); err != nil {
		log.Println("wsConnection", c.id, "error sending error:", err)
	}
}

// remove kills processing of one operation (eg subscription) by calling the cancel function of the operation's context
func (c *wsConnection) remove(id string) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if cancel, ok := c.cancelSubscription[id]; ok {
		cancel() // call context cancel func to stop the subscription
		delete(c.cancelSubscription, id)
	}
}

// stopAll kills processing of all operations (eg before closing the websocket)
func (c *wsConnection) stopAll() {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	for id, cancel := range c.cancelSubscription {
		cancel()
		delete(c.cancelSubscription, id)
	}
}

// send writes a message to the client as JSON
func (c *wsConnection) send(reply wsReply) error {
	buf, err := jsonAPI.Marshal(reply)
	if err != nil {
		return fmt.Errorf("encoding %s message: %w", reply.Type, err)
	}
	c.writeMtx.Lock()
	defer c.writeMtx.Unlock()
	return c.WriteMessage(websocket.TextMessage, buf)
}

// closeWith sends a close message with a code and reason
func (c *wsConnection) closeWith(code int, text string) {
	c.writeMtx.Lock()
	defer c.writeMtx.Unlock()
	err := c.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
	if err != nil {
		log.Println("wsConnection", c.id, "error sending close:", err)
	}
}

// read gets the next message from the client
func (c *wsConnection) read() (*wsMessage, error) {
	_, reader, err := c.NextReader()
	if err != nil {
		return nil, err
	}

	var message wsMessage
	if err := jsonAPI.NewDecoder(reader).Decode(&message); err != nil {
		log.Println("wsConnection", c.id, "decode error:", err)
		return nil, errInvalidMessage
	}
	return &message, nil
}
