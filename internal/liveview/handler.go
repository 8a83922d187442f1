// Package liveview serves a session over websockets. Every connected client
// receives each new snapshot; edits sent by any client are applied to the
// shared session.
package liveview

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tliron/commonlog"

	"github.com/agentic-research/quickdir/api"
	"github.com/agentic-research/quickdir/internal/export"
	"github.com/agentic-research/quickdir/internal/session"
	"github.com/agentic-research/quickdir/internal/tree"
)

var log = commonlog.GetLogger("quickdir.liveview")

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = (pongWait * 9) / 10
	queueSize = 32
)

const (
	codeInvalidArgument    = "invalid_argument"
	codeNotFound           = "not_found"
	codeFailedPrecondition = "failed_precondition"
)

// upgrader keeps gorilla's default origin check: a browser page may only
// connect from the host it was served by.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Inbound is a client request. Which fields apply depends on Type.
type Inbound struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Address string `json:"address,omitempty"`
	Name    string `json:"name,omitempty"`
	Parent  string `json:"parent,omitempty"`
	Kind    string `json:"kind,omitempty"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
}

// Outbound is a server message: a snapshot, an add acknowledgement, a pong
// or an error.
type Outbound struct {
	Type    string    `json:"type"`
	Version uint64    `json:"version,omitempty"`
	Text    string    `json:"text,omitempty"`
	Status  string    `json:"status,omitempty"`
	Tree    *api.Tree `json:"tree,omitempty"`
	Name    string    `json:"name,omitempty"`
	Code    string    `json:"code,omitempty"`
	Message string    `json:"message,omitempty"`
}

func snapshotMessage(snap *session.Snapshot) Outbound {
	out := Outbound{
		Type:    "snapshot",
		Version: snap.Version,
		Text:    snap.Text,
		Status:  snap.Status(),
	}
	if snap.Tree != nil {
		t := export.ToAPI(snap.Tree)
		out.Tree = &t
	}
	return out
}

func errorMessage(code string, err error) Outbound {
	return Outbound{Type: "error", Code: code, Message: err.Error()}
}

// Handler upgrades requests to websockets bound to one session.
type Handler struct {
	sess *session.Session
}

func NewHandler(sess *session.Session) *Handler {
	return &Handler{sess: sess}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warningf("rejected websocket from %s (origin %q): %v", r.RemoteAddr, r.Header.Get("Origin"), err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Warningf("set read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writeCh := make(chan Outbound, queueSize)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writeLoop(ctx, conn, writeCh)
	}()

	unsubscribe := h.sess.Subscribe(func(snap *session.Snapshot) {
		push(writeCh, snapshotMessage(snap))
	})
	defer unsubscribe()
	push(writeCh, snapshotMessage(h.sess.Current()))

	log.Debugf("client connected from %s", r.RemoteAddr)
	for {
		var in Inbound
		if err := conn.ReadJSON(&in); err != nil {
			log.Debugf("client %s gone: %v", r.RemoteAddr, err)
			cancel()
			<-writerDone
			return
		}
		if out, ok := h.apply(in); ok {
			push(writeCh, out)
		}
	}
}

// writeLoop owns all writes to conn. Snapshots older than the last one
// written are dropped, so a client never sees the version go backwards.
func writeLoop(ctx context.Context, conn *websocket.Conn, writeCh <-chan Outbound) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	var sent uint64
	for {
		select {
		case <-ctx.Done():
			return
		case out := <-writeCh:
			if out.Type == "snapshot" {
				if out.Version <= sent {
					continue
				}
				sent = out.Version
			}
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(out); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// apply runs one request against the session. The returned message, if any,
// is for the sender only; resulting snapshots reach every client through the
// subscription.
func (h *Handler) apply(in Inbound) (Outbound, bool) {
	var err error
	switch strings.ToLower(strings.TrimSpace(in.Type)) {
	case "ping":
		return Outbound{Type: "pong"}, true
	case "text":
		h.sess.SetText(in.Text)
		return Outbound{}, false
	case "rename":
		var addr tree.Address
		if addr, err = tree.ParseAddress(in.Address); err == nil {
			_, err = h.sess.Rename(addr, in.Name)
		}
	case "delete":
		var addr tree.Address
		if addr, err = tree.ParseAddress(in.Address); err == nil {
			_, err = h.sess.Delete(addr)
		}
	case "add":
		return h.add(in)
	case "move":
		var from, to tree.Address
		if from, err = tree.ParseAddress(in.From); err == nil {
			if to, err = tree.ParseAddress(in.To); err == nil {
				_, err = h.sess.Move(from, to)
			}
		}
	case "":
		return errorMessage(codeInvalidArgument, errors.New("type is required")), true
	default:
		return errorMessage(codeInvalidArgument, errors.New("unsupported type: "+in.Type)), true
	}
	if err != nil {
		return errorMessage(errorCode(err), err), true
	}
	return Outbound{}, false
}

func (h *Handler) add(in Inbound) (Outbound, bool) {
	parent, err := tree.ParseAddress(in.Parent)
	if err != nil {
		return errorMessage(codeInvalidArgument, err), true
	}
	kind := tree.KindContainer
	if in.Kind != "" {
		if kind, err = tree.ParseKind(in.Kind); err != nil {
			return errorMessage(codeInvalidArgument, err), true
		}
	}
	_, name, err := h.sess.Add(parent, kind)
	if err != nil {
		return errorMessage(errorCode(err), err), true
	}
	return Outbound{Type: "added", Name: name}, true
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, tree.ErrNodeNotFound), errors.Is(err, tree.ErrParentNotFound):
		return codeNotFound
	case errors.Is(err, tree.ErrRootDeletionForbidden), errors.Is(err, session.ErrNoTree):
		return codeFailedPrecondition
	default:
		return codeInvalidArgument
	}
}

// push never blocks: when the queue is full the oldest message is dropped.
func push(writeCh chan Outbound, out Outbound) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
