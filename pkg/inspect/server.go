// Package inspect serves a read-only HTTP view of a live mirror.Document:
// its text, its node tree, offset lookups, and a websocket stream of
// change events.
//
// The document is confined to its loop, so every handler reads it through
// core.Loop.Call. Nothing here touches the node tree from an HTTP
// goroutine.
package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang/glog"

	"github.com/go-drift/docmirror/pkg/core"
	"github.com/go-drift/docmirror/pkg/mirror"
)

// maxTreeDepth limits recursion depth to prevent stack overflow from malformed trees.
const maxTreeDepth = 500

// callTimeout bounds how long a request waits for the loop.
const callTimeout = 5 * time.Second

// TreeNode is the JSON form of a document node.
type TreeNode struct {
	Value    string     `json:"value"`
	Text     string     `json:"text"`
	PostText string     `json:"postText,omitempty"`
	Style    string     `json:"style"`
	Start    int        `json:"start"`
	Length   int        `json:"length"`
	Depth    int        `json:"depth"`
	Children []TreeNode `json:"children,omitempty"`
}

// Lookup is the JSON answer of /lookup.
type Lookup struct {
	Offset int    `json:"offset"`
	Value  string `json:"value"`
	Start  int    `json:"start"`
	Length int    `json:"length"`
}

// Server is the inspector. It implements http.Handler.
type Server struct {
	doc    *mirror.Document
	loop   *core.Loop
	router chi.Router
	hub    *hub

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewServer creates an inspector for doc, which must be confined to loop.
// The event stream attaches on the loop's next drain.
func NewServer(doc *mirror.Document, loop *core.Loop) *Server {
	s := &Server{doc: doc, loop: loop, hub: newHub()}
	loop.Dispatch(func() {
		s.hub.detach = doc.AddListener(s.hub.publish)
	})
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/text", s.handleText)
	r.Get("/tree", s.handleTree)
	r.Get("/lookup", s.handleLookup)
	r.Get("/events", s.handleEvents)

	s.router = r
}

// Start listens on addr and serves in the background. It returns the
// bound address, useful when addr asks for an ephemeral port.
func (s *Server) Start(addr string) (net.Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return s.listener.Addr(), nil
	}

	// Bind listener first to fail fast on port conflicts
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("inspect listen: %w", err)
	}
	server := &http.Server{Handler: s, ReadHeaderTimeout: 5 * time.Second}
	s.server = server
	s.listener = listener

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.mu.Lock()
			s.server = nil
			s.listener = nil
			s.mu.Unlock()
			glog.Errorf("[inspect] server error: %v", err)
		}
	}()
	glog.Infof("[inspect] listening on %s", listener.Addr())
	return listener.Addr(), nil
}

// Shutdown stops the HTTP server, closes every event stream and detaches
// from the document.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	s.hub.closeAll()
	s.loop.Dispatch(func() {
		if s.hub.detach != nil {
			s.hub.detach()
			s.hub.detach = nil
		}
	})
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// call runs fn on the document's loop.
func (s *Server) call(r *http.Request, fn func()) error {
	ctx, cancel := context.WithTimeout(r.Context(), callTimeout)
	defer cancel()
	return s.loop.Call(ctx, fn)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	var text string
	var docErr error
	if err := s.call(r, func() {
		text = s.doc.Text()
		docErr = s.doc.Err()
	}); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if docErr != nil {
		w.Header().Set("X-Document-Error", docErr.Error())
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(text))
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	var tree TreeNode
	if err := s.call(r, func() {
		tree = serializeTree(s.doc.Root(), 0, 0)
	}); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, tree)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil {
		http.Error(w, "offset must be an integer", http.StatusBadRequest)
		return
	}

	var (
		found  bool
		result = Lookup{Offset: offset}
	)
	if err := s.call(r, func() {
		value, ok := s.doc.ValueAt(offset)
		if !ok {
			return
		}
		n := s.doc.NodeFor(value)
		found = n != nil
		if found {
			result.Value = formatValue(value)
			result.Start = n.Start()
			result.Length = n.Len()
		}
	}); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if !found {
		http.Error(w, "offset out of range", http.StatusNotFound)
		return
	}
	writeJSON(w, result)
}

func serializeTree(n *mirror.Node, start, depth int) TreeNode {
	out := TreeNode{
		Value:    formatValue(n.Value()),
		Text:     n.LocalText(),
		PostText: n.PostText(),
		Style:    n.Style().String(),
		Start:    start,
		Length:   n.Len(),
		Depth:    n.Depth(),
	}
	if depth >= maxTreeDepth {
		return out
	}
	pos := start + len([]rune(n.LocalText()))
	for _, child := range n.Children() {
		out.Children = append(out.Children, serializeTree(child, pos, depth+1))
		pos += child.Len()
	}
	return out
}

// formatValue describes a source value, preferring its String method.
func formatValue(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}

func writeJSON(w http.ResponseWriter, v any) {
	// Encode to buffer first so we can catch errors
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// requestLogger logs incoming requests.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		glog.V(1).Infof("[inspect] %s %s %d %s id=%s",
			r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}
