package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/coder/websocket"

	"github.com/tersite/ter/watch"
)

// handleStatic serves files under the output directory. Directory requests
// map to the directory's index.html.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	root := s.cfg.OutputPath
	clean := sanitizeRequestPath(r.URL.Path)
	target := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
	if !isWithin(root, target) {
		s.notFound(w, r)
		return
	}

	info, err := os.Stat(target)
	if err != nil {
		s.notFound(w, r)
		return
	}
	if info.IsDir() {
		if !strings.HasSuffix(r.URL.Path, "/") {
			http.Redirect(w, r, clean+"/", http.StatusMovedPermanently)
			return
		}
		target = filepath.Join(target, "index.html")
		if !fileExists(target) {
			s.notFound(w, r)
			return
		}
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, target)
}

// notFound answers with the site's own 404 page when the build produced one.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	for _, candidate := range []string{"404.html", filepath.Join("404", "index.html")} {
		data, err := os.ReadFile(filepath.Join(s.cfg.OutputPath, candidate))
		if err != nil {
			continue
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		if r.Method != http.MethodHead {
			_, _ = w.Write(data)
		}
		return
	}
	http.NotFound(w, r)
}

// handleRefresh upgrades the request to a live-reload socket registered with
// the session until the peer goes away.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Debug("refresh upgrade", "error", err)
		return
	}

	client := &socketClient{conn: conn}
	if !s.session.Register(client) {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer s.session.Unregister(client)

	ctx := conn.CloseRead(r.Context())
	<-ctx.Done()
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	report, ok := s.reports.LastReport()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no build has finished yet")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// socketClient adapts a websocket connection to a refresh client.
type socketClient struct {
	conn *websocket.Conn
}

func (c *socketClient) Send(ctx context.Context, msg string) error {
	return c.conn.Write(ctx, websocket.MessageText, []byte(msg))
}

var _ watch.Client = (*socketClient)(nil)
