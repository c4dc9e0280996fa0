package ws

import (
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"

	"github.com/mavgate/mavgate/internal/telemetry"
	"github.com/mavgate/mavgate/log2"
)

const DefaultWriteTimeout = 10 * time.Second

type ServerOptions struct {
	Log          *log2.Log
	Addr         string // host:port
	Hub          *Hub
	Cache        *telemetry.StateCache
	Alive        *alive.Alive // sessions run under this
	WriteTimeout time.Duration
}

// Server accepts subscriber connections and runs one session per
// connection. Any URL path upgrades.
type Server struct {
	opt      ServerOptions
	upgrader websocket.Upgrader
	httpSrv  *http.Server
	ln       net.Listener
}

func NewServer(opt ServerOptions) *Server {
	if opt.WriteTimeout == 0 {
		opt.WriteTimeout = DefaultWriteTimeout
	}
	s := &Server{
		opt: opt,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// subscribers are unauthenticated, no origin check either
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.httpSrv = &http.Server{
		Handler:  http.HandlerFunc(s.handle),
		ErrorLog: opt.Log.Stdlib(),
	}
	return s
}

// Listen binds the subscriber endpoint and serves in background.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.opt.Addr)
	if err != nil {
		return errors.Annotatef(err, "ws listen addr=%s", s.opt.Addr)
	}
	s.ln = ln
	s.opt.Log.Infof("ws server listening on %s", ln.Addr().String())

	if !s.opt.Alive.Add(1) {
		_ = ln.Close()
		return errors.New("ws server start after stop")
	}
	go func() {
		defer s.opt.Alive.Done()
		if serr := s.httpSrv.Serve(ln); serr != nil && serr != http.ErrServerClosed {
			s.opt.Log.Debugf("ws server done err=%v", serr)
		}
	}()
	return nil
}

// Addr is the bound address, useful with port 0.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Close stops accepting new subscribers and force-closes current ones.
func (s *Server) Close() error {
	err := s.httpSrv.Close()
	s.opt.Hub.CloseAll()
	return err
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.opt.Log.Errorf("ws upgrade from=%s err=%v", r.RemoteAddr, err)
		return
	}
	if !s.opt.Alive.Add(1) {
		_ = c.Close()
		return
	}
	defer s.opt.Alive.Done()

	sess := &session{
		log:   s.opt.Log,
		hub:   s.opt.Hub,
		cache: s.opt.Cache,
		conn:  newWsConn(c, s.opt.WriteTimeout),
	}
	sess.run()
	_ = c.Close()
}
