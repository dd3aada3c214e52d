package server

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/vadiminshakov/adbridge/config"
	"github.com/vadiminshakov/adbridge/io/channel"
	"github.com/vadiminshakov/adbridge/io/gateway/grpc/bridgepb"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	inboxSize   = 100
	stopTimeout = 3 * time.Second
)

// ErrStreamClosed is returned when replying on a stream that has ended.
var ErrStreamClosed = errors.New("stream closed")

// Server accepts bridge streams from requesters. Every inbound frame becomes a
// channel.Message whose Source replies on the same stream.
type Server struct {
	Addr       string
	GRPCServer *grpc.Server
	Config     *config.Config
	inbound    chan channel.Message
	listener   net.Listener
}

// New fabric func for Server
func New(conf *config.Config) *Server {
	return &Server{
		Addr:    conf.Nodeaddr,
		Config:  conf,
		inbound: make(chan channel.Message, inboxSize),
	}
}

// Inbox returns messages received on any stream.
func (s *Server) Inbox() <-chan channel.Message {
	return s.inbound
}

// Exchange serves one requester stream.
func (s *Server) Exchange(stream bridgepb.Bridge_ExchangeServer) error {
	source := &streamEndpoint{stream: stream}
	ctx := stream.Context()

	for {
		frame, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		select {
		case s.inbound <- channel.Message{Data: frame.GetValue(), Source: source}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Run starts non-blocking GRPC server
func (s *Server) Run(opts ...grpc.StreamServerInterceptor) error {
	s.GRPCServer = grpc.NewServer(grpc.ChainStreamInterceptor(opts...))
	bridgepb.RegisterBridgeServer(s.GRPCServer, s)

	l, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.listener = l
	log.Infof("listening on tcp://%s", l.Addr())

	go func() {
		if err := s.GRPCServer.Serve(l); err != nil {
			log.Errorf("grpc server stopped: %v", err)
		}
	}()

	return nil
}

// ListenAddr returns the bound address once Run has succeeded.
func (s *Server) ListenAddr() string {
	if s.listener == nil {
		return s.Addr
	}
	return s.listener.Addr().String()
}

// Stop stops server
func (s *Server) Stop() {
	log.Info("stopping server")

	stopped := make(chan struct{})
	go func() {
		s.GRPCServer.GracefulStop()
		close(stopped)
	}()

	// open streams keep GracefulStop waiting
	select {
	case <-stopped:
	case <-time.After(stopTimeout):
		s.GRPCServer.Stop()
	}

	log.Info("server stopped")
}

type streamEndpoint struct {
	stream bridgepb.Bridge_ExchangeServer
	// grpc streams do not allow concurrent Send
	mu sync.Mutex
}

func (e *streamEndpoint) Post(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.stream.Context().Err() != nil {
		return ErrStreamClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stream.Send(wrapperspb.Bytes(payload))
}
