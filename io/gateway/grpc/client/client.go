package client

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/vadiminshakov/adbridge/io/channel"
	"github.com/vadiminshakov/adbridge/io/gateway/grpc/bridgepb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const inboxSize = 100

// BridgeClient is the requester end of a bridge stream.
type BridgeClient struct {
	conn    *grpc.ClientConn
	stream  bridgepb.Bridge_ExchangeClient
	inbound chan channel.Message
	ctx     context.Context
	cancel  context.CancelFunc
	// grpc streams do not allow concurrent Send
	mu sync.Mutex
}

// New creates a bridge client.
// 'addr' - the network address of the executor (host + port).
func New(addr string) (*BridgeClient, error) {
	conn, err := createConnection(addr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := bridgepb.Exchange(ctx, conn)
	if err != nil {
		cancel()
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to open bridge stream")
	}

	c := &BridgeClient{
		conn:    conn,
		stream:  stream,
		inbound: make(chan channel.Message, inboxSize),
		ctx:     ctx,
		cancel:  cancel,
	}
	go c.recvLoop()

	return c, nil
}

// Post sends payload to the executor.
func (c *BridgeClient) Post(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream.Send(wrapperspb.Bytes(payload))
}

// Inbox returns frames received from the executor. It is closed when the
// stream ends.
func (c *BridgeClient) Inbox() <-chan channel.Message {
	return c.inbound
}

// Close ends the stream and the connection.
func (c *BridgeClient) Close() error {
	c.mu.Lock()
	_ = c.stream.CloseSend()
	c.mu.Unlock()

	c.cancel()
	return c.conn.Close()
}

func (c *BridgeClient) recvLoop() {
	defer close(c.inbound)

	for {
		frame, err := c.stream.Recv()
		if err != nil {
			if err != io.EOF && status.Code(err) != codes.Canceled {
				log.Errorf("bridge stream ended: %v", err)
			}
			return
		}

		select {
		case c.inbound <- channel.Message{Data: frame.GetValue(), Source: c}:
		case <-c.ctx.Done():
			return
		}
	}
}
