package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rbright/textpolish/internal/polish"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"
)

const defaultDialTimeout = 3 * time.Second

// Client calls a remote Polisher service.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to address and waits until the connection is ready or
// timeout elapses (timeout <= 0 uses 3s).
func Dial(ctx context.Context, address string, timeout time.Duration, opts ...grpc.DialOption) (*Client, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, errors.New("polish server address is empty")
	}
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(address, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial polish server %q: %w", address, err)
	}

	readyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn.Connect()
	if err := waitForReady(readyCtx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("wait for polish server %q: %w", address, err)
	}
	return &Client{conn: conn}, nil
}

// Polish sends one text to the remote engine.
func (c *Client) Polish(ctx context.Context, text string, hint string) (polish.Result, error) {
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, polishMethod, newPolishRequest(text, hint), resp); err != nil {
		return polish.Result{}, fmt.Errorf("remote polish: %w", err)
	}
	return structToResult(resp)
}

// Healthy reports whether the remote Polisher service is SERVING.
func (c *Client) Healthy(ctx context.Context) (bool, error) {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return false, fmt.Errorf("health check: %w", err)
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// waitForReady blocks until the connection enters Ready or fails.
func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return errors.New("grpc connection entered shutdown state")
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("grpc readiness wait timed out in state %s", state.String())
		}
	}
}
