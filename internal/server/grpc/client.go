package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls a remote ChunkService
type Client struct {
	conn   *grpc.ClientConn
	Health healthpb.HealthClient
}

// NewClient creates a client for addr. Extra dial options are appended
// after the insecure transport credentials.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, Health: healthpb.NewHealthClient(conn)}, nil
}

// Close closes the gRPC connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// PlanChunks asks the server to plan path. Zero option fields use the
// server's defaults.
func (c *Client) PlanChunks(ctx context.Context, path string, chunkSize, overlapSize, minChunkSize int64) (*structpb.Struct, error) {
	req := map[string]any{"path": path}
	if chunkSize > 0 {
		req["chunk_size"] = chunkSize
	}
	if overlapSize > 0 {
		req["overlap_size"] = overlapSize
	}
	if minChunkSize > 0 {
		req["min_chunk_size"] = minChunkSize
	}
	return c.call(ctx, MethodPlanChunks, req)
}

// SelectModel returns the server's selected and default model descriptors
func (c *Client) SelectModel(ctx context.Context) (*structpb.Struct, error) {
	return c.call(ctx, MethodSelectModel, nil)
}

// TranscribeFile transcribes a file readable by the server
func (c *Client) TranscribeFile(ctx context.Context, path string) (*structpb.Struct, error) {
	return c.call(ctx, MethodTranscribeFile, map[string]any{"path": path})
}

func (c *Client) call(ctx context.Context, method string, fields map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}
