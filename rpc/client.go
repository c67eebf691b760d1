package rpc

import (
	"context"
	"fmt"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client dials a remote state service. It is safe for concurrent use to the
// extent the underlying HTTP client is.
type Client struct {
	get   *connect.Client[structpb.Struct, structpb.Struct]
	set   *connect.Client[structpb.Struct, structpb.Struct]
	watch *connect.Client[structpb.Struct, structpb.Struct]
}

// NewClient creates a Client against baseURL using the given HTTP client.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	return &Client{
		get:   connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+ProcedureGet, opts...),
		set:   connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+ProcedureSet, opts...),
		watch: connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+ProcedureWatch, opts...),
	}
}

func pathRequest(path string) *connect.Request[structpb.Struct] {
	return connect.NewRequest(&structpb.Struct{
		Fields: map[string]*structpb.Value{
			"path": structpb.NewStringValue(path),
		},
	})
}

// Get reads the current value at path.
func (c *Client) Get(ctx context.Context, path string) (any, error) {
	resp, err := c.get.CallUnary(ctx, pathRequest(path))
	if err != nil {
		return nil, err
	}
	return resp.Msg.GetFields()["value"].AsInterface(), nil
}

// Set writes value at path. The server flushes pending recomputations
// before returning, so a subsequent Get sees derived values up to date.
func (c *Client) Set(ctx context.Context, path string, value any) error {
	pv, err := structpb.NewValue(value)
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}

	req := connect.NewRequest(&structpb.Struct{
		Fields: map[string]*structpb.Value{
			"path":  structpb.NewStringValue(path),
			"value": pv,
		},
	})
	_, err = c.set.CallUnary(ctx, req)
	return err
}

// Update is one message from a watch stream.
type Update struct {
	Path  string
	Value any
}

// WatchStream receives updates for one path. The first update carries the
// path's value at subscription time; later updates follow its notifications.
type WatchStream struct {
	stream *connect.ServerStreamForClient[structpb.Struct]
}

// Watch subscribes to path on the server. Cancel ctx or Close the stream to
// end the watch.
func (c *Client) Watch(ctx context.Context, path string) (*WatchStream, error) {
	stream, err := c.watch.CallServerStream(ctx, pathRequest(path))
	if err != nil {
		return nil, err
	}
	return &WatchStream{stream: stream}, nil
}

// Receive advances to the next update. It returns false when the stream
// ends; check Err to distinguish graceful close from failure.
func (w *WatchStream) Receive() bool {
	return w.stream.Receive()
}

// Update returns the most recently received update.
func (w *WatchStream) Update() Update {
	msg := w.stream.Msg()
	return Update{
		Path:  msg.GetFields()["path"].GetStringValue(),
		Value: msg.GetFields()["value"].AsInterface(),
	}
}

// Err returns the error that ended the stream, if any.
func (w *WatchStream) Err() error {
	return w.stream.Err()
}

// Close discards the stream.
func (w *WatchStream) Close() error {
	return w.stream.Close()
}
