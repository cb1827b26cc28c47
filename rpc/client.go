package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/tailored-agentic-units/memorable/memo"
)

// Client calls a DocService. Errors for duplicate and unknown identities
// match memo.ErrAlreadyExists and memo.ErrNotFound under errors.Is.
type Client struct {
	push *connect.Client[structpb.Struct, wrapperspb.StringValue]
	get  *connect.Client[wrapperspb.StringValue, structpb.Struct]
	del  *connect.Client[wrapperspb.StringValue, structpb.Struct]
	list *connect.Client[emptypb.Empty, structpb.Struct]
}

// NewClient creates a Client for the service at baseURL, e.g.
// "http://127.0.0.1:8700".
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		push: connect.NewClient[structpb.Struct, wrapperspb.StringValue](httpClient, baseURL+PushProcedure, opts...),
		get:  connect.NewClient[wrapperspb.StringValue, structpb.Struct](httpClient, baseURL+GetProcedure, opts...),
		del:  connect.NewClient[wrapperspb.StringValue, structpb.Struct](httpClient, baseURL+DeleteProcedure, opts...),
		list: connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+ListProcedure, opts...),
	}
}

// Push stores fields as one object and returns its identity. A string
// "uuid" entry is used as the identity; otherwise one is generated.
func (c *Client) Push(ctx context.Context, fields map[string]any) (string, error) {
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return "", fmt.Errorf("encode object: %w", err)
	}

	res, err := c.push.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return "", fromConnectError(err)
	}
	return res.Msg.GetValue(), nil
}

// Get returns the object stored under id, including its "uuid" entry.
func (c *Client) Get(ctx context.Context, id string) (map[string]any, error) {
	res, err := c.get.CallUnary(ctx, connect.NewRequest(wrapperspb.String(id)))
	if err != nil {
		return nil, fromConnectError(err)
	}
	return res.Msg.AsMap(), nil
}

// Delete removes the object stored under id and returns it.
func (c *Client) Delete(ctx context.Context, id string) (map[string]any, error) {
	res, err := c.del.CallUnary(ctx, connect.NewRequest(wrapperspb.String(id)))
	if err != nil {
		return nil, fromConnectError(err)
	}
	return res.Msg.AsMap(), nil
}

// List returns every stored object keyed by identity.
func (c *Client) List(ctx context.Context) (map[string]map[string]any, error) {
	res, err := c.list.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return nil, fromConnectError(err)
	}

	all := make(map[string]map[string]any, len(res.Msg.GetFields()))
	for id, v := range res.Msg.GetFields() {
		all[id] = v.GetStructValue().AsMap()
	}
	return all, nil
}

func fromConnectError(err error) error {
	var cerr *connect.Error
	if !errors.As(err, &cerr) {
		return err
	}
	switch cerr.Code() {
	case connect.CodeAlreadyExists:
		return fmt.Errorf("%w: %w", memo.ErrAlreadyExists, err)
	case connect.CodeNotFound:
		return fmt.Errorf("%w: %w", memo.ErrNotFound, err)
	default:
		return err
	}
}
