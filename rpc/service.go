// Package rpc serves a memo.Object database over Connect. Requests and
// responses use protobuf well-known types, so any Connect, gRPC or gRPC-Web
// client can call it without generated stubs.
//
// Service owns its database exclusively and serializes every call, which
// makes it the single writer for the backing file.
package rpc

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/tailored-agentic-units/memorable/memo"
	"github.com/tailored-agentic-units/memorable/observability"
)

// ServiceName is the fully-qualified Connect service name.
const ServiceName = "memorable.v1.DocService"

// Procedure paths, relative to the server's base URL.
const (
	PushProcedure   = "/" + ServiceName + "/Push"
	GetProcedure    = "/" + ServiceName + "/Get"
	DeleteProcedure = "/" + ServiceName + "/Delete"
	ListProcedure   = "/" + ServiceName + "/List"
)

// ObjectDB is the database type the service exposes.
type ObjectDB = memo.Database[memo.Object, *memo.Object]

// Option configures a Service.
type Option func(*Service)

// WithObserver sets the observer receiving rpc.call events.
func WithObserver(obs observability.Observer) Option {
	return func(s *Service) { s.observer = obs }
}

// WithHandlerOptions appends Connect handler options to every procedure.
func WithHandlerOptions(opts ...connect.HandlerOption) Option {
	return func(s *Service) { s.handlerOpts = append(s.handlerOpts, opts...) }
}

// Service implements the DocService procedures.
type Service struct {
	mu          sync.Mutex
	db          *ObjectDB
	observer    observability.Observer
	handlerOpts []connect.HandlerOption
}

// NewService wraps db. The caller must not use db directly afterwards.
func NewService(db *ObjectDB, opts ...Option) *Service {
	s := &Service{
		db:       db,
		observer: observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns an http.Handler routing every DocService procedure.
func (s *Service) Handler() http.Handler {
	opts := append([]connect.HandlerOption{
		connect.WithInterceptors(newObserverInterceptor(s.observer)),
	}, s.handlerOpts...)

	mux := http.NewServeMux()
	mux.Handle(PushProcedure, connect.NewUnaryHandler(PushProcedure, s.Push, opts...))
	mux.Handle(GetProcedure, connect.NewUnaryHandler(GetProcedure, s.Get, opts...))
	mux.Handle(DeleteProcedure, connect.NewUnaryHandler(DeleteProcedure, s.Delete, opts...))
	mux.Handle(ListProcedure, connect.NewUnaryHandler(ListProcedure, s.List, opts...))
	return mux
}

// Push stores the request object and responds with its identity.
func (s *Service) Push(_ context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[wrapperspb.StringValue], error) {
	obj, err := memo.NewObject(req.Msg.AsMap())
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	s.mu.Lock()
	id, err := s.db.PushID(obj)
	s.mu.Unlock()
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(wrapperspb.String(id)), nil
}

// Get responds with the object stored under the requested identity.
func (s *Service) Get(_ context.Context, req *connect.Request[wrapperspb.StringValue]) (*connect.Response[structpb.Struct], error) {
	id := req.Msg.GetValue()
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("id is required"))
	}

	s.mu.Lock()
	obj, ok := s.db.Get(id)
	s.mu.Unlock()
	if !ok {
		return nil, toConnectError(memo.ErrNotFound)
	}

	return newStructResponse(obj.Map())
}

// Delete removes the object stored under the requested identity and
// responds with it.
func (s *Service) Delete(_ context.Context, req *connect.Request[wrapperspb.StringValue]) (*connect.Response[structpb.Struct], error) {
	id := req.Msg.GetValue()
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("id is required"))
	}

	s.mu.Lock()
	obj, err := s.db.Del(id)
	s.mu.Unlock()
	if err != nil {
		return nil, toConnectError(err)
	}

	return newStructResponse(obj.Map())
}

// List responds with the whole collection keyed by identity.
func (s *Service) List(_ context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	s.mu.Lock()
	docs := s.db.Docs()
	s.mu.Unlock()

	all := make(map[string]any, len(docs))
	for id, obj := range docs {
		all[id] = obj.Map()
	}
	return newStructResponse(all)
}

func newStructResponse(m map[string]any) (*connect.Response[structpb.Struct], error) {
	msg, err := structpb.NewStruct(m)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, memo.ErrAlreadyExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, memo.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
