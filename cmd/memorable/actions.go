package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tailored-agentic-units/memorable/memo"
	"github.com/tailored-agentic-units/memorable/rpc"
)

type actionKind string

const (
	actionPush  actionKind = "push"
	actionGet   actionKind = "get"
	actionDel   actionKind = "del"
	actionList  actionKind = "list"
	actionServe actionKind = "serve"
)

type action struct {
	kind actionKind
	arg  string
}

// selectAction requires exactly one action flag.
func selectAction(push, get, del string, list, serve bool) (action, error) {
	var picked []action
	if push != "" {
		picked = append(picked, action{kind: actionPush, arg: push})
	}
	if get != "" {
		picked = append(picked, action{kind: actionGet, arg: get})
	}
	if del != "" {
		picked = append(picked, action{kind: actionDel, arg: del})
	}
	if list {
		picked = append(picked, action{kind: actionList})
	}
	if serve {
		picked = append(picked, action{kind: actionServe})
	}

	switch len(picked) {
	case 1:
		return picked[0], nil
	case 0:
		return action{}, errors.New("no action given")
	default:
		return action{}, fmt.Errorf("only one action allowed, got %d", len(picked))
	}
}

// documents is what the CLI needs from either a local file or a server.
type documents interface {
	Push(ctx context.Context, fields map[string]any) (string, error)
	Get(ctx context.Context, id string) (map[string]any, error)
	Delete(ctx context.Context, id string) (map[string]any, error)
	List(ctx context.Context) (map[string]map[string]any, error)
}

type localDocuments struct {
	db *rpc.ObjectDB
}

func (l localDocuments) Push(_ context.Context, fields map[string]any) (string, error) {
	obj, err := memo.NewObject(fields)
	if err != nil {
		return "", err
	}
	return l.db.PushID(obj)
}

func (l localDocuments) Get(_ context.Context, id string) (map[string]any, error) {
	obj, ok := l.db.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", memo.ErrNotFound, id)
	}
	return obj.Map(), nil
}

func (l localDocuments) Delete(_ context.Context, id string) (map[string]any, error) {
	obj, err := l.db.Del(id)
	if err != nil {
		return nil, err
	}
	return obj.Map(), nil
}

func (l localDocuments) List(_ context.Context) (map[string]map[string]any, error) {
	all := make(map[string]map[string]any, l.db.Len())
	for id, obj := range l.db.Docs() {
		all[id] = obj.Map()
	}
	return all, nil
}

type remoteDocuments struct {
	client *rpc.Client
}

func (r remoteDocuments) Push(ctx context.Context, fields map[string]any) (string, error) {
	return r.client.Push(ctx, fields)
}

func (r remoteDocuments) Get(ctx context.Context, id string) (map[string]any, error) {
	return r.client.Get(ctx, id)
}

func (r remoteDocuments) Delete(ctx context.Context, id string) (map[string]any, error) {
	return r.client.Delete(ctx, id)
}

func (r remoteDocuments) List(ctx context.Context) (map[string]map[string]any, error) {
	return r.client.List(ctx)
}

func (a action) run(ctx context.Context, docs documents, w io.Writer) error {
	var result any

	switch a.kind {
	case actionPush:
		var fields map[string]any
		if err := json.Unmarshal([]byte(a.arg), &fields); err != nil {
			return fmt.Errorf("parse document: %w", err)
		}
		if fields == nil {
			return errors.New("parse document: expected a JSON object")
		}
		id, err := docs.Push(ctx, fields)
		if err != nil {
			return err
		}
		result = map[string]string{"uuid": id}
	case actionGet:
		doc, err := docs.Get(ctx, a.arg)
		if err != nil {
			return err
		}
		result = doc
	case actionDel:
		doc, err := docs.Delete(ctx, a.arg)
		if err != nil {
			return err
		}
		result = doc
	case actionList:
		all, err := docs.List(ctx)
		if err != nil {
			return err
		}
		result = all
	default:
		return fmt.Errorf("unsupported action %q", a.kind)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", out)
	return err
}
