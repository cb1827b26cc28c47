package rpc

import (
	"context"
	"time"

	"connectrpc.com/connect"

	"github.com/tailored-agentic-units/memorable/observability"
)

// EventCall is emitted once per handled procedure call.
const EventCall observability.EventType = "rpc.call"

func newObserverInterceptor(obs observability.Observer) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			res, err := next(ctx, req)

			level := observability.LevelVerbose
			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
				level = observability.LevelWarning
				if connect.CodeOf(err) == connect.CodeInternal {
					level = observability.LevelError
				}
			}

			obs.OnEvent(ctx, observability.NewEvent(EventCall, level, "rpc.Service", map[string]any{
				"procedure": req.Spec().Procedure,
				"code":      code,
				"duration":  time.Since(start),
			}))
			return res, err
		}
	}
}
