package events

import (
	"context"
	"strings"
)

type actionFunc func(context.Context, OrderEvent) error

type actionFactory struct {
	byStatus map[string]actionFunc
}

func newActionFactory(onDispatchable, onCancelled actionFunc) *actionFactory {
	return &actionFactory{
		byStatus: map[string]actionFunc{
			"created":          onDispatchable,
			"processing":       onDispatchable,
			"ready_for_pickup": onDispatchable,
			"cancelled":        onCancelled,
			"canceled":         onCancelled,
			"deleted":          onCancelled,
		},
	}
}

func (f *actionFactory) get(status string) (actionFunc, bool) {
	status = strings.ToLower(strings.TrimSpace(status))
	fn, ok := f.byStatus[status]
	return fn, ok
}
