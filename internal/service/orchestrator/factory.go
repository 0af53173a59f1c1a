package orchestrator

import (
	"context"
	"strings"

	"delivery-orchestrator/internal/domain"
)

type actionFunc func(context.Context, domain.Order) error

type actionFactory struct {
	byStatus map[domain.OrderStatus]actionFunc
}

func newActionFactory(onPending, onCancelRequested actionFunc) *actionFactory {
	return &actionFactory{
		byStatus: map[domain.OrderStatus]actionFunc{
			domain.OrderPending:         onPending,
			domain.OrderCancelRequested: onCancelRequested,
		},
	}
}

func (f *actionFactory) get(status domain.OrderStatus) (actionFunc, bool) {
	status = domain.OrderStatus(strings.ToLower(strings.TrimSpace(string(status))))
	fn, ok := f.byStatus[status]
	return fn, ok
}

func (f *actionFactory) statuses() []string {
	out := make([]string, 0, len(f.byStatus))
	for st := range f.byStatus {
		out = append(out, string(st))
	}
	return out
}
