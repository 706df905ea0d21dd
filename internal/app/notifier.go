package app

import (
	"context"
	"errors"

	"knowledge-governance/internal/model"
)

type StatusChangeHandler interface {
	OnDocumentStatusChanged(ctx context.Context, documentID string, status model.DocumentStatus) (int, error)
}

// DirectNotifier delivers status changes in process when no broker is configured.
type DirectNotifier struct {
	handlers []StatusChangeHandler
}

func NewDirectNotifier(handlers ...StatusChangeHandler) *DirectNotifier {
	return &DirectNotifier{handlers: handlers}
}

func (n *DirectNotifier) NotifyStatusChanged(ctx context.Context, event model.StatusChangeEvent) error {
	var errs []error
	for _, h := range n.handlers {
		if _, err := h.OnDocumentStatusChanged(ctx, event.DocumentID, event.To); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
