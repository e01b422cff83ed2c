package core

import (
	"context"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// FetchOptions bounds the detail fetch fan-out
type FetchOptions struct {
	// Concurrency is the worker count of the pooled path
	Concurrency int
	// Threshold is the largest batch fetched sequentially
	Threshold int
}

// DefaultFetchOptions returns five workers above a batch size of ten
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{Concurrency: 5, Threshold: 10}
}

// BulkFetch fetches the detail of every id. Small batches are fetched in order;
// larger ones go through a bounded pool and come back in completion order.
// A failed fetch is logged and the message is left out of the result.
func BulkFetch(ctx context.Context, client MailboxClient, ids []string, opts FetchOptions, logger *zap.Logger) []*RawMessage {
	if len(ids) <= opts.Threshold || opts.Concurrency <= 1 {
		messages := make([]*RawMessage, 0, len(ids))
		for _, id := range ids {
			if msg := fetchOne(ctx, client, id, logger); msg != nil {
				messages = append(messages, msg)
			}
		}
		return messages
	}

	p := pool.NewWithResults[*RawMessage]().WithMaxGoroutines(opts.Concurrency)
	for _, id := range ids {
		p.Go(func() *RawMessage {
			return fetchOne(ctx, client, id, logger)
		})
	}

	results := p.Wait()
	messages := make([]*RawMessage, 0, len(results))
	for _, msg := range results {
		if msg != nil {
			messages = append(messages, msg)
		}
	}
	return messages
}

func fetchOne(ctx context.Context, client MailboxClient, id string, logger *zap.Logger) *RawMessage {
	msg, err := client.FetchDetail(ctx, id)
	if err != nil {
		logger.Warn("Failed to fetch message detail",
			zap.String("message_id", id),
			zap.Error(err))
		return nil
	}
	return msg
}
