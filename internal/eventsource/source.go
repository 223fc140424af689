package eventsource

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"vrfRoulette/internal/model"
)

// Query selects casino logs. ToBlock 0 means latest. Player narrows the first
// indexed topic when set.
type Query struct {
	Address   string
	FromBlock uint64
	ToBlock   uint64
	Topic0    string
	Player    string
}

// Topics returns the positional topic filter for the query.
func (q Query) Topics() [][]common.Hash {
	var topics [][]common.Hash
	if q.Topic0 != "" {
		topics = append(topics, []common.Hash{common.HexToHash(q.Topic0)})
	}
	if q.Player != "" {
		if len(topics) == 0 {
			topics = append(topics, nil)
		}
		player := common.HexToAddress(q.Player)
		topics = append(topics, []common.Hash{common.BytesToHash(player.Bytes())})
	}
	return topics
}

// Subscription is a live push registration.
type Subscription interface {
	Unsubscribe()
}

// Source delivers casino logs by push and answers historical queries.
type Source interface {
	Subscribe(ctx context.Context, q Query, deliver func(model.RawLogRecord)) (Subscription, error)
	QueryLogs(ctx context.Context, q Query) ([]model.RawLogRecord, error)
}

// QueryError wraps a failed log query.
type QueryError struct {
	Query Query
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query logs from %d: %v", e.Query.FromBlock, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}
