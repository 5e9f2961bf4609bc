package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/entity"
)

const resultsKey = "match:results"

var ErrUnknownVerdict = errors.New("unknown verdict")

type ResultRepository interface {
	Record(ctx context.Context, verdict entity.Verdict) error
	Tally(ctx context.Context) (*entity.Tally, error)
}

type dbResult struct {
	client *redis.Client
}

// NewResultRepository - keeps match tallies in a redis hash.
func NewResultRepository(client *redis.Client) ResultRepository {
	return &dbResult{
		client: client,
	}
}

func (that *dbResult) Record(ctx context.Context, verdict entity.Verdict) error {
	field, err := fieldOf(verdict)
	if err != nil {
		return err
	}

	if err = that.client.HIncrBy(ctx, resultsKey, field, 1).Err(); err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}

	return nil
}

func (that *dbResult) Tally(ctx context.Context) (*entity.Tally, error) {
	response, err := that.client.HGetAll(ctx, resultsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}

	tally := &entity.Tally{}
	for field, value := range response {
		count, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s count: %w", field, err)
		}

		switch field {
		case string(entity.VerdictX):
			tally.XWins = count
		case string(entity.VerdictO):
			tally.OWins = count
		case string(entity.VerdictDraw):
			tally.Draws = count
		}
	}

	return tally, nil
}

type memResult struct {
	mu    sync.Mutex
	tally entity.Tally
}

// NewMemoryResultRepository - process-local tallies for when redis is disabled.
func NewMemoryResultRepository() ResultRepository {
	return &memResult{}
}

func (that *memResult) Record(_ context.Context, verdict entity.Verdict) error {
	if _, err := fieldOf(verdict); err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	that.tally.Add(verdict)

	return nil
}

func (that *memResult) Tally(_ context.Context) (*entity.Tally, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	tally := that.tally

	return &tally, nil
}

func fieldOf(verdict entity.Verdict) (string, error) {
	switch verdict {
	case entity.VerdictX, entity.VerdictO, entity.VerdictDraw:
		return string(verdict), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVerdict, verdict)
	}
}
