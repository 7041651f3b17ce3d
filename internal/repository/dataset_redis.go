package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"matchchat/internal/models"

	"github.com/redis/go-redis/v9"
)

func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

// DatasetRedis keeps fetched match datasets in Redis so several processes
// share one provider fetch.
type DatasetRedis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDatasetRedis(client *redis.Client, ttl time.Duration) *DatasetRedis {
	return &DatasetRedis{client: client, ttl: ttl}
}

func datasetKey(matchID int) string { return "matchchat:events:" + strconv.Itoa(matchID) }

func (r *DatasetRedis) Get(ctx context.Context, matchID int) (*models.Dataset, bool, error) {
	b, err := r.client.Get(ctx, datasetKey(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var ds models.Dataset
	if err := json.Unmarshal(b, &ds); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached dataset: %w", err)
	}
	return &ds, true, nil
}

func (r *DatasetRedis) Set(ctx context.Context, ds *models.Dataset) error {
	b, err := json.Marshal(ds)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, datasetKey(ds.MatchID), b, r.ttl).Err()
}

func (r *DatasetRedis) Delete(ctx context.Context, matchID int) error {
	return r.client.Del(ctx, datasetKey(matchID)).Err()
}
