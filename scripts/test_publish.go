//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type riskRecomputeJob struct {
	RegionID   string    `json:"region_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Manually enqueues one risk recompute job, for exercising the worker
// against a local stack.
func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	regionID := flag.String("region", "", "Region id to recompute")
	flag.Parse()

	if *regionID == "" {
		log.Fatal("usage: go run scripts/test_publish.go -region <region-id>")
	}

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	job := riskRecomputeJob{
		RegionID:   *regionID,
		EnqueuedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		log.Fatalf("Failed to marshal job: %v", err)
	}

	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: "jobs:risk-recompute",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish job: %v", err)
	}

	fmt.Printf("Job published\n")
	fmt.Printf("   Stream: jobs:risk-recompute\n")
	fmt.Printf("   Message ID: %s\n", result)
	fmt.Printf("   Region ID: %s\n", job.RegionID)
}
