//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/spatial-summarize/internal/domain"
)

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	jobID := flag.String("job", "", "ID of a pending summary job (POST /api/v1/jobs)")
	wait := flag.Duration("wait", 30*time.Second, "how long to wait for the done event")
	flag.Parse()

	id, err := uuid.Parse(*jobID)
	if err != nil {
		log.Fatalf("Invalid -job: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	data, err := json.Marshal(domain.SummaryRequestEvent{JobID: id})
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	// Запоминаем хвост стрима результатов до публикации
	lastID := "$"
	if msgs, err := client.XRevRangeN(ctx, domain.StreamSummaryDone, "+", "-", 1).Result(); err == nil && len(msgs) > 0 {
		lastID = msgs[0].ID
	}

	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: domain.StreamSummaryRequest,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("Event published\n")
	fmt.Printf("   Stream: %s\n", domain.StreamSummaryRequest)
	fmt.Printf("   Message ID: %s\n", result)
	fmt.Printf("   Job ID: %s\n", id)
	fmt.Printf("\nWaiting for response in %s...\n", domain.StreamSummaryDone)

	deadline := time.Now().Add(*wait)
	for time.Now().Before(deadline) {
		streams, err := client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{domain.StreamSummaryDone, lastID},
			Count:   10,
			Block:   time.Second,
		}).Result()
		if err != nil && err != redis.Nil {
			log.Printf("XREAD failed: %v", err)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				lastID = msg.ID

				dataStr, ok := msg.Values["data"].(string)
				if !ok {
					continue
				}

				var done domain.SummaryDoneEvent
				if err := json.Unmarshal([]byte(dataStr), &done); err != nil {
					continue
				}
				if done.JobID != id {
					continue
				}

				pretty, _ := json.MarshalIndent(done, "", "  ")
				fmt.Printf("\nResponse received:\n%s\n", pretty)
				return
			}
		}
	}

	fmt.Println("Timeout waiting for response")
}
