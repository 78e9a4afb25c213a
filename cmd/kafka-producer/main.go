package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/osutrack-bridge/internal/domain"
	"github.com/osutrack-bridge/internal/kafka"
)

func main() {
	// Command line flags
	brokers := flag.String("brokers", "localhost:9094", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "osu-upload-jobs", "Kafka topic")
	userID := flag.String("user", "", "Chat user whose stored API key the jobs run under (required)")
	players := flag.String("players", "", "Players to re-track (comma-separated names or IDs, required)")
	modeName := flag.String("mode", "osu", "Game mode (osu, taiko, fruits, mania)")
	count := flag.Int("count", 1, "How many rounds of jobs to enqueue (0 = until interrupted)")
	interval := flag.Duration("interval", 30*time.Second, "Delay between rounds")
	flag.Parse()

	if *userID == "" || *players == "" {
		flag.Usage()
		os.Exit(2)
	}

	mode, err := domain.ParseMode(*modeName)
	if err != nil {
		log.Fatalf("Invalid mode: %v", err)
	}

	brokerList := strings.Split(*brokers, ",")
	playerList := strings.Split(*players, ",")
	for i := range playerList {
		playerList[i] = strings.TrimSpace(playerList[i])
	}

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("  🚀 osu!track Upload Job Producer")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("  Brokers:     %s\n", *brokers)
	fmt.Printf("  Topic:       %s\n", *topic)
	fmt.Printf("  User:        %s\n", *userID)
	fmt.Printf("  Players:     %d\n", len(playerList))
	fmt.Printf("  Mode:        %s\n", mode)
	fmt.Printf("  Rounds:      %d\n", *count)
	fmt.Printf("  Interval:    %s\n", *interval)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	// Configure Sarama producer
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	// Create producer
	producer, err := sarama.NewAsyncProducer(brokerList, config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}
	defer producer.Close()

	// Handle producer errors and successes
	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	// Send message helper
	sendJob := func(player string) {
		job := kafka.UploadJob{
			RequestID: uuid.New().String(),
			UserID:    *userID,
			Player:    player,
			Mode:      int(mode),
		}
		data, err := json.Marshal(job)
		if err != nil {
			log.Printf("Failed to marshal job: %v", err)
			return
		}

		msg := &sarama.ProducerMessage{
			Topic: *topic,
			Key:   sarama.StringEncoder(job.UserID),
			Value: sarama.ByteEncoder(data),
		}

		select {
		case producer.Input() <- msg:
		case <-done:
			return
		}
	}

	finish := func() {
		close(done)
		producer.AsyncClose()
		wg.Wait()
		fmt.Printf("\n✓ Completed. Sent: %d, Errors: %d\n",
			atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
	}

	round := 0
	for {
		round++
		for _, player := range playerList {
			sendJob(player)
		}
		fmt.Printf("[%s] Round %d: enqueued %d job(s)\n",
			time.Now().Format("15:04:05"), round, len(playerList))

		if *count > 0 && round >= *count {
			finish()
			return
		}

		select {
		case <-sigChan:
			fmt.Println("\nShutting down...")
			finish()
			return
		case <-time.After(*interval):
		}
	}
}
