// Package feed drives the pipeline from a Redis Streams market event
// feed. Events are applied to the in-memory market source and the
// pipeline is polled serially, one envelope at a time.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/model"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/pipeline"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/source"
)

// Envelope event types carried on the stream.
const (
	EventBarClose     = "bar_close"
	EventDepth        = "depth"
	EventVAP          = "vap"
	EventTimeAndSales = "ts"
)

// Envelope is the standardized wrapper for all feed events.
type Envelope struct {
	Type    string          `json:"type"`
	Symbol  string          `json:"symbol"`
	TsEvent time.Time       `json:"ts_event"`
	Payload json.RawMessage `json:"payload"`
}

type barClosePayload struct {
	model.Bar
	NewSession bool `json:"new_session"`
}

type depthLevelPayload struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

type depthPayload struct {
	Bids []depthLevelPayload `json:"bids"`
	Asks []depthLevelPayload `json:"asks"`
}

type vapPayload struct {
	BarIndex int `json:"bar_index"`
	Entries  []struct {
		Price  float64 `json:"price"`
		Volume float64 `json:"volume"`
	} `json:"entries"`
}

// Config holds consumer configuration.
type Config struct {
	RedisURL      string
	RedisPassword string
	StreamKey     string
	ConsumerGroup string
	ConsumerName  string
	BlockTime     time.Duration
	BatchSize     int64
}

// Consumer reads envelopes from Redis Streams with a consumer group and
// feeds the pipeline. Messages are acknowledged after processing;
// decode failures are logged and skipped, never fatal.
type Consumer struct {
	client *redis.Client
	cfg    Config
	src    *source.MemorySource
	pipe   *pipeline.Pipeline
	logger *slog.Logger
}

// New creates a consumer and its group, verifying the connection.
func New(cfg Config, src *source.MemorySource, pipe *pipeline.Pipeline, logger *slog.Logger) (*Consumer, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if cfg.RedisPassword != "" {
		opt.Password = cfg.RedisPassword
	}
	if cfg.BlockTime <= 0 {
		cfg.BlockTime = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	// XGroupCreateMkStream creates the stream when missing; an existing
	// group is not an error.
	err = client.XGroupCreateMkStream(ctx, cfg.StreamKey, cfg.ConsumerGroup, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	return &Consumer{
		client: client,
		cfg:    cfg,
		src:    src,
		pipe:   pipe,
		logger: logger.With("component", "feed", "stream_key", cfg.StreamKey),
	}, nil
}

// Start consumes until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("feed_starting",
		"consumer_group", c.cfg.ConsumerGroup,
		"consumer_name", c.cfg.ConsumerName,
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("feed_stopping")
			return ctx.Err()
		default:
			streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    c.cfg.ConsumerGroup,
				Consumer: c.cfg.ConsumerName,
				Streams:  []string{c.cfg.StreamKey, ">"},
				Count:    c.cfg.BatchSize,
				Block:    c.cfg.BlockTime,
			}).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Error("xreadgroup_failed", "error", err)
				time.Sleep(time.Second)
				continue
			}

			for _, stream := range streams {
				for _, msg := range stream.Messages {
					if err := c.processMessage(msg); err != nil {
						c.logger.Error("envelope_skipped",
							"stream_id", msg.ID,
							"error", err,
						)
					}
					if err := c.client.XAck(ctx, c.cfg.StreamKey, c.cfg.ConsumerGroup, msg.ID).Err(); err != nil {
						c.logger.Error("xack_failed", "stream_id", msg.ID, "error", err)
					}
				}
			}
		}
	}
}

func (c *Consumer) processMessage(msg redis.XMessage) error {
	dataField, ok := msg.Values["data"]
	if !ok {
		return fmt.Errorf("message missing 'data' field")
	}
	jsonBytes, ok := dataField.(string)
	if !ok {
		return fmt.Errorf("data field is not a string")
	}

	var envelope Envelope
	if err := json.Unmarshal([]byte(jsonBytes), &envelope); err != nil {
		return fmt.Errorf("json unmarshal failed: %w", err)
	}

	if err := c.apply(&envelope); err != nil {
		return err
	}

	now := envelope.TsEvent
	if now.IsZero() {
		now = time.Now().UTC()
	}
	c.pipe.Poll(now)

	c.logger.Debug("envelope_processed",
		"stream_id", msg.ID,
		"type", envelope.Type,
		"symbol", envelope.Symbol,
	)
	return nil
}

func (c *Consumer) apply(envelope *Envelope) error {
	switch envelope.Type {
	case EventBarClose:
		var p barClosePayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			return fmt.Errorf("decode bar_close: %w", err)
		}
		p.Bar.Time = envelope.TsEvent
		c.src.AppendBar(p.Bar, p.NewSession)

	case EventDepth:
		var p depthPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			return fmt.Errorf("decode depth: %w", err)
		}
		c.src.SetDepth(model.SideBid, depthLevels(model.SideBid, p.Bids, envelope.TsEvent))
		c.src.SetDepth(model.SideAsk, depthLevels(model.SideAsk, p.Asks, envelope.TsEvent))

	case EventVAP:
		var p vapPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			return fmt.Errorf("decode vap: %w", err)
		}
		for _, e := range p.Entries {
			c.src.AddVolumeAtPrice(model.VolumeAtPrice{
				BarIndex: p.BarIndex,
				Price:    e.Price,
				Volume:   e.Volume,
			})
		}

	case EventTimeAndSales:
		var ev model.TimeAndSalesEvent
		if err := json.Unmarshal(envelope.Payload, &ev); err != nil {
			return fmt.Errorf("decode ts: %w", err)
		}
		if ev.Time.IsZero() {
			ev.Time = envelope.TsEvent
		}
		c.src.AppendTimeAndSales(ev)

	default:
		c.logger.Warn("unknown_event_type", "type", envelope.Type, "symbol", envelope.Symbol)
	}
	return nil
}

func depthLevels(side model.Side, levels []depthLevelPayload, ts time.Time) []model.DepthLevel {
	out := make([]model.DepthLevel, len(levels))
	for i, lv := range levels {
		out[i] = model.DepthLevel{
			Side:  side,
			Level: i,
			Price: lv.Price,
			Size:  lv.Size,
			Time:  ts,
		}
	}
	return out
}

// Close closes the Redis connection.
func (c *Consumer) Close() error {
	c.logger.Info("feed_closing")
	return c.client.Close()
}
