package events

import (
	"fmt"
	"strings"
)

// Config selects and configures a publisher.
type Config struct {
	Driver        string
	RedisAddr     string
	RedisPassword string
	Stream        string
	AMQPURL       string
	Exchange      string
	KafkaBrokers  []string
	Topic         string
}

// Open returns the publisher for cfg.Driver. An empty driver or "none" yields Nop.
func Open(cfg Config) (Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "none":
		return Nop{}, nil
	case "redis":
		return NewRedisStreamPublisher(RedisStreamConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Stream:   cfg.Stream,
		})
	case "amqp", "rabbitmq":
		return NewAMQPPublisher(cfg.AMQPURL, cfg.Exchange)
	case "kafka":
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.Topic)
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}
