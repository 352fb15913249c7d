package multiplex

import "time"

// Config agrupa los parámetros del multiplexer y de sus schedulers
type Config struct {
	// PollInterval es el periodo del timer de cada scheduler
	PollInterval time.Duration
	// EventBuffer es la capacidad de la cola interna de eventos de cada scheduler
	EventBuffer int
	// SubscriberBuffer es la capacidad del canal de cada suscriptor
	SubscriberBuffer int
	// UpdateTimeout acota cada llamada a la UpdateSource
	UpdateTimeout time.Duration
	// FeedRetryInterval es la espera antes de re-suscribirse al feed en vivo
	FeedRetryInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval:      time.Minute,
		EventBuffer:       8,
		SubscriberBuffer:  16,
		UpdateTimeout:     15 * time.Second,
		FeedRetryInterval: 30 * time.Second,
	}
}

// withDefaults completa los campos en cero
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = d.EventBuffer
	}
	if c.SubscriberBuffer <= 0 {
		c.SubscriberBuffer = d.SubscriberBuffer
	}
	if c.UpdateTimeout <= 0 {
		c.UpdateTimeout = d.UpdateTimeout
	}
	if c.FeedRetryInterval <= 0 {
		c.FeedRetryInterval = d.FeedRetryInterval
	}
	return c
}
