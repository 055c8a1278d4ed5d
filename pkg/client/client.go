package client

import (
	"context"
	"sync"
	"time"

	"ebooking/pkg/logger"
)

const disconnectTimeout = 10 * time.Second

// Client holds the process-wide connections shared by repositories and
// background workers.
type Client struct {
	Mongo *MongoClient

	mu      sync.Mutex
	closers []namedCloser
	log     *logger.Logger
}

type namedCloser struct {
	name  string
	close func() error
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	c.log = log
	c.Mongo = NewMongoClient(log, mongoURI, mongoConnTimeout)
}

// OnShutdown registers a resource to close during GracefulShutdown. Resources
// are closed in reverse registration order, before Mongo is disconnected.
func (c *Client) OnShutdown(name string, closeFn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closers = append(c.closers, namedCloser{name: name, close: closeFn})
}

func (c *Client) GracefulShutdown() {
	c.mu.Lock()
	closers := c.closers
	c.closers = nil
	c.mu.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].close(); err != nil && c.log != nil {
			c.log.Error("Failed to close resource", "resource", closers[i].name, "error", err)
		}
	}

	if c.Mongo == nil || c.Mongo.Client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	if err := c.Mongo.Client.Disconnect(ctx); err != nil {
		if c.log != nil {
			c.log.Error("Failed to disconnect from MongoDB", "error", err)
		}
		return
	}
	if c.log != nil {
		c.log.Info("Disconnected from MongoDB")
	}
}
