package bridge

import (
	"context"

	"github.com/dkachan/trackwarden/internal/domain"
	"go.uber.org/zap"
)

// Processor is the evaluation entry point the client hands tracks to.
// *evaluate.Orchestrator satisfies it.
type Processor interface {
	SetNowPlaying(track domain.Track)
	Process(ctx context.Context, track domain.Track) *domain.Decision
}

// Client ties the transport to the pipeline: now-playing events go in,
// enforcement commands come back out. It is the enforcement sink for
// decisions produced by late re-evaluations as well.
type Client struct {
	ws          *WebSocket
	processor   Processor
	logger      *zap.Logger
	unsubscribe func()
}

func NewClient(ws *WebSocket, processor Processor, logger *zap.Logger) *Client {
	return &Client{
		ws:        ws,
		processor: processor,
		logger:    logger,
	}
}

// Start subscribes to playback events and opens the connection.
func (c *Client) Start(ctx context.Context) error {
	c.unsubscribe = c.ws.OnEvent(func(event *Event) {
		c.handleEvent(ctx, event)
	})
	return c.ws.Connect(ctx)
}

func (c *Client) Stop() error {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	return c.ws.Disconnect()
}

func (c *Client) handleEvent(ctx context.Context, event *Event) {
	if event.Type != EventNowPlaying {
		c.logger.Debug("Ignoring bridge event", zap.String("type", event.Type))
		return
	}

	track := domain.Track{
		Title:        event.Title,
		ArtistString: event.Artist,
	}
	c.processor.SetNowPlaying(track)

	// Process blocks while unknown artists resolve, so each event gets its
	// own goroutine. Stale verdicts are filtered by the session guard.
	go func() {
		decision := c.processor.Process(ctx, track)
		if decision.Terminal() {
			if err := c.Apply(ctx, track, decision); err != nil {
				c.logger.Warn("Failed to enforce decision",
					zap.String("title", track.Title),
					zap.Error(err),
				)
			}
		}
	}()
}

// Apply translates a decision into player commands. Allowed tracks produce
// no commands; strict blocks skip and negatively rate, soft blocks only skip.
func (c *Client) Apply(ctx context.Context, track domain.Track, decision *domain.Decision) error {
	if !decision.Blocked {
		c.logger.Debug("Track allowed",
			zap.String("title", track.Title),
			zap.String("reason", decision.Reason),
		)
		return nil
	}

	c.logger.Info("Blocking track",
		zap.String("title", track.Title),
		zap.String("artist", track.ArtistString),
		zap.String("mode", string(decision.Mode)),
		zap.String("reason", decision.Reason),
	)

	if decision.Mode == domain.BlockModeStrict {
		if err := c.ws.SendCommand(Command{Action: ActionDislike, Reason: decision.Reason}); err != nil {
			return err
		}
	}
	return c.ws.SendCommand(Command{Action: ActionSkip, Reason: decision.Reason})
}
