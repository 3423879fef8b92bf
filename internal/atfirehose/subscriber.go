package atfirehose

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vanrijn/nederlandskie/internal/domain"
)

const (
	reconnectBackoff = 10 * time.Second
	idleReadTimeout  = 60 * time.Second
	pingInterval     = 25 * time.Second
)


// Subscriber dials com.atproto.sync.subscribeRepos on a single firehose
// host, decodes each frame, and drives a domain.IndexingProcessor with the
// resulting commits. It resumes from whatever cursor the processor already
// has persisted, so a restart replays at most a few commits rather than
// starting the whole firehose over.
type Subscriber struct {
	host      string
	processor *domain.IndexingProcessor
	logger    *slog.Logger
}

// NewSubscriber builds a Subscriber against the given firehose host (just
// the hostname, e.g. "bsky.network", not a full URL).
func NewSubscriber(host string, processor *domain.IndexingProcessor, logger *slog.Logger) *Subscriber {
	return &Subscriber{host: host, processor: processor, logger: logger}
}

// Start connects and processes commits until ctx is cancelled, reconnecting
// with a fixed backoff on any error.
func (s *Subscriber) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.subscribe(ctx); err != nil {
			s.logger.Error("firehose connection error, reconnecting", "host", s.host, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(reconnectBackoff):
			}
		}
	}
}

func (s *Subscriber) buildURL(cursor int64) string {
	u := url.URL{Scheme: "wss", Host: s.host, Path: "/xrpc/com.atproto.sync.subscribeRepos"}
	if cursor > 0 {
		q := u.Query()
		q.Set("cursor", strconv.FormatInt(cursor, 10))
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (s *Subscriber) subscribe(ctx context.Context) error {
	cursor, err := s.processor.Cursor(ctx)
	if err != nil {
		s.logger.Warn("failed to load cursor, starting from live", "error", err)
	}

	wsURL := s.buildURL(cursor)
	s.logger.Info("connecting to firehose", "url", wsURL)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial firehose: %w", err)
	}
	defer conn.Close()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(idleReadTimeout))
	})

	s.logger.Info("connected to firehose", "cursor", cursor)

	stop := make(chan struct{})
	defer close(stop)
	go s.keepAlive(conn, stop)

	var framesReceived, commitsReceived int64
	lastStatsLog := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(idleReadTimeout)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}
		framesReceived++

		frame, err := DecodeFrame(message)
		if err != nil {
			s.logger.Error("failed to decode frame", "error", err)
			continue
		}

		if frame.Error != nil {
			return fmt.Errorf("firehose error frame: %s: %s", frame.Error.Error, frame.Error.Message)
		}
		if frame.Commit == nil {
			continue
		}
		commitsReceived++

		ops, err := ExtractOperations(frame.Commit)
		if err != nil {
			s.logger.Error("failed to extract operations", "seq", frame.Commit.Seq, "error", err)
			continue
		}

		commit := domain.CommitDetails{
			Seq:        frame.Commit.Seq,
			Repo:       frame.Commit.Repo,
			Time:       frame.Commit.Time,
			Operations: ops,
		}
		if err := s.processor.ProcessCommit(ctx, commit); err != nil {
			s.logger.Error("failed to process commit", "seq", commit.Seq, "error", err)
		}

		if time.Since(lastStatsLog) >= 30*time.Second {
			s.logger.Info("firehose stats", "frames_received", framesReceived, "commits_received", commitsReceived)
			lastStatsLog = time.Now()
		}
	}
}

// keepAlive pings the connection periodically so idle periods with no
// commits don't trip the read deadline.
func (s *Subscriber) keepAlive(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
