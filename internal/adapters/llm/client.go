package llm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/ports"
)

const maxStreamLine = 1 << 20

// statusError carries a non-200 reply. It matches ErrBadStatus.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v: %d %s", ErrBadStatus, e.Code, e.Body)
}

func (e *statusError) Is(target error) bool {
	return target == ErrBadStatus
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return !errors.Is(err, ErrEmptyResponse)
}

// lineDecoder turns one line of a streamed body into a fragment. skip drops
// keep-alives and metadata lines.
type lineDecoder func(line []byte) (content string, done, skip bool, err error)

// core holds what both providers share: HTTP plumbing, retries and observation.
type core struct {
	cfg      Config
	http     *http.Client
	observer Observer
}

func newCore(cfg Config, observer Observer) core {
	if observer == nil {
		observer = NoopObserver{}
	}
	return core{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
				ResponseHeaderTimeout: 60 * time.Second,
			},
		},
		observer: observer,
	}
}

func (c core) complete(ctx context.Context, task ports.TaskType, do func(ctx context.Context) (string, error)) (string, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.cfg.TaskTimeout(task))
	defer cancel()

	var lastErr error
	attempts := 0
	for attempts < 1+c.cfg.MaxRetries {
		attempts++
		text, err := do(ctx)
		if err == nil {
			c.observer.OnCallComplete(CallEvent{
				Task:      task,
				Model:     c.cfg.Model,
				LatencyMs: time.Since(start).Milliseconds(),
				Success:   true,
				Attempts:  attempts,
			})
			return text, nil
		}
		lastErr = err

		// Don't retry on context cancellation/timeout
		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}

	c.observer.OnCallComplete(CallEvent{
		Task:      task,
		Model:     c.cfg.Model,
		LatencyMs: time.Since(start).Milliseconds(),
		ErrorCode: errorCode(classify(ctx, lastErr)),
		Attempts:  attempts,
	})

	final := classify(ctx, lastErr)
	if final != lastErr || attempts == 1 {
		return "", final
	}
	return "", fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
}

// stream opens a single streaming request and pumps decoded fragments into a
// channel. Mid-stream failures end the channel with an Error token.
func (c core) stream(ctx context.Context, task ports.TaskType, open func(ctx context.Context) (*http.Response, error), decode lineDecoder) (<-chan ports.StreamToken, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.cfg.TaskTimeout(task))

	resp, err := open(ctx)
	if err != nil {
		err = classify(ctx, err)
		cancel()
		c.observer.OnCallComplete(CallEvent{Task: task, Model: c.cfg.Model, Streamed: true, Attempts: 1,
			LatencyMs: time.Since(start).Milliseconds(), ErrorCode: errorCode(err)})
		return nil, err
	}

	ch := make(chan ports.StreamToken, 100)
	go func() {
		defer close(ch)
		defer cancel()
		defer resp.Body.Close()

		emit := func(tok ports.StreamToken) bool {
			select {
			case ch <- tok:
				return true
			case <-ctx.Done():
				return false
			}
		}
		finish := func(err error) {
			c.observer.OnCallComplete(CallEvent{Task: task, Model: c.cfg.Model, Streamed: true, Attempts: 1,
				LatencyMs: time.Since(start).Milliseconds(), Success: err == nil, ErrorCode: errorCode(err)})
			if err != nil {
				emit(ports.StreamToken{Done: true, Error: err})
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)
		for scanner.Scan() {
			content, done, skip, err := decode(scanner.Bytes())
			if err != nil {
				finish(err)
				return
			}
			if skip {
				continue
			}
			if !emit(ports.StreamToken{Content: content, Done: done}) {
				finish(classify(ctx, ctx.Err()))
				return
			}
			if done {
				finish(nil)
				return
			}
		}

		if err := scanner.Err(); err != nil {
			finish(classify(ctx, err))
			return
		}
		if ctx.Err() != nil {
			finish(classify(ctx, ctx.Err()))
			return
		}
		finish(fmt.Errorf("reading stream: %w", io.ErrUnexpectedEOF))
	}()

	return ch, nil
}

// checkStatus turns a non-200 response into a statusError and closes its body.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &statusError{Code: resp.StatusCode, Body: string(body)}
}
