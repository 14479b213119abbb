package async_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/herald/pkg/utils/async"
)

// safeBuffer is a thread-safe buffer for concurrent logging
type safeBuffer struct {
	b bytes.Buffer
	m sync.Mutex
}

func (sb *safeBuffer) Write(p []byte) (int, error) {
	sb.m.Lock()
	defer sb.m.Unlock()
	return sb.b.Write(p)
}

func (sb *safeBuffer) String() string {
	sb.m.Lock()
	defer sb.m.Unlock()
	return sb.b.String()
}

// syncHandler is a slog.Handler that signals when a log is written
type syncHandler struct {
	handler slog.Handler
	done    chan struct{}
}

func newSyncHandler(buf *safeBuffer) *syncHandler {
	return &syncHandler{
		handler: slog.NewTextHandler(buf, &slog.HandlerOptions{
			Level: slog.LevelError,
		}),
		done: make(chan struct{}, 1),
	}
}

func (h *syncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *syncHandler) Handle(ctx context.Context, r slog.Record) error {
	err := h.handler.Handle(ctx, r)
	select {
	case h.done <- struct{}{}:
	default:
	}
	return err
}

func (h *syncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &syncHandler{
		handler: h.handler.WithAttrs(attrs),
		done:    h.done,
	}
}

func (h *syncHandler) WithGroup(name string) slog.Handler {
	return &syncHandler{
		handler: h.handler.WithGroup(name),
		done:    h.done,
	}
}

func TestDispatch(t *testing.T) {
	t.Run("executes handler asynchronously", func(t *testing.T) {
		ctx := context.Background()
		executed := make(chan struct{})

		async.Dispatch(ctx, func(ctx context.Context) error {
			close(executed)
			return nil
		})

		gt.NoError(t, async.Wait(ctx))
		select {
		case <-executed:
		default:
			t.Fatal("handler was not executed before Wait returned")
		}
	})

	t.Run("reports returned errors", func(t *testing.T) {
		logBuf := &safeBuffer{}
		handler := newSyncHandler(logBuf)
		ctx := ctxlog.With(context.Background(), slog.New(handler))

		async.Dispatch(ctx, func(ctx context.Context) error {
			return goerr.New("delivery failed", goerr.V("attempt", 3))
		})

		gt.NoError(t, async.Wait(ctx))
		select {
		case <-handler.done:
		case <-time.After(1 * time.Second):
			t.Fatal("log was not written within timeout")
		}

		gt.String(t, logBuf.String()).Contains("error in async handler")
		gt.String(t, logBuf.String()).Contains("delivery failed")
		gt.String(t, logBuf.String()).Contains("attempt=3")
	})

	t.Run("recovers from panic and logs the stack", func(t *testing.T) {
		logBuf := &safeBuffer{}
		handler := newSyncHandler(logBuf)
		ctx := ctxlog.With(context.Background(), slog.New(handler))

		async.Dispatch(ctx, func(ctx context.Context) error {
			panic("gateway exploded")
		})

		gt.NoError(t, async.Wait(ctx))
		select {
		case <-handler.done:
		case <-time.After(1 * time.Second):
			t.Fatal("log was not written within timeout")
		}

		out := logBuf.String()
		gt.String(t, out).Contains("panic in async handler")
		gt.String(t, out).Contains("gateway exploded")
		gt.String(t, out).Contains("goroutine")
		gt.String(t, out).Contains("dispatch_test.go")
	})

	t.Run("detaches from caller cancellation but keeps the logger", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(&safeBuffer{}, nil))
		ctx, cancel := context.WithCancel(ctxlog.With(context.Background(), logger))

		seen := make(chan *slog.Logger, 1)
		async.Dispatch(ctx, func(newCtx context.Context) error {
			cancel()
			select {
			case <-newCtx.Done():
				t.Error("handler context was cancelled with the caller")
			default:
			}
			seen <- ctxlog.From(newCtx)
			return nil
		})

		gt.NoError(t, async.Wait(context.Background()))
		gt.Value(t, <-seen).Equal(logger)
	})

	t.Run("wait gives up when context ends", func(t *testing.T) {
		release := make(chan struct{})
		async.Dispatch(context.Background(), func(ctx context.Context) error {
			<-release
			return nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		gt.Error(t, async.Wait(ctx))

		close(release)
		gt.NoError(t, async.Wait(context.Background()))
	})
}
