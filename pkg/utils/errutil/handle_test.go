package errutil_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/herald/pkg/utils/errutil"
)

func TestHandle(t *testing.T) {
	var buf bytes.Buffer
	ctx := ctxlog.With(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	err := goerr.New("smtp refused", goerr.V("host", "mail.example.com"))
	errutil.Handle(ctx, "Notification delivery failed", err)

	out := buf.String()
	gt.String(t, out).Contains("Notification delivery failed")
	gt.String(t, out).Contains("smtp refused")
	gt.String(t, out).Contains(`"host":"mail.example.com"`)
}

func TestHandle_Nil(t *testing.T) {
	var buf bytes.Buffer
	ctx := ctxlog.With(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	errutil.Handle(ctx, "nothing happened", nil)
	gt.Equal(t, buf.Len(), 0)
}
