package logger

import (
	"bytes"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHookedLogger(buf *bytes.Buffer, modules string) (*logrus.Logger, *AsyncHook) {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})
	hook := NewAsyncHookWithWriters([]io.Writer{buf}, 10)
	if modules != "" {
		l.AddHook(NewFilterHook(modules))
	}
	l.AddHook(hook)
	return l, hook
}

func TestAsyncHook_KeepsLevelAndMessage(t *testing.T) {
	var buf bytes.Buffer
	l, hook := newHookedLogger(&buf, "")

	l.WithField("orderId", "o-1").Info("Đã phân công tài xế")
	l.Warn("sắp trễ")
	require.NoError(t, hook.Close())

	out := buf.String()
	assert.Contains(t, out, "level=info")
	assert.Contains(t, out, `msg="Đã phân công tài xế"`)
	assert.Contains(t, out, "orderId=o-1")
	assert.Contains(t, out, "level=warning")
	assert.Contains(t, out, `msg="sắp trễ"`)
	assert.NotContains(t, out, "level=panic")
}

func TestAsyncHook_WritesDirectlyAfterClose(t *testing.T) {
	var buf bytes.Buffer
	l, hook := newHookedLogger(&buf, "")
	require.NoError(t, hook.Close())

	l.Error("sau khi đóng")
	assert.Contains(t, buf.String(), "level=error")
	assert.Contains(t, buf.String(), `msg="sau khi đóng"`)
}

func TestFilterHook_DropsOtherModules(t *testing.T) {
	var buf bytes.Buffer
	l, hook := newHookedLogger(&buf, "order")

	l.WithField("module", "wallet").Info("bị lọc")
	l.WithField("module", "order").Info("được ghi")
	l.WithField("module", "wallet").Error("lỗi luôn được ghi")
	require.NoError(t, hook.Close())

	out := buf.String()
	assert.NotContains(t, out, "bị lọc")
	assert.Contains(t, out, `msg="được ghi"`)
	assert.Contains(t, out, `msg="lỗi luôn được ghi"`)
}
