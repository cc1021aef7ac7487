package obs

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("debug", "json", &buf)
	require.NoError(t, err)
	logger.Debug("hello", "k", 1)
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	logger, err = NewLogger("warn", "text", &buf)
	require.NoError(t, err)
	logger.Info("dropped")
	assert.Empty(t, buf.String())

	_, err = NewLogger("loud", "json", &buf)
	assert.Error(t, err)
	_, err = NewLogger("info", "xml", &buf)
	assert.Error(t, err)
}

func TestTimeLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("debug", "text", &buf)
	require.NoError(t, err)

	ctx := WithRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", RequestID(ctx))

	before := testutil.CollectAndCount(OpDuration)
	func() (err error) {
		defer Time(ctx, logger, "test.op")(&err)
		return errors.New("boom")
	}()

	out := buf.String()
	assert.Contains(t, out, "operation failed")
	assert.Contains(t, out, "req_id=abc")
	assert.Contains(t, out, "err=boom")
	assert.GreaterOrEqual(t, testutil.CollectAndCount(OpDuration), before)
}
