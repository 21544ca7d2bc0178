package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologAdapterFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := NewLogger(&buf, "compare")
	l.Info("strategy finished",
		String("strategy", "array"),
		Int("terms", 42),
		Bool("threaded", true),
		Duration("elapsed", 3*time.Millisecond),
	)

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "compare", event["component"])
	assert.Equal(t, "array", event["strategy"])
	assert.EqualValues(t, 42, event["terms"])
	assert.Equal(t, true, event["threaded"])
	assert.Equal(t, "info", event["level"])
}

func TestZerologAdapterError(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	NewLogger(&buf, "app").Error("run failed", errors.New("boom"), Err(errors.New("boom")))
	assert.Contains(t, buf.String(), `"error":"boom"`)
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{" INFO ", zerolog.InfoLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"loud", zerolog.Disabled, true},
		{"", zerolog.Disabled, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
