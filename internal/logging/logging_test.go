package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Levels(t *testing.T) {
	for _, pretty := range []string{"true", "false"} {
		t.Run("PRETTY_LOGS="+pretty, func(t *testing.T) {
			t.Setenv("PRETTY_LOGS", pretty)

			var quiet, verbose bytes.Buffer
			New(&quiet, false).Debug("hidden detail")
			New(&verbose, true).Debug("visible detail", "component", "test")

			assert.Empty(t, quiet.String())
			assert.Contains(t, verbose.String(), "visible detail")
			assert.Contains(t, verbose.String(), "component")
		})
	}
}

func TestNew_PlainText(t *testing.T) {
	t.Setenv("PRETTY_LOGS", "false")

	var buf bytes.Buffer
	New(&buf, false).Info("session established", "user_id", "42")

	assert.Contains(t, buf.String(), "level=INFO")
	assert.Contains(t, buf.String(), `msg="session established"`)
	assert.Contains(t, buf.String(), "user_id=42")
}
