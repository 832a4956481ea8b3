package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Output: &buf})

	log.Info("term skipped", "term", "allow-web", "filter", "INPUT")

	line := strings.TrimRight(buf.String(), "\n")
	assert.Contains(t, line, "[info]")
	assert.Contains(t, line, "term skipped")
	assert.Contains(t, line, "term=allow-web")
	assert.Contains(t, line, "filter=INPUT")
}

func TestConsoleHandlerQuotesSpacedValues(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Output: &buf})

	log.Warn("note", "detail", "two words")
	assert.Contains(t, buf.String(), `detail="two words"`)
}

func TestWithComponentPromotedToHeader(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Output: &buf}).WithComponent("iptables")

	log.Info("translated", "terms", 3)

	line := buf.String()
	assert.Contains(t, line, "iptables: translated")
	assert.NotContains(t, line, "component=")
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelWarn, Output: &buf})

	log.Info("quiet")
	require.Empty(t, buf.String())

	log.SetLevel(LevelDebug)
	log.Info("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Output: &buf, JSON: true})

	log.Info("translated", "terms", 3)
	assert.Contains(t, buf.String(), `"msg":"translated"`)
	assert.Contains(t, buf.String(), `"terms":3`)
}
