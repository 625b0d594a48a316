package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLevels(t *testing.T) {
	var quiet bytes.Buffer
	log := New(&quiet, false)
	log.Debug().Msg("hidden")
	log.Info().Str("cluster", "dg-foo001").Msg("shown")

	assert.NotContains(t, quiet.String(), "hidden")
	assert.Contains(t, quiet.String(), "shown")
	assert.Contains(t, quiet.String(), "dg-foo001")

	var verbose bytes.Buffer
	log = New(&verbose, true)
	log.Debug().Msg("details")
	assert.Contains(t, verbose.String(), "details")
}
