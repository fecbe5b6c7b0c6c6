package sl_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/finletter/internal/lib/sl"
)

func TestErr_ReturnsCorrectAttr(t *testing.T) {
	attr := sl.Err(errors.New("something went wrong"))

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, slog.StringValue("something went wrong"), attr.Value)
}

func TestErr_NilError(t *testing.T) {
	assert.NotPanics(t, func() {
		attr := sl.Err(nil)
		assert.Equal(t, "", attr.Value.String())
	})
}

func TestDiscard(t *testing.T) {
	log := sl.Discard()
	assert.NotPanics(t, func() { log.Info("nothing", sl.Err(errors.New("x"))) })
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		env       string
		wantDebug bool
	}{
		{env: "local", wantDebug: true},
		{env: "dev", wantDebug: true},
		{env: "prod", wantDebug: false},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			log := sl.SetupLogger(tt.env)
			assert.Equal(t, tt.wantDebug, log.Enabled(context.Background(), slog.LevelDebug))
		})
	}
}
