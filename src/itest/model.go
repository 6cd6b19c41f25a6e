package itest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/canonical/loki-tester/src/config"
)

// NewModel adds a model for the test and destroys it on cleanup,
// unless KEEP_MODELS is set.
func NewModel(t *testing.T, name string) *Harness {
	t.Helper()

	logger := zerolog.New(zerolog.NewTestWriter(t)).With().Timestamp().Str("test", t.Name()).Logger()
	model := fmt.Sprintf("test-%s-%s", name, uuid.NewString()[:8])

	juju := NewJuju("", nil, &logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := juju.AddModel(ctx, model); err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if keep, err := config.GetenvBool("KEEP_MODELS"); err == nil && *keep {
			t.Logf("Keeping model %s", model)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if err := juju.DestroyModel(ctx); err != nil {
			t.Errorf("Failed to destroy model: %s", err)
		}
	})

	return NewHarness(juju, &logger)
}
