package clierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeOf(t *testing.T) {
	cause := errors.New("boom")

	assert.Equal(t, 0, ExitCodeOf(nil))
	assert.Equal(t, ExitFailure, ExitCodeOf(cause))
	assert.Equal(t, ExitConfig, ExitCodeOf(Newf(ExitConfig, "bad config")))
	assert.Equal(t, ExitConfig, ExitCodeOf(fmt.Errorf("outer: %w", Wrap(ExitConfig, "inner", cause))))
	assert.Equal(t, ExitFailure, ExitCodeOf(Wrap(0, "zero is not an error code", cause)))
}

func TestWrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ExitFailure, "run failed", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "run failed: boom", err.Error())
	assert.Equal(t, "plain", Wrap(ExitConfig, "plain", nil).Error())
	assert.Equal(t, "no vcr tag in [smoke]", Newf(ExitConfig, "no vcr tag in %v", []string{"smoke"}).Error())
}
