package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luccagoltzman/ia-b2b/internal/app"
	_ "github.com/luccagoltzman/ia-b2b/testing"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	app.RefreshTestMode()
	assert.True(t, app.InTestMode())
	assert.NotPanics(t, main)
}
