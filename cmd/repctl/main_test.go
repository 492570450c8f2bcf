package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luccagoltzman/ia-b2b/cmd/repctl/cli"
	"github.com/luccagoltzman/ia-b2b/internal/app"
	_ "github.com/luccagoltzman/ia-b2b/testing"
)

func TestRunSkipsInTestMode(t *testing.T) {
	app.RefreshTestMode()
	assert.Equal(t, cli.ExitOK, run())
}
