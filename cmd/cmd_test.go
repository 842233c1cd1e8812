package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteUnknownCommand(t *testing.T) {
	withArgs(t, "faqbot", "frobnicate")

	err := Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestExecuteHelp(t *testing.T) {
	for _, arg := range []string{"help", "--help", "-h"} {
		withArgs(t, "faqbot", arg)
		assert.NoError(t, Execute())
	}
}

func TestExecuteNoArgsShowsHelp(t *testing.T) {
	withArgs(t, "faqbot")
	assert.NoError(t, Execute())
}

func TestExecuteVersion(t *testing.T) {
	for _, arg := range []string{"version", "--version", "-v"} {
		withArgs(t, "faqbot", arg)
		assert.NoError(t, Execute())
	}
}

func TestExecuteAskRequiresQuestion(t *testing.T) {
	withArgs(t, "faqbot", "ask")

	err := Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage")
}
