package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalContext_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	sc := NewSignalContext(parent)
	defer sc.Cancel()

	cancel()
	<-sc.Done()
	assert.Nil(t, sc.Signal())
}

func TestPrintSystemMessage(t *testing.T) {
	var buf bytes.Buffer
	printSystemMessage(&buf, "Workflow '%s' created.", "main")
	assert.Contains(t, buf.String(), ">>> Workflow 'main' created.")
	assert.False(t, isTerminal(&buf))
}
