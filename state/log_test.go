package state

import (
	"bytes"
	"testing"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/assert"
)

func TestTreeLogger(t *testing.T) {
	var buf bytes.Buffer
	base := cmtlog.NewFilter(cmtlog.NewTMLogger(cmtlog.NewSyncWriter(&buf)), cmtlog.AllowInfo())
	lg := newTreeLogger(base)

	lg.Info("pruning versions", "from", 1)
	assert.Empty(t, buf.String())

	lg.With("version", 7).Error("save failed", "err", "disk full")
	out := buf.String()
	assert.Contains(t, out, "save failed")
	assert.Contains(t, out, "module=iavl")
	assert.Contains(t, out, "version=7")

	_, ok := lg.Impl().(cmtlog.Logger)
	assert.True(t, ok)
}
