package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func int64p(v int64) *int64 { return &v }

func TestTranslateOverwrites(t *testing.T) {
	live := NewLiveState("g1", nil, nil, []*LiveRole{
		{ID: "r1", Name: "Moderator"},
		{ID: "r2", Name: "Member"},
	})
	log := zap.NewNop().Sugar()

	out := translateOverwrites([]roleOverwrite{
		{Role: "Moderator", Allow: int64p(1024), Deny: int64p(2048)},
		{Role: "Member", Allow: int64p(1024)},
	}, live, "general", log)

	assert.Len(t, out, 2)
	assert.Equal(t, "r1", out[0].RoleID)
	assert.Equal(t, int64(1024), out[0].Allow)
	assert.Equal(t, int64(2048), out[0].Deny)
	assert.Equal(t, "r2", out[1].RoleID)
	assert.Equal(t, int64(0), out[1].Deny, "nil bitfield means no bits set")
}

func TestTranslateOverwritesSkipsMissingRole(t *testing.T) {
	live := NewLiveState("g1", nil, nil, []*LiveRole{{ID: "r1", Name: "Moderator"}})
	log := zap.NewNop().Sugar()

	out := translateOverwrites([]roleOverwrite{
		{Role: "DeletedRole", Allow: int64p(1)},
		{Role: "Moderator", Allow: int64p(2)},
	}, live, "general", log)

	// The missing role is dropped, not fatal, and the rest still apply.
	assert.Len(t, out, 1)
	assert.Equal(t, "r1", out[0].RoleID)
}

func TestTranslateOverwritesEmpty(t *testing.T) {
	live := NewLiveState("g1", nil, nil, nil)
	out := translateOverwrites(nil, live, "general", zap.NewNop().Sugar())
	assert.Empty(t, out)
}
