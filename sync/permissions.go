package sync

import (
	"go.uber.org/zap"

	"github.com/Haibread/guildsync/models"
)

// roleOverwrite is the common shape of the two stored permission kinds.
type roleOverwrite struct {
	Role  string
	Allow *int64
	Deny  *int64
}

func categoryOverwrites(perms []models.CategoryPermission) []roleOverwrite {
	out := make([]roleOverwrite, 0, len(perms))
	for _, p := range perms {
		out = append(out, roleOverwrite{Role: p.RoleName, Allow: p.Allow, Deny: p.Deny})
	}
	return out
}

func channelOverwrites(perms []models.ChannelPermission) []roleOverwrite {
	out := make([]roleOverwrite, 0, len(perms))
	for _, p := range perms {
		out = append(out, roleOverwrite{Role: p.RoleName, Allow: p.Allow, Deny: p.Deny})
	}
	return out
}

// translateOverwrites resolves stored role names against the guild's
// current roles and builds the overwrite list handed to the platform.
// A role that no longer exists is skipped with a warning; the rest of
// the overwrites still apply. The result is used identically for
// creates and for full-overwrite edits.
func translateOverwrites(overwrites []roleOverwrite, live *LiveState, resource string, log *zap.SugaredLogger) []*Overwrite {
	out := make([]*Overwrite, 0, len(overwrites))
	for _, o := range overwrites {
		role := live.RoleByName(o.Role)
		if role == nil {
			log.Warnf("guild %s: role %q referenced by %q no longer exists, skipping overwrite", live.GuildID, o.Role, resource)
			continue
		}
		out = append(out, &Overwrite{
			RoleID: role.ID,
			Allow:  bitsOrZero(o.Allow),
			Deny:   bitsOrZero(o.Deny),
		})
	}
	return out
}

func bitsOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
