package sync

import (
	"fmt"

	"github.com/Haibread/guildsync/models"
)

// ErrorKind classifies remote platform failures. The driver only ever
// branches on the kind, never on the underlying error value.
type ErrorKind int

const (
	ErrorOther ErrorKind = iota
	ErrorForbidden
	ErrorNotFound
	ErrorTransient
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorForbidden:
		return "forbidden"
	case ErrorNotFound:
		return "not found"
	case ErrorTransient:
		return "transient"
	}
	return "other"
}

// APIError wraps a remote platform error with its classification and
// the operation that produced it.
type APIError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Overwrite is a per-role allow/deny permission pair, keyed by the live
// role id, ready to hand to the remote platform.
type Overwrite struct {
	RoleID string
	Allow  int64
	Deny   int64
}

// ChannelSpec carries everything needed to create one channel remotely.
type ChannelSpec struct {
	Name       string
	Kind       models.ChannelKind
	ParentID   string
	Topic      string
	NSFW       bool
	Slowmode   int
	Bitrate    int
	UserLimit  int
	ThreadSlow int
	Overwrites []*Overwrite
}

// ChannelEdit is a partial update of a live channel. Nil fields are
// left untouched. Overwrites, when non-nil, fully replace the
// channel's permission overwrites.
type ChannelEdit struct {
	Topic      *string
	NSFW       *bool
	Slowmode   *int
	Bitrate    *int
	UserLimit  *int
	ThreadSlow *int
	ParentID   *string
	Overwrites []*Overwrite
}

// Position is one entry of a bulk reorder call.
type Position struct {
	ChannelID string
	Position  int
}

// RemoteClient is the engine's view of the chat platform. All errors
// carry an *APIError classification.
type RemoteClient interface {
	GuildCategories(guildID string) ([]*LiveCategory, error)
	GuildChannels(guildID string) ([]*LiveChannel, error)
	GuildRoles(guildID string) ([]*LiveRole, error)

	CreateCategory(guildID, name string, overwrites []*Overwrite) (string, error)
	CreateChannel(guildID string, spec ChannelSpec) (string, error)
	EditCategoryPermissions(categoryID string, overwrites []*Overwrite) error
	EditChannel(channelID string, edit ChannelEdit) error
	DeleteChannel(channelID string) error
	ReorderChannels(guildID string, positions []Position) error
}
