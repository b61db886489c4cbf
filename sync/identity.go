package sync

import "github.com/Haibread/guildsync/models"

// resolveCategory matches a template category to a live one. Category
// names are guild-global on the platform, so the name is the whole key.
func resolveCategory(tc *models.TemplateCategory, live *LiveState) *LiveCategory {
	return live.CategoryByName(tc.Name)
}

// channelMatch is the outcome of channel identity resolution. learnedID
// is set when the match came from the name fallback and the stored
// remote id should be rewritten.
type channelMatch struct {
	live      *LiveChannel
	learnedID string
}

// resolveChannel matches a template channel to a live one: stored
// remote id first, then (name, resolved parent live id). An id hit
// whose live type no longer matches the template's declared kind is
// stale and falls through to the name lookup, same as after a manual
// delete-and-recreate.
func resolveChannel(tc *models.TemplateChannel, parentLiveID string, live *LiveState) channelMatch {
	if tc.ChannelID != "" {
		if found := live.ChannelByID(tc.ChannelID); found != nil && found.Kind == tc.Kind {
			return channelMatch{live: found}
		}
	}
	if found := live.ChannelByName(tc.Name, parentLiveID); found != nil && found.Kind == tc.Kind {
		m := channelMatch{live: found}
		if tc.ChannelID != found.ID {
			m.learnedID = found.ID
		}
		return m
	}
	return channelMatch{}
}
