package models

// ChannelKind is the closed set of channel types a template can hold.
type ChannelKind string

const (
	KindText         ChannelKind = "text"
	KindVoice        ChannelKind = "voice"
	KindStage        ChannelKind = "stage"
	KindForum        ChannelKind = "forum"
	KindAnnouncement ChannelKind = "announcement"
)

// Valid reports whether k is one of the known kinds.
func (k ChannelKind) Valid() bool {
	switch k {
	case KindText, KindVoice, KindStage, KindForum, KindAnnouncement:
		return true
	}
	return false
}

// HasTopic reports whether channels of this kind carry a topic.
func (k ChannelKind) HasTopic() bool {
	return k == KindText || k == KindForum || k == KindAnnouncement
}

// HasSlowmode reports whether the per-user message rate limit applies.
func (k ChannelKind) HasSlowmode() bool {
	return k == KindText || k == KindForum
}

// IsVoiceLike reports whether bitrate and user limit apply.
func (k ChannelKind) IsVoiceLike() bool {
	return k == KindVoice || k == KindStage
}
