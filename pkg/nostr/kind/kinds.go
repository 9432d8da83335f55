// Package kind defines the event kind type and the well known kind numbers.
package kind

// T - which will be externally referenced as kind.T is the event type in the
// nostr protocol, the use of the capital T signifying type, consistent with
// Go idiom, the Go standard library, and much, conformant, existing code.
type T uint16

func (ki T) ToInt() int       { return int(ki) }
func (ki T) ToUint16() uint16 { return uint16(ki) }

// The event kinds are put in a separate package so they will be referred to
// as `kind.TextNote` rather than `nostr.KindTextNote` as this is correct Go
// idiom. Repeating 'nostr' in these constant names is redundant as they are
// only used in this context, and creating a special type for them makes this
// implicit and enforced by the compiler at compile time.
const (
	// ProfileMetadata is an event type that stores user profile data, pet
	// names, bio, lightning address, etc.
	ProfileMetadata T = 0
	// SetMetadata is a synonym for ProfileMetadata.
	SetMetadata T = 0
	// TextNote is a standard short text note of plain text a la twitter
	TextNote T = 1
	// RecommendServer is an event whose content is a relay the author
	// recommends.
	RecommendServer T = 2
	RecommendRelay  T = 2
	// FollowList is an event containing a list of pubkeys of users that
	// should be shown as follows in a timeline.
	FollowList T = 3
	Follows    T = 3
	// EncryptedDirectMessage is a direct message encrypted to a single
	// recipient.
	EncryptedDirectMessage T = 4
	// Deletion requests deletion of the referenced events.
	Deletion      T = 5
	EventDeletion T = 5
	// Repost rebroadcasts a referenced note.
	Repost T = 6
	// Reaction is a like/dislike or emoji response to a referenced note.
	Reaction T = 7
	// BadgeAward awards a badge definition to a pubkey.
	BadgeAward T = 8
	// Seal is the encrypted envelope wrapping a rumor for gift wrapping.
	Seal T = 13
	// ReadReceipt marks a list of tagged events (e tags) as being seen by
	// the client, with an "expiration" tag indicating when the marking
	// expires.
	ReadReceipt T = 15
	// GenericRepost rebroadcasts any kind of event, with a "k" tag for the
	// kind.
	GenericRepost T = 16
	// ChannelCreation opens a public chat channel.
	ChannelCreation T = 40
	// ChannelMetadata updates a public chat channel's metadata.
	ChannelMetadata T = 41
	// ChannelMessage is a message in a public chat channel.
	ChannelMessage T = 42
	// ChannelHideMessage hides a channel message for the requesting user.
	ChannelHideMessage T = 43
	// ChannelMuteUser mutes a user in a channel.
	ChannelMuteUser T = 44
	// OpenTimestamps attests a referenced event in an OTS proof.
	OpenTimestamps T = 1040
	// GiftWrap is the outer encrypted wrapper concealing a seal and its
	// metadata, addressed to the recipient with an ephemeral key.
	GiftWrap T = 1059
	// FileMetadata describes a file hosted somewhere.
	FileMetadata T = 1063
	// LiveChatMessage is a message in a live activity chat.
	LiveChatMessage T = 1311
	// Reporting is a report about an event or pubkey (usually a text note or
	// other human readable).
	Reporting  T = 1984
	MemoryHole T = 1984
	// Label attaches a label to a referenced event or pubkey.
	Label T = 1985
	// ZapRequest asks a lightning wallet service to generate an invoice for
	// a zap.
	ZapRequest T = 9734
	// Zap is the receipt of a zap payment, published by the lightning wallet
	// service.
	Zap T = 9735
	// Highlights marks a portion of a long form or web content as
	// highlighted.
	Highlights T = 9802
	// ReplaceableStart is the lower bound (inclusive) of the replaceable
	// kind range.
	ReplaceableStart T = 10000
	// MuteList is a replaceable list of muted pubkeys.
	MuteList  T = 10000
	BlockList T = 10000
	// PinList is a replaceable list of pinned notes.
	PinList T = 10001
	// RelayListMetadata is the author's read/write relay list.
	RelayListMetadata T = 10002
	// ReplaceableEnd is the upper bound (exclusive) of the replaceable kind
	// range.
	ReplaceableEnd T = 20000
	// EphemeralStart is the lower bound (inclusive) of the ephemeral kind
	// range.
	EphemeralStart T = 20000
	// ClientAuthentication is the NIP-42 AUTH response event, never stored
	// by relays.
	ClientAuthentication T = 22242
	// NostrConnect is a NIP-46 remote signing protocol message.
	NostrConnect T = 24133
	// HTTPAuth is a NIP-98 HTTP authorization event.
	HTTPAuth T = 27235
	// EphemeralEnd is the upper bound (exclusive) of the ephemeral kind
	// range.
	EphemeralEnd T = 30000
	// ParameterizedReplaceableStart is the lower bound (inclusive) of the
	// parameterized replaceable kind range.
	ParameterizedReplaceableStart T = 30000
	// CategorizedPeopleList is a named list of pubkeys.
	CategorizedPeopleList T = 30000
	FollowSets            T = 30000
	// CategorizedBookmarksList is a named list of bookmarked notes.
	CategorizedBookmarksList T = 30001
	// ProfileBadges lists badges the author displays on their profile.
	ProfileBadges T = 30008
	// BadgeDefinition defines a badge that can be awarded.
	BadgeDefinition T = 30009
	// Article is a long form content event.
	Article         T = 30023
	LongFormContent T = 30023
	// DraftLongFormContent is an unpublished draft of an Article.
	DraftLongFormContent T = 30024
	// ApplicationSpecificData is arbitrary app data keyed by the d tag.
	ApplicationSpecificData T = 30078
	// ParameterizedReplaceableEnd is the upper bound (exclusive) of the
	// parameterized replaceable kind range.
	ParameterizedReplaceableEnd T = 40000
)

// Map is the human readable names of the kinds, used in logging and the CLI
// decode output.
var Map = map[T]string{
	ProfileMetadata:          "ProfileMetadata",
	TextNote:                 "TextNote",
	RecommendRelay:           "RecommendRelay",
	FollowList:               "FollowList",
	EncryptedDirectMessage:   "EncryptedDirectMessage",
	EventDeletion:            "EventDeletion",
	Repost:                   "Repost",
	Reaction:                 "Reaction",
	BadgeAward:               "BadgeAward",
	Seal:                     "Seal",
	ReadReceipt:              "ReadReceipt",
	GenericRepost:            "GenericRepost",
	ChannelCreation:          "ChannelCreation",
	ChannelMetadata:          "ChannelMetadata",
	ChannelMessage:           "ChannelMessage",
	ChannelHideMessage:       "ChannelHideMessage",
	ChannelMuteUser:          "ChannelMuteUser",
	OpenTimestamps:           "OpenTimestamps",
	GiftWrap:                 "GiftWrap",
	FileMetadata:             "FileMetadata",
	LiveChatMessage:          "LiveChatMessage",
	Reporting:                "Reporting",
	Label:                    "Label",
	ZapRequest:               "ZapRequest",
	Zap:                      "Zap",
	Highlights:               "Highlights",
	MuteList:                 "MuteList",
	PinList:                  "PinList",
	RelayListMetadata:        "RelayListMetadata",
	ClientAuthentication:     "ClientAuthentication",
	NostrConnect:             "NostrConnect",
	HTTPAuth:                 "HTTPAuth",
	CategorizedPeopleList:    "CategorizedPeopleList",
	CategorizedBookmarksList: "CategorizedBookmarksList",
	ProfileBadges:            "ProfileBadges",
	BadgeDefinition:          "BadgeDefinition",
	Article:                  "Article",
	DraftLongFormContent:     "DraftLongFormContent",
	ApplicationSpecificData:  "ApplicationSpecificData",
}

func (ki T) IsReplaceable() bool {
	return ki == ProfileMetadata || ki == FollowList ||
		(ki >= ReplaceableStart && ki < ReplaceableEnd)
}

func (ki T) IsEphemeral() bool {
	return ki >= EphemeralStart && ki < EphemeralEnd
}

func (ki T) IsParameterizedReplaceable() bool {
	return ki >= ParameterizedReplaceableStart &&
		ki < ParameterizedReplaceableEnd
}
