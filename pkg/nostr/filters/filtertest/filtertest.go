// Package filtertest carries fixture filters covering every field for
// exercising serialization code.
package filtertest

import (
	"github.com/chebizarro/nostrc-go/pkg/nostr/filter"
	"github.com/chebizarro/nostrc-go/pkg/nostr/filters"
	"github.com/chebizarro/nostrc-go/pkg/nostr/kind"
	"github.com/chebizarro/nostrc-go/pkg/nostr/kinds"
	"github.com/chebizarro/nostrc-go/pkg/nostr/tag"
	"github.com/chebizarro/nostrc-go/pkg/nostr/timestamp"
)

var D = filters.T{
	{
		IDs: tag.T{
			"92570b321da503eac8014b23447301eb3d0bbdfbace0d11a4e4072e72bb7205d",
			"5ab7bd0e9cf54e152a0fb1d1ad773123c29dd4696e525bd239e05db5e5b85e02",
		},
		Kinds: kinds.T{
			kind.TextNote, kind.MemoryHole, kind.CategorizedBookmarksList,
		},
		Authors: tag.T{
			"e9142f724955c5854de36324dab0434f97b15ec6b33464d56ebe491e3f559d1b",
			"32e1827635450ebb3c5a7d12c1f8e7b2b514439ac10a67eef3d9fd9c5c68e245",
		},
		Tags: filter.TagMap{
			"#e": {"one", "two", "three"},
			"#p": {"one", "two", "three"},
		},
		Since:  timestamp.T(1700000000 - 60*60).Ptr(),
		Until:  timestamp.T(1700000000).Ptr(),
		Limit:  10,
		Search: "some search] terms} with bogus ]brackets and }braces and \\\" escaped quotes \"",
	},
	{
		Kinds: kinds.T{
			kind.TextNote, kind.MemoryHole, kind.CategorizedBookmarksList,
		},
		Tags: filter.TagMap{
			"#A": {"one", "two", "three"},
			"#e": {"one", "two", "three"},
			"#g": {"one", "two", "three"},
			"#x": {"one", "two", "three"},
		},
		Until: timestamp.T(1700000000).Ptr(),
	},
	{
		Authors: tag.T{"e9142f72"},
		Kinds:   kinds.T{kind.EncryptedDirectMessage},
	},
}
