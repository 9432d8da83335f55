// Package eventest carries a handful of fixture events with awkward content
// for exercising serialization code.
package eventest

import (
	"github.com/chebizarro/nostrc-go/pkg/nostr/event"
	"github.com/chebizarro/nostrc-go/pkg/nostr/kind"
	"github.com/chebizarro/nostrc-go/pkg/nostr/tag"
	"github.com/chebizarro/nostrc-go/pkg/nostr/tags"
	"github.com/chebizarro/nostrc-go/pkg/nostr/timestamp"
)

var D = []*event.T{
	{
		ID:        "92570b321da503eac8014b23447301eb3d0bbdfbace0d11a4e4072e72bb7205d",
		PubKey:    "e9142f724955c5854de36324dab0434f97b15ec6b33464d56ebe491e3f559d1b",
		Kind:      kind.EncryptedDirectMessage,
		CreatedAt: timestamp.T(1671028682),
		Tags: tags.T{tag.T{
			"p",
			"f8340b2bde651576b75af61aa26c80e13c65029f00f7f64004eece679bf7059f",
		}},
		// brackets and quotes that stress the escaper
		Content: "you say \"\"yes, I say {[no}]",
		Sig: "ed08d2dd5b0f7b6a3cdc74643d4adee3158ddede9cc848e8cd97630c097001ac" +
			"c2d052d2d3ec2b7ac4708b2314b797106d1b3c107322e61b5e5cc2116e099b79",
	},
	{
		ID:        "92570b321da503eac8014b23447301eb3d0bbdfbace0d11a4e4072e72bb7205d",
		PubKey:    "e9142f724955c5854de36324dab0434f97b15ec6b33464d56ebe491e3f559d1b",
		Kind:      kind.EncryptedDirectMessage,
		CreatedAt: timestamp.T(1671028682),
		Tags: tags.T{tag.T{
			"p",
			"f8340b2bde651576b75af61aa26c80e13c65029f00f7f64004eece679bf7059f",
		}},
		Content: "you say yes, I say no",
		Sig: "ed08d2dd5b0f7b6a3cdc74643d4adee3158ddede9cc848e8cd97630c097001ac" +
			"c2d052d2d3ec2b7ac4708b2314b797106d1b3c107322e61b5e5cc2116e099b79",
	},
	{
		ID:        "5ab7bd0e9cf54e152a0fb1d1ad773123c29dd4696e525bd239e05db5e5b85e02",
		PubKey:    "32e1827635450ebb3c5a7d12c1f8e7b2b514439ac10a67eef3d9fd9c5c68e245",
		Kind:      kind.TextNote,
		CreatedAt: timestamp.T(1688572804),
		Tags: tags.T{
			tag.T{"e", "5c83da77af1dec6d7289834998ad7aafbd9e2191396d75ec3cc27f5a77226f36",
				"wss://nostr.example.com", "root"},
			tag.T{"p", "f7234bd4c1394dda46d09f35bd384dd30cc552ad5541990f98844fb06676e9ca"},
		},
		Content: "control\tcharacters\nand a line\rbreak",
		Sig: "e4e372ef63b5a7d783d43e5d6134ef532c46bfd2e426d04b51d1dc9f7f2ec0cb" +
			"8c4b7e71c1c5e673f4dbfd1cdb2b2cbd35eade7cf4c0d16d8ab586be5306ff8f",
	},
}
