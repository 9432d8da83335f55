package text

import (
	"os"

	"github.com/chebizarro/nostrc-go/pkg/slog"
)

var log, chk = slog.New(os.Stderr)

// FirstHexCharToValue returns the hex value of a provided character from the
// first place in an 8 bit value of two characters.
//
// Two of these functions exist to minimise the computation cost, thus
// doubling the memory cost in the switch lookup table.
func FirstHexCharToValue(in byte) (out byte) {
	switch in {
	case '0':
		return 0x00
	case '1':
		return 0x10
	case '2':
		return 0x20
	case '3':
		return 0x30
	case '4':
		return 0x40
	case '5':
		return 0x50
	case '6':
		return 0x60
	case '7':
		return 0x70
	case '8':
		return 0x80
	case '9':
		return 0x90
	case 'a':
		return 0xa0
	case 'b':
		return 0xb0
	case 'c':
		return 0xc0
	case 'd':
		return 0xd0
	case 'e':
		return 0xe0
	case 'f':
		return 0xf0
	case 'A':
		return 0xA0
	case 'B':
		return 0xB0
	case 'C':
		return 0xC0
	case 'D':
		return 0xD0
	case 'E':
		return 0xE0
	case 'F':
		return 0xF0
	default:
		return 0
	}
}

// SecondHexCharToValue returns the hex value of a provided character from the
// second (last) place in an 8 bit value.
func SecondHexCharToValue(in byte) (out byte) {
	switch in {
	case '0':
		return 0x0
	case '1':
		return 0x1
	case '2':
		return 0x2
	case '3':
		return 0x3
	case '4':
		return 0x4
	case '5':
		return 0x5
	case '6':
		return 0x6
	case '7':
		return 0x7
	case '8':
		return 0x8
	case '9':
		return 0x9
	case 'a':
		return 0xa
	case 'b':
		return 0xb
	case 'c':
		return 0xc
	case 'd':
		return 0xd
	case 'e':
		return 0xe
	case 'f':
		return 0xf
	case 'A':
		return 0xA
	case 'B':
		return 0xB
	case 'C':
		return 0xC
	case 'D':
		return 0xD
	case 'E':
		return 0xE
	case 'F':
		return 0xF
	default:
		return 0
	}
}

// UnescapeByteString scans a string assumed to be UTF-8 for JSON escape
// sequences and rewrites them in place to their raw byte values. This means
// the two character escapes \" \\ \b \t \n \f \r and the 8 bit subset of
// unicode escapes \u00XX.
//
// The input slice is mutated; the returned slice aliases it.
func UnescapeByteString(bs []byte) (o []byte) {
	if len(bs) == 0 {
		return
	}
	in := NewBuffer(bs)  // read side
	out := NewBuffer(bs) // write side
	var err error
	var segment []byte
	var c byte
next:
	for {
		// find the first escape character.
		if segment, err = in.ReadUntil('\\'); err != nil {
			if len(segment) > 0 {
				if err = out.WriteBytes(segment); chk.D(err) {
					break next
				}
			}
			break next
		}
		if len(segment) > 0 {
			// write the segment to the out side
			if err = out.WriteBytes(segment); chk.D(err) {
				break next
			}
		}
		// skip the backslash
		in.Pos++
		// get the next byte to check for a 'u'
		if c, err = in.Read(); chk.D(err) {
			break next
		}
		switch c {
		case 'u':
			// we are only handling 8 bit escapes so we must see 2 0s before
			// two hex digits.
			for i := 2; i < 4; i++ {
				if c, err = in.Read(); chk.D(err) {
					break next
				}
				if c != '0' {
					// if it is not zeroes after the `u`, just advance the
					// cursor.
					out.Pos += i
					in.Pos = out.Pos
					continue next
				}
			}
			// first two characters were zeroes, so now we can read the hex
			// value.
			var charByte byte
			for i := 4; i < 6; i++ {
				if c, err = in.Read(); chk.D(err) {
					break next
				}
				switch c {
				case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'a',
					'b', 'c', 'd', 'e', 'f', 'A', 'B', 'C', 'D', 'E', 'F':
					// 4th char in escape is even, second is odd.
					if i%2 == 0 {
						charByte = FirstHexCharToValue(c)
					} else {
						charByte += SecondHexCharToValue(c)
					}
				default:
					// if either of these two are not hex, advance cursor and
					// continue
					out.Pos += i
					in.Pos = out.Pos
					continue next
				}
			}
			// we now have the character to write into the out buffer.
			if err = out.Write(charByte); chk.D(err) {
				break next
			}
		default:
			writeChar := c
			switch c {
			case QuotationMark:
				writeChar = QuotationMark
			case 'b':
				writeChar = Backspace
			case 't':
				writeChar = Tab
			case ReverseSolidus:
				writeChar = ReverseSolidus
			case 'n':
				writeChar = LineFeed
			case 'f':
				writeChar = FormFeed
			case 'r':
				writeChar = CarriageReturn
			case ' ':
				writeChar = Space
			default:
				log.T.F("unknown escape \\%s", string(c))
			}
			if err = out.Write(writeChar); chk.D(err) {
				break next
			}
		}
	}
	// when we get to here, the cursor marks the end of the unescaped string.
	o = out.Head()
	return
}
