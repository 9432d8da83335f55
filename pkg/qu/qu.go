// Package qu provides simple signalling channels for shutdown and trigger
// duty, with an optional registry that helps finding channels that leak.
package qu

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/chebizarro/nostrc-go/pkg/slog"
)

var log, _ = slog.New(os.Stderr)

// C is your basic empty struct signalling channel
type C chan struct{}

var (
	createdList                []string
	createdChannels            []C
	createdChannelBufferCounts []int
	mx                         sync.Mutex
	logEnabled                 = atomic.NewBool(false)
)

// SetLogging switches on and off the channel logging
func SetLogging(on bool) {
	logEnabled.Store(on)
}

func l(a ...interface{}) {
	if logEnabled.Load() {
		log.D.Ln(a...)
	}
}

func lc(cl func() string) {
	if logEnabled.Load() {
		log.D.Ln(cl())
	}
}

// T creates an unbuffered chan struct{} for trigger and quit signalling
// (momentary and breaker switches)
func T() C {
	mx.Lock()
	defer mx.Unlock()
	msg := fmt.Sprintf("chan from %s", slog.GetLoc(2))
	l("created", msg)
	createdList = append(createdList, msg)
	o := make(C)
	createdChannels = append(createdChannels, o)
	createdChannelBufferCounts = append(createdChannelBufferCounts, 0)
	return o
}

// Ts creates a buffered chan struct{} which is specifically intended for
// signalling without blocking, generally one is the size of buffer to be
// used, though there might be conceivable cases where the channel should
// accept more signals without blocking the caller
func Ts(n int) C {
	mx.Lock()
	defer mx.Unlock()
	msg := fmt.Sprintf("buffered chan (%d) from %s", n, slog.GetLoc(2))
	l("created", msg)
	createdList = append(createdList, msg)
	o := make(C, n)
	createdChannels = append(createdChannels, o)
	createdChannelBufferCounts = append(createdChannelBufferCounts, n)
	return o
}

// Q closes the channel, which makes it emit a nil every time it is selected.
func (c C) Q() {
	open := !testChanIsClosed(c)
	lc(func() (o string) {
		loc := getLocForChan(c)
		if open {
			return "closing chan from " + loc
		}
		return "channel " + loc + " was already closed"
	})
	if open {
		close(c)
	}
}

// Signal sends struct{}{} on the channel which functions as a momentary
// switch, useful in pairs for stop/start
func (c C) Signal() {
	lc(func() (o string) { return "signalling " + getLocForChan(c) })
	if !testChanIsClosed(c) {
		c <- struct{}{}
	}
}

// Wait should be placed with a `<-` in a select case in addition to the
// channel variable name
func (c C) Wait() <-chan struct{} {
	lc(func() (o string) {
		return fmt.Sprint("waiting on "+getLocForChan(c)+" at",
			slog.GetLoc(2))
	})
	return c
}

// IsClosed exposes a test to see if the channel is closed
func (c C) IsClosed() bool {
	return testChanIsClosed(c)
}

// testChanIsClosed allows you to see whether the channel has been closed so
// you can avoid a panic by trying to close or signal on it. Note that this
// consumes a pending signal on an open channel.
func testChanIsClosed(ch C) (o bool) {
	if ch == nil {
		return true
	}
	select {
	case <-ch:
		o = true
	default:
	}
	return
}

// getLocForChan finds which record connects to the channel in question
func getLocForChan(c C) (s string) {
	s = "not found"
	mx.Lock()
	for i := range createdList {
		if i >= len(createdChannels) {
			break
		}
		if createdChannels[i] == c {
			s = createdList[i]
		}
	}
	mx.Unlock()
	return
}

// once a minute clean up the channel cache to remove closed channels no
// longer in use
func init() {
	go func() {
		for {
			<-time.After(time.Minute)
			l("cleaning up closed channels")
			var c []C
			var ll []string
			var bc []int
			mx.Lock()
			for i := range createdChannels {
				if i >= len(createdList) {
					break
				}
				if !testChanIsClosed(createdChannels[i]) {
					c = append(c, createdChannels[i])
					ll = append(ll, createdList[i])
					bc = append(bc, createdChannelBufferCounts[i])
				}
			}
			createdChannels = c
			createdList = ll
			createdChannelBufferCounts = bc
			mx.Unlock()
		}
	}()
}

// PrintChanState creates an output showing the current state of the channels
// being monitored. This is a function for use by the programmer while
// debugging.
func PrintChanState() {
	mx.Lock()
	for i := range createdChannels {
		if i >= len(createdList) {
			break
		}
		if testChanIsClosed(createdChannels[i]) {
			log.T.Ln(">>> closed", createdList[i])
		} else {
			log.T.Ln("<<< open", createdList[i])
		}
	}
	mx.Unlock()
}
