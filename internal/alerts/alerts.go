package alerts

import (
	"fmt"
	"sync"
	"time"

	"github.com/Wiltron289/Next-Best-ActionV2/internal/types"
	"github.com/rs/zerolog"
)

// Alert channels. Each is best-effort and independent: a browser that
// denies notification permission still gets the title flash and tone.
const (
	ChannelBlink   = "blink"
	ChannelBrowser = "browser"
	ChannelTone    = "tone"
)

const (
	defaultFlashCycles   = 10
	defaultFlashInterval = 500 * time.Millisecond
	flashTitle           = "● New Action!"
)

// Publisher delivers commands to a rep's connected tabs
type Publisher interface {
	SendToUser(userID string, message any)
}

// Notifier announces newly arrived queue items to reps whose tabs are
// hidden. A title-flash cycle terminates on its own after a fixed
// number of cycles and never stacks: a second item arriving mid-cycle
// rides the one already running.
type Notifier struct {
	pub           Publisher
	logger        zerolog.Logger
	flashCycles   int
	flashInterval time.Duration

	mu     sync.Mutex
	active map[string]chan struct{}
}

// New creates a notifier publishing through pub
func New(pub Publisher, logger zerolog.Logger) *Notifier {
	return &Notifier{
		pub:           pub,
		logger:        logger,
		flashCycles:   defaultFlashCycles,
		flashInterval: defaultFlashInterval,
		active:        make(map[string]chan struct{}),
	}
}

// NewItem fires all three channels for a newly arrived item
func (n *Notifier) NewItem(userID string, item *types.QueueItem) {
	body := "A new action is ready in your queue"
	if item != nil && item.RecordName() != "" {
		body = fmt.Sprintf("New %s action for %s", item.ActionType, item.RecordName())
	}

	n.pub.SendToUser(userID, types.AlertCommand{Type: types.MsgAlert, Channel: ChannelBrowser, Body: body})
	n.pub.SendToUser(userID, types.AlertCommand{Type: types.MsgAlert, Channel: ChannelTone})
	n.startFlash(userID)

	n.logger.Debug().Str("user_id", userID).Msg("new item alert fired")
}

// Clear stops the rep's running flash cycle, if any. Called when a tab
// becomes visible again.
func (n *Notifier) Clear(userID string) {
	n.mu.Lock()
	stop, ok := n.active[userID]
	if ok {
		delete(n.active, userID)
	}
	n.mu.Unlock()
	if ok {
		close(stop)
	}
}

func (n *Notifier) startFlash(userID string) {
	n.mu.Lock()
	if _, running := n.active[userID]; running {
		n.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	n.active[userID] = stop
	n.mu.Unlock()

	n.pub.SendToUser(userID, types.AlertCommand{Type: types.MsgAlert, Channel: ChannelBlink})

	go n.flash(userID, stop)
}

// flash alternates the page title until the cycle count is exhausted or
// the rep looks at the tab, then restores the original title
func (n *Notifier) flash(userID string, stop chan struct{}) {
	ticker := time.NewTicker(n.flashInterval)
	defer ticker.Stop()

	flashed := false
	for i := 0; i < n.flashCycles*2; i++ {
		select {
		case <-stop:
			n.pub.SendToUser(userID, types.TitleFlashCommand{Type: types.MsgTitleFlash, Reset: true})
			return
		case <-ticker.C:
			flashed = !flashed
			cmd := types.TitleFlashCommand{Type: types.MsgTitleFlash}
			if flashed {
				cmd.Title = flashTitle
			} else {
				cmd.Reset = true
			}
			n.pub.SendToUser(userID, cmd)
		}
	}

	n.mu.Lock()
	if n.active[userID] == stop {
		delete(n.active, userID)
	}
	n.mu.Unlock()
	n.pub.SendToUser(userID, types.TitleFlashCommand{Type: types.MsgTitleFlash, Reset: true})
}
