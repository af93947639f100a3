package notify

import (
	"sync"
	"time"

	"motioncam/video"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"
)

// Notification is sent to all NotifyListeners registered with Notifier.
type Notification struct {
	TimeString string
	Identifier string
	Score      int
}

type NotifyListener interface {
	Notify(n *Notification) error
}

// Notifier sends a notification when a recording starts, outside of quiet
// hours.
type Notifier struct {
	Listeners []NotifyListener

	// Notifications are only sent when HoursStart <= hour < HoursEnd.
	HoursStart int
	HoursEnd   int

	wg sync.WaitGroup
}

func (n *Notifier) quiet(t time.Time) bool {
	return t.Hour() < n.HoursStart || t.Hour() >= n.HoursEnd
}

// StartRecording is invoked when the video recorder starts.
func (n *Notifier) StartRecording(vr *video.Record) {
	ts := vr.TriggeredAt
	if n.quiet(ts) {
		log.Infof("Would send notification, but currently in quiet hours.")
		return
	}

	notification := &Notification{
		TimeString: ts.Format("3:04 PM"),
		Identifier: vr.Identifier,
		Score:      vr.Score,
	}
	log.Infof("Sending notification: %v", spew.Sdump(notification))
	// The capture loop is blocked until the recording ends; don't add to that.
	for _, l := range n.Listeners {
		n.wg.Add(1)
		go func(l NotifyListener) {
			defer n.wg.Done()
			if err := l.Notify(notification); err != nil {
				log.Errorf("Failed to send notification: %v", err)
			}
		}(l)
	}
}

// StopRecording is invoked when the video recorder completes.
func (n *Notifier) StopRecording(vr *video.Record) {}

// Wait blocks until notifications in flight have been sent.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
