// Package notification provides the desktop side effects of the timer:
// end-of-phase alerts and the estimate-reached celebration.
package notification

import (
	"fmt"
	"log"

	"github.com/gen2brain/beeep"

	"github.com/xvierd/flow-grid/internal/config"
	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/ports"
)

// Notifier implements ports.Effects with beeep.
type Notifier struct {
	cfg *config.NotificationConfig

	notify func(title, message string) error
	beep   func() error
}

// Ensure Notifier implements ports.Effects.
var _ ports.Effects = (*Notifier)(nil)

// New creates a new notifier with the given configuration.
func New(cfg *config.NotificationConfig) *Notifier {
	return &Notifier{
		cfg: cfg,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		beep: func() error {
			return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
		},
	}
}

// IsEnabled returns true if notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	return n.cfg != nil && n.cfg.Enabled
}

// PhaseEnded announces that a countdown reached zero.
func (n *Notifier) PhaseEnded(phase domain.Phase) {
	switch phase {
	case domain.PhaseFocus:
		n.send("Focus complete", "Record your progress, then take a break.")
	default:
		n.send("Break over", "Ready to focus?")
	}
}

// Celebrate announces that a task reached its estimated time.
func (n *Notifier) Celebrate(task *domain.Task) {
	n.send("Estimate reached",
		fmt.Sprintf("%s hit %.0f minutes. Your next break is longer.", task.Name, task.EstimatedMinutes))
}

func (n *Notifier) send(title, message string) {
	if !n.IsEnabled() {
		return
	}
	if err := n.notify(title, message); err != nil {
		log.Printf("notification: %v", err)
	}
	if n.cfg.Sound {
		if err := n.beep(); err != nil {
			log.Printf("notification: beep: %v", err)
		}
	}
}
