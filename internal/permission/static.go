package permission

import (
	"context"
	"sync"

	"voicecoach/internal/ports"
)

// Static answers microphone requests from configuration. Headless hosts have
// no system prompt to show, so access is either assumed or refused.
type Static struct {
	Granted bool
}

func (s Static) RequestMicrophone(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.Granted {
		return ports.ErrPermissionDenied
	}
	return nil
}

// Remembered asks the wrapped prompt once and reuses a grant. A refusal is
// not remembered so the user can change their mind.
type Remembered struct {
	prompt ports.PermissionGate

	mu      sync.Mutex
	granted bool
}

func NewRemembered(prompt ports.PermissionGate) *Remembered {
	return &Remembered{prompt: prompt}
}

func (r *Remembered) RequestMicrophone(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.granted {
		return nil
	}
	if err := r.prompt.RequestMicrophone(ctx); err != nil {
		return err
	}
	r.granted = true
	return nil
}
