package session

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-coordinator/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/entity"
)

// Dispatch - routes an inbound event to its handler. Unknown actions and
// payloads of the wrong shape come back as errors and change nothing.
func (that *Controller) Dispatch(id entity.Identity, action string, payload json.RawMessage) error {
	handler, ok := that.handlers[action]
	if !ok {
		return fmt.Errorf("%w: %q", apperror.ErrUnknownAction, action)
	}

	return handler(id, payload)
}

func (that *Controller) handleMove(id entity.Identity, payload json.RawMessage) error {
	var req MoveRequest
	if err := decode(payload, &req); err != nil {
		return err
	}

	if req.Index == nil {
		return fmt.Errorf("%w: index is required", apperror.ErrMalformedPayload)
	}

	return that.OnMove(id, *req.Index)
}

func (that *Controller) handleChat(id entity.Identity, payload json.RawMessage) error {
	var req ChatRequest
	if err := decode(payload, &req); err != nil {
		return err
	}

	if req.Text == nil {
		return fmt.Errorf("%w: text is required", apperror.ErrMalformedPayload)
	}

	return that.OnChat(id, *req.Text)
}

func (that *Controller) handleRequestReset(id entity.Identity, _ json.RawMessage) error {
	return that.OnResetRequest(id)
}

func decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: empty payload", apperror.ErrMalformedPayload)
	}

	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrMalformedPayload, err)
	}

	return nil
}
