package dialog

import "github.com/avvvet/orderbot/internal/models"

// Step identifies where a frame is waiting for user input.
type Step string

const (
	// StepMainAwait is the top-level loop waiting for an utterance.
	StepMainAwait Step = "main.await"
	// StepOrderItem is the order form waiting for the item slot.
	StepOrderItem Step = "order.item"
	// StepOrderDate marks the order form suspended on the date resolver.
	StepOrderDate Step = "order.date"
	// StepOrderConfirm is the order form waiting for yes/no.
	StepOrderConfirm Step = "order.confirm"
	// StepDateAwait is the date resolver waiting for a date reply.
	StepDateAwait Step = "date.await"
)

// Frame is one pending continuation: the step it is suspended at, the record
// being filled, and how many prompts it has issued so far. Pushing a frame
// suspends its parent; popping resumes the parent with the child's result.
type Frame struct {
	Step    Step               `json:"step"`
	Record  models.OrderRecord `json:"record"`
	Prompts int                `json:"prompts,omitempty"`
}

// State is the full dialog state of one conversation between turns. It is
// JSON-serializable so the session store can carry it across messages. The
// bottom frame is always the main loop.
type State struct {
	Frames     []Frame `json:"frames"`
	NoticeSent bool    `json:"notice_sent,omitempty"`
}

func (s *State) top() *Frame {
	return &s.Frames[len(s.Frames)-1]
}

func (s *State) push(f Frame) {
	s.Frames = append(s.Frames, f)
}

func (s *State) pop() Frame {
	f := s.Frames[len(s.Frames)-1]
	s.Frames = s.Frames[:len(s.Frames)-1]
	return f
}

// Turn is the outcome of handling one user message. Completed is set only on
// the turn that confirms an order; a cancelled form surfaces nothing.
type Turn struct {
	Replies   []string
	Completed *models.OrderRecord
}

func (t *Turn) say(messages ...string) {
	t.Replies = append(t.Replies, messages...)
}
