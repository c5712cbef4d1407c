package dialog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/avvvet/orderbot/internal/models"
	"github.com/avvvet/orderbot/internal/nlu"
	"github.com/avvvet/orderbot/internal/prompts"
	"github.com/avvvet/orderbot/internal/timex"
)

const (
	greetFirst = "What can I help you with today?"
	greetAgain = "What else can I do for you?"

	noticeNoNLU = "Language understanding is not configured, so I'll walk you through the order step by step."

	promptItem  = "What would you like to order?"
	promptDate  = "When should it be delivered?"
	clarifyDate = `I need the exact day. Please give the full date, like "March 22, 2020".`
	badDate     = `Sorry, I couldn't read that as a date. Try something like "March 22, 2020" or "tomorrow".`
	giveUpDate  = "I still couldn't get a delivery date, so let's start over."

	confirmFormat   = "Please confirm: ordering %s on %s. Is that right? (yes/no)"
	confirmReask    = "Please answer yes or no."
	completedFormat = "Your order is in: %s, delivering %s."
	cancelledReply  = "Okay, cancelling that."

	unsupportedFormat = "Sorry, I can't arrange delivery for: %s."
)

// cancelWords are intercepted on every in-form step and abandon the order
// immediately, whatever state the form is in.
var cancelWords = map[string]bool{
	"cancel": true,
	"quit":   true,
	"stop":   true,
	"help":   true,
}

// Engine drives the slot-filling dialog. It holds no per-conversation state;
// everything belonging to one conversation lives in its State, so a single
// engine serves concurrent sessions.
type Engine struct {
	extractor      nlu.Extractor // nil means manual slot-filling
	catalog        *nlu.Catalog
	maxDatePrompts int // 0 means no cap on date re-prompts
	clock          func() time.Time
	logger         *zap.Logger
}

// NewEngine validates its collaborators up front. The extractor is the one
// optional collaborator: a nil extractor is the explicit "NLU unconfigured"
// mode, fixed for the lifetime of the engine.
func NewEngine(extractor nlu.Extractor, catalog *nlu.Catalog, maxDatePrompts int, logger *zap.Logger) (*Engine, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if maxDatePrompts < 0 {
		return nil, fmt.Errorf("maxDatePrompts must be >= 0, got %d", maxDatePrompts)
	}

	return &Engine{
		extractor:      extractor,
		catalog:        catalog,
		maxDatePrompts: maxDatePrompts,
		clock:          time.Now,
		logger:         logger,
	}, nil
}

// Start creates a fresh conversation state and the opening greeting.
func (e *Engine) Start() (*State, []string) {
	st := &State{Frames: []Frame{{Step: StepMainAwait}}}
	return st, []string{greetFirst}
}

// HandleTurn advances the dialog by one user message.
func (e *Engine) HandleTurn(ctx context.Context, st *State, input string) (*Turn, error) {
	if st == nil || len(st.Frames) == 0 {
		return nil, fmt.Errorf("dialog state is empty")
	}

	turn := &Turn{}
	top := st.top()

	// Cancellation wins over whatever step the form is suspended at.
	if top.Step != StepMainAwait && isCancellation(input) {
		e.abandonForm(st, turn, cancelledReply)
		return turn, nil
	}

	switch top.Step {
	case StepMainAwait:
		e.handleUtterance(ctx, st, turn, input)
	case StepOrderItem:
		e.handleItemReply(st, turn, input)
	case StepOrderConfirm:
		e.handleConfirmReply(st, turn, input)
	case StepDateAwait:
		e.handleDateReply(st, turn, input)
	default:
		return nil, fmt.Errorf("unknown dialog step %q", top.Step)
	}

	return turn, nil
}

// handleUtterance is the main loop body: recognize the utterance when the
// extractor is configured, then enter the order form with whatever was
// pre-filled. Without an extractor the form is entered with an empty record
// regardless of what the user typed.
func (e *Engine) handleUtterance(ctx context.Context, st *State, turn *Turn, input string) {
	var record models.OrderRecord

	if e.extractor == nil {
		if !st.NoticeSent {
			turn.say(noticeNoNLU)
			st.NoticeSent = true
		}
	} else {
		intent, err := e.extractor.Recognize(ctx, input)
		switch {
		case err != nil:
			// Extraction failure degrades to manual slot-filling for this turn.
			e.logger.Warn("intent extraction failed, filling slots manually", zap.Error(err))
		case intent.Intent == models.IntentPlaceOrder:
			record = e.prefill(intent, turn)
		default:
			turn.say(prompts.FallbackMessage, greetAgain)
			return
		}
	}

	st.push(Frame{Step: StepOrderItem, Record: record})
	e.advanceOrder(st, turn)
}

// prefill maps recognized entities into a partial order record. Item phrases
// that did not match a catalog entry are reported, never stored.
func (e *Engine) prefill(intent *models.RecognizedIntent, turn *Turn) models.OrderRecord {
	var record models.OrderRecord

	if len(intent.Entities.Items) > 0 {
		record.Item = intent.Entities.Items[0]
	}
	record.DeliveryDate = intent.Entities.Datetime

	var unsupported []string
	for _, phrase := range intent.Entities.Deliver {
		if _, ok := e.catalog.Match(phrase); !ok {
			unsupported = append(unsupported, phrase)
		}
	}
	if len(unsupported) > 0 {
		turn.say(fmt.Sprintf(unsupportedFormat, strings.Join(unsupported, ", ")))
	}

	return record
}

// advanceOrder walks the order form forward from whatever is already filled:
// item, then a definite delivery date, then confirmation. It stops at the
// first slot that needs user input.
func (e *Engine) advanceOrder(st *State, turn *Turn) {
	form := st.top()

	if form.Record.Item == "" {
		form.Step = StepOrderItem
		turn.say(promptItem)
		return
	}

	if expr, ok := e.definiteDate(form.Record.DeliveryDate); ok {
		form.Record.DeliveryDate = expr.String()
	} else {
		hadDate := form.Record.DeliveryDate != ""
		form.Step = StepOrderDate
		st.push(Frame{Step: StepDateAwait, Prompts: 1})
		if hadDate {
			turn.say(clarifyDate)
		} else {
			turn.say(promptDate)
		}
		return
	}

	form.Step = StepOrderConfirm
	turn.say(fmt.Sprintf(confirmFormat, form.Record.Item, e.natural(form.Record.DeliveryDate)))
}

func (e *Engine) handleItemReply(st *State, turn *Turn, input string) {
	if strings.TrimSpace(input) == "" {
		turn.say(promptItem)
		return
	}

	st.top().Record.Item = input
	e.advanceOrder(st, turn)
}

// handleDateReply is the ambiguity resolver: re-prompt until the reply parses
// to a definite calendar date, then resume the order form with it.
func (e *Engine) handleDateReply(st *State, turn *Turn, input string) {
	resolver := st.top()

	expr, err := timex.Parse(input, e.clock())
	if err != nil || !expr.Definite() {
		resolver.Prompts++
		if e.maxDatePrompts > 0 && resolver.Prompts > e.maxDatePrompts {
			e.abandonForm(st, turn, giveUpDate)
			return
		}
		if err != nil {
			turn.say(badDate)
		} else {
			turn.say(clarifyDate)
		}
		return
	}

	st.pop()
	form := st.top()
	form.Record.DeliveryDate = expr.String()
	e.advanceOrder(st, turn)
}

func (e *Engine) handleConfirmReply(st *State, turn *Turn, input string) {
	switch parseYesNo(input) {
	case answerYes:
		form := st.pop()
		record := form.Record
		turn.Completed = &record
		turn.say(fmt.Sprintf(completedFormat, record.Item, e.natural(record.DeliveryDate)))
		turn.say(greetAgain)
		e.logger.Info("order completed",
			zap.String("item", record.Item),
			zap.String("deliveryDate", record.DeliveryDate),
		)
	case answerNo:
		// Cancelled: the record is discarded and nothing about it is rendered.
		st.pop()
		turn.say(greetAgain)
	default:
		turn.say(confirmReask)
	}
}

// abandonForm pops every form frame and returns to the main loop.
func (e *Engine) abandonForm(st *State, turn *Turn, reason string) {
	st.Frames = st.Frames[:1]
	turn.say(reason, greetAgain)
}

// definiteDate parses a stored date expression and reports whether it already
// resolves to exactly one calendar date.
func (e *Engine) definiteDate(s string) (timex.Expression, bool) {
	if s == "" {
		return timex.Expression{}, false
	}
	expr, err := timex.Parse(s, e.clock())
	if err != nil {
		return timex.Expression{}, false
	}
	return expr, expr.Definite()
}

// natural renders a stored canonical date in conversational English.
func (e *Engine) natural(s string) string {
	expr, err := timex.Parse(s, e.clock())
	if err != nil {
		return s
	}
	return expr.Natural(e.clock())
}

func isCancellation(input string) bool {
	return cancelWords[strings.ToLower(strings.TrimSpace(input))]
}

type answer int

const (
	answerUnknown answer = iota
	answerYes
	answerNo
)

func parseYesNo(input string) answer {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "yes", "y", "yes please", "yep", "yeah", "sure", "ok", "okay", "confirm", "correct":
		return answerYes
	case "no", "n", "nope", "no thanks", "wrong":
		return answerNo
	default:
		return answerUnknown
	}
}
