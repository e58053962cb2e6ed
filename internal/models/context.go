// internal/models/context.go
package models

// InputKind identifies the channel a turn input arrived on.
type InputKind string

const (
	InputText     InputKind = "text"
	InputVoice    InputKind = "voice"
	InputPhoto    InputKind = "photo"
	InputScan     InputKind = "scan"
	InputQuantity InputKind = "quantity"
	InputCommand  InputKind = "command"
)

// Valid reports whether the kind is one the processor supports.
func (k InputKind) Valid() bool {
	switch k {
	case InputText, InputVoice, InputPhoto, InputScan, InputQuantity, InputCommand:
		return true
	}
	return false
}

// ConversationState is the per-session position in the turn state machine.
type ConversationState string

const (
	StateIdle               ConversationState = "idle"
	StateAwaitingQuantity   ConversationState = "awaiting_quantity"
	StateAwaitingManualEdit ConversationState = "awaiting_manual_entry"
)

// ConversationContext is the session-owned state the processor reads each turn.
// The processor never mutates it in place: every turn returns a ContextDelta
// and the session layer applies it. PendingAnalysis is non-nil exactly when
// State is StateAwaitingQuantity.
type ConversationContext struct {
	State            ConversationState `json:"state"`
	PendingAnalysis  *RawMealEstimate  `json:"pendingAnalysis,omitempty"`
	LastQuantityText string            `json:"lastQuantityText,omitempty"`
	CurrentProduct   string            `json:"currentProduct,omitempty"`
	LastAction       InputKind         `json:"lastAction,omitempty"`
}

// NewContext returns a fresh idle context.
func NewContext() ConversationContext {
	return ConversationContext{State: StateIdle}
}

// ContextDelta is the partial update a turn produces. Nil pointers leave the
// corresponding field untouched; ClearPending drops the pending estimate.
type ContextDelta struct {
	State            *ConversationState `json:"state,omitempty"`
	PendingAnalysis  *RawMealEstimate   `json:"pendingAnalysis,omitempty"`
	ClearPending     bool               `json:"clearPending,omitempty"`
	LastQuantityText *string            `json:"lastQuantityText,omitempty"`
	CurrentProduct   *string            `json:"currentProduct,omitempty"`
	LastAction       *InputKind         `json:"lastAction,omitempty"`
}

// Apply merges a delta into the context and returns the result. ClearPending
// wins over PendingAnalysis when both are set.
func (c ConversationContext) Apply(d ContextDelta) ConversationContext {
	out := c
	if d.State != nil {
		out.State = *d.State
	}
	if d.PendingAnalysis != nil {
		out.PendingAnalysis = d.PendingAnalysis
	}
	if d.ClearPending {
		out.PendingAnalysis = nil
	}
	if d.LastQuantityText != nil {
		out.LastQuantityText = *d.LastQuantityText
	}
	if d.CurrentProduct != nil {
		out.CurrentProduct = *d.CurrentProduct
	}
	if d.LastAction != nil {
		out.LastAction = *d.LastAction
	}
	return out
}

// Attachments carries the channel-specific payload of a turn input.
type Attachments struct {
	Photo      []byte           `json:"photo,omitempty"`
	Transcript string           `json:"transcript,omitempty"`
	Barcode    string           `json:"barcode,omitempty"`
	Product    *RawMealEstimate `json:"product,omitempty"`
}

// ProcessorResponse is what one turn hands back to the caller.
type ProcessorResponse struct {
	Message          string               `json:"message"`
	AwaitingQuantity bool                 `json:"awaitingQuantity"`
	Normalized       *NormalizedNutrition `json:"normalized,omitempty"`
	Suggestions      []QuantitySuggestion `json:"suggestions,omitempty"`
	ContextUpdate    ContextDelta         `json:"contextUpdate"`
}
