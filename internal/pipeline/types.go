// Package pipeline implements the email response pipeline: classification,
// conditional policy lookup, reply generation, and reply validation, run as a
// small fixed state machine over one mutable state record per request.
package pipeline

// QueryType is the customer-intent category assigned by classification.
type QueryType string

const (
	QueryProductReturn  QueryType = "product_return"
	QueryRefundRequest  QueryType = "refund_request"
	QueryProductDamage  QueryType = "product_damage"
	QueryDeliveryIssue  QueryType = "delivery_issue"
	QueryProductInquiry QueryType = "product_inquiry"
	QueryWarrantyClaim  QueryType = "warranty_claim"
	QueryGeneral        QueryType = "general"
	QueryOther          QueryType = "other"
)

// knownQueryTypes guards parsing of model output.
var knownQueryTypes = map[QueryType]bool{
	QueryProductReturn:  true,
	QueryRefundRequest:  true,
	QueryProductDamage:  true,
	QueryDeliveryIssue:  true,
	QueryProductInquiry: true,
	QueryWarrantyClaim:  true,
	QueryGeneral:        true,
	QueryOther:          true,
}

// Classification is the outcome of the classification stage.
type Classification struct {
	QueryType      QueryType `json:"query_type"`
	Confidence     float64   `json:"confidence"`
	Keywords       []string  `json:"keywords"`
	RequiresLookup bool      `json:"requires_lookup"`
	Reasoning      string    `json:"reasoning"`
}

// Tone labels the register of a generated reply.
type Tone string

const (
	ToneFormal     Tone = "formal"
	ToneFriendly   Tone = "friendly"
	ToneEmpathetic Tone = "empathetic"
)

// Reply is a generated response. FullText is the canonical text returned to
// the caller; the remaining fields are a structured decomposition for display
// and are not independently authoritative.
type Reply struct {
	Greeting       string   `json:"greeting"`
	Acknowledgment string   `json:"acknowledgment"`
	MainText       string   `json:"main_text"`
	ActionItems    []string `json:"action_items"`
	Closing        string   `json:"closing"`
	Tone           Tone     `json:"tone"`
	FullText       string   `json:"full_text"`
}

// Validation is the structural verdict on a generated reply. Hard-fail issues
// force IsValid to false; suggestions never do.
type Validation struct {
	IsValid         bool     `json:"is_valid"`
	Issues          []string `json:"issues"`
	Suggestions     []string `json:"suggestions"`
	ConfidenceScore float64  `json:"confidence_score"`
}

// Stage names a position in the pipeline state machine.
type Stage string

const (
	StageStart            Stage = "START"
	StageClassified       Stage = "CLASSIFIED"
	StageContextRetrieved Stage = "CONTEXT_RETRIEVED"
	StageGenerated        Stage = "GENERATED"
	StageValidated        Stage = "VALIDATED"
	StageDone             Stage = "DONE"
	StageFailed           Stage = "FAILED"
)

// State is the single mutable record carried through one pipeline run. It is
// owned exclusively by the orchestrator for the duration of the run and is
// never shared across concurrent runs.
type State struct {
	RunID        string
	EmailContent string

	Stage          Stage
	Classification *Classification
	Context        map[string]any
	Reply          *Reply
	Validation     *Validation
	FinalText      string
	Err            string
}

// Result is the terminal outcome of one pipeline run.
type Result struct {
	Success        bool            `json:"success"`
	ResponseText   string          `json:"response,omitempty"`
	Classification *Classification `json:"classification,omitempty"`
	Validation     *Validation     `json:"validation,omitempty"`
	Err            string          `json:"error,omitempty"`
}
