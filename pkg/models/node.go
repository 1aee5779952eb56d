package models

// NodeType is the closed set of node kinds understood by the graph walker.
type NodeType string

const (
	NodeTypeTrigger   NodeType = "trigger"
	NodeTypeAction    NodeType = "action"
	NodeTypeCondition NodeType = "condition"
	NodeTypeDelay     NodeType = "delay"
)

// Well-known node modules.
const (
	NodeModuleWhatsApp = "whatsapp"
	NodeModuleWebhook  = "webhook"
	NodeModuleEmail    = "email"
	NodeModuleTeam     = "team"
)

// Well-known node events.
const (
	NodeEventConversationStarted = "conversation_started"
	NodeEventKeyword             = "keyword"
	NodeEventMessageReceived     = "message_received"
	NodeEventSendMessage         = "send_message"
	NodeEventHTTPRequest         = "http_request"
	NodeEventSendEmail           = "send_email"
	NodeEventNotifyTeam          = "notify_team"
)

// ConditionOperator is the closed set of comparison operators for
// condition nodes. Comparison is case-insensitive throughout.
type ConditionOperator string

const (
	OperatorEquals     ConditionOperator = "equals"
	OperatorContains   ConditionOperator = "contains"
	OperatorStartsWith ConditionOperator = "starts_with"
	OperatorEndsWith   ConditionOperator = "ends_with"
	OperatorRegex      ConditionOperator = "regex"
)

// Condition is the comparison attached to a condition node.
type Condition struct {
	Field    string            `json:"field"    validate:"required"`
	Operator ConditionOperator `json:"operator" validate:"required"`
	Value    string            `json:"value"`
}

// NodeData carries the per-kind payload of a node. Only the fields
// relevant to the node's type/module/event are populated.
type NodeData struct {
	// Trigger
	Keywords []string `json:"keywords,omitempty"`

	// Action: send_message
	Message string `json:"message,omitempty"`

	// Action: http_request
	URL     string            `json:"url,omitempty"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`

	// Action: send_email
	To      string `json:"to,omitempty"`
	Subject string `json:"subject,omitempty"`

	// Action: notify_team
	Priority string `json:"priority,omitempty"`

	// Condition
	Condition *Condition `json:"condition,omitempty"`

	// Delay, in seconds
	Delay int `json:"delay,omitempty"`
}

// Node is a single step in an automation graph. Non-condition nodes
// follow Next (fan-out, in order); condition nodes follow exactly one of
// TrueBranch/FalseBranch and never Next.
type Node struct {
	ID     string   `json:"id"   validate:"required"`
	Type   NodeType `json:"type" validate:"required,oneof=trigger action condition delay"`
	Module string   `json:"module,omitempty"`
	Event  string   `json:"event,omitempty"`

	Next        []string `json:"next,omitempty"`
	TrueBranch  string   `json:"trueBranch,omitempty"`
	FalseBranch string   `json:"falseBranch,omitempty"`

	// Trigger-only: declarative payload filter (dotted path -> expected
	// value or "/regex/" string) and optional JSON schema.
	PayloadMatch  map[string]any `json:"payloadMatch,omitempty"`
	PayloadSchema map[string]any `json:"payloadSchema,omitempty"`

	Data NodeData `json:"data,omitempty"`
}

// IsTrigger reports whether the node is a graph entry point.
func (n *Node) IsTrigger() bool {
	return n.Type == NodeTypeTrigger
}
