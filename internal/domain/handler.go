package domain

// HandlerRequest is what the orchestrator hands to a domain handler.
type HandlerRequest struct {
	UserID  string
	Message string
	Profile UserProfile
	// Context is newest-first.
	Context []ConversationEntry
}

// HandlerReply is a domain handler's answer. PlanHints is only meaningful when
// WantsPlan is set.
type HandlerReply struct {
	Content   string
	WantsPlan bool
	PlanHints *PlanHints
	Metadata  map[string]any
}
