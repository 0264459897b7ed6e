package email

// Template is a string-based enum naming email templates.
type Template string

const (
	// TemplateSignal corresponds to templates/signal.html.
	TemplateSignal Template = "signal"
)
