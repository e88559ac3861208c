package features

import "errors"

// Failure classes surfaced by feature operations. Handlers map these to
// transport status codes; everything else is an internal error.
var (
	ErrUnauthorized                  = errors.New("user does not own this resource")
	ErrAgentNotFound                 = errors.New("agent not found")
	ErrAgentNotAvailable             = errors.New("agent not found or not published")
	ErrQuestionNotFound              = errors.New("question not found")
	ErrInterviewNotFound             = errors.New("interview not found")
	ErrInterviewClosed               = errors.New("interview is no longer in progress")
	ErrCannotPublishWithoutQuestions = errors.New("cannot publish an agent without questions")
	ErrInvalidQuestionForFollowUp    = errors.New("invalid question for follow-up")
	ErrFollowUpsDisabled             = errors.New("follow-ups are disabled for this agent")
	ErrFollowUpLimit                 = errors.New("follow-up limit reached for this question")
	ErrNoKnowledgeSources            = errors.New("agent has no knowledge sources")
)
