package assistant

import "github.com/fleveque/stock-assistant/internal/llm"

type replyKind int

const (
	replyUnrecognized replyKind = iota
	replyText
	replyToolCall
)

// reply is the parsed form of a completion response. Only the first part of
// the first candidate is considered.
type reply struct {
	kind replyKind
	text string
	call *llm.FunctionCall
}

// parseReply classifies a response. A function call wins over text when a
// part carries both; empty text is unrecognized.
func parseReply(resp *llm.Response) reply {
	part := resp.FirstPart()
	switch {
	case part == nil:
		return reply{kind: replyUnrecognized}
	case part.FunctionCall != nil && part.FunctionCall.Name != "":
		return reply{kind: replyToolCall, call: part.FunctionCall}
	case part.Text != "":
		return reply{kind: replyText, text: part.Text}
	default:
		return reply{kind: replyUnrecognized}
	}
}
