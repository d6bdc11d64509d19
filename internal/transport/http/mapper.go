package http

import (
	"encoding/json"
	"strings"

	"github.com/vovakirdan/textchat-relay/internal/core"
	"github.com/vovakirdan/textchat-relay/internal/proto"
)

// inboundText decodes a client frame into the text to relay.
func inboundText(data []byte, messageEvent string) (string, *core.CoreError) {
	var inbound proto.Inbound
	if err := json.Unmarshal(data, &inbound); err != nil {
		return "", &core.CoreError{Code: core.ErrCodeInvalidMessage, Message: "malformed message"}
	}
	if inbound.Type != messageEvent {
		return "", &core.CoreError{Code: core.ErrCodeInvalidMessage, Message: "unknown message type"}
	}

	var msg proto.MsgData
	if err := json.Unmarshal(inbound.Data, &msg); err != nil {
		return "", &core.CoreError{Code: core.ErrCodeInvalidMessage, Message: "malformed message data"}
	}
	if strings.TrimSpace(msg.Text) == "" {
		return "", &core.CoreError{Code: core.ErrCodeBadRequest, Message: "text is required"}
	}
	return msg.Text, nil
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventRoomMessage, core.EventNotification:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: event.Name,
			Data: proto.EventMessage{
				Room: event.Room,
				User: event.User,
				Text: event.Payload,
				TS:   event.CreatedAt.Unix(),
			},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Event: event.Name, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Event: event.Name,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent, Event: event.Name}
	}
}
