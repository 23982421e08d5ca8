package notifications

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const TypeRegistrationCreated = "registration.created"

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrInvalidPayload     = errors.New("invalid message payload")
)

func EncodeRegistrationCreated(msg RegistrationCreated) ([]byte, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

// DecodeRegistrationCreated checks the message type before unmarshalling. An
// empty type is accepted for producers that do not set it.
func DecodeRegistrationCreated(msgType string, body []byte) (RegistrationCreated, error) {
	if msgType != "" && msgType != TypeRegistrationCreated {
		return RegistrationCreated{}, fmt.Errorf("%w: %q", ErrUnknownMessageType, msgType)
	}
	if len(body) == 0 {
		return RegistrationCreated{}, ErrInvalidPayload
	}

	var msg RegistrationCreated
	if err := json.Unmarshal(body, &msg); err != nil {
		return RegistrationCreated{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := msg.Validate(); err != nil {
		return RegistrationCreated{}, err
	}
	return msg, nil
}

func (m RegistrationCreated) Validate() error {
	trim := strings.TrimSpace
	if trim(m.RegistrationID) == "" || trim(m.UserID) == "" || trim(m.EventID) == "" {
		return ErrInvalidPayload
	}
	return nil
}
