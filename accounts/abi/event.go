package abi

import (
	"errors"
	"fmt"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/crypto"
)

// Event is an event declaration. Indexed arguments become log topics after
// the signature topic; the rest are packed into the log data.
type Event struct {
	Name   string
	Inputs Arguments

	// Sig is the canonical signature, e.g. CreateTodo(uint256,string).
	Sig string
	// ID is the keccak256 hash of Sig, emitted as the first topic.
	ID common.Hash
}

// NewEvent declares an event.
func NewEvent(name string, inputs ...Argument) Event {
	sig := signature(name, Arguments(inputs).Types())
	return Event{
		Name:   name,
		Inputs: inputs,
		Sig:    sig,
		ID:     crypto.Keccak256Hash([]byte(sig)),
	}
}

// Pack encodes the event arguments into topics and data.
func (e Event) Pack(args ...interface{}) ([]common.Hash, []byte, error) {
	if len(args) != len(e.Inputs) {
		return nil, nil, fmt.Errorf("%w: event %s have %d want %d", errBadArgCount, e.Name, len(args), len(e.Inputs))
	}
	topics := []common.Hash{e.ID}
	var (
		dataTypes []Type
		dataArgs  []interface{}
	)
	for i, in := range e.Inputs {
		if in.Indexed {
			if in.Type.dynamic() {
				s, ok := args[i].(string)
				if !ok {
					return nil, nil, fmt.Errorf("abi: cannot use %T as type string as argument", args[i])
				}
				topics = append(topics, crypto.Keccak256Hash([]byte(s)))
				continue
			}
			topic, err := Word(in.Type, args[i])
			if err != nil {
				return nil, nil, err
			}
			topics = append(topics, topic)
			continue
		}
		dataTypes = append(dataTypes, in.Type)
		dataArgs = append(dataArgs, args[i])
	}
	data, err := Pack(dataTypes, dataArgs...)
	if err != nil {
		return nil, nil, err
	}
	return topics, data, nil
}

// Unpack decodes a log's topics and data into the event's arguments in
// declaration order. Indexed strings decode to their keccak256 hash.
func (e Event) Unpack(topics []common.Hash, data []byte) ([]interface{}, error) {
	if len(topics) == 0 || topics[0] != e.ID {
		return nil, errors.New("abi: log topic does not match event signature")
	}
	nonIndexed, err := Unpack(e.Inputs.NonIndexed().Types(), data)
	if err != nil {
		return nil, err
	}
	var (
		out   = make([]interface{}, len(e.Inputs))
		topic = 1
		field = 0
	)
	for i, in := range e.Inputs {
		if !in.Indexed {
			out[i] = nonIndexed[field]
			field++
			continue
		}
		if topic >= len(topics) {
			return nil, fmt.Errorf("abi: missing topic for indexed argument %s", in.Name)
		}
		if in.Type.dynamic() {
			out[i] = topics[topic]
		} else if out[i], err = unpackStatic(in.Type, topics[topic].Bytes()); err != nil {
			return nil, err
		}
		topic++
	}
	return out, nil
}
