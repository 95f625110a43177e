package sysaction

import (
	"errors"
	"testing"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/vm"
)

type recordingHandler struct {
	seen []ActionKind
}

func (h *recordingHandler) CanHandle(kind ActionKind) bool { return kind == ActionTodoCount }

func (h *recordingHandler) Handle(ctx *Context, sa *SysAction) error {
	h.seen = append(h.seen, sa.Action)
	var p TodoContractPayload
	if err := DecodePayload(sa, &p); err != nil {
		return err
	}
	ctx.ReturnData = p.Contract.Bytes()
	return nil
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, input := range [][]byte{nil, []byte("{"), []byte(`{"payload":{}}`)} {
		if _, err := Decode(input); !errors.Is(err, ErrInvalidSysAction) {
			t.Fatalf("input %q: have %v, want ErrInvalidSysAction", input, err)
		}
	}
}

func TestDecodePayloadStrict(t *testing.T) {
	data := []byte(`{"action":"TODO_CREATE","payload":{"contract":"0x0000000000000000000000000000000000000001","txt":"typo"}}`)
	sa, err := Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	var p TodoCreatePayload
	if err := DecodePayload(sa, &p); !errors.Is(err, ErrInvalidSysAction) {
		t.Fatalf("unknown field accepted: %v", err)
	}
	if err := DecodePayload(&SysAction{Action: ActionTodoCreate}, &p); !errors.Is(err, ErrInvalidSysAction) {
		t.Fatalf("missing payload accepted: %v", err)
	}
}

func TestRegistryDispatch(t *testing.T) {
	var (
		h        = new(recordingHandler)
		reg      = &Registry{}
		contract = common.HexToAddress("0xc0ffee")
	)
	reg.Register(h)

	ctx := &Context{Gas: vm.NewGasMeter(1)}
	data := MustMakeSysAction(ActionTodoCount, &TodoContractPayload{Contract: contract})
	if err := reg.Execute(ctx, data); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if len(h.seen) != 1 || h.seen[0] != ActionTodoCount {
		t.Fatalf("handler not invoked: %v", h.seen)
	}
	if common.BytesToAddress(ctx.ReturnData) != contract {
		t.Fatalf("return data mismatch: %x", ctx.ReturnData)
	}
	unknown := MustMakeSysAction("AGENT_REGISTER", nil)
	if err := reg.Execute(ctx, unknown); !errors.Is(err, ErrInvalidSysAction) {
		t.Fatalf("unknown action accepted: %v", err)
	}
}

func TestViewKinds(t *testing.T) {
	for _, k := range []ActionKind{ActionTodoFee, ActionTodoOwner, ActionTodoGet, ActionTodoCount} {
		if !k.IsView() {
			t.Fatalf("%s should be a view", k)
		}
	}
	if ActionTodoCreate.IsView() {
		t.Fatalf("TODO_CREATE must not be a view")
	}
}
