package vm

import (
	"errors"
	"testing"

	"github.com/tos-network/todochain/accounts/abi"
	"github.com/tos-network/todochain/common"
)

func TestRevertErrorIsExecutionReverted(t *testing.T) {
	for _, err := range []error{Revert(), RevertWithReason("boom"), NewRevertError(nil)} {
		if !errors.Is(err, ErrExecutionReverted) {
			t.Fatalf("%v does not match ErrExecutionReverted", err)
		}
	}
}

func TestRevertErrorDecodesReason(t *testing.T) {
	err := NewRevertError(abi.PackRevert("Must send 0.01 TOS to create a Todo"))
	if err.Reason() != "Must send 0.01 TOS to create a Todo" {
		t.Fatalf("reason mismatch: %q", err.Reason())
	}
	if err.Error() != "execution reverted: Must send 0.01 TOS to create a Todo" {
		t.Fatalf("message mismatch: %q", err.Error())
	}
}

func TestRevertErrorCustomPayload(t *testing.T) {
	custom := abi.NewError("OwnableUnauthorizedAccount", abi.AddressTy)
	caller := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	err := RevertWithCustomError(custom, caller)
	if err.Reason() != "" {
		t.Fatalf("custom errors carry no reason, got %q", err.Reason())
	}
	if len(err.ErrorData()) != 4+32 {
		t.Fatalf("payload length mismatch: %d", len(err.ErrorData()))
	}
	if Revert().Error() != "execution reverted" {
		t.Fatalf("bare revert message mismatch: %q", Revert().Error())
	}
}

func TestGasMeter(t *testing.T) {
	m := NewGasMeter(100)
	if err := m.UseGas(60); err != nil {
		t.Fatal(err)
	}
	if err := m.UseGas(50); !errors.Is(err, ErrOutOfGas) {
		t.Fatalf("expected out of gas, got %v", err)
	}
	if m.Used() != 100 || m.Remaining() != 0 {
		t.Fatalf("failed charge should consume remaining gas: used %d", m.Used())
	}
}
