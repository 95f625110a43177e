package params

const (
	MinGasLimit     uint64 = 5000               // Minimum the gas limit may ever be.
	MaxGasLimit     uint64 = 0x7fffffffffffffff // Maximum the gas limit (2^63-1).
	GenesisGasLimit uint64 = 30_000_000         // Gas limit of the Genesis block.

	TxGas                   uint64 = 21000 // Per transaction.
	TxDataZeroGas           uint64 = 4     // Per byte of transaction data that equals zero.
	TxDataNonZeroGasReduced uint64 = 16    // Per byte of data attached to a transaction that is not equal to zero.
)
