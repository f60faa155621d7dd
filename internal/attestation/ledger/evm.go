package ledger

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"keystone/pkg/domain"
	"keystone/pkg/platform/sentinel"
)

// Backend is the subset of the JSON-RPC client the registry client needs.
// *ethclient.Client satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *types.Transaction, isPending bool, err error)
}

// EVMClient talks to the attestation registry on an EVM chain. A single backend
// wallet signs every write; submissions are serialized so nonces never collide.
type EVMClient struct {
	backend           Backend
	abi               *abi.ABI
	contract          common.Address
	key               *ecdsa.PrivateKey
	from              common.Address
	chainID           *big.Int
	settlementTimeout time.Duration
	gasMarginPercent  uint64
	receiptPoll       time.Duration
	logger            *slog.Logger

	submitMu sync.Mutex
}

// EVMOption configures an EVMClient.
type EVMOption func(*EVMClient)

func WithSettlementTimeout(d time.Duration) EVMOption {
	return func(c *EVMClient) { c.settlementTimeout = d }
}

func WithGasMargin(percent int) EVMOption {
	return func(c *EVMClient) { c.gasMarginPercent = uint64(max(percent, 0)) }
}

func WithReceiptPoll(d time.Duration) EVMOption {
	return func(c *EVMClient) { c.receiptPoll = d }
}

// WithChainID skips the eth_chainId lookup.
func WithChainID(id int64) EVMOption {
	return func(c *EVMClient) {
		if id > 0 {
			c.chainID = big.NewInt(id)
		}
	}
}

func WithEVMLogger(logger *slog.Logger) EVMOption {
	return func(c *EVMClient) { c.logger = logger }
}

// Dial connects to rpcURL and builds a client for the registry at contractAddr.
func Dial(ctx context.Context, rpcURL, privateKeyHex, contractAddr string, opts ...EVMOption) (*EVMClient, error) {
	rpc, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial ledger rpc: %w", err)
	}
	c, err := NewEVMClient(ctx, rpc, privateKeyHex, contractAddr, opts...)
	if err != nil {
		rpc.Close()
		return nil, err
	}
	return c, nil
}

func NewEVMClient(ctx context.Context, backend Backend, privateKeyHex, contractAddr string, opts ...EVMOption) (*EVMClient, error) {
	parsed, err := RegistryMetaData.GetAbi()
	if err != nil {
		return nil, fmt.Errorf("parse registry abi: %w", err)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse backend wallet key: %w", err)
	}
	if !common.IsHexAddress(contractAddr) {
		return nil, fmt.Errorf("invalid registry contract address %q", contractAddr)
	}

	c := &EVMClient{
		backend:           backend,
		abi:               parsed,
		contract:          common.HexToAddress(contractAddr),
		key:               key,
		from:              crypto.PubkeyToAddress(key.PublicKey),
		settlementTimeout: 120 * time.Second,
		gasMarginPercent:  20,
		receiptPoll:       2 * time.Second,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.chainID == nil {
		id, err := backend.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("query chain id: %w", err)
		}
		c.chainID = id
	}
	return c, nil
}

// Sender is the backend wallet address.
func (c *EVMClient) Sender() common.Address { return c.from }

// =============================================================================
// Reads
// =============================================================================

func (c *EVMClient) ListVerificationTypes(ctx context.Context, addr domain.WalletAddress) ([]domain.VerificationType, error) {
	out, err := c.call(ctx, methodTypes, addr.Common())
	if err != nil {
		return nil, err
	}
	raw, ok := out[0].([]string)
	if !ok {
		return nil, readError(methodTypes, fmt.Errorf("unexpected output %T", out[0]))
	}
	types := make([]domain.VerificationType, len(raw))
	for i, t := range raw {
		types[i] = domain.VerificationType(t)
	}
	return types, nil
}

func (c *EVMClient) AttestationPointer(ctx context.Context, addr domain.WalletAddress, t domain.VerificationType) (string, error) {
	return c.callString(ctx, methodAttestation, addr.Common(), string(t))
}

func (c *EVMClient) IsRevoked(ctx context.Context, cid string) (bool, error) {
	return c.callBool(ctx, methodIsRevoked, cid)
}

func (c *EVMClient) HasConsented(ctx context.Context, addr domain.WalletAddress, t domain.VerificationType) (bool, error) {
	return c.callBool(ctx, methodHasConsented, addr.Common(), string(t))
}

func (c *EVMClient) HasAnyValidVerification(ctx context.Context, addr domain.WalletAddress) (bool, error) {
	return c.callBool(ctx, methodHasAny, addr.Common())
}

func (c *EVMClient) LatestAttestationPointer(ctx context.Context, addr domain.WalletAddress) (string, error) {
	return c.callString(ctx, methodLatestPointer, addr.Common())
}

func (c *EVMClient) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, readError(method, err)
	}
	raw, err := c.backend.CallContract(ctx, ethereum.CallMsg{From: c.from, To: &c.contract, Data: data}, nil)
	if err != nil {
		return nil, readError(method, err)
	}
	out, err := c.abi.Unpack(method, raw)
	if err != nil {
		return nil, readError(method, err)
	}
	if len(out) == 0 {
		return nil, readError(method, errors.New("empty output"))
	}
	return out, nil
}

func (c *EVMClient) callString(ctx context.Context, method string, args ...any) (string, error) {
	out, err := c.call(ctx, method, args...)
	if err != nil {
		return "", err
	}
	s, ok := out[0].(string)
	if !ok {
		return "", readError(method, fmt.Errorf("unexpected output %T", out[0]))
	}
	return s, nil
}

func (c *EVMClient) callBool(ctx context.Context, method string, args ...any) (bool, error) {
	out, err := c.call(ctx, method, args...)
	if err != nil {
		return false, err
	}
	b, ok := out[0].(bool)
	if !ok {
		return false, readError(method, fmt.Errorf("unexpected output %T", out[0]))
	}
	return b, nil
}

// =============================================================================
// Writes
// =============================================================================

// AnchorAttestation points (addr, t) at cid and waits for the transaction to
// settle. A wait that outlives the settlement timeout returns sentinel.ErrTimeout
// with the transaction hash: the write may still land.
func (c *EVMClient) AnchorAttestation(ctx context.Context, addr domain.WalletAddress, t domain.VerificationType, cid string) (string, error) {
	data, err := c.abi.Pack(methodMint, addr.Common(), string(t), cid)
	if err != nil {
		return "", &Error{Op: methodMint, Kind: ErrRejected, Message: "encode call", Underlying: err}
	}

	tx, err := c.submit(ctx, data)
	if err != nil {
		if errors.Is(err, sentinel.ErrTimeout) {
			enterPhase(PhaseTimedOut)
		} else {
			enterPhase(PhaseRejected)
		}
		return "", err
	}
	txHash := tx.Hash().Hex()
	enterPhase(PhasePending)
	c.logger.InfoContext(ctx, "anchor transaction submitted",
		"tx_hash", txHash,
		"nonce", tx.Nonce(),
		"gas_limit", tx.Gas(),
	)

	receipt, err := c.waitMined(ctx, tx.Hash())
	if err != nil {
		enterPhase(PhaseTimedOut)
		return "", &Error{Op: methodMint, Kind: sentinel.ErrTimeout, TxHash: txHash, Message: "transaction not settled in time", Underlying: err}
	}
	if receipt.Status == types.ReceiptStatusFailed {
		enterPhase(PhaseRejected)
		return "", &Error{Op: methodMint, Kind: ErrRejected, TxHash: txHash, Message: "transaction reverted"}
	}
	enterPhase(PhaseConfirmed)
	return txHash, nil
}

func (c *EVMClient) submit(ctx context.Context, data []byte) (*types.Transaction, error) {
	c.submitMu.Lock()
	defer c.submitMu.Unlock()

	enterPhase(PhaseEstimating)
	gas, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{From: c.from, To: &c.contract, Data: data})
	if err != nil {
		return nil, classifySubmitError("estimate", err)
	}
	gasLimit := gas + gas*c.gasMarginPercent/100

	nonce, err := c.backend.PendingNonceAt(ctx, c.from)
	if err != nil {
		return nil, classifySubmitError("nonce", err)
	}
	head, err := c.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, classifySubmitError("fees", err)
	}

	var txdata types.TxData
	if head.BaseFee != nil {
		tip, err := c.backend.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, classifySubmitError("fees", err)
		}
		feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		txdata = &types.DynamicFeeTx{
			ChainID:   c.chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gasLimit,
			To:        &c.contract,
			Data:      data,
		}
	} else {
		price, err := c.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, classifySubmitError("fees", err)
		}
		txdata = &types.LegacyTx{
			Nonce:    nonce,
			GasPrice: price,
			Gas:      gasLimit,
			To:       &c.contract,
			Data:     data,
		}
	}

	signed, err := types.SignNewTx(c.key, types.LatestSignerForChainID(c.chainID), txdata)
	if err != nil {
		return nil, &Error{Op: "sign", Kind: ErrRejected, Message: "sign transaction", Underlying: err}
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return nil, classifySendError(err, signed.Hash().Hex())
	}
	enterPhase(PhaseSubmitted)
	return signed, nil
}

func (c *EVMClient) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.settlementTimeout)
	defer cancel()

	ticker := time.NewTicker(c.receiptPoll)
	defer ticker.Stop()
	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) && ctx.Err() == nil {
			c.logger.DebugContext(ctx, "receipt lookup failed", "tx_hash", hash.Hex(), "error", err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// AnchorStatus reports where a previously submitted anchor transaction stands.
func (c *EVMClient) AnchorStatus(ctx context.Context, txHash string) (AnchorStatus, error) {
	hash := common.HexToHash(txHash)
	status := AnchorStatus{TxHash: hash.Hex()}

	receipt, err := c.backend.TransactionReceipt(ctx, hash)
	switch {
	case err == nil && receipt != nil:
		status.Status = TxConfirmed
		if receipt.Status == types.ReceiptStatusFailed {
			status.Status = TxFailed
		}
		if receipt.BlockNumber != nil {
			status.BlockNumber = receipt.BlockNumber.Uint64()
		}
		return status, nil
	case err != nil && !errors.Is(err, ethereum.NotFound):
		return status, readError("receipt", err)
	}

	_, _, err = c.backend.TransactionByHash(ctx, hash)
	switch {
	case errors.Is(err, ethereum.NotFound):
		status.Status = TxUnknown
	case err != nil:
		return status, readError("transaction", err)
	default:
		// known to the node but no receipt yet
		status.Status = TxPending
	}
	return status, nil
}
