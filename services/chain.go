package services

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	log "github.com/sirupsen/logrus"
)

// Achievement type enum matching the GameNFT contract.
const (
	AchievementMilestone int64 = 1
	AchievementHighscore int64 = 2
	AchievementSpecial   int64 = 3
)

// Numeric game ids used by the contract.
var GameIndexes = map[string]int64{
	"neon-sky-runner": 1,
	"tilenova":        2,
	"flappy":          3,
	"sudoku":          4,
}

type MintResult struct {
	TxHash  string
	TokenID int64
}

// ChainBackend is the opaque collaborator the pipeline talks to. Mint calls
// are network-bound; callers must treat them as best-effort and never let
// them block or fail an off-chain commit.
type ChainBackend interface {
	Available() bool
	MintAchievement(ctx context.Context, to string, achievementType, gameIndex, value int64, tokenURI string) (*MintResult, error)
}

const gameNFTABI = `[
	{"type":"function","name":"mintAchievement","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"achievementType","type":"uint256"},
	 {"name":"gameId","type":"uint256"},{"name":"value","type":"uint256"},
	 {"name":"tokenURI","type":"string"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"event","name":"NFTMinted","anonymous":false,
	 "inputs":[{"name":"to","type":"address","indexed":true},
	 {"name":"tokenId","type":"uint256","indexed":true}]}
]`

// ChainService is the EVM implementation of ChainBackend, transacting
// against the GameNFT contract with the custody key as the sole authorized
// minter.
type ChainService struct {
	appContext.DefaultService

	client      *ethclient.Client
	contract    common.Address
	contractABI abi.ABI
	mintTopic   common.Hash

	rpcURL  string
	nftAddr string

	signerSvc *SignerService
}

const CHAIN_SVC = "chain_svc"

const mintReceiptTimeout = 60 * time.Second

func (svc ChainService) Id() string {
	return CHAIN_SVC
}

func (svc *ChainService) Configure(ctx *appContext.Context) error {
	svc.rpcURL = os.Getenv("RPC_URL")
	if svc.rpcURL == "" {
		svc.rpcURL = "https://api.avax-test.network/ext/bc/C/rpc"
	}
	svc.nftAddr = os.Getenv("NFT_ADDRESS")

	parsed, err := abi.JSON(strings.NewReader(gameNFTABI))
	if err != nil {
		return fmt.Errorf("parse GameNFT ABI: %w", err)
	}
	svc.contractABI = parsed
	svc.mintTopic = crypto.Keccak256Hash([]byte("NFTMinted(address,uint256)"))

	return svc.DefaultService.Configure(ctx)
}

func (svc *ChainService) Start() error {
	svc.signerSvc = svc.Service(SIGNER_SVC).(*SignerService)

	if !common.IsHexAddress(svc.nftAddr) || !svc.signerSvc.Available() {
		log.Warn("NFT_ADDRESS or signer key not configured; on-chain minting disabled")
		return nil
	}
	svc.contract = common.HexToAddress(svc.nftAddr)

	client, err := ethclient.Dial(svc.rpcURL)
	if err != nil {
		// Minting is best-effort end to end; a dead RPC must not stop the
		// off-chain service from starting.
		log.WithError(err).Warn("RPC dial failed; on-chain minting disabled")
		return nil
	}
	svc.client = client

	return nil
}

func (svc *ChainService) Shutdown() {
	if svc.client != nil {
		svc.client.Close()
	}
}

func (svc *ChainService) Available() bool {
	return svc.client != nil
}

// MintAchievement submits one mintAchievement transaction and waits for the
// receipt so the token id can be read back from the NFTMinted event.
func (svc *ChainService) MintAchievement(ctx context.Context, to string, achievementType, gameIndex, value int64, tokenURI string) (*MintResult, error) {
	if svc.client == nil {
		return nil, fmt.Errorf("chain backend not available")
	}
	if !common.IsHexAddress(to) {
		return nil, fmt.Errorf("invalid recipient address: %s", to)
	}

	recipient := common.HexToAddress(to)
	input, err := svc.contractABI.Pack("mintAchievement",
		recipient, big.NewInt(achievementType), big.NewInt(gameIndex), big.NewInt(value), tokenURI)
	if err != nil {
		return nil, fmt.Errorf("pack mintAchievement: %w", err)
	}

	from := svc.signerSvc.Address()

	nonce, err := svc.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}

	gasPrice, err := svc.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}

	gasLimit, err := svc.client.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &svc.contract,
		Data: input,
	})
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTransaction(nonce, svc.contract, big.NewInt(0), gasLimit, gasPrice, input)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(svc.signerSvc.ChainID())), svc.signerSvc.Key())
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}

	if err := svc.client.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send tx: %w", err)
	}

	txHash := signed.Hash()
	log.WithFields(log.Fields{"tx": txHash.Hex(), "to": recipient.Hex()}).Info("Mint transaction sent")

	receipt, err := svc.waitMined(ctx, txHash)
	if err != nil {
		// The tx may still land; surface the hash so reconciliation can
		// attach it later.
		return &MintResult{TxHash: txHash.Hex(), TokenID: -1}, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("mint tx %s reverted", txHash.Hex())
	}

	tokenID := int64(-1)
	for _, l := range receipt.Logs {
		if len(l.Topics) >= 3 && l.Topics[0] == svc.mintTopic {
			tokenID = new(big.Int).SetBytes(l.Topics[2].Bytes()).Int64()
			break
		}
	}

	return &MintResult{TxHash: txHash.Hex(), TokenID: tokenID}, nil
}

func (svc *ChainService) waitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, mintReceiptTimeout)
	defer cancel()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		receipt, err := svc.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
