package services

import (
	"crypto/ecdsa"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	log "github.com/sirupsen/logrus"
)

// SignerService produces the attestation a validated result needs for an
// on-chain reward claim. The reward contract recomputes the same packed hash
// and checks the recovered signer against the registered backend address, so
// this key must be the contract's sole authorized signer.
//
// Signing is an optional enhancement: an unconfigured key degrades the
// response (signature null), never the commit path.
type SignerService struct {
	context.DefaultService

	key     *ecdsa.PrivateKey
	chainID int64
}

const SIGNER_SVC = "signer_svc"

func (svc SignerService) Id() string {
	return SIGNER_SVC
}

func (svc *SignerService) Configure(ctx *context.Context) error {
	raw := strings.TrimPrefix(os.Getenv("BACKEND_SIGNER_KEY"), "0x")
	if raw != "" && raw != "your_private_key" {
		key, err := crypto.HexToECDSA(raw)
		if err != nil {
			return fmt.Errorf("invalid BACKEND_SIGNER_KEY: %w", err)
		}
		svc.key = key
	}

	svc.chainID = 43113 // Avalanche Fuji
	if v := os.Getenv("CHAIN_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid CHAIN_ID: %w", err)
		}
		svc.chainID = id
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *SignerService) Start() error {
	if svc.key == nil {
		log.Warn("BACKEND_SIGNER_KEY not configured; reward signatures disabled")
	} else {
		log.WithField("signer", svc.Address().Hex()).Info("Result signer ready")
	}
	return nil
}

func (svc *SignerService) Available() bool {
	return svc.key != nil
}

func (svc *SignerService) ChainID() int64 {
	return svc.chainID
}

// Address returns the signer address the reward contract must recognize.
func (svc *SignerService) Address() common.Address {
	return crypto.PubkeyToAddress(svc.key.PublicKey)
}

// Key hands the custody key to the chain backend, which transacts with the
// same account (backend signer doubles as the authorized minter).
func (svc *SignerService) Key() *ecdsa.PrivateKey {
	return svc.key
}

// Sign attests (nonce, player, gameId, score, chainId). The packed layout
// and the EIP-191 envelope must stay byte-identical to the verifying
// contract: nonce(32) || player(20) || keccak256(gameSlug)(32) ||
// score uint64 BE(8) || chainId uint256 BE(32).
func (svc *SignerService) Sign(nonceHex, player, gameSlug string, score int64) (string, error) {
	if svc.key == nil {
		return "", fmt.Errorf("signer key not configured")
	}

	msgHash, err := ResultHash(nonceHex, player, gameSlug, score, svc.chainID)
	if err != nil {
		return "", err
	}

	sig, err := crypto.Sign(accounts.TextHash(msgHash), svc.key)
	if err != nil {
		return "", err
	}
	// Contract-side ECDSA.recover expects v in {27, 28}.
	sig[64] += 27

	return hexutil.Encode(sig), nil
}

// ResultHash computes the deterministic packed-field hash both sides agree on.
func ResultHash(nonceHex, player, gameSlug string, score int64, chainID int64) ([]byte, error) {
	nonce, err := hex.DecodeString(strings.TrimPrefix(nonceHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid nonce: %w", err)
	}
	if len(nonce) != 32 {
		return nil, fmt.Errorf("nonce must be 32 bytes, got %d", len(nonce))
	}

	if !common.IsHexAddress(player) {
		return nil, fmt.Errorf("invalid player address: %s", player)
	}
	addr := common.HexToAddress(player)

	gameIDHash := GameSlugToID(gameSlug)

	var scoreBytes [8]byte
	binary.BigEndian.PutUint64(scoreBytes[:], uint64(score))

	var chainBytes [32]byte
	big.NewInt(chainID).FillBytes(chainBytes[:])

	packed := make([]byte, 0, 32+20+32+8+32)
	packed = append(packed, nonce...)
	packed = append(packed, addr.Bytes()...)
	packed = append(packed, gameIDHash.Bytes()...)
	packed = append(packed, scoreBytes[:]...)
	packed = append(packed, chainBytes[:]...)

	return crypto.Keccak256(packed), nil
}

// GameSlugToID maps a game slug to its bytes32 contract identifier.
func GameSlugToID(slug string) common.Hash {
	return crypto.Keccak256Hash([]byte(slug))
}

// RewardTypeToID maps a reward type to its bytes32 contract identifier.
func RewardTypeToID(rewardType string) common.Hash {
	return crypto.Keccak256Hash([]byte(rewardType))
}
