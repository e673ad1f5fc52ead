package consensus

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"loanchain/crypto"
)

// Domain tags keep request and response digests from colliding with any other
// signed payload in the protocol.
const (
	RequestDomainV1  = "LOANCHAIN_TERMS_REQUEST_V1"
	ResponseDomainV1 = "LOANCHAIN_TERMS_RESPONSE_V1"
)

// LoanTermsRequest is the borrower's immutable ask circulated to the off-chain
// signers. The caller identity participates in the digest so that responses
// signed for one validator deployment cannot be replayed against another.
type LoanTermsRequest struct {
	// Borrower is the account requesting the loan.
	Borrower crypto.Address
	// Recipient optionally receives the drawn principal; defaults to the
	// borrower when empty.
	Recipient crypto.Address
	// RequestNonce makes the request unique per borrower.
	RequestNonce uint64
	// Amount is the requested principal in wei.
	Amount *big.Int
	// Duration is the requested loan length in seconds.
	Duration uint64
	// RequestTime is the unix timestamp the borrower created the request.
	RequestTime int64
}

// Hash derives the canonical request digest bound to the validating caller.
func (r LoanTermsRequest) Hash(caller string) []byte {
	amountStr := "0"
	if r.Amount != nil {
		amountStr = r.Amount.String()
	}
	recipient := make([]byte, 20)
	if len(r.Recipient.Bytes()) == 20 {
		recipient = r.Recipient.Bytes()
	}
	payload := fmt.Sprintf("%s|caller=%s|borrower=%s|recipient=%s|nonce=%d|amount=%s|duration=%d|requested=%d",
		RequestDomainV1,
		strings.TrimSpace(caller),
		hex.EncodeToString(r.Borrower.Bytes()),
		hex.EncodeToString(recipient),
		r.RequestNonce,
		amountStr,
		r.Duration,
		r.RequestTime,
	)
	return ethcrypto.Keccak256([]byte(payload))
}

// LoanTermsResponse is one signer's proposed terms for a request. The
// signature covers the request hash together with every response field.
type LoanTermsResponse struct {
	// Signer is the account that produced the response.
	Signer crypto.Address
	// ResponseTime is the unix timestamp the response was signed.
	ResponseTime int64
	// InterestRate is the proposed yearly rate in basis points.
	InterestRate uint64
	// CollateralRatio is the proposed collateral requirement in basis points
	// of the borrowed principal.
	CollateralRatio uint64
	// MaxLoanAmount is the proposed principal ceiling in wei.
	MaxLoanAmount *big.Int
	// SignerNonce makes the response unique per signer; a (signer, nonce)
	// pair is consumed once terms built from it are accepted.
	SignerNonce uint64
	// Signature is a 65-byte recoverable secp256k1 signature over Hash.
	Signature []byte
}

// Hash derives the canonical response digest over the request hash and the
// proposed term fields.
func (r LoanTermsResponse) Hash(requestHash []byte) []byte {
	maxStr := "0"
	if r.MaxLoanAmount != nil {
		maxStr = r.MaxLoanAmount.String()
	}
	payload := fmt.Sprintf("%s|request=%s|signer=%s|responded=%d|interest=%d|ratio=%d|max=%s|nonce=%d",
		ResponseDomainV1,
		hex.EncodeToString(requestHash),
		hex.EncodeToString(r.Signer.Bytes()),
		r.ResponseTime,
		r.InterestRate,
		r.CollateralRatio,
		maxStr,
		r.SignerNonce,
	)
	return ethcrypto.Keccak256([]byte(payload))
}

// Sign populates the response signature using the supplied key. Intended for
// signer tooling and tests.
func (r *LoanTermsResponse) Sign(key *crypto.PrivateKey, requestHash []byte) error {
	if r == nil || key == nil {
		return fmt.Errorf("terms consensus: key required")
	}
	sig, err := ethcrypto.Sign(r.Hash(requestHash), key.PrivateKey)
	if err != nil {
		return err
	}
	r.Signature = sig
	return nil
}

// AggregatedLoanTerms is the single authoritative term set folded from all
// accepted responses.
type AggregatedLoanTerms struct {
	// InterestRate is the agreed yearly rate in basis points.
	InterestRate uint64
	// CollateralRatio is the agreed collateral requirement in basis points.
	CollateralRatio uint64
	// MaxLoanAmount is the agreed principal ceiling in wei.
	MaxLoanAmount *big.Int
}
