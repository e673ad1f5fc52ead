package consensus

import (
	"errors"
	"math/big"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"loanchain/crypto"
	"loanchain/native/params"
)

var (
	errNilSettings = errors.New("terms consensus: settings not configured")
	errNilRegistry = errors.New("terms consensus: signer registry not configured")

	// ErrRequestInvalid indicates a malformed request (zero borrower, amount
	// or duration).
	ErrRequestInvalid = errors.New("terms consensus: request invalid")
	// ErrMissingSubmissions is surfaced as MUST_PROVIDE_REQUIRED_SUBS.
	ErrMissingSubmissions = errors.New("terms consensus: MUST_PROVIDE_REQUIRED_SUBS")
	// ErrSignerUnknown indicates the declared signer is not registered.
	ErrSignerUnknown = errors.New("terms consensus: signer not registered")
	// ErrSignatureInvalid indicates the signature did not recover to the
	// declared signer.
	ErrSignatureInvalid = errors.New("terms consensus: signature invalid")
	// ErrNonceReused indicates a (signer, nonce) pair was already consumed or
	// appeared twice in one submission set.
	ErrNonceReused = errors.New("terms consensus: signer nonce reused")
	// ErrResponseExpired indicates the response timestamp fell outside the
	// configured expiry window.
	ErrResponseExpired = errors.New("terms consensus: response expired")
	// ErrResponsesTooDivergent is surfaced as RESPONSES_TOO_DIVERGENT.
	ErrResponsesTooDivergent = errors.New("terms consensus: RESPONSES_TOO_DIVERGENT")
)

// SignerRegistry exposes signer membership and nonce bookkeeping. Validation
// only reads it; the caller consumes nonces after it commits the aggregated
// terms.
type SignerRegistry interface {
	IsSigner(addr crypto.Address) bool
	NonceUsed(addr crypto.Address, nonce uint64) bool
	ConsumeNonce(addr crypto.Address, nonce uint64) error
}

// Validator folds independently signed loan-term responses into one
// authoritative term set. ProcessRequest is pure: identical inputs yield
// identical outputs, and no state is mutated.
type Validator struct {
	settings params.SettingsView
	registry SignerRegistry
	caller   string
	nowFn    func() int64
}

// NewValidator constructs a validator identified by the caller tag used for
// signature domain separation.
func NewValidator(caller string, settings params.SettingsView, registry SignerRegistry) *Validator {
	return &Validator{
		caller:   caller,
		settings: settings,
		registry: registry,
		nowFn:    func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the time source, primarily for deterministic testing.
func (v *Validator) SetNowFunc(now func() int64) {
	if v == nil {
		return
	}
	if now == nil {
		v.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	v.nowFn = now
}

// Registry returns the signer registry so callers can consume nonces once the
// aggregated terms are committed.
func (v *Validator) Registry() SignerRegistry {
	if v == nil {
		return nil
	}
	return v.registry
}

// ProcessRequest validates every submitted response against the request and
// aggregates the proposed terms. A single invalid response fails the whole
// call: dropping responses would let a submitter steer the average by
// selectively invalidating outliers.
func (v *Validator) ProcessRequest(request LoanTermsRequest, responses []LoanTermsResponse) (AggregatedLoanTerms, error) {
	if v == nil || v.settings == nil {
		return AggregatedLoanTerms{}, errNilSettings
	}
	if v.registry == nil {
		return AggregatedLoanTerms{}, errNilRegistry
	}
	if len(request.Borrower.Bytes()) != 20 {
		return AggregatedLoanTerms{}, ErrRequestInvalid
	}
	if request.Amount == nil || request.Amount.Sign() <= 0 || request.Duration == 0 {
		return AggregatedLoanTerms{}, ErrRequestInvalid
	}
	required, err := v.settings.PlatformSettingValue(params.RequiredSubmissions)
	if err != nil {
		return AggregatedLoanTerms{}, err
	}
	if uint64(len(responses)) < required || len(responses) == 0 {
		return AggregatedLoanTerms{}, ErrMissingSubmissions
	}
	expiry, err := v.settings.PlatformSettingValue(params.ResponseExpiryLength)
	if err != nil {
		return AggregatedLoanTerms{}, err
	}
	toleranceBps, err := v.settings.PlatformSettingValue(params.MaximumTolerance)
	if err != nil {
		return AggregatedLoanTerms{}, err
	}

	requestHash := request.Hash(v.caller)
	now := v.nowFn()
	seen := make(map[string]struct{}, len(responses))

	interest := make([]*big.Int, 0, len(responses))
	ratio := make([]*big.Int, 0, len(responses))
	maxAmount := make([]*big.Int, 0, len(responses))

	for i := range responses {
		resp := responses[i]
		if err := v.verifyResponse(requestHash, resp, now, int64(expiry), seen); err != nil {
			return AggregatedLoanTerms{}, err
		}
		interest = append(interest, new(big.Int).SetUint64(resp.InterestRate))
		ratio = append(ratio, new(big.Int).SetUint64(resp.CollateralRatio))
		maxAmount = append(maxAmount, new(big.Int).Set(resp.MaxLoanAmount))
	}

	interestAvg, err := foldWithinTolerance(interest, toleranceBps)
	if err != nil {
		return AggregatedLoanTerms{}, err
	}
	ratioAvg, err := foldWithinTolerance(ratio, toleranceBps)
	if err != nil {
		return AggregatedLoanTerms{}, err
	}
	maxAvg, err := foldWithinTolerance(maxAmount, toleranceBps)
	if err != nil {
		return AggregatedLoanTerms{}, err
	}

	return AggregatedLoanTerms{
		InterestRate:    interestAvg.Uint64(),
		CollateralRatio: ratioAvg.Uint64(),
		MaxLoanAmount:   maxAvg,
	}, nil
}

func (v *Validator) verifyResponse(requestHash []byte, resp LoanTermsResponse, now, expiry int64, seen map[string]struct{}) error {
	if len(resp.Signer.Bytes()) != 20 {
		return ErrSignerUnknown
	}
	if resp.MaxLoanAmount == nil || resp.MaxLoanAmount.Sign() <= 0 {
		return ErrRequestInvalid
	}
	if !v.registry.IsSigner(resp.Signer) {
		return ErrSignerUnknown
	}
	key := nonceKey(resp.Signer, resp.SignerNonce)
	if _, dup := seen[key]; dup {
		return ErrNonceReused
	}
	if v.registry.NonceUsed(resp.Signer, resp.SignerNonce) {
		return ErrNonceReused
	}
	seen[key] = struct{}{}
	// A response dated further than the expiry window into the future is as
	// unusable as a stale one.
	if resp.ResponseTime <= 0 || now-resp.ResponseTime > expiry || resp.ResponseTime-now > expiry {
		return ErrResponseExpired
	}
	if len(resp.Signature) != 65 {
		return ErrSignatureInvalid
	}
	pubKey, err := ethcrypto.SigToPub(resp.Hash(requestHash), resp.Signature)
	if err != nil {
		return ErrSignatureInvalid
	}
	recovered := ethcrypto.PubkeyToAddress(*pubKey)
	if recovered != ethcommon.BytesToAddress(resp.Signer.Bytes()) {
		return ErrSignatureInvalid
	}
	return nil
}

// foldWithinTolerance averages the values (truncating toward zero) after
// checking the min/max spread against the tolerance: values fail when
// (max-min)*10000/avg exceeds the configured basis points.
func foldWithinTolerance(values []*big.Int, toleranceBps uint64) (*big.Int, error) {
	if len(values) == 0 {
		return nil, ErrMissingSubmissions
	}
	sum := new(big.Int)
	minVal := new(big.Int).Set(values[0])
	maxVal := new(big.Int).Set(values[0])
	for _, value := range values {
		sum.Add(sum, value)
		if value.Cmp(minVal) < 0 {
			minVal.Set(value)
		}
		if value.Cmp(maxVal) > 0 {
			maxVal.Set(value)
		}
	}
	avg := new(big.Int).Quo(sum, big.NewInt(int64(len(values))))
	if avg.Sign() > 0 {
		spread := new(big.Int).Sub(maxVal, minVal)
		spread.Mul(spread, big.NewInt(10_000))
		spread.Quo(spread, avg)
		if spread.Cmp(new(big.Int).SetUint64(toleranceBps)) > 0 {
			return nil, ErrResponsesTooDivergent
		}
	} else if maxVal.Cmp(minVal) != 0 {
		return nil, ErrResponsesTooDivergent
	}
	return avg, nil
}

func nonceKey(addr crypto.Address, nonce uint64) string {
	buf := make([]byte, 0, 28)
	buf = append(buf, addr.Bytes()...)
	for shift := 0; shift < 64; shift += 8 {
		buf = append(buf, byte(nonce>>shift))
	}
	return string(buf)
}
