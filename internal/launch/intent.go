package launch

import (
	"fmt"
	"strings"
)

// Protocol identifies how a token is created on chain.
type Protocol string

const (
	ProtocolToken2022 Protocol = "token2022"
	ProtocolPumpFun   Protocol = "pumpfun"
)

type SocialLinks struct {
	Website  string `json:"website,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	Telegram string `json:"telegram,omitempty"`
	Discord  string `json:"discord,omitempty"`
}

// Logo is the token image. Data is required before submission.
type Logo struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// Capabilities are the authority flags of a token. A false flag asks for
// the matching authority to be absent or revoked.
type Capabilities struct {
	Freezeable    bool `json:"freezeable"`
	Mintable      bool `json:"mintable"`
	Updateable    bool `json:"updateable"`
	EnableCreator bool `json:"enableCreator"`
}

// TokenDetails are the fields shared by every launch protocol.
type TokenDetails struct {
	Name           string
	Symbol         string
	Description    string
	Links          SocialLinks
	CreatorName    string
	CreatorWebsite string
	Decimals       uint8
	Supply         uint64
	Logo           *Logo
	Capabilities
}

// Intent is a request to create one token. It is either a
// *DirectMintIntent or a *BondingCurveIntent.
type Intent interface {
	Details() *TokenDetails
	Protocol() Protocol
}

// DirectMintIntent creates a Token-2022 mint with on-chain metadata.
type DirectMintIntent struct {
	TokenDetails
}

func (i *DirectMintIntent) Details() *TokenDetails { return &i.TokenDetails }
func (*DirectMintIntent) Protocol() Protocol       { return ProtocolToken2022 }

// BondingCurveIntent launches a coin on the pump.fun bonding curve. Zero
// trade parameters take the service defaults.
type BondingCurveIntent struct {
	TokenDetails

	DevBuySOL       float64
	SlippagePercent float64
	PriorityFeeSOL  float64
	UseJitoBundling bool

	// SignerAddresses are keystore addresses; the first creates the coin
	// and the rest buy in the same bundle. Empty means the payer alone.
	SignerAddresses []string
}

func (i *BondingCurveIntent) Details() *TokenDetails { return &i.TokenDetails }
func (*BondingCurveIntent) Protocol() Protocol       { return ProtocolPumpFun }

// IntentRequest is the flat wire form accepted over HTTP and the queue.
type IntentRequest struct {
	Name           string `json:"name"`
	Symbol         string `json:"symbol"`
	Description    string `json:"description"`
	Website        string `json:"website"`
	Twitter        string `json:"twitter"`
	Telegram       string `json:"telegram"`
	Discord        string `json:"discord"`
	CreatorName    string `json:"creatorName"`
	CreatorWebsite string `json:"creatorWebsite"`

	Decimals int    `json:"decimals"`
	Supply   uint64 `json:"supply"`

	Freezeable    bool `json:"freezeable"`
	Mintable      bool `json:"mintable"`
	Updateable    bool `json:"updateable"`
	EnableCreator bool `json:"enableCreator"`

	UsePumpFun      bool     `json:"usePumpFun"`
	DevBuyAmount    float64  `json:"devBuyAmount"`
	SlippagePercent float64  `json:"slippagePercent"`
	PriorityFee     float64  `json:"priorityFee"`
	UseJitoBundling bool     `json:"useJitoBundling"`
	Signers         []string `json:"signers"`

	Logo *Logo `json:"logo,omitempty"`
}

// ToIntent converts the wire form into the protocol specific intent.
// Bonding-curve fields are dropped when UsePumpFun is false.
func (r IntentRequest) ToIntent() (Intent, error) {
	if r.Decimals < 0 || r.Decimals > MaxDecimals {
		return nil, configurationError(fmt.Sprintf("Decimals must be between 0 and %d.", MaxDecimals))
	}

	details := TokenDetails{
		Name:        strings.TrimSpace(r.Name),
		Symbol:      strings.TrimSpace(r.Symbol),
		Description: r.Description,
		Links: SocialLinks{
			Website:  r.Website,
			Twitter:  r.Twitter,
			Telegram: r.Telegram,
			Discord:  r.Discord,
		},
		CreatorName:    r.CreatorName,
		CreatorWebsite: r.CreatorWebsite,
		Decimals:       uint8(r.Decimals),
		Supply:         r.Supply,
		Logo:           r.Logo,
		Capabilities: Capabilities{
			Freezeable:    r.Freezeable,
			Mintable:      r.Mintable,
			Updateable:    r.Updateable,
			EnableCreator: r.EnableCreator,
		},
	}

	if !r.UsePumpFun {
		return &DirectMintIntent{TokenDetails: details}, nil
	}
	return &BondingCurveIntent{
		TokenDetails:    details,
		DevBuySOL:       r.DevBuyAmount,
		SlippagePercent: r.SlippagePercent,
		PriorityFeeSOL:  r.PriorityFee,
		UseJitoBundling: r.UseJitoBundling,
		SignerAddresses: r.Signers,
	}, nil
}
