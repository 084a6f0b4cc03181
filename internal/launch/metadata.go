package launch

// MetadataExtensions carries the social links of a token.
type MetadataExtensions struct {
	Website  string `json:"website"`
	Twitter  string `json:"twitter"`
	Telegram string `json:"telegram"`
	Discord  string `json:"discord"`
}

type MetadataCreator struct {
	Name string `json:"name"`
	Site string `json:"site"`
}

// MetadataDocument is the off-chain JSON the token metadata URI points to.
type MetadataDocument struct {
	Name        string             `json:"name"`
	Symbol      string             `json:"symbol"`
	Description string             `json:"description"`
	Image       string             `json:"image"`
	Website     string             `json:"website"`
	Extensions  MetadataExtensions `json:"extensions"`
	Creator     *MetadataCreator   `json:"creator,omitempty"`
}

// NewMetadataDocument describes d with imageURI as its logo. The creator
// block is only set when EnableCreator is on.
func NewMetadataDocument(d *TokenDetails, imageURI string) MetadataDocument {
	doc := MetadataDocument{
		Name:        d.Name,
		Symbol:      d.Symbol,
		Description: d.Description,
		Image:       imageURI,
		Website:     d.Links.Website,
		Extensions: MetadataExtensions{
			Website:  d.Links.Website,
			Twitter:  d.Links.Twitter,
			Telegram: d.Links.Telegram,
			Discord:  d.Links.Discord,
		},
	}
	if d.EnableCreator {
		doc.Creator = &MetadataCreator{Name: d.CreatorName, Site: d.CreatorWebsite}
	}
	return doc
}
