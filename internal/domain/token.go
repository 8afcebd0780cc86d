package domain

// TokenPair carries the tokens issued by a refresh decision. Refresh is empty
// when the decision was to reuse the stored refresh token.
type TokenPair struct {
	Access  string `json:"access,omitempty"`
	Refresh string `json:"refresh,omitempty"`
}
