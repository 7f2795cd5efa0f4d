package domain

type Config struct {
	FQDN            string  `yaml:"fqdn"`
	Issuer          string  `yaml:"issuer"`
	SegmentCount    int     `yaml:"segmentCount"`
	DefaultRadiusKm float64 `yaml:"defaultRadiusKm"`
}

// TokenIssuer is the iss claim this node signs and accepts. It falls back to
// the node FQDN.
func (c Config) TokenIssuer() string {
	if c.Issuer != "" {
		return c.Issuer
	}
	return c.FQDN
}
