package matcher

type Config struct {
	DomainPolicy DomainPolicy `envconfig:"FITMATCH_DOMAIN_POLICY" default:"UNMATCHED"`
	MaxWorkers   int          `envconfig:"FITMATCH_MATCH_MAX_WORKERS" default:"8"`
}
